package overlay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ayusman/scrolly/internal/detector"
)

// ErrNotSetUp is returned when drawing before Setup has linked the program.
var ErrNotSetUp = errors.New("overlay renderer not set up")

// Color is an RGBA colour with components in [0, 1].
type Color [4]float32

// Style holds the fixed look of the overlay.
type Style struct {
	LeftDisc   Color
	RightDisc  Color
	LeftRing   Color
	RightRing  Color
	DiscRadius float32
	RingRadius float32
	LineWidth  float32
}

// DefaultStyle returns the overlay look: small discs inside slightly larger rings,
// with the disc and ring colours swapped between hands.
func DefaultStyle() Style {
	return Style{
		LeftDisc:   Color{1, 0.2, 0.2, 1},
		RightDisc:  Color{0.2, 1, 0.2, 1},
		LeftRing:   Color{0.2, 1, 0.2, 1},
		RightRing:  Color{1, 0.2, 0.2, 1},
		DiscRadius: 0.008,
		RingRadius: 0.01,
		LineWidth:  20,
	}
}

// Renderer draws a disc and a ring on every tracked joint of every hand.
type Renderer struct {
	gl     GL
	style  Style
	logger *slog.Logger

	ready      bool
	warned     bool
	program    uint32
	position   int32
	projection int32
	color      int32

	disc []float32
	ring []float32
}

// NewRenderer creates a Renderer bound to a GL context.
func NewRenderer(gl GL, style Style, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		gl:     gl,
		style:  style,
		logger: logger,
		disc:   make([]float32, 0, 3*DiscVertexCount(Segments)),
		ring:   make([]float32, 0, 3*RingVertexCount(Segments)),
	}
}

// Setup compiles and links the flat-colour program and resolves its handles.
// It must run once on the GL thread before Render.
func (r *Renderer) Setup() error {
	vs, err := r.gl.CompileShader(VertexShader, vertexShaderSource)
	if err != nil {
		return fmt.Errorf("compile vertex shader: %w", err)
	}
	fs, err := r.gl.CompileShader(FragmentShader, fragmentShaderSource)
	if err != nil {
		return fmt.Errorf("compile fragment shader: %w", err)
	}
	program, err := r.gl.LinkProgram(vs, fs)
	if err != nil {
		return fmt.Errorf("link overlay program: %w", err)
	}

	r.program = program
	r.position = r.gl.AttribLocation(program, AttribPosition)
	r.projection = r.gl.UniformLocation(program, UniformProjector)
	r.color = r.gl.UniformLocation(program, UniformColor)
	r.ready = true
	return nil
}

// Render draws the markers for a frame. The projection is a column-major 4x4
// matrix mapping normalized landmark coordinates to clip space.
// Absent or empty frames draw nothing.
func (r *Renderer) Render(f detector.Frame, projection [16]float32) {
	if detector.Empty(f) {
		return
	}
	if !r.ready {
		if !r.warned {
			r.warned = true
			r.logger.Warn("skipping overlay", "error", ErrNotSetUp)
		} else {
			r.logger.Debug("skipping overlay", "error", ErrNotSetUp)
		}
		return
	}

	r.gl.UseProgram(r.program)
	r.gl.UniformMatrix4fv(r.projection, projection)
	r.gl.LineWidth(r.style.LineWidth)

	for hand := 0; hand < f.NumHands(); hand++ {
		disc, ring := r.style.RightDisc, r.style.RightRing
		if detector.IsLeft(f, hand) {
			disc, ring = r.style.LeftDisc, r.style.LeftRing
		}

		for _, j := range detector.Joints {
			p := f.Landmark(hand, j.Index())
			x, y := float32(p.X), float32(p.Y)

			r.disc = Disc(r.disc[:0], x, y, r.style.DiscRadius, Segments)
			r.draw(TriangleFan, disc, r.disc)

			r.ring = Ring(r.ring[:0], x, y, r.style.RingRadius, Segments)
			r.draw(LineStrip, ring, r.ring)
		}
	}
}

func (r *Renderer) draw(mode DrawMode, c Color, vertices []float32) {
	r.gl.Uniform4fv(r.color, c)
	r.gl.VertexAttribPointer(r.position, 3, vertices)
	r.gl.DrawArrays(mode, 0, len(vertices)/3)
}
