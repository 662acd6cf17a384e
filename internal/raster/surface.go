// Package raster implements the overlay GL contract on a CPU canvas so that
// overlays can be composited onto camera frames without a GPU context.
package raster

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"

	"github.com/ayusman/scrolly/internal/overlay"
)

// ErrUnsupportedShader is returned for shader sources other than the overlay's
// flat-colour program.
var ErrUnsupportedShader = errors.New("unsupported shader source")

const (
	locPosition int32 = iota
	locProjection
	locColor
)

// Surface is an overlay.GL that rasterizes into a gg canvas.
// It understands exactly one program: a projection-matrix vertex shader with
// a flat-colour fragment shader.
type Surface struct {
	dc *gg.Context

	shaders  map[uint32]overlay.ShaderType
	programs map[uint32]bool
	nextName uint32

	program    uint32
	projection mgl32.Mat4
	color      overlay.Color
	lineWidth  float32
	vertices   []float32
	size       int

	err error
}

// NewSurface creates a transparent surface of the given size.
func NewSurface(width, height int) *Surface {
	return newSurface(gg.NewContext(width, height))
}

// NewSurfaceForImage creates a surface that draws over a copy of img.
func NewSurfaceForImage(img image.Image) *Surface {
	return newSurface(gg.NewContextForImage(img))
}

func newSurface(dc *gg.Context) *Surface {
	return &Surface{
		dc:         dc,
		shaders:    make(map[uint32]overlay.ShaderType),
		programs:   make(map[uint32]bool),
		projection: mgl32.Ident4(),
		lineWidth:  1,
	}
}

// Load replaces the canvas with a copy of img. Compiled shaders, the bound
// program and uniforms survive, so a renderer set up once can draw over
// successive frames.
func (s *Surface) Load(img image.Image) error {
	if err := s.dc.Close(); err != nil {
		return err
	}
	s.dc = gg.NewContextForImage(img)
	return nil
}

// OrthoProjection maps normalized image coordinates, origin at the top-left
// corner, onto clip space.
func OrthoProjection() [16]float32 {
	return [16]float32(mgl32.Ortho(0, 1, 1, 0, -1, 1))
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.dc.Width() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.dc.Height() }

// Image returns the rendered image.
func (s *Surface) Image() image.Image { return s.dc.Image() }

// EncodeJPEG writes the surface as a JPEG image.
func (s *Surface) EncodeJPEG(w io.Writer, quality int) error {
	return s.dc.EncodeJPEG(w, quality)
}

// EncodePNG writes the surface as a PNG image.
func (s *Surface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}

// Err returns and clears the first error raised by a draw call.
func (s *Surface) Err() error {
	err := s.err
	s.err = nil
	return err
}

// Close releases the canvas.
func (s *Surface) Close() error {
	return s.dc.Close()
}

func (s *Surface) CompileShader(typ overlay.ShaderType, source string) (uint32, error) {
	vertex, fragment := overlay.ShaderSources()
	switch {
	case typ == overlay.VertexShader && source == vertex:
	case typ == overlay.FragmentShader && source == fragment:
	default:
		return 0, ErrUnsupportedShader
	}
	s.nextName++
	s.shaders[s.nextName] = typ
	return s.nextName, nil
}

func (s *Surface) LinkProgram(shaders ...uint32) (uint32, error) {
	var haveVertex, haveFragment bool
	for _, name := range shaders {
		typ, ok := s.shaders[name]
		if !ok {
			return 0, fmt.Errorf("link: unknown shader %d", name)
		}
		haveVertex = haveVertex || typ == overlay.VertexShader
		haveFragment = haveFragment || typ == overlay.FragmentShader
	}
	if !haveVertex || !haveFragment {
		return 0, errors.New("link: program needs a vertex and a fragment shader")
	}
	s.nextName++
	s.programs[s.nextName] = true
	return s.nextName, nil
}

func (s *Surface) AttribLocation(program uint32, name string) int32 {
	if name == overlay.AttribPosition {
		return locPosition
	}
	return -1
}

func (s *Surface) UniformLocation(program uint32, name string) int32 {
	switch name {
	case overlay.UniformProjector:
		return locProjection
	case overlay.UniformColor:
		return locColor
	default:
		return -1
	}
}

func (s *Surface) UseProgram(program uint32) {
	if !s.programs[program] {
		s.setErr(fmt.Errorf("use program: unknown program %d", program))
		return
	}
	s.program = program
}

func (s *Surface) UniformMatrix4fv(location int32, m [16]float32) {
	if location == locProjection {
		s.projection = mgl32.Mat4(m)
	}
}

func (s *Surface) Uniform4fv(location int32, v [4]float32) {
	if location == locColor {
		s.color = v
	}
}

func (s *Surface) LineWidth(width float32) {
	s.lineWidth = width
}

func (s *Surface) VertexAttribPointer(location int32, size int, vertices []float32) {
	if location != locPosition {
		return
	}
	s.size = size
	s.vertices = vertices
}

func (s *Surface) DrawArrays(mode overlay.DrawMode, first, count int) {
	if s.program == 0 {
		s.setErr(errors.New("draw: no program in use"))
		return
	}
	if s.size < 2 || (first+count)*s.size > len(s.vertices) || count < 2 {
		s.setErr(fmt.Errorf("draw: %d vertices from %d out of range", count, first))
		return
	}

	c := s.color
	s.dc.SetRGBA(float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3]))
	s.dc.ClearPath()
	for i := first; i < first+count; i++ {
		x, y := s.toPixel(i)
		if i == first {
			s.dc.MoveTo(x, y)
		} else {
			s.dc.LineTo(x, y)
		}
	}

	switch mode {
	case overlay.TriangleFan:
		s.dc.ClosePath()
		s.setErr(s.dc.Fill())
	case overlay.LineStrip:
		s.dc.SetLineWidth(float64(s.lineWidth))
		s.setErr(s.dc.Stroke())
	default:
		s.dc.ClearPath()
		s.setErr(fmt.Errorf("draw: unsupported mode %s", mode))
	}
}

// toPixel projects vertex i through the projection matrix into pixel space.
func (s *Surface) toPixel(i int) (float64, float64) {
	v := mgl32.Vec4{0, 0, 0, 1}
	for k := 0; k < s.size && k < 3; k++ {
		v[k] = s.vertices[i*s.size+k]
	}

	clip := s.projection.Mul4x1(v)
	w := clip.W()
	if w == 0 {
		w = 1
	}
	ndcX, ndcY := clip.X()/w, clip.Y()/w

	x := float64(ndcX+1) / 2 * float64(s.dc.Width())
	y := float64(1-ndcY) / 2 * float64(s.dc.Height())
	return x, y
}

func (s *Surface) setErr(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}
