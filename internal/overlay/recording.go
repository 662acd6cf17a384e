package overlay

import "errors"

// DrawCall is a draw recorded by RecordingGL.
type DrawCall struct {
	Mode       DrawMode
	Color      Color
	Projection [16]float32
	LineWidth  float32
	Vertices   []float32
}

// RecordingGL is a GL that keeps every draw call in memory instead of
// rasterizing it. Set CompileErr or LinkErr to simulate driver failures.
type RecordingGL struct {
	CompileErr error
	LinkErr    error

	Calls []string
	Draws []DrawCall

	nextName   uint32
	program    uint32
	projection [16]float32
	color      Color
	lineWidth  float32
	vertices   []float32
}

// NewRecordingGL creates an empty RecordingGL.
func NewRecordingGL() *RecordingGL {
	return &RecordingGL{}
}

// Reset forgets the recorded calls.
func (g *RecordingGL) Reset() {
	g.Calls = nil
	g.Draws = nil
}

func (g *RecordingGL) record(name string) {
	g.Calls = append(g.Calls, name)
}

func (g *RecordingGL) CompileShader(typ ShaderType, source string) (uint32, error) {
	g.record("CompileShader")
	if g.CompileErr != nil {
		return 0, g.CompileErr
	}
	if source == "" {
		return 0, errors.New("empty shader source")
	}
	g.nextName++
	return g.nextName, nil
}

func (g *RecordingGL) LinkProgram(shaders ...uint32) (uint32, error) {
	g.record("LinkProgram")
	if g.LinkErr != nil {
		return 0, g.LinkErr
	}
	g.nextName++
	return g.nextName, nil
}

func (g *RecordingGL) AttribLocation(program uint32, name string) int32 {
	g.record("AttribLocation")
	return 0
}

func (g *RecordingGL) UniformLocation(program uint32, name string) int32 {
	g.record("UniformLocation")
	switch name {
	case UniformProjector:
		return 1
	case UniformColor:
		return 2
	default:
		return -1
	}
}

func (g *RecordingGL) UseProgram(program uint32) {
	g.record("UseProgram")
	g.program = program
}

func (g *RecordingGL) UniformMatrix4fv(location int32, m [16]float32) {
	g.record("UniformMatrix4fv")
	g.projection = m
}

func (g *RecordingGL) Uniform4fv(location int32, v [4]float32) {
	g.record("Uniform4fv")
	g.color = v
}

func (g *RecordingGL) LineWidth(width float32) {
	g.record("LineWidth")
	g.lineWidth = width
}

func (g *RecordingGL) VertexAttribPointer(location int32, size int, vertices []float32) {
	g.record("VertexAttribPointer")
	g.vertices = vertices
}

func (g *RecordingGL) DrawArrays(mode DrawMode, first, count int) {
	g.record("DrawArrays")
	v := make([]float32, 3*count)
	copy(v, g.vertices[3*first:])
	g.Draws = append(g.Draws, DrawCall{
		Mode:       mode,
		Color:      g.color,
		Projection: g.projection,
		LineWidth:  g.lineWidth,
		Vertices:   v,
	})
}
