// Package overlay draws tracked-hand markers through an immediate-mode GL API.
package overlay

// ShaderType selects the pipeline stage a shader is compiled for.
type ShaderType int

const (
	VertexShader ShaderType = iota
	FragmentShader
)

// DrawMode is the primitive assembly mode of a draw call.
type DrawMode int

const (
	TriangleFan DrawMode = iota
	LineStrip
)

func (m DrawMode) String() string {
	switch m {
	case TriangleFan:
		return "triangle_fan"
	case LineStrip:
		return "line_strip"
	default:
		return "unknown"
	}
}

// GL is the subset of OpenGL ES 2.0 the overlay needs. Implementations bind
// it to whatever context the host provides; all calls happen on the thread
// that owns that context.
type GL interface {
	CompileShader(typ ShaderType, source string) (uint32, error)
	LinkProgram(shaders ...uint32) (uint32, error)
	AttribLocation(program uint32, name string) int32
	UniformLocation(program uint32, name string) int32

	UseProgram(program uint32)
	UniformMatrix4fv(location int32, m [16]float32)
	Uniform4fv(location int32, v [4]float32)
	LineWidth(width float32)

	// VertexAttribPointer uploads tightly packed vertices with size
	// components each.
	VertexAttribPointer(location int32, size int, vertices []float32)
	DrawArrays(mode DrawMode, first, count int)
}

const vertexShaderSource = `uniform mat4 uProjectionMatrix;
attribute vec4 vPosition;
void main() {
  gl_Position = uProjectionMatrix * vPosition;
}`

const fragmentShaderSource = `precision mediump float;
uniform vec4 uColor;
void main() {
  gl_FragColor = uColor;
}`

// Attribute and uniform names of the flat-colour program.
const (
	AttribPosition   = "vPosition"
	UniformProjector = "uProjectionMatrix"
	UniformColor     = "uColor"
)

// ShaderSources returns the vertex and fragment shader of the flat-colour program.
func ShaderSources() (vertex, fragment string) {
	return vertexShaderSource, fragmentShaderSource
}
