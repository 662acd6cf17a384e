package overlay

import "math"

// Segments is the number of perimeter segments used for every circle.
const Segments = 120

// DiscVertexCount is the number of vertices of a filled disc with n segments.
func DiscVertexCount(n int) int { return n + 2 }

// RingVertexCount is the number of vertices of a hollow ring with n segments.
func RingVertexCount(n int) int { return n + 1 }

// Disc appends a triangle fan for a filled circle to dst and returns it.
// The fan holds the centre followed by n+1 perimeter points at angle 2πi/n,
// i = 1..n+1, so the last point closes the fan. Vertices are xyz triples.
func Disc(dst []float32, cx, cy, r float32, n int) []float32 {
	dst = append(dst, cx, cy, 0)
	for i := 1; i < DiscVertexCount(n); i++ {
		dst = appendPerimeter(dst, cx, cy, r, i, n)
	}
	return dst
}

// Ring appends a closed line strip of n+1 perimeter points to dst and returns it.
func Ring(dst []float32, cx, cy, r float32, n int) []float32 {
	for i := 0; i < RingVertexCount(n); i++ {
		dst = appendPerimeter(dst, cx, cy, r, i, n)
	}
	return dst
}

func appendPerimeter(dst []float32, cx, cy, r float32, i, n int) []float32 {
	angle := 2 * math.Pi * float64(i) / float64(n)
	return append(dst,
		cx+r*float32(math.Cos(angle)),
		cy+r*float32(math.Sin(angle)),
		0,
	)
}
