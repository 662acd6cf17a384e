package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a Detector whose output is set by the caller.
type MockDetector struct {
	mu    sync.Mutex
	hands Result
	err   error
	calls int
}

// NewMockDetector creates a MockDetector that reports no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by Detect.
func (m *MockDetector) SetHands(hands ...HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = Result(hands)
}

// SetError sets the error returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// OpenPalmLandmarks returns a right hand with every finger spread.
// No pinch or fold is within trigger range.
func OpenPalmLandmarks() HandLandmarks {
	h := HandLandmarks{Handedness: Right, Score: 0.95}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	h.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	h.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	h.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	h.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	h.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	h.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	h.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	h.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	h.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	h.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	h.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	h.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	h.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	h.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	h.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return h
}

// PinchIndexLandmarks returns an open palm with the thumb tip touching the index tip.
func PinchIndexLandmarks() HandLandmarks {
	h := OpenPalmLandmarks()
	h.Points[ThumbTip] = h.Points[IndexTip]
	return h
}

// PinchMiddleLandmarks returns an open palm with the thumb tip touching the middle tip.
func PinchMiddleLandmarks() HandLandmarks {
	h := OpenPalmLandmarks()
	h.Points[ThumbTip] = h.Points[MiddleTip]
	return h
}

// FoldIndexLandmarks returns an open palm with the index finger curled so its
// tip rests next to the PIP joint.
func FoldIndexLandmarks() HandLandmarks {
	h := OpenPalmLandmarks()
	h.Points[IndexDIP] = Point3D{X: 0.59, Y: 0.50, Z: -0.03}
	h.Points[IndexTip] = Point3D{X: 0.575, Y: 0.58, Z: -0.02}
	return h
}

// WithHandedness returns a copy of the hand with a different handedness label.
func WithHandedness(h HandLandmarks, handedness string) HandLandmarks {
	h.Handedness = handedness
	return h
}
