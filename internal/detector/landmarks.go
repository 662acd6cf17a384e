// Package detector provides hand tracking types and the bridge to the external
// MediaPipe hand landmarker.
package detector

import (
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the tracker.
const (
	Left  = "Left"
	Right = "Right"
)

// Joint names a landmark the overlay and the gesture evaluator care about.
type Joint int

const (
	JointThumbTip Joint = iota
	JointIndexBase
	JointIndexTip
	JointMiddleTip
)

// Joints lists the tracked joints in draw order.
var Joints = []Joint{JointIndexTip, JointMiddleTip, JointThumbTip, JointIndexBase}

var jointIndex = map[Joint]int{
	JointThumbTip:  ThumbTip,
	JointIndexBase: IndexPIP,
	JointIndexTip:  IndexTip,
	JointMiddleTip: MiddleTip,
}

var jointName = map[Joint]string{
	JointThumbTip:  "thumb_tip",
	JointIndexBase: "index_base",
	JointIndexTip:  "index_tip",
	JointMiddleTip: "middle_tip",
}

// Index returns the landmark index of the joint in the 21-point topology.
func (j Joint) Index() int {
	idx, ok := jointIndex[j]
	if !ok {
		return -1
	}
	return idx
}

func (j Joint) String() string {
	if name, ok := jointName[j]; ok {
		return name
	}
	return fmt.Sprintf("joint(%d)", int(j))
}

// ValidateJoints checks that every tracked joint fits a topology of the given size.
func ValidateJoints(size int) error {
	for _, j := range Joints {
		idx := j.Index()
		if idx < 0 || idx >= size {
			return fmt.Errorf("joint %s index %d outside topology of %d landmarks", j, idx, size)
		}
	}
	return nil
}

// Point3D represents a normalized landmark position.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Joint returns the position of a tracked joint.
func (h *HandLandmarks) Joint(j Joint) Point3D {
	return h.Points[j.Index()]
}

// Distance returns the 3D Euclidean distance between two landmarks.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Frame is the per-frame view of the tracker output consumed by the overlay
// and the gesture evaluator. Any tracking backend can satisfy it.
type Frame interface {
	NumHands() int
	Landmark(hand, index int) Point3D
	Handedness(hand int) string
}

// Empty reports whether a frame is absent or holds no hands.
func Empty(f Frame) bool {
	return f == nil || f.NumHands() == 0
}

// IsLeft reports whether the hand at the given position is a left hand.
func IsLeft(f Frame, hand int) bool {
	return f.Handedness(hand) == Left
}

// Result is the detector output for one camera frame.
type Result []HandLandmarks

// NumHands returns the number of detected hands.
func (r Result) NumHands() int {
	return len(r)
}

// Landmark returns a landmark of a detected hand.
// Out of range indices panic; the topology guarantees all 21 points.
func (r Result) Landmark(hand, index int) Point3D {
	return r[hand].Points[index]
}

// Handedness returns the handedness label of a detected hand.
func (r Result) Handedness(hand int) string {
	return r[hand].Handedness
}
