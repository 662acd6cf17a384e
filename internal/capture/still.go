package capture

import (
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

// StillCamera serves copies of a fixed frame. It stands in for a device in
// tests and on machines without a camera.
type StillCamera struct {
	mu    sync.Mutex
	frame gocv.Mat
	open  bool
	reads int
}

// NewStillCamera creates a camera that always returns a copy of frame.
// The camera takes ownership of frame.
func NewStillCamera(frame gocv.Mat) *StillCamera {
	return &StillCamera{frame: frame}
}

// NewBlankCamera creates a still camera producing a uniformly filled BGR frame.
func NewBlankCamera(width, height int, fill color.RGBA) *StillCamera {
	scalar := gocv.NewScalar(float64(fill.B), float64(fill.G), float64(fill.R), 0)
	return NewStillCamera(gocv.NewMatWithSizeFromScalar(scalar, height, width, gocv.MatTypeCV8UC3))
}

func (c *StillCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	return nil
}

// Close stops the camera. The backing frame stays valid until Release.
func (c *StillCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// Release frees the backing frame.
func (c *StillCamera) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return c.frame.Close()
}

func (c *StillCamera) Read() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if c.frame.Empty() {
		return nil, ErrEmptyFrame
	}
	frame := c.frame.Clone()
	c.reads++
	return &frame, nil
}

func (c *StillCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads returns how many frames have been served.
func (c *StillCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
