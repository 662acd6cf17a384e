// Package capture reads video frames from a camera device using GoCV.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultFPS    = 15
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device produced no image.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Camera is a source of video frames.
// The caller owns every Mat returned by Read and must close it.
type Camera interface {
	Open() error
	Close() error
	Read() (*gocv.Mat, error)
	IsOpen() bool
}

// Options configures a device camera.
type Options struct {
	Width  int
	Height int
	FPS    int
}

// DeviceCamera captures from a local video device.
type DeviceCamera struct {
	deviceID int
	options  Options

	mu      sync.Mutex
	capture *gocv.VideoCapture
}

// NewDeviceCamera creates a camera for the given device. Zero options take
// the defaults.
func NewDeviceCamera(deviceID int, options Options) *DeviceCamera {
	if options.Width <= 0 {
		options.Width = DefaultWidth
	}
	if options.Height <= 0 {
		options.Height = DefaultHeight
	}
	if options.FPS <= 0 {
		options.FPS = DefaultFPS
	}
	return &DeviceCamera{deviceID: deviceID, options: options}
}

// Options returns the effective capture options.
func (c *DeviceCamera) Options() Options {
	return c.options
}

// Open starts capturing. Opening an open camera is a no-op.
func (c *DeviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.options.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.options.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.options.FPS))

	c.capture = capture
	return nil
}

// Close releases the device.
func (c *DeviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

// Read grabs the next frame.
func (c *DeviceCamera) Read() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("read from camera %d failed", c.deviceID)
	}
	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}
	return &mat, nil
}

// IsOpen reports whether the device is capturing.
func (c *DeviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
