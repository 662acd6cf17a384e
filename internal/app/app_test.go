package app

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/scrolly/internal/capture"
	"github.com/ayusman/scrolly/internal/detector"
	"github.com/ayusman/scrolly/internal/gesture"
	"github.com/ayusman/scrolly/internal/overlay"
	"github.com/ayusman/scrolly/internal/raster"
)

type signalLog struct {
	mu      sync.Mutex
	signals []gesture.Signal
}

func (l *signalLog) Signal(s gesture.Signal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signals = append(l.signals, s)
}

func (l *signalLog) All() []gesture.Signal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]gesture.Signal(nil), l.signals...)
}

func newTestApp(t *testing.T, hands ...detector.HandLandmarks) (*App, *detector.MockDetector, *signalLog) {
	t.Helper()

	cam := capture.NewBlankCamera(160, 120, color.RGBA{R: 20, G: 20, B: 20, A: 255})
	t.Cleanup(func() { cam.Release() })

	det := detector.NewMockDetector()
	det.SetHands(hands...)
	log := &signalLog{}

	a, err := New(Config{
		Camera:        cam,
		Detector:      det,
		Consumer:      log,
		FrameInterval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a, det, log
}

func newRenderTarget(t *testing.T) (*raster.Surface, *overlay.Renderer) {
	t.Helper()
	s := raster.NewSurface(1, 1)
	t.Cleanup(func() { s.Close() })
	r := overlay.NewRenderer(s, overlay.DefaultStyle(), nil)
	if err := r.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	return s, r
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(Config{Camera: capture.NewDeviceCamera(0, capture.Options{})})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if a.config.FrameInterval != DefaultFrameInterval {
		t.Errorf("FrameInterval = %s", a.config.FrameInterval)
	}
	if a.config.JPEGQuality != DefaultJPEGQuality {
		t.Errorf("JPEGQuality = %d", a.config.JPEGQuality)
	}
	if a.config.Style != overlay.DefaultStyle() {
		t.Error("expected default overlay style")
	}
	if a.IsEnabled() || a.IsRunning() {
		t.Error("new app should be idle")
	}
}

func TestNew_JointTable(t *testing.T) {
	tests := []struct {
		name      string
		landmarks int
		wantErr   bool
	}{
		{"default topology", 0, false},
		{"hand topology", detector.NumLandmarks, false},
		{"middle tip outside", 12, true},
		{"too small", 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(Config{
				Camera:    capture.NewDeviceCamera(0, capture.Options{}),
				Landmarks: tt.landmarks,
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && a != nil {
				t.Error("New() returned an app for a bad joint table")
			}
		})
	}
}

func TestApp_Step(t *testing.T) {
	a, det, log := newTestApp(t, detector.PinchIndexLandmarks())
	surface, renderer := newRenderTarget(t)
	if err := a.config.Camera.Open(); err != nil {
		t.Fatal(err)
	}

	p, err := a.step(surface, renderer)
	if err != nil {
		t.Fatalf("step() error = %v", err)
	}

	if det.Calls() != 1 {
		t.Errorf("detector called %d times", det.Calls())
	}
	if p.Hands != 1 {
		t.Errorf("Hands = %d, want 1", p.Hands)
	}
	if len(p.Triggers) != 1 || p.Triggers[0].Signal != gesture.ScrollUp {
		t.Errorf("Triggers = %+v, want one ScrollUp", p.Triggers)
	}
	if got := log.All(); len(got) != 1 || got[0] != gesture.ScrollUp {
		t.Errorf("consumer received %v", got)
	}

	img, err := jpeg.Decode(bytes.NewReader(p.JPEG))
	if err != nil {
		t.Fatalf("preview is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 120 {
		t.Errorf("preview size %dx%d, want 160x120", b.Dx(), b.Dy())
	}
}

func TestApp_Step_NoHands(t *testing.T) {
	a, _, log := newTestApp(t)
	surface, renderer := newRenderTarget(t)
	a.config.Camera.Open()

	p, err := a.step(surface, renderer)
	if err != nil {
		t.Fatalf("step() error = %v", err)
	}
	if p.Hands != 0 || len(p.Triggers) != 0 {
		t.Errorf("unexpected preview %+v", p)
	}
	if len(log.All()) != 0 {
		t.Error("no signal expected without hands")
	}
	if len(p.JPEG) == 0 {
		t.Error("preview should still carry the frame")
	}
}

func TestApp_Step_Errors(t *testing.T) {
	t.Run("camera closed", func(t *testing.T) {
		a, _, _ := newTestApp(t)
		surface, renderer := newRenderTarget(t)

		if _, err := a.step(surface, renderer); !errors.Is(err, capture.ErrCameraNotOpen) {
			t.Errorf("expected ErrCameraNotOpen, got %v", err)
		}
	})

	t.Run("detector failure", func(t *testing.T) {
		a, det, log := newTestApp(t, detector.PinchIndexLandmarks())
		surface, renderer := newRenderTarget(t)
		a.config.Camera.Open()
		boom := errors.New("tracker crashed")
		det.SetError(boom)

		if _, err := a.step(surface, renderer); !errors.Is(err, boom) {
			t.Errorf("expected detector error, got %v", err)
		}
		if len(log.All()) != 0 {
			t.Error("failed frame must not raise signals")
		}
	})
}

// brokenCanvas draws through the embedded surface but fails to load frames
// or encode previews.
type brokenCanvas struct {
	*raster.Surface
	loadErr   error
	encodeErr error
}

func (c *brokenCanvas) Load(img image.Image) error {
	if c.loadErr != nil {
		return c.loadErr
	}
	return c.Surface.Load(img)
}

func (c *brokenCanvas) EncodeJPEG(w io.Writer, quality int) error {
	if c.encodeErr != nil {
		return c.encodeErr
	}
	return c.Surface.EncodeJPEG(w, quality)
}

func TestApp_Step_PreviewFailureKeepsSignals(t *testing.T) {
	tests := []struct {
		name   string
		canvas func(s *raster.Surface) *brokenCanvas
	}{
		{"load fails", func(s *raster.Surface) *brokenCanvas {
			return &brokenCanvas{Surface: s, loadErr: errors.New("canvas lost")}
		}},
		{"encode fails", func(s *raster.Surface) *brokenCanvas {
			return &brokenCanvas{Surface: s, encodeErr: errors.New("disk full")}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, log := newTestApp(t, detector.PinchIndexLandmarks())
			surface, renderer := newRenderTarget(t)
			a.config.Camera.Open()

			p, err := a.step(tt.canvas(surface), renderer)
			if err != nil {
				t.Fatalf("step() error = %v", err)
			}
			if got := log.All(); len(got) != 1 || got[0] != gesture.ScrollUp {
				t.Errorf("consumer received %v, want [scroll_up]", got)
			}
			if len(p.Triggers) != 1 || p.Hands != 1 {
				t.Errorf("preview = %+v", p)
			}
			if p.JPEG != nil {
				t.Error("failed preview should carry no JPEG")
			}

			a.record(p, err)
			if st := a.Stats(); st.Failed != 0 || st.NoPreview != 1 || st.Triggers != 1 {
				t.Errorf("Stats() = %+v", st)
			}
		})
	}
}

func TestApp_OnToggle(t *testing.T) {
	a, _, _ := newTestApp(t)
	var got []bool
	a.OnToggle(func(enabled bool) { got = append(got, enabled) })

	a.SetEnabled(true)
	a.SetEnabled(true)
	a.SetEnabled(false)

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("listener saw %v, want [true false]", got)
	}
}

func TestApp_StartStop(t *testing.T) {
	a, det, log := newTestApp(t, detector.PinchMiddleLandmarks())
	previews, cancel := a.Subscribe()
	defer cancel()

	a.SetEnabled(true)
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() error = %v, want ErrRunning", err)
	}

	select {
	case p := <-previews:
		if p.Seq == 0 || len(p.JPEG) == 0 {
			t.Errorf("unexpected preview seq=%d jpeg=%d", p.Seq, len(p.JPEG))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no preview published")
	}

	a.Stop()
	if a.IsRunning() {
		t.Error("app still running after Stop")
	}
	if _, ok := <-previews; ok {
		// Drain a preview that raced with Stop.
		if _, ok := <-previews; ok {
			t.Error("subscription not closed by Stop")
		}
	}

	if det.Calls() == 0 {
		t.Error("detector never called")
	}
	for _, s := range log.All() {
		if s != gesture.ScrollDown {
			t.Errorf("unexpected signal %s", s)
		}
	}
	if _, ok := a.Latest(); !ok {
		t.Error("Latest() should hold the last preview")
	}
	if st := a.Stats(); st.Frames == 0 || st.Triggers == 0 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestApp_DisabledSkipsFrames(t *testing.T) {
	a, det, _ := newTestApp(t, detector.OpenPalmLandmarks())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	a.Stop()

	if det.Calls() != 0 {
		t.Errorf("detector called %d times while disabled", det.Calls())
	}
	if _, ok := a.Latest(); ok {
		t.Error("no preview expected while disabled")
	}
}

func TestApp_Unsubscribe(t *testing.T) {
	a, _, _ := newTestApp(t)
	ch, cancel := a.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	a.publish(Preview{Seq: 1})
}
