// Package app runs the camera loop that draws the hand overlay and turns
// pinch poses into signals.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/scrolly/internal/capture"
	"github.com/ayusman/scrolly/internal/detector"
	"github.com/ayusman/scrolly/internal/gesture"
	"github.com/ayusman/scrolly/internal/overlay"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultFrameInterval = time.Second / 15
	DefaultJPEGQuality   = 75
)

// ErrRunning is returned by Start when the loop is already running.
var ErrRunning = errors.New("pipeline already running")

// Config holds the collaborators of an App.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Consumer receives every signal raised by a frame. It may be nil.
	Consumer      gesture.Consumer
	Style         overlay.Style
	FrameInterval time.Duration
	// Landmarks is the size of the detector's landmark topology. Zero means
	// detector.NumLandmarks.
	Landmarks   int
	JPEGQuality int
	Logger      *slog.Logger
}

// Preview is the outcome of one processed frame.
type Preview struct {
	Seq      uint64
	At       time.Time
	Hands    int
	Triggers []gesture.Trigger
	// JPEG is the camera frame with the overlay drawn on top.
	JPEG []byte
}

// Stats counts frames handled by the loop. NoPreview counts frames whose
// signals were evaluated but whose overlay preview could not be produced.
type Stats struct {
	Frames    uint64    `json:"frames"`
	Failed    uint64    `json:"failed"`
	NoPreview uint64    `json:"noPreview"`
	Triggers  uint64    `json:"triggers"`
	LastHand  time.Time `json:"lastHand"`
}

// App owns the frame loop.
type App struct {
	config    Config
	logger    *slog.Logger
	evaluator *gesture.Evaluator

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	stats   Stats
	latest  *Preview

	subMu  sync.Mutex
	subs   map[int]chan Preview
	nextID int

	toggleMu  sync.Mutex
	onToggles []func(enabled bool)
}

// New creates an App. Detection starts disabled. It fails when a tracked
// joint falls outside the landmark topology.
func New(config Config) (*App, error) {
	if config.Landmarks == 0 {
		config.Landmarks = detector.NumLandmarks
	}
	if err := detector.ValidateJoints(config.Landmarks); err != nil {
		return nil, fmt.Errorf("joint table: %w", err)
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultFrameInterval
	}
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = DefaultJPEGQuality
	}
	if config.Style == (overlay.Style{}) {
		config.Style = overlay.DefaultStyle()
	}

	return &App{
		config:    config,
		logger:    config.Logger,
		evaluator: gesture.NewEvaluator(config.Consumer, config.Logger),
		subs:      make(map[int]chan Preview),
	}, nil
}

// SetEnabled enables or disables detection. A disabled loop keeps running
// but skips frames.
// Listeners registered with OnToggle are called when the state changes.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if !changed {
		return
	}
	a.logger.Info("detection toggled", "enabled", enabled)

	a.toggleMu.Lock()
	listeners := append([]func(bool){}, a.onToggles...)
	a.toggleMu.Unlock()
	for _, fn := range listeners {
		fn(enabled)
	}
}

// OnToggle registers fn to be called after detection is enabled or disabled.
func (a *App) OnToggle(fn func(enabled bool)) {
	a.toggleMu.Lock()
	defer a.toggleMu.Unlock()
	a.onToggles = append(a.onToggles, fn)
}

// IsEnabled reports whether detection is enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether the frame loop is running.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Start opens the camera and launches the frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return ErrRunning
	}
	if err := a.config.Camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh)

	a.logger.Info("pipeline started", "interval", a.config.FrameInterval)
	return nil
}

// Stop halts the loop, waits for it to exit and releases the camera and
// detector. Subscriber channels are closed.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if err := a.config.Camera.Close(); err != nil {
		a.logger.Error("closing camera", "error", err)
	}
	if a.config.Detector != nil {
		if err := a.config.Detector.Close(); err != nil {
			a.logger.Error("closing detector", "error", err)
		}
	}

	a.subMu.Lock()
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	a.subMu.Unlock()

	a.logger.Info("pipeline stopped")
}

// Stats returns a snapshot of the frame counters.
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// Latest returns the most recent preview, if any.
func (a *App) Latest() (Preview, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest == nil {
		return Preview{}, false
	}
	return *a.latest, true
}

// Subscribe returns a channel receiving every new preview and a function
// that cancels the subscription. Slow subscribers miss previews rather than
// stall the loop.
func (a *App) Subscribe() (<-chan Preview, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextID
	a.nextID++
	ch := make(chan Preview, 1)
	a.subs[id] = ch

	return ch, func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		if c, ok := a.subs[id]; ok {
			close(c)
			delete(a.subs, id)
		}
	}
}

func (a *App) publish(p Preview) {
	a.mu.Lock()
	a.latest = &p
	a.mu.Unlock()

	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- p:
		default:
		}
	}
}
