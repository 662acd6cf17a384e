package action

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/scrolly/internal/gesture"
	"github.com/ayusman/scrolly/internal/plugin"
	"github.com/ayusman/scrolly/internal/store"
)

// BindingSource resolves the binding of a signal. A nil binding means unbound.
type BindingSource interface {
	Get(signal string) (*store.Binding, error)
}

// EventSink records delivered signals.
type EventSink interface {
	Record(e *store.Event) error
}

// PluginSource finds plugins by name.
type PluginSource interface {
	Get(name string) (*plugin.Plugin, error)
}

// Runner executes a plugin request.
type Runner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// Fired describes a signal that passed the gate and was handed to a plugin.
type Fired struct {
	Signal  gesture.Signal
	Binding store.Binding
	Event   store.Event
}

// Config holds the dependencies of a Dispatcher.
// Events and Gate are optional; a nil Gate lets every signal through.
type Config struct {
	Bindings BindingSource
	Plugins  PluginSource
	Runner   Runner
	Events   EventSink
	Gate     *Gate
	Logger   *slog.Logger
}

// Dispatcher is a gesture.Consumer that runs the plugin action bound to each
// signal. Plugins run on their own goroutines so that Signal never blocks the
// frame loop.
type Dispatcher struct {
	config Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	listeners []func(Fired)
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(config Config) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnFire registers fn to be called after every plugin execution.
// Listeners run on the plugin goroutine.
func (d *Dispatcher) OnFire(fn func(Fired)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Signal implements gesture.Consumer.
func (d *Dispatcher) Signal(s gesture.Signal) {
	if d.ctx.Err() != nil {
		return
	}
	if d.config.Gate != nil && !d.config.Gate.Allow(s) {
		return
	}

	b, err := d.config.Bindings.Get(s.String())
	if err != nil {
		d.logger.Error("binding lookup failed", "signal", s, "error", err)
		return
	}
	if b == nil {
		d.logger.Debug("signal not bound", "signal", s)
		return
	}
	if !b.Enabled {
		d.logger.Debug("binding disabled", "signal", s, "plugin", b.PluginName)
		return
	}

	p, err := d.config.Plugins.Get(b.PluginName)
	if err != nil {
		d.logger.Warn("bound plugin unavailable", "signal", s, "plugin", b.PluginName, "error", err)
		return
	}
	if !p.Manifest.Supports(b.ActionName) {
		d.logger.Warn("plugin does not support action", "signal", s, "plugin", b.PluginName, "action", b.ActionName)
		return
	}

	req := &plugin.Request{
		Action: b.ActionName,
		Signal: s.String(),
		Config: b.Config,
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(s, *b, p, req)
	}()
}

func (d *Dispatcher) run(s gesture.Signal, b store.Binding, p *plugin.Plugin, req *plugin.Request) {
	start := time.Now()
	resp, err := d.config.Runner.Execute(d.ctx, p, req)

	event := store.Event{
		Signal:     s.String(),
		PluginName: b.PluginName,
		ActionName: b.ActionName,
		Duration:   time.Since(start),
		CreatedAt:  start.UTC(),
	}
	switch {
	case err != nil:
		event.Error = err.Error()
		d.logger.Error("plugin execution failed", "signal", s, "plugin", b.PluginName, "error", err)
	case !resp.Success:
		event.Error = resp.Error
		d.logger.Warn("plugin reported failure", "signal", s, "plugin", b.PluginName, "error", resp.Error)
	default:
		event.Delivered = true
		d.logger.Info("signal delivered", "signal", s, "plugin", b.PluginName, "action", b.ActionName, "duration", event.Duration)
	}

	if d.config.Events != nil {
		if err := d.config.Events.Record(&event); err != nil {
			d.logger.Error("failed to record event", "signal", s, "error", err)
		}
	}

	d.mu.RLock()
	listeners := d.listeners
	d.mu.RUnlock()
	for _, fn := range listeners {
		fn(Fired{Signal: s, Binding: b, Event: event})
	}
}

// Wait blocks until all running plugin executions have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels running executions, waits for them and drops later signals.
func (d *Dispatcher) Close() error {
	d.cancel()
	d.wg.Wait()
	return nil
}
