// Package tray puts detection controls in the system tray.
package tray

import (
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/scrolly/internal/gesture"
)

// Handlers are invoked from the tray's event goroutine. Any may be nil.
type Handlers struct {
	Toggle       func(enabled bool)
	OpenSettings func()
	ResetGate    func()
	Quit         func()
}

// Tray is the system tray menu.
type Tray struct {
	handlers Handlers

	mu      sync.Mutex
	enabled bool
	last    string

	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a Tray showing the given initial detection state.
func New(enabled bool, handlers Handlers) *Tray {
	return &Tray{
		handlers: handlers,
		enabled:  enabled,
		last:     lastTitle("", time.Time{}),
	}
}

// Run shows the tray and blocks until Quit is chosen or systray.Quit is called.
// It must be called from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Stop removes the tray icon and makes Run return.
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Scrolly")
	systray.SetTooltip("Pinch to scroll and tap")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle pinch detection")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(t.last, "Last delivered signal")
	t.menuLast.Disable()
	t.mu.Unlock()

	menuReset := systray.AddMenuItem("Rearm signals", "Restart the hold countdown for every signal")
	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Scrolly")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.toggle()
			case <-menuReset.ClickedCh:
				call(t.handlers.ResetGate)
			case <-menuSettings.ClickedCh:
				call(t.handlers.OpenSettings)
			case <-menuQuit.ClickedCh:
				call(t.handlers.Quit)
				systray.Quit()
				return
			}
		}
	}()
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

// toggle flips the detection state and reports it to the Toggle handler.
func (t *Tray) toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	t.mu.Unlock()

	if t.handlers.Toggle != nil {
		t.handlers.Toggle(enabled)
	}
}

// SetEnabled updates the toggle without invoking the handler.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the state shown by the toggle.
func (t *Tray) IsEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetLastSignal shows the most recently delivered signal.
func (t *Tray) SetLastSignal(s gesture.Signal, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = lastTitle(s.String(), at)
	if t.menuLast != nil {
		t.menuLast.SetTitle(t.last)
	}
}

// LastSignal returns the text of the last-signal menu entry.
func (t *Tray) LastSignal() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(signal string, at time.Time) string {
	if signal == "" {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %s at %s", signal, at.Format("15:04:05"))
}
