// Package action delivers gesture signals to plugins bound in the store.
package action

import (
	"sync"

	"github.com/ayusman/scrolly/internal/gesture"
)

// Countdown values of the gate. A held pose raises a signal every frame;
// the gate lets the first one through only after a warm-up and then one in
// every Rearm+1 frames.
const (
	ScrollWarmup = 60
	TapWarmup    = 40
	Rearm        = 5
)

// Gate is a per-signal countdown throttle.
type Gate struct {
	mu      sync.Mutex
	warmup  map[gesture.Signal]int
	rearm   int
	counter map[gesture.Signal]int
}

// NewGate creates a gate with the default countdowns.
func NewGate() *Gate {
	return NewGateWith(map[gesture.Signal]int{
		gesture.ScrollUp:   ScrollWarmup,
		gesture.ScrollDown: ScrollWarmup,
		gesture.Tap:        TapWarmup,
	}, Rearm)
}

// NewGateWith creates a gate with custom warm-up counts and rearm value.
// Signals missing from warmup fire immediately.
func NewGateWith(warmup map[gesture.Signal]int, rearm int) *Gate {
	g := &Gate{
		warmup:  make(map[gesture.Signal]int, len(warmup)),
		rearm:   rearm,
		counter: make(map[gesture.Signal]int, len(warmup)),
	}
	for s, n := range warmup {
		g.warmup[s] = n
		g.counter[s] = n
	}
	return g
}

// Allow counts one occurrence of s and reports whether it should fire.
func (g *Gate) Allow(s gesture.Signal) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.counter[s] == 0 {
		g.counter[s] = g.rearm
		return true
	}
	g.counter[s]--
	return false
}

// Remaining returns how many more occurrences of s are swallowed before it fires.
func (g *Gate) Remaining(s gesture.Signal) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter[s]
}

// Reset restores the warm-up counts.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for s, n := range g.warmup {
		g.counter[s] = n
	}
}
