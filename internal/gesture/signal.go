// Package gesture turns tracked hands into discrete action signals.
package gesture

import (
	"errors"
	"fmt"
)

// ErrUnknownSignal is returned when parsing an unrecognized signal name.
var ErrUnknownSignal = errors.New("unknown signal")

// Signal is a discrete command forwarded to the action consumer.
type Signal int

const (
	ScrollUp Signal = iota
	ScrollDown
	Tap
)

// Signals lists every signal in evaluation order.
var Signals = []Signal{ScrollUp, ScrollDown, Tap}

func (s Signal) String() string {
	switch s {
	case ScrollUp:
		return "scroll_up"
	case ScrollDown:
		return "scroll_down"
	case Tap:
		return "tap"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// ParseSignal converts a signal name back into a Signal.
func ParseSignal(name string) (Signal, error) {
	for _, s := range Signals {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
}

// MarshalText encodes the signal by name.
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a signal name.
func (s *Signal) UnmarshalText(text []byte) error {
	parsed, err := ParseSignal(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
