package gesture

import (
	"log/slog"

	"github.com/ayusman/scrolly/internal/detector"
)

// Trigger thresholds, in normalized landmark units. They were tuned by hand on
// device and are kept apart even where the values coincide.
const (
	// ScrollUpThreshold bounds the index tip to thumb tip pinch.
	ScrollUpThreshold = 0.050906282163080734
	// ScrollDownThreshold bounds the middle tip to thumb tip pinch.
	ScrollDownThreshold = 0.050906282163080734
	// TapThreshold bounds the index tip to index base fold.
	TapThreshold = 0.05075614680255601
)

// Measurements holds the three distances evaluated for a hand.
type Measurements struct {
	IndexFold   float64 `json:"index_fold"`   // index tip to index base
	IndexPinch  float64 `json:"index_pinch"`  // index tip to thumb tip
	MiddlePinch float64 `json:"middle_pinch"` // middle tip to thumb tip
}

// Trigger is a signal raised by one hand in one frame.
type Trigger struct {
	Hand       int     `json:"hand"`
	Handedness string  `json:"handedness"`
	Signal     Signal  `json:"signal"`
	Distance   float64 `json:"distance"`
}

// Consumer receives signals. Implementations must not block the frame loop
// for long; delivery is synchronous.
type Consumer interface {
	Signal(s Signal)
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(s Signal)

// Signal calls f(s).
func (f ConsumerFunc) Signal(s Signal) { f(s) }

// Measure computes the gesture distances for one hand of a frame.
func Measure(f detector.Frame, hand int) Measurements {
	at := func(j detector.Joint) detector.Point3D {
		return f.Landmark(hand, j.Index())
	}
	indexTip := at(detector.JointIndexTip)
	thumbTip := at(detector.JointThumbTip)

	return Measurements{
		IndexFold:   detector.Distance(indexTip, at(detector.JointIndexBase)),
		IndexPinch:  detector.Distance(indexTip, thumbTip),
		MiddlePinch: detector.Distance(at(detector.JointMiddleTip), thumbTip),
	}
}

// Evaluate returns the triggers raised by every hand in the frame.
// Checks are independent: one hand may raise several signals.
func Evaluate(f detector.Frame) []Trigger {
	if detector.Empty(f) {
		return nil
	}

	var triggers []Trigger
	for hand := 0; hand < f.NumHands(); hand++ {
		m := Measure(f, hand)
		raise := func(s Signal, distance, threshold float64) {
			if distance < threshold {
				triggers = append(triggers, Trigger{
					Hand:       hand,
					Handedness: f.Handedness(hand),
					Signal:     s,
					Distance:   distance,
				})
			}
		}
		raise(ScrollUp, m.IndexPinch, ScrollUpThreshold)
		raise(ScrollDown, m.MiddlePinch, ScrollDownThreshold)
		raise(Tap, m.IndexFold, TapThreshold)
	}
	return triggers
}

// Evaluator evaluates frames and forwards the resulting signals to a consumer.
type Evaluator struct {
	consumer Consumer
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator. A nil consumer is allowed: frames are
// still evaluated and the signals are dropped.
func NewEvaluator(consumer Consumer, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if consumer == nil {
		logger.Warn("no action consumer; gesture signals will be dropped")
	}
	return &Evaluator{consumer: consumer, logger: logger}
}

// Process evaluates a frame, delivers its signals and returns the triggers.
func (e *Evaluator) Process(f detector.Frame) []Trigger {
	triggers := Evaluate(f)
	for _, t := range triggers {
		if e.consumer == nil {
			e.logger.Debug("signal dropped", "signal", t.Signal, "hand", t.Handedness)
			continue
		}
		e.logger.Debug("signal", "signal", t.Signal, "hand", t.Handedness, "distance", t.Distance)
		e.consumer.Signal(t.Signal)
	}
	return triggers
}
