package gesture

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ayusman/scrolly/internal/detector"
)

// recorder collects delivered signals.
type recorder struct {
	got []Signal
}

func (r *recorder) Signal(s Signal) { r.got = append(r.got, s) }

func signalsOf(triggers []Trigger) []Signal {
	var out []Signal
	for _, t := range triggers {
		out = append(out, t.Signal)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		frame detector.Frame
		want  []Signal
	}{
		{"nil frame", nil, nil},
		{"no hands", detector.Result{}, nil},
		{"open palm", detector.Result{detector.OpenPalmLandmarks()}, nil},
		{"index pinch", detector.Result{detector.PinchIndexLandmarks()}, []Signal{ScrollUp}},
		{"middle pinch", detector.Result{detector.PinchMiddleLandmarks()}, []Signal{ScrollDown}},
		{"index fold", detector.Result{detector.FoldIndexLandmarks()}, []Signal{Tap}},
		{
			"two hands each raise their own signal",
			detector.Result{
				detector.WithHandedness(detector.PinchIndexLandmarks(), detector.Left),
				detector.PinchMiddleLandmarks(),
			},
			[]Signal{ScrollUp, ScrollDown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signalsOf(Evaluate(tt.frame))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate() signals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluate_NonExclusive(t *testing.T) {
	// Middle tip and thumb tip meet while the index is folded.
	hand := detector.FoldIndexLandmarks()
	hand.Points[detector.ThumbTip] = hand.Points[detector.MiddleTip]

	got := Evaluate(detector.Result{hand})
	want := []Trigger{
		{Hand: 0, Handedness: detector.Right, Signal: ScrollDown},
		{Hand: 0, Handedness: detector.Right, Signal: Tap},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Trigger{}, "Distance")); diff != "" {
		t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_TwoHandsReportOwners(t *testing.T) {
	frame := detector.Result{
		detector.WithHandedness(detector.FoldIndexLandmarks(), detector.Left),
		detector.PinchIndexLandmarks(),
	}

	got := Evaluate(frame)
	want := []Trigger{
		{Hand: 0, Handedness: detector.Left, Signal: Tap},
		{Hand: 1, Handedness: detector.Right, Signal: ScrollUp, Distance: 0},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Trigger{}, "Distance")); diff != "" {
		t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
	}
	if got[1].Distance != 0 {
		t.Errorf("coincident tips should measure 0, got %f", got[1].Distance)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	frame := detector.Result{detector.PinchIndexLandmarks(), detector.FoldIndexLandmarks()}

	first := Evaluate(frame)
	second := Evaluate(frame)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated evaluation differs (-first +second):\n%s", diff)
	}
}

func TestEvaluate_ThresholdIsStrict(t *testing.T) {
	hand := detector.OpenPalmLandmarks()
	tip := hand.Points[detector.IndexTip]
	hand.Points[detector.ThumbTip] = detector.Point3D{X: tip.X + ScrollUpThreshold, Y: tip.Y, Z: tip.Z}

	m := Measure(detector.Result{hand}, 0)
	if m.IndexPinch < ScrollUpThreshold {
		t.Skipf("float rounding put pinch below threshold: %v", m.IndexPinch)
	}
	if got := Evaluate(detector.Result{hand}); len(got) != 0 {
		t.Errorf("distance equal to threshold should not trigger, got %v", signalsOf(got))
	}
}

func TestMeasure(t *testing.T) {
	hand := detector.OpenPalmLandmarks()
	m := Measure(detector.Result{hand}, 0)

	want := Measurements{
		IndexFold:   detector.Distance(hand.Points[detector.IndexTip], hand.Points[detector.IndexPIP]),
		IndexPinch:  detector.Distance(hand.Points[detector.IndexTip], hand.Points[detector.ThumbTip]),
		MiddlePinch: detector.Distance(hand.Points[detector.MiddleTip], hand.Points[detector.ThumbTip]),
	}
	if m != want {
		t.Errorf("Measure() = %+v, want %+v", m, want)
	}
}

func TestThresholds(t *testing.T) {
	if TapThreshold >= ScrollUpThreshold {
		t.Errorf("tap threshold %v should be below the pinch threshold %v", TapThreshold, ScrollUpThreshold)
	}
}

func TestEvaluator_Process(t *testing.T) {
	t.Run("delivers signals to consumer", func(t *testing.T) {
		rec := &recorder{}
		e := NewEvaluator(rec, nil)

		triggers := e.Process(detector.Result{detector.PinchIndexLandmarks(), detector.FoldIndexLandmarks()})

		want := []Signal{ScrollUp, Tap}
		if diff := cmp.Diff(want, rec.got); diff != "" {
			t.Errorf("delivered signals mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, signalsOf(triggers)); diff != "" {
			t.Errorf("returned triggers mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nil consumer still evaluates", func(t *testing.T) {
		e := NewEvaluator(nil, nil)

		triggers := e.Process(detector.Result{detector.PinchMiddleLandmarks()})
		if diff := cmp.Diff([]Signal{ScrollDown}, signalsOf(triggers)); diff != "" {
			t.Errorf("triggers mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty frame emits nothing", func(t *testing.T) {
		rec := &recorder{}
		e := NewEvaluator(rec, nil)

		if triggers := e.Process(nil); len(triggers) != 0 {
			t.Errorf("expected no triggers, got %d", len(triggers))
		}
		if len(rec.got) != 0 {
			t.Errorf("expected no signals, got %v", rec.got)
		}
	})

	t.Run("held pose re-triggers every frame", func(t *testing.T) {
		var count int
		e := NewEvaluator(ConsumerFunc(func(Signal) { count++ }), nil)
		frame := detector.Result{detector.PinchIndexLandmarks()}

		for i := 0; i < 3; i++ {
			e.Process(frame)
		}
		if count != 3 {
			t.Errorf("expected 3 deliveries, got %d", count)
		}
	})
}

func TestSignal_Names(t *testing.T) {
	for _, s := range Signals {
		parsed, err := ParseSignal(s.String())
		if err != nil {
			t.Fatalf("ParseSignal(%q) error = %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("ParseSignal(%q) = %v, want %v", s.String(), parsed, s)
		}
	}

	if _, err := ParseSignal("swipe"); err == nil {
		t.Error("expected error for unknown signal")
	}
}
