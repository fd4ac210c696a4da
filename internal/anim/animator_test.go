package anim

import (
	"math"
	"testing"
	"time"
)

func TestConvergesToExactTarget(t *testing.T) {
	a := New()
	h := a.Start(map[string]float64{"total": 1000}, 2000*time.Millisecond)

	values := a.Tick(h, 2000*time.Millisecond)
	if values["total"] != 1000 {
		t.Errorf("Expected exactly 1000 at full duration, got %v", values["total"])
	}

	values = a.Tick(h, 5000*time.Millisecond)
	if values["total"] != 1000 {
		t.Errorf("Expected exactly 1000 past full duration, got %v", values["total"])
	}
}

func TestMonotonicGrowthFromZero(t *testing.T) {
	a := New()
	h := a.Start(map[string]float64{"count": 500}, time.Second)

	prev := -1.0
	for elapsed := time.Duration(0); elapsed <= time.Second; elapsed += 50 * time.Millisecond {
		v := a.Tick(h, elapsed)["count"]
		if v < prev {
			t.Fatalf("Value decreased from %v to %v at %v", prev, v, elapsed)
		}
		if v < 0 || v > 500 {
			t.Fatalf("Value %v outside [0, target] at %v", v, elapsed)
		}
		prev = v
	}
}

func TestLockstepProgressAcrossLabels(t *testing.T) {
	a := New()
	h := a.Start(map[string]float64{"a": 100, "b": 400}, time.Second)

	values := a.Tick(h, 500*time.Millisecond)
	if values["b"] != values["a"]*4 {
		t.Errorf("Labels out of lockstep: a=%v b=%v", values["a"], values["b"])
	}
}

func TestZeroDurationJumpsToTarget(t *testing.T) {
	a := New()
	h := a.Start(map[string]float64{"rate": 73.5}, 0)

	if v := a.Tick(h, 0)["rate"]; v != 73.5 {
		t.Errorf("Expected immediate jump to 73.5, got %v", v)
	}
}

func TestStartFromPriorValue(t *testing.T) {
	a := New()
	h := a.StartFrom(
		map[string]float64{"count": 200},
		map[string]float64{"count": 100},
		time.Second,
	)

	if v := a.Tick(h, 0)["count"]; v != 100 {
		t.Errorf("Expected start value 100 at elapsed 0, got %v", v)
	}
	if v := a.Tick(h, time.Second)["count"]; v != 200 {
		t.Errorf("Expected target 200 at full duration, got %v", v)
	}
	if v := a.Tick(h, 500*time.Millisecond)["count"]; v <= 100 || v >= 200 {
		t.Errorf("Expected midway value between 100 and 200, got %v", v)
	}
}

func TestRestartSupersedesInFlightAnimation(t *testing.T) {
	a := New()
	old := a.Start(map[string]float64{"count": 100}, time.Second)
	fresh := a.Start(map[string]float64{"count": 900}, time.Second)

	// The stale handle no longer owns the label
	if values := a.Tick(old, 500*time.Millisecond); len(values) != 0 {
		t.Errorf("Superseded handle still reported values: %v", values)
	}
	if v := a.Tick(fresh, time.Second)["count"]; v != 900 {
		t.Errorf("Expected fresh animation target 900, got %v", v)
	}
}

func TestCancelStopsReporting(t *testing.T) {
	a := New()
	h := a.Start(map[string]float64{"count": 100}, time.Second)
	a.Cancel(h)

	if values := a.Tick(h, 500*time.Millisecond); len(values) != 0 {
		t.Errorf("Cancelled handle reported values: %v", values)
	}
	if p := a.Progress(h, 500*time.Millisecond); p != 0 {
		t.Errorf("Cancelled handle reported progress %v", p)
	}
}

func TestIndependentLabelsDoNotInteract(t *testing.T) {
	a := New()
	first := a.Start(map[string]float64{"a": 100}, time.Second)
	second := a.Start(map[string]float64{"b": 200}, time.Second)

	if v := a.Tick(first, time.Second)["a"]; v != 100 {
		t.Errorf("Label a disturbed by separate animation: %v", v)
	}
	if v := a.Tick(second, time.Second)["b"]; v != 200 {
		t.Errorf("Label b not at target: %v", v)
	}
}

func TestNonFiniteTargetClampedToZero(t *testing.T) {
	a := New()
	h := a.Start(map[string]float64{"bad": math.NaN(), "worse": math.Inf(1)}, time.Second)

	values := a.Tick(h, time.Second)
	if values["bad"] != 0 || values["worse"] != 0 {
		t.Errorf("Expected non-finite targets clamped to 0, got %v", values)
	}
}

func TestEaseOutCubicShape(t *testing.T) {
	if EaseOutCubic(0) != 0 {
		t.Error("Easing should start at 0")
	}
	if EaseOutCubic(1) != 1 {
		t.Error("Easing should end at 1")
	}
	// Ease-out: first half covers more than half the distance
	if EaseOutCubic(0.5) <= 0.5 {
		t.Errorf("Expected front-loaded easing, got %v at p=0.5", EaseOutCubic(0.5))
	}
}
