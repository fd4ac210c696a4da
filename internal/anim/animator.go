// Package anim animates displayed metric values as pure functions of
// elapsed time, decoupled from any rendering loop. The caller owns the tick
// source; the animator only maps elapsed time to interpolated values.
package anim

import (
	"math"
	"sync"
	"time"
)

// EaseOutCubic maps linear progress p in [0,1] to eased progress, so
// transitions decelerate near completion
func EaseOutCubic(p float64) float64 {
	inv := 1 - p
	return 1 - inv*inv*inv
}

// labelState holds the interpolation endpoints for a single label
type labelState struct {
	start  float64
	target float64
}

// Handle identifies one in-flight batch animation. All labels in the batch
// share a duration and easing curve so they reach their targets in lockstep.
type Handle struct {
	id        uint64
	duration  time.Duration
	states    map[string]labelState
	cancelled bool
}

// Animator starts, ticks, and cancels metric animations. Safe for use from
// concurrent requests; each Handle's state is private to its batch.
type Animator struct {
	mu     sync.Mutex
	nextID uint64
	owners map[string]uint64 // label -> id of the handle that owns it
}

// New creates an Animator with no in-flight animations
func New() *Animator {
	return &Animator{owners: make(map[string]uint64)}
}

// Start begins a grow-from-zero animation for the given targets. Any
// in-flight animation for the same labels is cancelled first so a stale tick
// cannot overwrite the new state.
func (a *Animator) Start(targets map[string]float64, duration time.Duration) *Handle {
	return a.StartFrom(targets, nil, duration)
}

// StartFrom begins an animation where labels present in starts interpolate
// from their prior displayed value instead of zero. Labels absent from
// starts grow from zero.
func (a *Animator) StartFrom(targets, starts map[string]float64, duration time.Duration) *Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	h := &Handle{
		id:       a.nextID,
		duration: duration,
		states:   make(map[string]labelState, len(targets)),
	}

	for label, target := range targets {
		start := starts[label]
		h.states[label] = labelState{
			start:  sanitize(start),
			target: sanitize(target),
		}
		a.owners[label] = h.id
	}

	return h
}

// Tick reports the interpolated value for every label still owned by the
// handle at the given elapsed time. Once elapsed reaches the duration the
// exact targets are reported, avoiding eased-curve rounding artifacts in
// displayed integers.
func (a *Animator) Tick(h *Handle, elapsed time.Duration) map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	values := make(map[string]float64, len(h.states))
	if h.cancelled {
		return values
	}

	eased := easedProgress(elapsed, h.duration)
	for label, st := range h.states {
		if a.owners[label] != h.id {
			continue // superseded by a newer animation
		}
		if eased >= 1 {
			values[label] = st.target
		} else {
			values[label] = st.start + (st.target-st.start)*eased
		}
	}
	return values
}

// Progress reports the eased progress of the handle at the given elapsed
// time, for callers that drive chart geometry from the same clock
func (a *Animator) Progress(h *Handle, elapsed time.Duration) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h.cancelled {
		return 0
	}
	return easedProgress(elapsed, h.duration)
}

// Cancel stops the animation and releases its labels. Ticking a cancelled
// handle yields no values.
func (a *Animator) Cancel(h *Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h.cancelled {
		return
	}
	h.cancelled = true
	for label := range h.states {
		if a.owners[label] == h.id {
			delete(a.owners, label)
		}
	}
}

// easedProgress clamps elapsed/duration into [0,1] and applies the easing
// curve. A non-positive duration jumps straight to completion.
func easedProgress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	p := float64(elapsed) / float64(duration)
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return EaseOutCubic(p)
}

// sanitize clamps non-finite values to 0 so they never propagate as NaN
// into displayed output
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
