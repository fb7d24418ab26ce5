package replay

import (
	"time"

	"webreplay/domain/entities"
)

// TimingMode selects how faithfully replay reproduces recorded pacing.
type TimingMode string

const (
	TimingRealistic TimingMode = "realistic"
	TimingFast      TimingMode = "fast"
	TimingInstant   TimingMode = "instant"
)

func (m TimingMode) multiplier() float64 {
	switch m {
	case TimingInstant:
		return 0
	case TimingFast:
		return 0.25
	default:
		return 1.0
	}
}

// effectiveMultiplier resolves the speed multiplier: an explicit
// override other than 1.0 beats the mode-derived value.
func effectiveMultiplier(mode TimingMode, override float64) float64 {
	if override != 0 && override != 1.0 {
		return override
	}
	return mode.multiplier()
}

// pacingDelay computes how long to sleep before an action so that it
// fires at its recorded run-relative offset scaled by the multiplier,
// capped by maxDelay.
func pacingDelay(recordedMillis int64, multiplier float64, elapsed, maxDelay time.Duration) time.Duration {
	target := time.Duration(float64(recordedMillis)*multiplier) * time.Millisecond
	d := target - elapsed
	if d < 0 {
		d = 0
	}
	if maxDelay > 0 && d > maxDelay {
		d = maxDelay
	}
	return d
}

// duplicateWindow is how close together two structurally identical
// actions must fire for the second to be a capture artifact rather
// than an intentional repeat.
const duplicateWindow = 500 * time.Millisecond

// isDuplicate reports whether cur repeats prev closely enough to be
// suppressed: same kind, structurally identical selector, fired within
// the duplicate window.
func isDuplicate(prev, cur entities.Action, sincePrev time.Duration) bool {
	if prev == nil || cur == nil {
		return false
	}
	if sincePrev >= duplicateWindow {
		return false
	}
	if prev.Kind() != cur.Kind() {
		return false
	}
	return selectorsEquivalent(prev.Selector(), cur.Selector())
}

// selectorsEquivalent compares two selector models structurally.
// Actions without selectors never match: there is nothing to prove
// they target the same thing.
func selectorsEquivalent(a, b *entities.SelectorModel) bool {
	if a == nil || b == nil {
		return false
	}
	if len(a.Candidates) == 0 || len(a.Candidates) != len(b.Candidates) {
		return false
	}
	for i := range a.Candidates {
		ca, cb := a.Candidates[i], b.Candidates[i]
		if ca.Strategy != cb.Strategy || ca.Value != cb.Value {
			return false
		}
		if (ca.Position == nil) != (cb.Position == nil) {
			return false
		}
		if ca.Position != nil && *ca.Position != *cb.Position {
			return false
		}
	}
	return true
}
