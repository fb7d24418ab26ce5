package replay

import (
	"log/slog"

	"webreplay/application/navigator"
	"webreplay/domain/entities"
)

// Preprocess runs once before execution: it corrects structurally
// implausible sequences, flags actions that presuppose unreachable
// page state, and normalizes timestamps to run-relative values.
func Preprocess(actions []entities.Action) []entities.Action {
	out := dropRedundantNavigations(actions)
	annotateRecoveryHints(out)
	NormalizeTimestamps(out)
	return out
}

// dropRedundantNavigations removes a navigation that immediately
// follows another navigation to the same target. Recorders emit these
// when a redirect fires during capture; replaying both stalls the run.
func dropRedundantNavigations(actions []entities.Action) []entities.Action {
	out := make([]entities.Action, 0, len(actions))
	for _, a := range actions {
		if nav, ok := a.(*entities.NavigationAction); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*entities.NavigationAction); ok &&
				navigator.SameDocument(prev.To, nav.To) {
				slog.Debug("dropping redundant navigation", "to", nav.To)
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// annotateRecoveryHints marks actions whose expected URL differs from
// the previous action's without any intervening step that could have
// changed the page. Execution uses the hint to expect a page-state
// correction rather than treat the mismatch as a surprise.
func annotateRecoveryHints(actions []entities.Action) {
	for i := 1; i < len(actions); i++ {
		cur := actions[i].Meta()
		prev := actions[i-1]
		if cur.URL == "" || prev.Meta().URL == "" {
			continue
		}
		if navigator.SameDocument(cur.URL, prev.Meta().URL) {
			continue
		}
		switch prev.Kind() {
		case entities.ActionNavigation, entities.ActionClick, entities.ActionSubmit:
			// These can legitimately change the page.
		default:
			cur.RecoveryHint = "url-changed-without-navigation"
		}
	}
}

// NormalizeTimestamps rebases action timestamps to the first action
// (zero-based) and clamps them monotonic non-decreasing, preserving
// order. The operation is idempotent: a normalized sequence rebased
// again is unchanged.
func NormalizeTimestamps(actions []entities.Action) {
	if len(actions) == 0 {
		return
	}
	base := actions[0].Meta().Timestamp
	var prev int64
	for _, a := range actions {
		m := a.Meta()
		ts := m.Timestamp - base
		if ts < prev {
			ts = prev
		}
		m.Timestamp = ts
		prev = ts
	}
}
