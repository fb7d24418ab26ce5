package resolver

import (
	"context"
	"time"

	"webreplay/domain/interfaces"
)

// Ancestor probe: runs browser-side against the hidden target and
// returns one descriptor per ancestor level. The score mirrors the
// trigger heuristics: menu-like naming (+3), a click affordance (+2),
// currently visible (+1), direct parent (+1).
const ancestorProbeScript = `el => {
	const out = [];
	const menuPattern = /menu|dropdown|tab|nav/i;
	let node = el.parentElement;
	for (let level = 1; level <= 5 && node && node !== document.body; level++) {
		let score = 0;
		const cls = (typeof node.className === 'string' ? node.className : '') +
			' ' + (node.getAttribute('role') || '') + ' ' + node.tagName;
		if (menuPattern.test(cls)) score += 3;
		const style = window.getComputedStyle(node);
		const clickable = node.onclick !== null || style.cursor === 'pointer' ||
			node.tagName === 'A' || node.tagName === 'BUTTON' ||
			node.getAttribute('role') === 'button';
		if (clickable) score += 2;
		const rect = node.getBoundingClientRect();
		const visible = rect.width > 0 && rect.height > 0 &&
			style.display !== 'none' && style.visibility !== 'hidden';
		if (visible) score += 1;
		if (level === 1) score += 1;
		out.push({ level: level, score: score, visible: visible });
		node = node.parentElement;
	}
	return out;
}`

// transitionWaitScript blocks until the element fires transitionend or
// the in-script 1s timeout fires, whichever comes first.
const transitionWaitScript = `el => new Promise(resolve => {
	const t = setTimeout(() => resolve(false), 1000);
	el.addEventListener('transitionend', () => { clearTimeout(t); resolve(true); }, { once: true });
})`

type triggerTier int

const (
	tierLow triggerTier = iota
	tierMedium
	tierHigh
)

const (
	highTierScore   = 5
	mediumTierScore = 3
)

type ancestorInfo struct {
	Level   int
	Score   int
	Visible bool
}

func tierFor(score int) triggerTier {
	switch {
	case score >= highTierScore:
		return tierHigh
	case score >= mediumTierScore:
		return tierMedium
	default:
		return tierLow
	}
}

// RecoverVisibility tries to reveal a resolved but hidden element by
// interacting with the ancestor most likely to be its reveal trigger,
// then by blunter means: hovering and clicking nearby ancestors,
// keyboard Tab traversal, and scroll-into-view. It reports whether the
// target ended up visible; it never interacts with the target itself.
func (r *Resolver) RecoverVisibility(ctx context.Context, target interfaces.Element) (bool, error) {
	if visible, err := target.IsVisible(ctx); err != nil {
		return false, err
	} else if visible {
		return true, nil
	}

	ancestors, err := r.analyzeAncestors(ctx, target)
	if err != nil {
		return false, err
	}

	if best, ok := bestTrigger(ancestors); ok {
		visible, err := r.driveTrigger(ctx, target, best.Level)
		if err != nil {
			return false, err
		}
		if visible {
			return true, nil
		}
	}

	if visible, err := r.proddingPass(ctx, target); visible || err != nil {
		return visible, err
	}

	if visible, err := r.keyboardPass(ctx, target); visible || err != nil {
		return visible, err
	}

	if err := target.ScrollIntoView(ctx); err == nil {
		_ = r.clock.Sleep(ctx, 200*time.Millisecond)
		return target.IsVisible(ctx)
	}
	return false, nil
}

func (r *Resolver) analyzeAncestors(ctx context.Context, target interfaces.Element) ([]ancestorInfo, error) {
	raw, err := target.Evaluate(ctx, ancestorProbeScript, nil)
	if err != nil {
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]ancestorInfo, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, ancestorInfo{
			Level:   asInt(m["level"]),
			Score:   asInt(m["score"]),
			Visible: asBool(m["visible"]),
		})
	}
	return out, nil
}

// bestTrigger picks the highest-scoring visible ancestor, provided its
// tier is medium or better. Low-tier triggers are ignored: interacting
// with an arbitrary ancestor does more harm than the fallbacks.
func bestTrigger(ancestors []ancestorInfo) (ancestorInfo, bool) {
	var best ancestorInfo
	found := false
	for _, a := range ancestors {
		if !a.Visible {
			continue
		}
		if !found || a.Score > best.Score {
			best = a
			found = true
		}
	}
	if !found || tierFor(best.Score) == tierLow {
		return ancestorInfo{}, false
	}
	return best, true
}

// driveTrigger hovers the trigger ancestor, waits for its CSS
// transition to finish, and re-checks the target; if hovering did not
// reveal it, clicks the trigger and checks again.
func (r *Resolver) driveTrigger(ctx context.Context, target interfaces.Element, level int) (bool, error) {
	trigger, err := target.Ancestor(ctx, level)
	if err != nil {
		return false, err
	}

	if err := trigger.Hover(ctx); err == nil {
		r.awaitTransition(ctx, trigger)
		if visible, err := target.IsVisible(ctx); err != nil {
			return false, err
		} else if visible {
			return true, nil
		}
	}

	if err := trigger.Click(ctx, "", 1); err == nil {
		r.awaitTransition(ctx, trigger)
		return target.IsVisible(ctx)
	}
	return false, nil
}

func (r *Resolver) awaitTransition(ctx context.Context, el interfaces.Element) {
	if _, err := el.Evaluate(ctx, transitionWaitScript, nil); err != nil {
		// No transition support on this node; fixed settle instead.
		_ = r.clock.Sleep(ctx, 300*time.Millisecond)
	}
}

// proddingPass hovers then clicks ancestors at levels 1-3 one by one.
func (r *Resolver) proddingPass(ctx context.Context, target interfaces.Element) (bool, error) {
	for level := 1; level <= 3; level++ {
		anc, err := target.Ancestor(ctx, level)
		if err != nil {
			return false, err
		}
		if err := anc.Hover(ctx); err == nil {
			_ = r.clock.Sleep(ctx, 200*time.Millisecond)
			if visible, err := target.IsVisible(ctx); err != nil {
				return false, err
			} else if visible {
				return true, nil
			}
		}
		if err := anc.Click(ctx, "", 1); err == nil {
			_ = r.clock.Sleep(ctx, 200*time.Millisecond)
			if visible, err := target.IsVisible(ctx); err != nil {
				return false, err
			} else if visible {
				return true, nil
			}
		}
	}
	return false, nil
}

// keyboardPass walks focus forward a few steps; focus-revealed menus
// open without any pointer at all.
func (r *Resolver) keyboardPass(ctx context.Context, target interfaces.Element) (bool, error) {
	for i := 0; i < 5; i++ {
		if err := r.page.Press(ctx, "Tab"); err != nil {
			return false, nil
		}
		visible, err := target.IsVisible(ctx)
		if err != nil {
			return false, err
		}
		if visible {
			return true, nil
		}
	}
	return false, nil
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
