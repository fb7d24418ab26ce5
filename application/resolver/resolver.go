// Package resolver turns a recorded selector description into a live
// element reference. It tries the recorded candidates in priority
// order under a count/confidence acceptance rule, retries with backoff
// while the page settles, disambiguates multi-matches, falls back to
// content-signature matching, and can recover targets hidden behind
// menus and dropdowns.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"webreplay/application/retry"
	"webreplay/domain/entities"
	"webreplay/domain/interfaces"
)

// trustedConfidence is the threshold above which a selector is
// expected to be unique: a trusted selector matching more than one
// element is rejected outright, while a low-confidence one tolerates
// ambiguity and goes through disambiguation.
const trustedConfidence = 80

const (
	resolveAttempts    = 4
	networkIdleTimeout = 3 * time.Second
)

var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 3 * time.Second}

type Resolver struct {
	page  interfaces.Page
	clock interfaces.Clock
	// waitTimeout bounds individual element waits issued during
	// visibility checks and recovery.
	waitTimeout time.Duration
	logger      *slog.Logger
}

func New(page interfaces.Page, clk interfaces.Clock, waitTimeout time.Duration) *Resolver {
	return &Resolver{
		page:        page,
		clock:       clk,
		waitTimeout: waitTimeout,
		logger:      slog.Default(),
	}
}

// Resolve finds the element described by model, consulting sig as a
// last resort. A genuinely absent element yields (nil, nil); errors
// are reserved for driver-level faults such as a closed page.
func (r *Resolver) Resolve(ctx context.Context, model *entities.SelectorModel, sig *entities.ContentSignature) (interfaces.Element, error) {
	if model.IsEmpty() {
		if sig.IsEmpty() {
			return nil, nil
		}
		return r.resolveBySignature(ctx, sig)
	}

	candidates := sortCandidates(model.Candidates)

	var found interfaces.Element
	policy := retry.Policy{
		Attempts: resolveAttempts,
		Delays:   retryDelays,
		BeforeRetry: func(ctx context.Context) {
			// Give in-flight requests a chance to finish before the
			// next pass; failure to go idle is not a reason to stop.
			_ = r.page.WaitForLoadState(ctx, interfaces.LoadStateNetworkIdle, networkIdleTimeout)
		},
	}
	err := policy.Do(ctx, r.clock, func(attempt int) (bool, error) {
		el, err := r.resolvePass(ctx, candidates)
		if err != nil {
			return false, err
		}
		if el != nil {
			found = el
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}

	if !sig.IsEmpty() {
		return r.resolveBySignature(ctx, sig)
	}
	return nil, nil
}

// resolvePass runs one round over the sorted candidates, applying the
// acceptance rule per candidate.
func (r *Resolver) resolvePass(ctx context.Context, candidates []entities.SelectorCandidate) (interfaces.Element, error) {
	for _, c := range candidates {
		expr, ok := candidateExpr(c)
		if !ok {
			continue
		}
		set, err := r.page.Query(ctx, expr)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", expr, err)
		}
		count, err := set.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %q: %w", expr, err)
		}

		switch {
		case count == 0:
			continue
		case count == 1 && c.Confidence >= trustedConfidence:
			return set.Nth(0), nil
		case count > 1 && c.Confidence >= trustedConfidence:
			// A selector claiming uniqueness that matches several
			// elements is untrustworthy. Skip it.
			r.logger.Debug("rejecting ambiguous trusted selector",
				"strategy", c.Strategy, "value", c.Value, "matches", count)
			continue
		case count == 1:
			return set.Nth(0), nil
		default:
			el, err := r.disambiguate(ctx, c, set, count)
			if err != nil {
				return nil, err
			}
			if el != nil {
				return el, nil
			}
		}
	}
	return nil, nil
}

// candidateExpr materializes a candidate into a driver query
// expression, scoped to the candidate's context container when set.
func candidateExpr(c entities.SelectorCandidate) (string, bool) {
	var expr string
	switch c.Strategy {
	case entities.StrategyID:
		expr = fmt.Sprintf("[id=%q]", c.Value)
	case entities.StrategyCSS, entities.StrategyCSSSemantic:
		expr = c.Value
	case entities.StrategyXPath:
		return "xpath=" + c.Value, c.Value != ""
	case entities.StrategyName:
		expr = fmt.Sprintf("[name=%q]", c.Value)
	case entities.StrategyAriaLabel:
		expr = fmt.Sprintf("[aria-label=%q]", c.Value)
	case entities.StrategyTextContent:
		return fmt.Sprintf("text=%q", c.Value), c.Value != ""
	case entities.StrategyHrefPattern:
		expr = fmt.Sprintf("a[href*=%q]", c.Value)
	case entities.StrategySrcPattern:
		expr = fmt.Sprintf("img[src*=%q]", c.Value)
	case entities.StrategyPosition:
		if c.Position == nil || c.Position.Parent == "" {
			return "", false
		}
		expr = nthChildExpr(c.Position.Parent, c.Position.Index)
	default:
		return "", false
	}
	if expr == "" {
		return "", false
	}
	if c.Context != "" && c.Strategy != entities.StrategyPosition {
		expr = c.Context + " " + expr
	}
	return expr, true
}

func nthChildExpr(parent string, index int) string {
	return fmt.Sprintf("%s > :nth-child(%d)", parent, index+1)
}

// sortCandidates orders candidates ascending by priority, with one
// named exception: a button-like CSS candidate sorts before any
// text-content candidate regardless of priority, because generic text
// matches are unreliable for buttons. The exception is applied as a
// key adjustment, not a pairwise rule, so the ordering stays total:
// button-like candidates that would land behind the best text-content
// candidate are slotted just ahead of it instead.
func sortCandidates(in []entities.SelectorCandidate) []entities.SelectorCandidate {
	textPriority := -1
	for _, c := range in {
		if c.Strategy == entities.StrategyTextContent && (textPriority < 0 || c.Priority < textPriority) {
			textPriority = c.Priority
		}
	}

	type ranked struct {
		key int
		c   entities.SelectorCandidate
	}
	rs := make([]ranked, len(in))
	for i, c := range in {
		key := c.Priority*2 + 1
		if textPriority >= 0 && c.Priority >= textPriority && isButtonCSS(c) {
			key = textPriority * 2
		}
		rs[i] = ranked{key: key, c: c}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].key < rs[j].key })

	out := make([]entities.SelectorCandidate, len(in))
	for i, r := range rs {
		out[i] = r.c
	}
	return out
}

func isButtonCSS(c entities.SelectorCandidate) bool {
	if c.Strategy != entities.StrategyCSS && c.Strategy != entities.StrategyCSSSemantic {
		return false
	}
	v := strings.ToLower(c.Value)
	return strings.Contains(v, "button") ||
		strings.Contains(v, "btn") ||
		strings.Contains(v, "[type=\"submit\"]") ||
		strings.Contains(v, "[type=submit]") ||
		strings.HasPrefix(v, "button")
}
