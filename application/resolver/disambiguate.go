package resolver

import (
	"context"
	"strings"

	"webreplay/domain/entities"
	"webreplay/domain/interfaces"
)

// visibilityScanLimit caps how many matches a first-visible scan
// inspects.
const visibilityScanLimit = 10

// minTextHintLen is the shortest text hint worth filtering on; shorter
// hints match too widely to narrow anything.
const minTextHintLen = 4

// carouselTokens excludes slider chrome from the dropdown heuristic:
// carousel arrows share class vocabulary with menus but picking the
// first visible one clicks the wrong control.
var carouselTokens = []string{"carousel", "arrow", ".next", ".prev", "slide", "swiper"}

// dropdownTokens marks selectors whose matches are stacked option
// lists, where the first visible entry is the intended one.
var dropdownTokens = []string{"autocomplete", "dropdown", "suggestion", "menu-item", "listbox", "option", "result-item", "list-item"}

// disambiguate narrows a multi-match candidate to a best-effort single
// element. It returns (nil, nil) when no rung of the ladder produces
// an answer, which in practice only happens on driver faults since the
// final rung accepts the first match unconditionally.
func (r *Resolver) disambiguate(ctx context.Context, c entities.SelectorCandidate, set interfaces.ElementSet, count int) (interfaces.Element, error) {
	if el, err := r.filterByTextHint(ctx, c, set, count); el != nil || err != nil {
		return el, err
	}

	if !isCarouselSelector(c.Value) && !c.ValidatedUnique && isDropdownSelector(c.Value) {
		if el, err := r.firstVisible(ctx, set, count); el != nil || err != nil {
			return el, err
		}
		return set.Nth(0), nil
	}

	if el, err := r.byPositionHint(ctx, c); el != nil || err != nil {
		return el, err
	}

	if el, err := r.firstVisible(ctx, set, count); el != nil || err != nil {
		return el, err
	}

	return set.Nth(0), nil
}

// filterByTextHint keeps only matches containing the candidate's text
// hint. A filter that narrows to exactly one match settles the
// ambiguity; one that narrows without settling falls back to the first
// visible of the filtered set.
func (r *Resolver) filterByTextHint(ctx context.Context, c entities.SelectorCandidate, set interfaces.ElementSet, count int) (interfaces.Element, error) {
	hint := strings.TrimSpace(c.TextHint)
	if len(hint) < minTextHintLen {
		return nil, nil
	}
	var filtered []interfaces.Element
	for i := 0; i < count; i++ {
		el := set.Nth(i)
		text, err := el.TextContent(ctx)
		if err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToLower(text), strings.ToLower(hint)) {
			filtered = append(filtered, el)
		}
	}
	if len(filtered) == 1 {
		return filtered[0], nil
	}
	if len(filtered) > 0 && len(filtered) < count {
		for _, el := range filtered {
			visible, err := el.IsVisible(ctx)
			if err != nil {
				return nil, err
			}
			if visible {
				return el, nil
			}
		}
		return filtered[0], nil
	}
	return nil, nil
}

func (r *Resolver) byPositionHint(ctx context.Context, c entities.SelectorCandidate) (interfaces.Element, error) {
	if c.Position == nil || c.Position.Parent == "" {
		return nil, nil
	}
	set, err := r.page.Query(ctx, nthChildExpr(c.Position.Parent, c.Position.Index))
	if err != nil {
		return nil, err
	}
	count, err := set.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return set.Nth(0), nil
}

func (r *Resolver) firstVisible(ctx context.Context, set interfaces.ElementSet, count int) (interfaces.Element, error) {
	limit := count
	if limit > visibilityScanLimit {
		limit = visibilityScanLimit
	}
	for i := 0; i < limit; i++ {
		el := set.Nth(i)
		visible, err := el.IsVisible(ctx)
		if err != nil {
			return nil, err
		}
		if visible {
			return el, nil
		}
	}
	return nil, nil
}

func isCarouselSelector(value string) bool {
	v := strings.ToLower(value)
	for _, tok := range carouselTokens {
		if strings.Contains(v, tok) {
			return true
		}
	}
	return false
}

func isDropdownSelector(value string) bool {
	v := strings.ToLower(value)
	for _, tok := range dropdownTokens {
		if strings.Contains(v, tok) {
			return true
		}
	}
	return false
}
