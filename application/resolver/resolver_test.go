package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webreplay/domain/entities"
	"webreplay/internal/fakedriver"
)

func newTestResolver(page *fakedriver.Page) (*Resolver, *fakedriver.Clock) {
	clk := fakedriver.NewClock()
	return New(page, clk, 5*time.Second), clk
}

func model(candidates ...entities.SelectorCandidate) *entities.SelectorModel {
	return &entities.SelectorModel{Candidates: candidates}
}

func TestResolveTrustedUniqueCandidateFirstPass(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	want := &fakedriver.Element{Visible: true}
	page.Set(`[id="login-btn"]`, want)

	res, clk := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(entities.SelectorCandidate{
		Strategy:   entities.StrategyID,
		Value:      "login-btn",
		Priority:   0,
		Confidence: 95,
	}), nil)

	require.NoError(t, err)
	assert.Same(t, want, el)
	// A first-pass hit never sleeps and never waits for network idle.
	assert.Empty(t, clk.Slept)
	assert.Empty(t, page.LoadStateLog)
}

func TestResolveAbsentElementReturnsNilAfterAllRounds(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	res, clk := newTestResolver(page)

	el, err := res.Resolve(context.Background(), model(entities.SelectorCandidate{
		Strategy:   entities.StrategyID,
		Value:      "gone",
		Confidence: 95,
	}), nil)

	require.NoError(t, err)
	assert.Nil(t, el)
	// Four rounds: three retries with the fixed backoff schedule, each
	// preceded by a network-idle wait.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, clk.Slept)
	assert.Len(t, page.LoadStateLog, 3)
}

func TestResolveRejectsAmbiguousTrustedSelector(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	// A high-confidence id matching twice is untrustworthy; the lower
	// candidate matching once wins instead.
	page.Set(`[id="item"]`, &fakedriver.Element{Visible: true}, &fakedriver.Element{Visible: true})
	want := &fakedriver.Element{Visible: true}
	page.Set(".item-link", want)

	res, _ := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(
		entities.SelectorCandidate{Strategy: entities.StrategyID, Value: "item", Priority: 0, Confidence: 90},
		entities.SelectorCandidate{Strategy: entities.StrategyCSS, Value: ".item-link", Priority: 1, Confidence: 60},
	), nil)

	require.NoError(t, err)
	assert.Same(t, want, el)
}

func TestResolveTextHintNarrowsMultiMatch(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	want := &fakedriver.Element{Visible: true, Text: "Add to cart"}
	page.Set(".product-button",
		&fakedriver.Element{Visible: true, Text: "Details"},
		want,
		&fakedriver.Element{Visible: true, Text: "Remove"},
	)

	res, _ := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(entities.SelectorCandidate{
		Strategy:   entities.StrategyCSS,
		Value:      ".product-button",
		Confidence: 60,
		TextHint:   "Add to cart",
	}), nil)

	require.NoError(t, err)
	assert.Same(t, want, el)
}

func TestResolveShortTextHintIsIgnored(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	first := &fakedriver.Element{Visible: true, Text: "OK"}
	page.Set(".btn", first, &fakedriver.Element{Visible: true, Text: "No"})

	res, _ := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(entities.SelectorCandidate{
		Strategy:   entities.StrategyCSS,
		Value:      ".btn",
		Confidence: 60,
		TextHint:   "OK",
	}), nil)

	require.NoError(t, err)
	// Hint too short to filter on; first visible match wins.
	assert.Same(t, first, el)
}

func TestSortCandidatesButtonBeforeText(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	want := &fakedriver.Element{Visible: true}
	page.Set(".submit-btn", want)
	page.Set(`text="Continue"`, &fakedriver.Element{Visible: true})

	res, _ := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(
		entities.SelectorCandidate{Strategy: entities.StrategyTextContent, Value: "Continue", Priority: 0, Confidence: 60},
		entities.SelectorCandidate{Strategy: entities.StrategyCSS, Value: ".submit-btn", Priority: 1, Confidence: 60},
	), nil)

	require.NoError(t, err)
	assert.Same(t, want, el)
	// The button-like CSS candidate is queried before the text one
	// despite its higher recorded priority.
	require.NotEmpty(t, page.QueryLog)
	assert.Equal(t, ".submit-btn", page.QueryLog[0])
}

func TestSortCandidatesButtonBeforeTextWithIntermediate(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	want := &fakedriver.Element{Visible: true}
	page.Set(".submit-btn", want)
	page.Set(`text="Continue"`, &fakedriver.Element{Visible: true})
	page.Set(`[id="other"]`, &fakedriver.Element{Visible: true})

	res, _ := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(
		entities.SelectorCandidate{Strategy: entities.StrategyTextContent, Value: "Continue", Priority: 0, Confidence: 60},
		entities.SelectorCandidate{Strategy: entities.StrategyID, Value: "other", Priority: 5, Confidence: 60},
		entities.SelectorCandidate{Strategy: entities.StrategyCSS, Value: ".submit-btn", Priority: 10, Confidence: 60},
	), nil)

	require.NoError(t, err)
	assert.Same(t, want, el)
	// The button override holds across a candidate sitting between the
	// two by priority: button, then text, then the rest.
	require.NotEmpty(t, page.QueryLog)
	assert.Equal(t, ".submit-btn", page.QueryLog[0])
}

func TestSortCandidatesWithoutTextKeepsPriorityOrder(t *testing.T) {
	out := sortCandidates([]entities.SelectorCandidate{
		{Strategy: entities.StrategyCSS, Value: ".submit-btn", Priority: 3},
		{Strategy: entities.StrategyID, Value: "main", Priority: 1},
		{Strategy: entities.StrategyName, Value: "q", Priority: 2},
	})
	require.Len(t, out, 3)
	assert.Equal(t, entities.StrategyID, out[0].Strategy)
	assert.Equal(t, entities.StrategyName, out[1].Strategy)
	// Without a text-content candidate there is nothing to overtake.
	assert.Equal(t, ".submit-btn", out[2].Value)
}

func TestResolveDropdownPrefersFirstVisible(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	want := &fakedriver.Element{Visible: true, Text: "Paris"}
	page.Set(".autocomplete-item",
		&fakedriver.Element{Visible: false, Text: "London"},
		want,
		&fakedriver.Element{Visible: true, Text: "Berlin"},
	)

	res, _ := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(entities.SelectorCandidate{
		Strategy:   entities.StrategyCSS,
		Value:      ".autocomplete-item",
		Confidence: 60,
	}), nil)

	require.NoError(t, err)
	assert.Same(t, want, el)
}

func TestResolveCarouselSkipsDropdownHeuristic(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	// Carousel chrome with a position hint: the hint decides, not the
	// first-visible scan.
	page.Set(".carousel-menu-item",
		&fakedriver.Element{Visible: true, Text: "slide 1"},
		&fakedriver.Element{Visible: true, Text: "slide 2"},
	)
	want := &fakedriver.Element{Visible: true, Text: "slide 2"}
	page.Set(".carousel > :nth-child(2)", want)

	res, _ := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(entities.SelectorCandidate{
		Strategy:   entities.StrategyCSS,
		Value:      ".carousel-menu-item",
		Confidence: 60,
		Position:   &entities.PositionValue{Parent: ".carousel", Index: 1},
	}), nil)

	require.NoError(t, err)
	assert.Same(t, want, el)
}

func TestResolveContextScopesQuery(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	want := &fakedriver.Element{Visible: true}
	page.Set(`#sidebar [name="q"]`, want)

	res, _ := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(entities.SelectorCandidate{
		Strategy:   entities.StrategyName,
		Value:      "q",
		Confidence: 85,
		Context:    "#sidebar",
	}), nil)

	require.NoError(t, err)
	assert.Same(t, want, el)
}

func TestResolveEmptyModelWithoutSignature(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	res, clk := newTestResolver(page)

	el, err := res.Resolve(context.Background(), &entities.SelectorModel{}, nil)
	require.NoError(t, err)
	assert.Nil(t, el)
	assert.Empty(t, clk.Slept)
}

func TestResolveFallsBackToSignature(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	want := &fakedriver.Element{Visible: true}
	page.Set(`a[href*="/products/42"]`, want)

	res, _ := newTestResolver(page)
	el, err := res.Resolve(context.Background(), model(entities.SelectorCandidate{
		Strategy:   entities.StrategyID,
		Value:      "gone",
		Confidence: 95,
	}), &entities.ContentSignature{
		ElementType: "a",
		Fingerprint: entities.ContentFingerprint{LinkHref: "/products/42"},
	})

	require.NoError(t, err)
	assert.Same(t, want, el)
}

func TestResolveSignatureHeadingViaSnapshot(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	page.HTML = `<html><body><div><h2>Weekly Deals</h2></div><div><h2>New Arrivals</h2></div></body></html>`
	want := &fakedriver.Element{Visible: true, Text: "Weekly Deals"}
	page.Set("body > :nth-child(1) > :nth-child(1)", want)

	res, _ := newTestResolver(page)
	el, err := res.resolveBySignature(context.Background(), &entities.ContentSignature{
		ElementType: "h2",
		Fingerprint: entities.ContentFingerprint{Heading: "Weekly Deals"},
	})

	require.NoError(t, err)
	assert.Same(t, want, el)
}

func TestResolveSignatureFallbackPosition(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	want := &fakedriver.Element{Visible: true}
	page.Set(".results > :nth-child(3)", want)

	pos := 2
	res, _ := newTestResolver(page)
	el, err := res.resolveBySignature(context.Background(), &entities.ContentSignature{
		FallbackPosition: &pos,
		ListContainer:    ".results",
	})

	require.NoError(t, err)
	assert.Same(t, want, el)
}
