package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webreplay/internal/fakedriver"
)

func TestRecoverVisibilityAlreadyVisible(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	res, _ := newTestResolver(page)

	target := &fakedriver.Element{Visible: true}
	visible, err := res.RecoverVisibility(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, visible)
	assert.False(t, target.Hovered)
}

func TestRecoverVisibilityHoverOnMenuAncestor(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	res, _ := newTestResolver(page)

	target := &fakedriver.Element{Visible: false}
	trigger := &fakedriver.Element{
		Visible: true,
		OnHover: func(*fakedriver.Element) { target.Visible = true },
	}
	target.Parent = trigger
	// Probe descriptor for a visible dropdown-classed parent: menu
	// naming +3, clickable +2, visible +1, direct parent +1.
	target.ProbeResult = []any{
		map[string]any{"level": float64(1), "score": float64(7), "visible": true},
		map[string]any{"level": float64(2), "score": float64(1), "visible": true},
	}

	visible, err := res.RecoverVisibility(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, visible)
	assert.True(t, trigger.Hovered)
	// Hover alone revealed the target; the trigger was never clicked
	// and the target itself was never interacted with.
	assert.False(t, trigger.Clicked)
	assert.False(t, target.Hovered)
	assert.False(t, target.Clicked)
}

func TestRecoverVisibilityClicksTriggerWhenHoverFails(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	res, _ := newTestResolver(page)

	target := &fakedriver.Element{Visible: false}
	trigger := &fakedriver.Element{
		Visible: true,
		OnClick: func(*fakedriver.Element) { target.Visible = true },
	}
	target.Parent = trigger
	target.ProbeResult = []any{
		map[string]any{"level": float64(1), "score": float64(6), "visible": true},
	}

	visible, err := res.RecoverVisibility(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, visible)
	assert.True(t, trigger.Hovered)
	assert.True(t, trigger.Clicked)
}

func TestRecoverVisibilityIgnoresLowTierTriggers(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	res, _ := newTestResolver(page)

	revealed := false
	target := &fakedriver.Element{Visible: false}
	parent := &fakedriver.Element{
		Visible: true,
		OnHover: func(*fakedriver.Element) {
			// The prodding fallback still reaches this ancestor.
			revealed = true
			target.Visible = true
		},
	}
	target.Parent = parent
	// Score below the medium tier: not worth a targeted trigger.
	target.ProbeResult = []any{
		map[string]any{"level": float64(1), "score": float64(2), "visible": true},
	}

	visible, err := res.RecoverVisibility(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, visible)
	assert.True(t, revealed)
}

func TestRecoverVisibilityGivesUpWithoutTouchingTarget(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	res, clk := newTestResolver(page)

	target := &fakedriver.Element{Visible: false}
	visible, err := res.RecoverVisibility(context.Background(), target)
	require.NoError(t, err)
	assert.False(t, visible)
	// Keyboard traversal was attempted before giving up.
	assert.Equal(t, []string{"Tab", "Tab", "Tab", "Tab", "Tab"}, page.PressLog)
	assert.True(t, target.ScrolledIntoView)
	assert.False(t, target.Clicked)
	assert.False(t, target.Hovered)
	assert.NotEmpty(t, clk.Slept)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, tierHigh, tierFor(7))
	assert.Equal(t, tierHigh, tierFor(5))
	assert.Equal(t, tierMedium, tierFor(4))
	assert.Equal(t, tierMedium, tierFor(3))
	assert.Equal(t, tierLow, tierFor(2))
	assert.Equal(t, tierLow, tierFor(0))
}

func TestBestTriggerPicksHighestVisibleScore(t *testing.T) {
	best, ok := bestTrigger([]ancestorInfo{
		{Level: 1, Score: 4, Visible: true},
		{Level: 2, Score: 7, Visible: false},
		{Level: 3, Score: 6, Visible: true},
	})
	require.True(t, ok)
	assert.Equal(t, 3, best.Level)

	_, ok = bestTrigger([]ancestorInfo{{Level: 1, Score: 2, Visible: true}})
	assert.False(t, ok)

	_, ok = bestTrigger(nil)
	assert.False(t, ok)
}

func TestRecoverVisibilityKeyboardTraversal(t *testing.T) {
	page := fakedriver.NewPage("https://shop.example/")
	res, _ := newTestResolver(page)

	// A focus-revealed menu: the third Tab lands on the trigger and the
	// target becomes visible without any pointer interaction.
	target := &fakedriver.Element{Visible: false}
	page.OnPress = func(string) {
		if len(page.PressLog) == 3 {
			target.Visible = true
		}
	}

	visible, err := res.RecoverVisibility(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, visible)
	assert.Len(t, page.PressLog, 3)
	assert.False(t, target.ScrolledIntoView)
}
