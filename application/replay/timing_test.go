package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"webreplay/domain/entities"
)

func TestEffectiveMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, effectiveMultiplier(TimingRealistic, 0))
	assert.Equal(t, 0.25, effectiveMultiplier(TimingFast, 0))
	assert.Equal(t, 0.0, effectiveMultiplier(TimingInstant, 0))
	// An explicit override beats the mode.
	assert.Equal(t, 0.5, effectiveMultiplier(TimingRealistic, 0.5))
	assert.Equal(t, 2.0, effectiveMultiplier(TimingInstant, 2.0))
	// 1.0 is the no-override marker, not a multiplier.
	assert.Equal(t, 0.25, effectiveMultiplier(TimingFast, 1.0))
}

func TestPacingDelay(t *testing.T) {
	// Action recorded at +4s, half speed, 500ms already elapsed.
	assert.Equal(t, 1500*time.Millisecond, pacingDelay(4000, 0.5, 500*time.Millisecond, 5*time.Second))
	// Already past the target offset: no wait.
	assert.Equal(t, time.Duration(0), pacingDelay(1000, 1.0, 2*time.Second, 5*time.Second))
	// Capped by the per-action maximum.
	assert.Equal(t, 5*time.Second, pacingDelay(60000, 1.0, 0, 5*time.Second))
	// Instant mode collapses every gap.
	assert.Equal(t, time.Duration(0), pacingDelay(60000, 0, 0, 5*time.Second))
}

func clickOn(id, selector string) *entities.ClickAction {
	return &entities.ClickAction{
		ActionMeta: entities.ActionMeta{ID: id},
		Target: entities.SelectorModel{Candidates: []entities.SelectorCandidate{
			{Strategy: entities.StrategyCSS, Value: selector, Confidence: 60},
		}},
	}
}

func TestIsDuplicate(t *testing.T) {
	a := clickOn("a1", ".buy")
	b := clickOn("a2", ".buy")
	other := clickOn("a3", ".cancel")

	assert.True(t, isDuplicate(a, b, 100*time.Millisecond))
	assert.False(t, isDuplicate(a, b, 500*time.Millisecond))
	assert.False(t, isDuplicate(a, other, 100*time.Millisecond))
	assert.False(t, isDuplicate(nil, b, 100*time.Millisecond))

	// Different kinds never collapse.
	nav := &entities.NavigationAction{ActionMeta: entities.ActionMeta{ID: "n"}, To: "https://x.example/"}
	assert.False(t, isDuplicate(a, nav, 100*time.Millisecond))

	// Actions without selectors cannot prove they hit the same target.
	k1 := &entities.KeypressAction{ActionMeta: entities.ActionMeta{ID: "k1"}, Key: "Enter"}
	k2 := &entities.KeypressAction{ActionMeta: entities.ActionMeta{ID: "k2"}, Key: "Enter"}
	assert.False(t, isDuplicate(k1, k2, 100*time.Millisecond))
}

func TestSelectorsEquivalent(t *testing.T) {
	pos := entities.PositionValue{Parent: ".list", Index: 2}
	a := &entities.SelectorModel{Candidates: []entities.SelectorCandidate{
		{Strategy: entities.StrategyPosition, Position: &pos},
	}}
	b := &entities.SelectorModel{Candidates: []entities.SelectorCandidate{
		{Strategy: entities.StrategyPosition, Position: &entities.PositionValue{Parent: ".list", Index: 2}},
	}}
	c := &entities.SelectorModel{Candidates: []entities.SelectorCandidate{
		{Strategy: entities.StrategyPosition, Position: &entities.PositionValue{Parent: ".list", Index: 3}},
	}}

	assert.True(t, selectorsEquivalent(a, b))
	assert.False(t, selectorsEquivalent(a, c))
	assert.False(t, selectorsEquivalent(a, nil))
	assert.False(t, selectorsEquivalent(&entities.SelectorModel{}, &entities.SelectorModel{}))
}
