package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webreplay/domain/entities"
)

func TestDropRedundantNavigations(t *testing.T) {
	actions := []entities.Action{
		&entities.NavigationAction{ActionMeta: entities.ActionMeta{ID: "n1"}, To: "https://shop.example/cart"},
		&entities.NavigationAction{ActionMeta: entities.ActionMeta{ID: "n2"}, To: "https://shop.example/cart?ref=redirect"},
		&entities.NavigationAction{ActionMeta: entities.ActionMeta{ID: "n3"}, To: "https://shop.example/checkout"},
	}

	out := Preprocess(actions)
	require.Len(t, out, 2)
	assert.Equal(t, "n1", out[0].Meta().ID)
	assert.Equal(t, "n3", out[1].Meta().ID)
}

func TestDropRedundantNavigationsKeepsSeparatedRepeats(t *testing.T) {
	actions := []entities.Action{
		&entities.NavigationAction{ActionMeta: entities.ActionMeta{ID: "n1"}, To: "https://shop.example/cart"},
		&entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "c1"}},
		&entities.NavigationAction{ActionMeta: entities.ActionMeta{ID: "n2"}, To: "https://shop.example/cart"},
	}

	out := Preprocess(actions)
	// A navigation repeated after an intervening action is intentional.
	require.Len(t, out, 3)
}

func TestAnnotateRecoveryHints(t *testing.T) {
	actions := []entities.Action{
		&entities.ScrollAction{ActionMeta: entities.ActionMeta{ID: "s1", URL: "https://shop.example/"}, Element: entities.ScrollWindowTarget},
		&entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "c1", URL: "https://shop.example/cart"}},
		&entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "c2", URL: "https://shop.example/checkout"}},
	}

	Preprocess(actions)
	// c1 follows a scroll yet expects a different page: flagged.
	assert.NotEmpty(t, actions[1].Meta().RecoveryHint)
	// c2 follows a click, which can legitimately change the page.
	assert.Empty(t, actions[2].Meta().RecoveryHint)
}

func TestNormalizeTimestampsRebasesAndClamps(t *testing.T) {
	actions := []entities.Action{
		&entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "a", Timestamp: 1700000005000}},
		&entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "b", Timestamp: 1700000004000}},
		&entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "c", Timestamp: 1700000009000}},
	}

	NormalizeTimestamps(actions)
	assert.Equal(t, int64(0), actions[0].Meta().Timestamp)
	// An out-of-order capture timestamp clamps to its predecessor.
	assert.Equal(t, int64(0), actions[1].Meta().Timestamp)
	assert.Equal(t, int64(4000), actions[2].Meta().Timestamp)
}

func TestNormalizeTimestampsIdempotent(t *testing.T) {
	actions := []entities.Action{
		&entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "a", Timestamp: 1000}},
		&entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "b", Timestamp: 1800}},
	}

	NormalizeTimestamps(actions)
	first := []int64{actions[0].Meta().Timestamp, actions[1].Meta().Timestamp}
	NormalizeTimestamps(actions)
	assert.Equal(t, first, []int64{actions[0].Meta().Timestamp, actions[1].Meta().Timestamp})
	assert.Equal(t, int64(800), actions[1].Meta().Timestamp)
}
