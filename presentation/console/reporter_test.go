package console

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"webreplay/domain/entities"
)

func TestReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	click := &entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "c1"}}

	r.OnStart("checkout flow", 3)
	r.OnActionSuccess(click, 0, 420*time.Millisecond)
	r.OnActionSkipped(click, 1, "duplicate of previous action within 500ms")
	r.OnActionError(click, 2, errors.New("element not found"))
	r.OnComplete(&entities.RunResult{
		TestName:        "checkout flow",
		Status:          entities.StatusPartial,
		Duration:        3 * time.Second,
		ActionsTotal:    3,
		ActionsExecuted: 1,
		ActionsFailed:   1,
		ActionsSkipped:  1,
		Errors: []entities.ActionError{
			{ActionID: "c1", ActionType: entities.ActionClick, Error: "element not found"},
		},
		VideoPath: "videos/run.webm",
	})

	out := buf.String()
	assert.Contains(t, out, "replaying checkout flow (3 actions)")
	// The summary table renders with its header row (tablewriter
	// uppercases header cells).
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "EXECUTED")
	assert.Contains(t, out, "click ok")
	assert.Contains(t, out, "skipped: duplicate")
	assert.Contains(t, out, "failed: element not found")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "videos/run.webm")
}

func TestReporterVerboseAnnouncesActions(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, true)

	click := &entities.ClickAction{ActionMeta: entities.ActionMeta{ID: "c1"}}
	r.OnActionStart(click, 0)
	assert.Contains(t, buf.String(), "[1] click")

	quiet := NewReporter(&buf, false)
	buf.Reset()
	quiet.OnActionStart(click, 0)
	assert.Empty(t, buf.String())
}
