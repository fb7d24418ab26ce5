package entities

import "time"

// RunStatus is the aggregate outcome of a run.
type RunStatus string

const (
	StatusSuccess   RunStatus = "success"
	StatusPartial   RunStatus = "partial"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// ActionStatus is the per-action lifecycle outcome.
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionExecuting ActionStatus = "executing"
	ActionSucceeded ActionStatus = "succeeded"
	ActionFailed    ActionStatus = "failed"
	ActionSkipped   ActionStatus = "skipped"
)

// ActionError is one recorded per-action failure.
type ActionError struct {
	ActionID   string     `json:"actionId"`
	ActionType ActionKind `json:"actionType"`
	Error      string     `json:"error"`
	Timestamp  time.Time  `json:"timestamp"`
}

// RunResult accumulates the outcome of one replay run. It is created
// at run start, mutated only by the engine, and finalized exactly once.
type RunResult struct {
	RunID           string        `json:"runId"`
	TestName        string        `json:"testName"`
	Status          RunStatus     `json:"status"`
	Duration        time.Duration `json:"duration"`
	ActionsTotal    int           `json:"actionsTotal"`
	ActionsExecuted int           `json:"actionsExecuted"`
	ActionsFailed   int           `json:"actionsFailed"`
	ActionsSkipped  int           `json:"actionsSkipped"`
	Errors          []ActionError `json:"errors,omitempty"`
	TimingEnabled   bool          `json:"timingEnabled"`
	VideoPath       string        `json:"videoPath,omitempty"`
}

// Attempted is the number of actions that reached execution:
// executed + failed. Skipped actions never count as attempted.
func (r *RunResult) Attempted() int {
	return r.ActionsExecuted + r.ActionsFailed
}

// RecordError appends a per-action error and counts the failure.
func (r *RunResult) RecordError(action Action, err error, at time.Time) {
	r.ActionsFailed++
	r.Errors = append(r.Errors, ActionError{
		ActionID:   action.Meta().ID,
		ActionType: action.Kind(),
		Error:      err.Error(),
		Timestamp:  at,
	})
}

// AggregateStatus evaluates the run-status rule: success iff nothing
// failed and at least one action executed; failed iff every attempted
// action failed; partial otherwise.
func AggregateStatus(executed, failed int) RunStatus {
	switch {
	case failed == 0 && executed > 0:
		return StatusSuccess
	case failed > 0 && executed == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
