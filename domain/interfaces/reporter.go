package interfaces

import (
	"time"

	"webreplay/domain/entities"
)

// Reporter receives run lifecycle callbacks. All operator-facing
// narration flows through here; silent and batch modes plug in
// NopReporter.
type Reporter interface {
	OnStart(testName string, actionsTotal int)
	OnActionStart(action entities.Action, index int)
	OnActionSuccess(action entities.Action, index int, duration time.Duration)
	OnActionSkipped(action entities.Action, index int, reason string)
	OnActionError(action entities.Action, index int, err error)
	OnComplete(result *entities.RunResult)
}

// NopReporter discards every callback.
type NopReporter struct{}

func (NopReporter) OnStart(string, int)                                {}
func (NopReporter) OnActionStart(entities.Action, int)                 {}
func (NopReporter) OnActionSuccess(entities.Action, int, time.Duration) {}
func (NopReporter) OnActionSkipped(entities.Action, int, string)       {}
func (NopReporter) OnActionError(entities.Action, int, error)          {}
func (NopReporter) OnComplete(*entities.RunResult)                     {}
