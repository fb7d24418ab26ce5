// Package replay drives one recording through a live browser page:
// per-action pacing, duplicate suppression, page-state validation,
// dispatch, and error-severity-based recovery, producing a RunResult.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"webreplay/application/navigator"
	"webreplay/application/resolver"
	"webreplay/domain/entities"
	"webreplay/domain/interfaces"
)

// Options configures one run.
type Options struct {
	Browser         interfaces.BrowserKind
	Headless        bool
	Video           bool
	VideoDir        string
	Timeout         time.Duration
	EnableTiming    bool
	TimingMode      TimingMode
	SpeedMultiplier float64
	MaxActionDelay  time.Duration
}

const (
	defaultTimeout        = 10 * time.Second
	defaultMaxActionDelay = 5 * time.Second
)

func (o *Options) withDefaults() {
	if o.Browser == "" {
		o.Browser = interfaces.BrowserChromium
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxActionDelay <= 0 {
		o.MaxActionDelay = defaultMaxActionDelay
	}
	if o.TimingMode == "" {
		o.TimingMode = TimingFast
	}
}

// Engine replays recordings. One Engine may serve concurrent runs;
// each run gets its own browser/context/page triple and shares no
// mutable state with the others.
type Engine struct {
	driver   interfaces.Driver
	clock    interfaces.Clock
	reporter interfaces.Reporter
	opts     Options
	logger   *slog.Logger
}

func NewEngine(driver interfaces.Driver, clk interfaces.Clock, reporter interfaces.Reporter, opts Options) *Engine {
	opts.withDefaults()
	if reporter == nil {
		reporter = interfaces.NopReporter{}
	}
	return &Engine{
		driver:   driver,
		clock:    clk,
		reporter: reporter,
		opts:     opts,
		logger:   slog.Default(),
	}
}

// run is the per-run state: one cooperative control flow over one
// browser/context/page triple.
type run struct {
	*Engine
	page    interfaces.Page
	nav     *navigator.Navigator
	res     *resolver.Resolver
	result  *entities.RunResult
	started time.Time
	// lastInteractionNav is when a click or submit last caused a
	// navigation; a recorded navigation to the same target within the
	// carryover window is treated as already satisfied.
	lastInteractionNav time.Time
}

// Run executes the recording and returns its result. Run-level
// failures (launch, initial navigation) produce a failed result with
// zero attempted actions; per-action failures are accumulated and the
// run continues.
func (e *Engine) Run(ctx context.Context, rec *entities.Recording) *entities.RunResult {
	result := &entities.RunResult{
		RunID:         uuid.NewString(),
		TestName:      rec.TestName,
		Status:        entities.StatusFailed,
		ActionsTotal:  len(rec.Actions),
		TimingEnabled: e.opts.EnableTiming,
	}
	started := e.clock.Now()
	defer func() {
		result.Duration = e.clock.Now().Sub(started)
		e.reporter.OnComplete(result)
	}()

	browser, err := e.driver.Launch(ctx, interfaces.LaunchOptions{
		Kind:     e.opts.Browser,
		Headless: e.opts.Headless,
	})
	if err != nil {
		e.abort(result, "launch", err)
		return result
	}
	defer browser.Close()

	ctxOpts := interfaces.ContextOptions{
		ViewportWidth:  rec.Viewport.Width,
		ViewportHeight: rec.Viewport.Height,
		UserAgent:      rec.UserAgent,
	}
	if e.opts.Video {
		ctxOpts.RecordVideoDir = e.opts.VideoDir
	}
	bctx, err := browser.NewContext(ctx, ctxOpts)
	if err != nil {
		e.abort(result, "context", err)
		return result
	}
	defer bctx.Close()

	page, err := bctx.NewPage(ctx)
	if err != nil {
		e.abort(result, "page", err)
		return result
	}
	// Deferred closes run page first, then context, then browser.
	defer page.Close()
	defer func() {
		if path, ok := page.VideoPath(); ok {
			result.VideoPath = path
		}
	}()

	if err := page.Goto(ctx, rec.URL, interfaces.LoadStateLoad, e.opts.Timeout); err != nil {
		e.abort(result, "initial-navigation", err)
		return result
	}

	actions := Preprocess(rec.Actions)
	result.ActionsTotal = len(actions)

	r := &run{
		Engine:  e,
		page:    page,
		nav:     navigator.New(page, e.clock),
		res:     resolver.New(page, e.clock, e.opts.Timeout),
		result:  result,
		started: started,
	}
	r.nav.Record(rec.URL)

	e.reporter.OnStart(rec.TestName, len(actions))
	r.loop(ctx, actions)
	return result
}

func (e *Engine) abort(result *entities.RunResult, stage string, err error) {
	e.logger.Error("run aborted", "stage", stage, "error", err)
	result.Errors = append(result.Errors, entities.ActionError{
		ActionID:  stage,
		Error:     err.Error(),
		Timestamp: e.clock.Now(),
	})
	result.Status = entities.StatusFailed
}

func (r *run) loop(ctx context.Context, actions []entities.Action) {
	mult := effectiveMultiplier(r.opts.TimingMode, r.opts.SpeedMultiplier)

	var prev entities.Action
	var prevAt time.Time

	for i, action := range actions {
		select {
		case <-ctx.Done():
			r.result.Status = entities.StatusCancelled
			return
		default:
		}

		if r.opts.EnableTiming && i > 0 {
			delay := pacingDelay(action.Meta().Timestamp, mult, r.clock.Now().Sub(r.started), r.opts.MaxActionDelay)
			if err := r.clock.Sleep(ctx, delay); err != nil {
				r.result.Status = entities.StatusCancelled
				return
			}
		}

		if isDuplicate(prev, action, r.clock.Now().Sub(prevAt)) {
			r.result.ActionsSkipped++
			r.reporter.OnActionSkipped(action, i, "duplicate of previous action within 500ms")
			continue
		}

		if action.Kind() != entities.ActionNavigation && action.Meta().URL != "" {
			if err := r.validatePageState(ctx, action); err != nil {
				r.result.RecordError(action, err, r.clock.Now())
				r.reporter.OnActionError(action, i, err)
				prev, prevAt = action, r.clock.Now()
				continue
			}
		}

		r.reporter.OnActionStart(action, i)
		actionStart := r.clock.Now()
		err := r.dispatch(ctx, action)

		switch {
		case err == nil:
			r.result.ActionsExecuted++
			r.reporter.OnActionSuccess(action, i, r.clock.Now().Sub(actionStart))
		default:
			switch Classify(err) {
			case SeverityFatal:
				r.result.RecordError(action, fmt.Errorf("%w: %v", ErrBrowserFatal, err), r.clock.Now())
				r.reporter.OnActionError(action, i, err)
				r.result.Status = entities.StatusFailed
				return
			case SeverityExpected:
				r.result.ActionsExecuted++
				r.reporter.OnActionSuccess(action, i, r.clock.Now().Sub(actionStart))
			default:
				if r.acceptableCrossDomainJump(action) {
					r.logger.Debug("accepting cross-domain jump", "url", r.page.URL())
					r.result.ActionsExecuted++
					r.reporter.OnActionSuccess(action, i, r.clock.Now().Sub(actionStart))
				} else {
					r.localRecovery(ctx)
					r.result.RecordError(action, err, r.clock.Now())
					r.reporter.OnActionError(action, i, err)
				}
			}
		}
		prev, prevAt = action, r.clock.Now()
	}

	r.result.Status = entities.AggregateStatus(r.result.ActionsExecuted, r.result.ActionsFailed)
}

// validatePageState checks that the live URL matches the action's
// expected URL (host+path, query and fragment ignored) and attempts
// correction on mismatch: history-aware navigation, then a direct
// reload of the expected URL, then one final direct attempt.
func (r *run) validatePageState(ctx context.Context, action entities.Action) error {
	expected := action.Meta().URL
	if navigator.SameDocument(r.page.URL(), expected) {
		return nil
	}
	if action.Meta().RecoveryHint != "" {
		r.logger.Debug("expected page divergence", "hint", action.Meta().RecoveryHint, "expected", expected)
	}

	if res, err := r.nav.Navigate(ctx, expected, r.opts.Timeout); err == nil && res.Success {
		if navigator.SameDocument(r.page.URL(), expected) {
			return nil
		}
	}

	if err := r.page.Goto(ctx, expected, interfaces.LoadStateDOMContentLoaded, r.opts.Timeout); err == nil {
		if navigator.SameDocument(r.page.URL(), expected) {
			r.nav.Record(r.page.URL())
			return nil
		}
	}

	if err := r.page.Goto(ctx, expected, interfaces.LoadStateLoad, r.opts.Timeout); err == nil {
		if navigator.SameDocument(r.page.URL(), expected) {
			r.nav.Record(r.page.URL())
			return nil
		}
	}

	return fmt.Errorf("expected %s but page is on %s: %w", expected, r.page.URL(), ErrPageStateMismatch)
}

// acceptableCrossDomainJump accepts a failure when the page left the
// expected host for what looks like an intentional hop: a sibling of
// the same registrable domain, or a dedicated auth/payment host.
func (r *run) acceptableCrossDomainJump(action entities.Action) bool {
	expected := action.Meta().URL
	if expected == "" {
		return false
	}
	current := r.page.URL()
	if navigator.SameHost(current, expected) {
		return false
	}
	return plausibleJumpTarget(current, expected)
}

// localRecovery is the bounded cleanup after a recoverable error:
// dismiss whatever overlay may be eating events and let the network
// settle. Failure here is irrelevant; the run continues either way.
func (r *run) localRecovery(ctx context.Context) {
	_ = r.page.Press(ctx, "Escape")
	_ = r.page.WaitForLoadState(ctx, interfaces.LoadStateNetworkIdle, 2*time.Second)
}
