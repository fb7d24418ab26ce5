package replay

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"webreplay/application/navigator"
	"webreplay/domain/entities"
	"webreplay/domain/interfaces"
)

const (
	// navigationRace bounds the wait for a click/submit-triggered
	// navigation so a page change is not mistaken for failure.
	navigationRace = 2 * time.Second
	// navCarryoverWindow is how recently a click/submit navigation may
	// have happened for a recorded navigation action to count as
	// already satisfied.
	navCarryoverWindow = 2 * time.Second
	clickSettle        = 300 * time.Millisecond
	inputSettle        = 200 * time.Millisecond
	scrollSettle       = 200 * time.Millisecond
	modalWait          = 3 * time.Second
	defaultTypingDelay = 50 * time.Millisecond
)

// dispatch executes one action. The type switch is exhaustive over the
// action union; an unknown kind is a programming error.
func (r *run) dispatch(ctx context.Context, action entities.Action) error {
	switch a := action.(type) {
	case *entities.ClickAction:
		return r.execClick(ctx, a)
	case *entities.InputAction:
		return r.execInput(ctx, a)
	case *entities.ScrollAction:
		return r.execScroll(ctx, a)
	case *entities.NavigationAction:
		return r.execNavigation(ctx, a)
	case *entities.SubmitAction:
		return r.execSubmit(ctx, a)
	case *entities.HoverAction:
		return r.execHover(ctx, a)
	case *entities.SelectOptionAction:
		return r.execSelect(ctx, a)
	case *entities.KeypressAction:
		return r.execKeypress(ctx, a)
	case *entities.CheckpointAction:
		return r.execCheckpoint(ctx, a)
	case *entities.ModalAction:
		return r.execModal(ctx, a)
	default:
		return fmt.Errorf("unhandled action kind %q", action.Kind())
	}
}

func (r *run) execClick(ctx context.Context, a *entities.ClickAction) error {
	el, err := r.res.Resolve(ctx, &a.Target, a.Signature)
	if err != nil {
		return err
	}
	if el == nil {
		// The recorded click may have already happened implicitly: if
		// the page moved past the expected URL, the target went with it.
		if a.URL != "" && !navigator.SameDocument(r.page.URL(), a.URL) {
			return nil
		}
		return fmt.Errorf("click target: %w", ErrElementNotFound)
	}
	if err := r.waitVisible(ctx, el); err != nil {
		return err
	}

	// Best-effort dismissal of a transient overlay sitting on top of
	// the target.
	_ = r.page.Press(ctx, "Escape")

	before := r.page.URL()
	if err := el.Click(ctx, a.Button, clickCount(a)); err != nil {
		if r.page.IsClosed() || !navigator.SameDocument(r.page.URL(), before) {
			r.noteInteractionNavigation(before)
			return nil
		}
		return err
	}
	_ = r.page.WaitForNavigation(ctx, navigationRace)
	r.noteInteractionNavigation(before)
	return r.clock.Sleep(ctx, clickSettle)
}

func (r *run) execInput(ctx context.Context, a *entities.InputAction) error {
	el, err := r.res.Resolve(ctx, &a.Target, a.Signature)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("input target: %w", ErrElementNotFound)
	}
	if err := r.waitVisible(ctx, el); err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return err
	}
	if a.Simulation == entities.SimulationRealistic {
		delay := time.Duration(a.TypingDelay) * time.Millisecond
		if delay <= 0 {
			delay = defaultTypingDelay
		}
		if err := el.Type(ctx, a.Value, delay); err != nil {
			return err
		}
	} else if err := el.Fill(ctx, a.Value); err != nil {
		return err
	}
	// Settle: the keystrokes may have opened an autocomplete dropdown
	// the next action expects to interact with.
	return r.clock.Sleep(ctx, inputSettle)
}

func (r *run) execScroll(ctx context.Context, a *entities.ScrollAction) error {
	if a.IsWindow() {
		if err := r.page.ScrollTo(ctx, a.ScrollX, a.ScrollY); err != nil {
			return err
		}
		return r.clock.Sleep(ctx, scrollSettle)
	}
	el, err := r.res.Resolve(ctx, &a.Target, nil)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("scroll target: %w", ErrElementNotFound)
	}
	if err := el.SetScroll(ctx, a.ScrollX, a.ScrollY); err != nil {
		return err
	}
	return r.clock.Sleep(ctx, scrollSettle)
}

func (r *run) execNavigation(ctx context.Context, a *entities.NavigationAction) error {
	current := r.page.URL()

	// A click or submit that just navigated to the target already did
	// this action's work.
	if !r.lastInteractionNav.IsZero() &&
		r.clock.Now().Sub(r.lastInteractionNav) < navCarryoverWindow &&
		navigator.SameDocument(current, a.To) {
		r.nav.Record(current)
		return nil
	}

	// An explicit recorded navigation to the document already on
	// screen, outside the carryover window, was a refresh during
	// capture: replay it as one.
	if navigator.SameDocument(current, a.To) {
		if err := r.page.Reload(ctx, r.opts.Timeout); err != nil && !navigator.SameDocument(r.page.URL(), a.To) {
			return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
		}
		return nil
	}

	if _, err := r.nav.Navigate(ctx, a.To, r.opts.Timeout); err != nil {
		if navigator.SameDocument(r.page.URL(), a.To) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	return nil
}

func (r *run) execSubmit(ctx context.Context, a *entities.SubmitAction) error {
	el, err := r.res.Resolve(ctx, &a.Target, nil)
	if err != nil {
		return err
	}
	before := r.page.URL()
	if el == nil {
		// The submit may have fired as a side effect of the preceding
		// click; a page already past the expected URL confirms it.
		if a.URL != "" && !navigator.SameDocument(before, a.URL) {
			return nil
		}
		return fmt.Errorf("submit target: %w", ErrElementNotFound)
	}
	if err := el.Submit(ctx); err != nil {
		// A vanished element or changed URL means the submit landed.
		if r.page.IsClosed() || !navigator.SameDocument(r.page.URL(), before) {
			r.noteInteractionNavigation(before)
			return nil
		}
		return err
	}
	_ = r.page.WaitForNavigation(ctx, navigationRace)
	r.noteInteractionNavigation(before)
	return nil
}

func (r *run) execHover(ctx context.Context, a *entities.HoverAction) error {
	el, err := r.res.Resolve(ctx, &a.Target, nil)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("hover target: %w", ErrElementNotFound)
	}
	if err := r.waitVisible(ctx, el); err != nil {
		return err
	}
	if err := el.Hover(ctx); err != nil {
		return err
	}
	return r.clock.Sleep(ctx, clickSettle)
}

func (r *run) execSelect(ctx context.Context, a *entities.SelectOptionAction) error {
	el, err := r.res.Resolve(ctx, &a.Target, nil)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("select target: %w", ErrElementNotFound)
	}
	if err := r.waitVisible(ctx, el); err != nil {
		return err
	}
	return el.SelectOption(ctx, a.Value)
}

func (r *run) execKeypress(ctx context.Context, a *entities.KeypressAction) error {
	key := a.Key
	if len(a.Modifiers) > 0 {
		key = strings.Join(a.Modifiers, "+") + "+" + a.Key
	}
	return r.page.Press(ctx, key)
}

func (r *run) execCheckpoint(ctx context.Context, a *entities.CheckpointAction) error {
	if a.URL != "" && !navigator.SameDocument(r.page.URL(), a.URL) {
		return fmt.Errorf("checkpoint expected %s but page is on %s: %w", a.URL, r.page.URL(), ErrPageStateMismatch)
	}
	if a.ExpectText == "" {
		return nil
	}
	set, err := r.page.Query(ctx, fmt.Sprintf("text=%q", a.ExpectText))
	if err != nil {
		return err
	}
	count, err := set.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("checkpoint text %q not found: %w", a.ExpectText, ErrPageStateMismatch)
	}
	return nil
}

// execModal waits for the recorded modal to appear or disappear. A
// timeout is tolerated as success: DOM drift frequently replaces a
// modal with an inline flow, and subsequent actions will fail on their
// own if the page truly diverged.
func (r *run) execModal(ctx context.Context, a *entities.ModalAction) error {
	el, err := r.res.Resolve(ctx, &a.Target, nil)
	if err != nil {
		return err
	}
	if el == nil {
		r.logger.Debug("modal target not found, tolerating", "phase", a.Phase)
		return nil
	}
	state := interfaces.ElementStateVisible
	if a.Phase == entities.ModalClose {
		state = interfaces.ElementStateHidden
	}
	if err := el.WaitFor(ctx, state, modalWait); err != nil {
		r.logger.Debug("modal lifecycle wait timed out, tolerating", "phase", a.Phase, "error", err)
	}
	return nil
}

// waitVisible waits for the element, recovering hidden targets through
// ancestor triggers. An element confirmed still hidden is a failure;
// the engine never forces an interaction on it.
func (r *run) waitVisible(ctx context.Context, el interfaces.Element) error {
	if err := el.WaitFor(ctx, interfaces.ElementStateVisible, r.opts.Timeout); err == nil {
		return nil
	}
	visible, err := r.res.RecoverVisibility(ctx, el)
	if err != nil {
		return err
	}
	if !visible {
		return fmt.Errorf("element resolved but still hidden after recovery: %w", ErrActionTimeout)
	}
	return nil
}

// noteInteractionNavigation records a navigation caused by a click or
// submit so that a following recorded navigation action sees it.
func (r *run) noteInteractionNavigation(before string) {
	current := r.page.URL()
	if r.page.IsClosed() || navigator.SameDocument(current, before) {
		return
	}
	r.nav.Record(current)
	r.lastInteractionNav = r.clock.Now()
}

func clickCount(a *entities.ClickAction) int {
	if a.ClickCount > 1 {
		return a.ClickCount
	}
	return 1
}

// plausibleJumpTarget recognizes intentional cross-domain hops: the
// same registrable domain (app.example.com vs example.com) or a host
// whose name marks it as an auth or payment counterpart.
func plausibleJumpTarget(current, expected string) bool {
	cu, err := url.Parse(current)
	if err != nil {
		return false
	}
	eu, err := url.Parse(expected)
	if err != nil {
		return false
	}
	if sameRegistrableDomain(cu.Hostname(), eu.Hostname()) {
		return true
	}
	host := strings.ToLower(cu.Hostname())
	for _, tok := range []string{"login", "auth", "account", "sso", "checkout", "pay"} {
		if strings.Contains(host, tok) {
			return true
		}
	}
	return false
}

func sameRegistrableDomain(a, b string) bool {
	suffix := func(host string) string {
		parts := strings.Split(strings.ToLower(host), ".")
		if len(parts) < 2 {
			return strings.ToLower(host)
		}
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return a != "" && b != "" && suffix(a) == suffix(b)
}
