// Package fakedriver provides a scripted in-memory implementation of
// the automation driver interfaces plus a deterministic clock, used by
// the resolver, navigator, and engine tests.
package fakedriver

import (
	"context"
	"errors"
	"sync"
	"time"

	"webreplay/domain/entities"
	"webreplay/domain/interfaces"
)

// Clock is a manual clock: Sleep advances it instead of blocking.
type Clock struct {
	Current time.Time
	Slept   []time.Duration
}

func NewClock() *Clock {
	return &Clock{Current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time { return c.Current }

func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Slept = append(c.Slept, d)
	c.Current = c.Current.Add(d)
	return nil
}

func (c *Clock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// Element is one scripted DOM node.
type Element struct {
	Visible bool
	Text    string

	Parent      *Element
	ProbeResult any
	EvalFn      func(script string, arg any) (any, error)

	// Hooks for visibility-recovery scripting.
	OnHover func(*Element)
	OnClick func(*Element)

	ClickErr  error
	FillErr   error
	SubmitErr error

	Clicked          bool
	ClickButton      string
	ClickCount       int
	Hovered          bool
	Cleared          bool
	Filled           string
	Typed            string
	TypeDelay        time.Duration
	ScrollX, ScrollY int
	Selected         string
	Submitted        bool
	ScrolledIntoView bool
}

func (e *Element) WaitFor(ctx context.Context, state interfaces.ElementState, timeout time.Duration) error {
	switch state {
	case interfaces.ElementStateHidden:
		if !e.Visible {
			return nil
		}
	case interfaces.ElementStateVisible:
		if e.Visible {
			return nil
		}
	default:
		return nil
	}
	return errors.New("timeout waiting for element state " + string(state))
}

func (e *Element) IsVisible(ctx context.Context) (bool, error) { return e.Visible, nil }

func (e *Element) TextContent(ctx context.Context) (string, error) { return e.Text, nil }

func (e *Element) Click(ctx context.Context, button string, clickCount int) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicked = true
	e.ClickButton = button
	e.ClickCount = clickCount
	if e.OnClick != nil {
		e.OnClick(e)
	}
	return nil
}

func (e *Element) Fill(ctx context.Context, value string) error {
	if e.FillErr != nil {
		return e.FillErr
	}
	e.Filled = value
	return nil
}

func (e *Element) Type(ctx context.Context, value string, delay time.Duration) error {
	e.Typed = value
	e.TypeDelay = delay
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	e.Cleared = true
	return nil
}

func (e *Element) Hover(ctx context.Context) error {
	e.Hovered = true
	if e.OnHover != nil {
		e.OnHover(e)
	}
	return nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	e.ScrolledIntoView = true
	return nil
}

func (e *Element) SetScroll(ctx context.Context, x, y int) error {
	e.ScrollX, e.ScrollY = x, y
	return nil
}

func (e *Element) SelectOption(ctx context.Context, value string) error {
	e.Selected = value
	return nil
}

func (e *Element) Submit(ctx context.Context) error {
	if e.SubmitErr != nil {
		return e.SubmitErr
	}
	e.Submitted = true
	return nil
}

func (e *Element) Ancestor(ctx context.Context, level int) (interfaces.Element, error) {
	node := e
	for i := 0; i < level; i++ {
		if node.Parent == nil {
			return &Element{}, nil
		}
		node = node.Parent
	}
	return node, nil
}

func (e *Element) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	if e.EvalFn != nil {
		return e.EvalFn(script, arg)
	}
	return e.ProbeResult, nil
}

// ElementSet is a fixed list of scripted elements.
type ElementSet struct {
	Elements []*Element
	CountErr error
}

func (s *ElementSet) Count(ctx context.Context) (int, error) {
	if s.CountErr != nil {
		return 0, s.CountErr
	}
	return len(s.Elements), nil
}

func (s *ElementSet) Nth(i int) interfaces.Element {
	if i < 0 || i >= len(s.Elements) {
		return &Element{}
	}
	return s.Elements[i]
}

// Page is a scripted page: queries resolve against Sets, navigations
// rewrite CurrentURL unless scripted otherwise.
type Page struct {
	CurrentURL string
	Closed     bool
	HTML       string

	Sets     map[string]*ElementSet
	GotoFn   func(url string) error
	GotoErrs map[string]error
	EvalFn   func(script string, arg any) (any, error)

	NavWaitErr error
	VideoPath_ string
	OnPress    func(key string)

	QueryLog     []string
	GotoLog      []string
	PressLog     []string
	LoadStateLog []interfaces.LoadState
	ReloadCount  int
	ScrollXY     [2]int
}

func NewPage(url string) *Page {
	return &Page{CurrentURL: url, Sets: map[string]*ElementSet{}}
}

// Set scripts the result of querying expr.
func (p *Page) Set(expr string, elements ...*Element) *ElementSet {
	set := &ElementSet{Elements: elements}
	p.Sets[expr] = set
	return set
}

func (p *Page) Goto(ctx context.Context, url string, wait interfaces.LoadState, timeout time.Duration) error {
	p.GotoLog = append(p.GotoLog, url)
	if p.GotoFn != nil {
		return p.GotoFn(url)
	}
	if err, ok := p.GotoErrs[url]; ok {
		return err
	}
	p.CurrentURL = url
	return nil
}

func (p *Page) Reload(ctx context.Context, timeout time.Duration) error {
	p.ReloadCount++
	return nil
}

func (p *Page) URL() string { return p.CurrentURL }

func (p *Page) IsClosed() bool { return p.Closed }

func (p *Page) Query(ctx context.Context, expr string) (interfaces.ElementSet, error) {
	p.QueryLog = append(p.QueryLog, expr)
	if set, ok := p.Sets[expr]; ok {
		return set, nil
	}
	return &ElementSet{}, nil
}

func (p *Page) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	if p.EvalFn != nil {
		return p.EvalFn(script, arg)
	}
	return nil, nil
}

func (p *Page) WaitForLoadState(ctx context.Context, state interfaces.LoadState, timeout time.Duration) error {
	p.LoadStateLog = append(p.LoadStateLog, state)
	return nil
}

func (p *Page) WaitForNavigation(ctx context.Context, timeout time.Duration) error {
	return p.NavWaitErr
}

func (p *Page) Press(ctx context.Context, key string) error {
	p.PressLog = append(p.PressLog, key)
	if p.OnPress != nil {
		p.OnPress(key)
	}
	return nil
}

func (p *Page) ScrollTo(ctx context.Context, x, y int) error {
	p.ScrollXY = [2]int{x, y}
	return nil
}

func (p *Page) Content(ctx context.Context) (string, error) { return p.HTML, nil }

func (p *Page) VideoPath() (string, bool) {
	return p.VideoPath_, p.VideoPath_ != ""
}

func (p *Page) Close() error {
	p.Closed = true
	return nil
}

type Context struct {
	Page       *Page
	NewPageErr error
	Closed     bool
}

func (c *Context) NewPage(ctx context.Context) (interfaces.Page, error) {
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	return c.Page, nil
}

func (c *Context) Close() error {
	c.Closed = true
	return nil
}

type Browser struct {
	Context       *Context
	NewContextErr error
	Closed        bool
	ContextOpts   interfaces.ContextOptions
}

func (b *Browser) NewContext(ctx context.Context, opts interfaces.ContextOptions) (interfaces.BrowserContext, error) {
	if b.NewContextErr != nil {
		return nil, b.NewContextErr
	}
	b.ContextOpts = opts
	return b.Context, nil
}

func (b *Browser) Close() error {
	b.Closed = true
	return nil
}

type Driver struct {
	Browser    *Browser
	LaunchErr  error
	LaunchOpts interfaces.LaunchOptions
}

// NewDriver wires a driver whose single browser/context serves page.
func NewDriver(page *Page) *Driver {
	return &Driver{Browser: &Browser{Context: &Context{Page: page}}}
}

func (d *Driver) Launch(ctx context.Context, opts interfaces.LaunchOptions) (interfaces.Browser, error) {
	if d.LaunchErr != nil {
		return nil, d.LaunchErr
	}
	d.LaunchOpts = opts
	return d.Browser, nil
}

// Reporter records every callback for assertions.
type Reporter struct {
	mu        sync.Mutex
	Started   []string
	Succeeded []string
	Skipped   []string
	Failed    []string
	Completed []*entities.RunResult
}

func (r *Reporter) OnStart(testName string, actionsTotal int) {}

func (r *Reporter) OnActionStart(action entities.Action, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Started = append(r.Started, action.Meta().ID)
}

func (r *Reporter) OnActionSuccess(action entities.Action, index int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Succeeded = append(r.Succeeded, action.Meta().ID)
}

func (r *Reporter) OnActionSkipped(action entities.Action, index int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped = append(r.Skipped, action.Meta().ID)
}

func (r *Reporter) OnActionError(action entities.Action, index int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed = append(r.Failed, action.Meta().ID)
}

func (r *Reporter) OnComplete(result *entities.RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Completed = append(r.Completed, result)
}
