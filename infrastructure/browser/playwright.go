// Package browser implements the automation driver interfaces on top
// of playwright-go.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"webreplay/domain/interfaces"
)

// Driver wraps a running playwright process.
type Driver struct {
	pw *playwright.Playwright
}

// NewDriver starts the playwright process. Stop must be called when
// all runs are finished.
func NewDriver() (*Driver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	return &Driver{pw: pw}, nil
}

func (d *Driver) Stop() error {
	return d.pw.Stop()
}

func (d *Driver) Launch(ctx context.Context, opts interfaces.LaunchOptions) (interfaces.Browser, error) {
	var bt playwright.BrowserType
	switch opts.Kind {
	case interfaces.BrowserFirefox:
		bt = d.pw.Firefox
	case interfaces.BrowserWebkit:
		bt = d.pw.WebKit
	default:
		bt = d.pw.Chromium
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-popup-blocking",
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-notifications",
			"--disable-infobars",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", opts.Kind, err)
	}
	return &pwBrowser{browser: b}, nil
}

type pwBrowser struct {
	browser playwright.Browser
}

func (b *pwBrowser) NewContext(ctx context.Context, opts interfaces.ContextOptions) (interfaces.BrowserContext, error) {
	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		IgnoreHttpsErrors: playwright.Bool(true),
		AcceptDownloads:   playwright.Bool(true),
	}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.RecordVideoDir != "" {
		ctxOpts.RecordVideo = &playwright.RecordVideo{Dir: opts.RecordVideoDir}
	}

	c, err := b.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	return &pwContext{context: c}, nil
}

func (b *pwBrowser) Close() error {
	if err := b.browser.Close(); err != nil && !isClosedErr(err) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type pwContext struct {
	context playwright.BrowserContext
}

func (c *pwContext) NewPage(ctx context.Context) (interfaces.Page, error) {
	p, err := c.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	// Dialogs block replay; recordings never capture them explicitly.
	p.OnDialog(func(dialog playwright.Dialog) {
		dialog.Accept()
	})
	return &pwPage{page: p}, nil
}

func (c *pwContext) Close() error {
	if err := c.context.Close(); err != nil && !isClosedErr(err) {
		return fmt.Errorf("failed to close context: %w", err)
	}
	return nil
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Goto(ctx context.Context, url string, wait interfaces.LoadState, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntilState(wait),
		Timeout:   millis(timeout),
	})
	return err
}

func (p *pwPage) Reload(ctx context.Context, timeout time.Duration) error {
	_, err := p.page.Reload(playwright.PageReloadOptions{
		Timeout: millis(timeout),
	})
	return err
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) IsClosed() bool {
	return p.page.IsClosed()
}

func (p *pwPage) Query(ctx context.Context, expr string) (interfaces.ElementSet, error) {
	return &pwElementSet{locator: p.page.Locator(expr)}, nil
}

func (p *pwPage) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	if arg == nil {
		return p.page.Evaluate(script)
	}
	return p.page.Evaluate(script, arg)
}

func (p *pwPage) WaitForLoadState(ctx context.Context, state interfaces.LoadState, timeout time.Duration) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: millis(timeout),
	})
}

func (p *pwPage) WaitForNavigation(ctx context.Context, timeout time.Duration) error {
	_, err := p.page.ExpectNavigation(func() error { return nil }, playwright.PageExpectNavigationOptions{
		Timeout: millis(timeout),
	})
	return err
}

func (p *pwPage) Press(ctx context.Context, key string) error {
	return p.page.Keyboard().Press(key)
}

func (p *pwPage) ScrollTo(ctx context.Context, x, y int) error {
	_, err := p.page.Evaluate("([x, y]) => window.scrollTo(x, y)", []int{x, y})
	return err
}

func (p *pwPage) Content(ctx context.Context) (string, error) {
	return p.page.Content()
}

func (p *pwPage) VideoPath() (string, bool) {
	video := p.page.Video()
	if video == nil {
		return "", false
	}
	path, err := video.Path()
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}

func (p *pwPage) Close() error {
	if err := p.page.Close(); err != nil && !isClosedErr(err) {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}

type pwElementSet struct {
	locator playwright.Locator
}

func (s *pwElementSet) Count(ctx context.Context) (int, error) {
	return s.locator.Count()
}

func (s *pwElementSet) Nth(i int) interfaces.Element {
	return &pwElement{locator: s.locator.Nth(i)}
}

type pwElement struct {
	locator playwright.Locator
}

func (e *pwElement) WaitFor(ctx context.Context, state interfaces.ElementState, timeout time.Duration) error {
	return e.locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   elementState(state),
		Timeout: millis(timeout),
	})
}

func (e *pwElement) IsVisible(ctx context.Context) (bool, error) {
	return e.locator.IsVisible()
}

func (e *pwElement) TextContent(ctx context.Context) (string, error) {
	text, err := e.locator.TextContent()
	if err != nil {
		return "", err
	}
	return text, nil
}

func (e *pwElement) Click(ctx context.Context, button string, clickCount int) error {
	opts := playwright.LocatorClickOptions{}
	switch button {
	case "right":
		opts.Button = playwright.MouseButtonRight
	case "middle":
		opts.Button = playwright.MouseButtonMiddle
	}
	if clickCount > 1 {
		opts.ClickCount = playwright.Int(clickCount)
	}
	return e.locator.Click(opts)
}

func (e *pwElement) Fill(ctx context.Context, value string) error {
	return e.locator.Fill(value)
}

func (e *pwElement) Type(ctx context.Context, value string, delay time.Duration) error {
	return e.locator.PressSequentially(value, playwright.LocatorPressSequentiallyOptions{
		Delay: millis(delay),
	})
}

func (e *pwElement) Clear(ctx context.Context) error {
	return e.locator.Clear()
}

func (e *pwElement) Hover(ctx context.Context) error {
	return e.locator.Hover()
}

func (e *pwElement) ScrollIntoView(ctx context.Context) error {
	return e.locator.ScrollIntoViewIfNeeded()
}

func (e *pwElement) SetScroll(ctx context.Context, x, y int) error {
	_, err := e.locator.Evaluate("(el, pos) => { el.scrollLeft = pos[0]; el.scrollTop = pos[1]; }", []int{x, y})
	return err
}

func (e *pwElement) SelectOption(ctx context.Context, value string) error {
	_, err := e.locator.SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	})
	return err
}

func (e *pwElement) Submit(ctx context.Context) error {
	_, err := e.locator.Evaluate("el => { const f = el.closest('form') || el; if (f.requestSubmit) { f.requestSubmit(); } else { f.submit(); } }", nil)
	return err
}

func (e *pwElement) Ancestor(ctx context.Context, level int) (interfaces.Element, error) {
	if level < 1 {
		return nil, fmt.Errorf("ancestor level must be positive, got %d", level)
	}
	steps := make([]string, level)
	for i := range steps {
		steps[i] = ".."
	}
	return &pwElement{locator: e.locator.Locator("xpath=" + strings.Join(steps, "/"))}, nil
}

func (e *pwElement) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	return e.locator.Evaluate(script, arg)
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func waitUntilState(state interfaces.LoadState) *playwright.WaitUntilState {
	switch state {
	case interfaces.LoadStateDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	case interfaces.LoadStateNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateLoad
	}
}

func loadState(state interfaces.LoadState) *playwright.LoadState {
	switch state {
	case interfaces.LoadStateDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	case interfaces.LoadStateNetworkIdle:
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateLoad
	}
}

func elementState(state interfaces.ElementState) *playwright.WaitForSelectorState {
	switch state {
	case interfaces.ElementStateHidden:
		return playwright.WaitForSelectorStateHidden
	case interfaces.ElementStateAttached:
		return playwright.WaitForSelectorStateAttached
	default:
		return playwright.WaitForSelectorStateVisible
	}
}

func isClosedErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "closed") || strings.Contains(msg, "target closed")
}
