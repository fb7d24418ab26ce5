package interfaces

import (
	"context"
	"time"
)

// BrowserKind selects the browser engine a run drives.
type BrowserKind string

const (
	BrowserChromium BrowserKind = "chromium"
	BrowserFirefox  BrowserKind = "firefox"
	BrowserWebkit   BrowserKind = "webkit"
)

// LoadState names the page load milestones a wait can target.
type LoadState string

const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// ElementState names the element conditions a wait can target.
type ElementState string

const (
	ElementStateAttached ElementState = "attached"
	ElementStateVisible  ElementState = "visible"
	ElementStateHidden   ElementState = "hidden"
)

type LaunchOptions struct {
	Kind     BrowserKind
	Headless bool
}

type ContextOptions struct {
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	// RecordVideoDir enables context-level video capture when non-empty.
	RecordVideoDir string
}

// Driver launches browsers. It is the single entry point of the
// automation stack; everything the engine does with a live page goes
// through the interfaces below.
type Driver interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

type Browser interface {
	NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error)
	Close() error
}

type BrowserContext interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one live browser tab. Every method that can block takes an
// explicit timeout; the engine never issues an unbounded wait.
type Page interface {
	Goto(ctx context.Context, url string, wait LoadState, timeout time.Duration) error
	Reload(ctx context.Context, timeout time.Duration) error
	URL() string
	IsClosed() bool
	// Query materializes a selector expression into a live element set.
	Query(ctx context.Context, expr string) (ElementSet, error)
	Evaluate(ctx context.Context, script string, arg any) (any, error)
	WaitForLoadState(ctx context.Context, state LoadState, timeout time.Duration) error
	// WaitForNavigation blocks until a navigation commits or the timeout
	// elapses.
	WaitForNavigation(ctx context.Context, timeout time.Duration) error
	Press(ctx context.Context, key string) error
	ScrollTo(ctx context.Context, x, y int) error
	Content(ctx context.Context) (string, error)
	// VideoPath returns the recorded video file, if capture was enabled.
	VideoPath() (string, bool)
	Close() error
}

// ElementSet is the result of a query: zero or more matches in
// document order.
type ElementSet interface {
	Count(ctx context.Context) (int, error)
	Nth(i int) Element
}

type Element interface {
	WaitFor(ctx context.Context, state ElementState, timeout time.Duration) error
	IsVisible(ctx context.Context) (bool, error)
	TextContent(ctx context.Context) (string, error)
	Click(ctx context.Context, button string, clickCount int) error
	Fill(ctx context.Context, value string) error
	Type(ctx context.Context, value string, delay time.Duration) error
	Clear(ctx context.Context) error
	Hover(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
	SetScroll(ctx context.Context, x, y int) error
	SelectOption(ctx context.Context, value string) error
	// Submit submits the form owning this element.
	Submit(ctx context.Context) error
	// Ancestor returns the element `level` steps up the DOM tree.
	Ancestor(ctx context.Context, level int) (Element, error)
	Evaluate(ctx context.Context, script string, arg any) (any, error)
}
