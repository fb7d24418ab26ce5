package replay

import (
	"errors"
	"strings"
)

// Error taxonomy of the engine. Ambiguous matches collapse into
// not-found at the resolver boundary, so the taxonomy carries no
// separate ambiguity sentinel.
var (
	ErrElementNotFound   = errors.New("element not found")
	ErrPageStateMismatch = errors.New("page state mismatch")
	ErrNavigationTimeout = errors.New("navigation timeout")
	ErrActionTimeout     = errors.New("action timeout")
	ErrBrowserFatal      = errors.New("browser fatal")
)

// Severity drives the engine's recovery policy for a dispatch error.
type Severity int

const (
	// SeverityRecoverable: record the failure, attempt bounded local
	// recovery, keep going.
	SeverityRecoverable Severity = iota
	// SeverityExpected: the "error" is a navigation side effect; count
	// the action as succeeded.
	SeverityExpected
	// SeverityFatal: the browser, context, or page is gone; stop the
	// run immediately.
	SeverityFatal
)

// fatalTokens are the driver error fragments that mean the browser
// stack is destroyed. Mirrors the "target closed" family playwright
// reports on teardown.
var fatalTokens = []string{
	"target closed",
	"browser has been closed",
	"context has been closed",
	"page has been closed",
	"browser closed",
	"connection closed",
	"crashed",
}

// Classify maps a dispatch error onto the recovery policy.
func Classify(err error) Severity {
	if err == nil {
		return SeverityExpected
	}
	if errors.Is(err, ErrBrowserFatal) {
		return SeverityFatal
	}
	msg := strings.ToLower(err.Error())
	for _, tok := range fatalTokens {
		if strings.Contains(msg, tok) {
			return SeverityFatal
		}
	}
	if isNavigationSideEffect(msg) {
		return SeverityExpected
	}
	return SeverityRecoverable
}

// isNavigationSideEffect recognizes errors whose text indicates a
// navigation happened mid-action without being a timeout: the page
// moved on, which is the recorded behavior, not a failure.
func isNavigationSideEffect(msg string) bool {
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") {
		return false
	}
	return strings.Contains(msg, "navigation") || strings.Contains(msg, "navigated") ||
		strings.Contains(msg, "frame was detached") || strings.Contains(msg, "element was detached")
}
