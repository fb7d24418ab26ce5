// Package navigator tracks the URLs a run has visited and repairs
// divergence between where the recording expects the page to be and
// where it actually is.
package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"webreplay/domain/entities"
	"webreplay/domain/interfaces"
)

// Method names how a navigation request was satisfied.
type Method string

const (
	MethodCurrent Method = "already-there"
	MethodHistory Method = "history"
	MethodDirect  Method = "direct"
)

// Result reports the outcome of a Navigate call.
type Result struct {
	Success bool
	Method  Method
}

type Navigator struct {
	page    interfaces.Page
	clock   interfaces.Clock
	entries []entities.NavigationEntry
	logger  *slog.Logger
}

func New(page interfaces.Page, clk interfaces.Clock) *Navigator {
	return &Navigator{
		page:   page,
		clock:  clk,
		logger: slog.Default(),
	}
}

// Record appends url to the run's navigation log. Every successful
// navigation must land here, whether issued by Navigate or inferred
// from a click/submit side effect, so that later page-state checks see
// a consistent history.
func (n *Navigator) Record(u string) {
	n.entries = append(n.entries, entities.NavigationEntry{
		URL:       u,
		Timestamp: n.clock.Now(),
	})
}

// Entries returns the append-only navigation log.
func (n *Navigator) Entries() []entities.NavigationEntry {
	return n.entries
}

// Visited reports whether the run has already navigated to a URL equal
// to target (host+path equality).
func (n *Navigator) Visited(target string) bool {
	for _, e := range n.entries {
		if SameDocument(e.URL, target) {
			return true
		}
	}
	return false
}

// Navigate brings the page to target. It short-circuits when the page
// is already there, prefers retracing a navigation already proven to
// work in this run, and falls back to a fresh direct navigation with
// the given timeout.
func (n *Navigator) Navigate(ctx context.Context, target string, timeout time.Duration) (Result, error) {
	if SameDocument(n.page.URL(), target) {
		return Result{Success: true, Method: MethodCurrent}, nil
	}

	if n.Visited(target) {
		// The target was reached directly earlier in this run, so a
		// plain goto is known-good; no need for the heavier load wait.
		if err := n.page.Goto(ctx, target, interfaces.LoadStateDOMContentLoaded, timeout); err == nil {
			n.Record(n.page.URL())
			return Result{Success: true, Method: MethodHistory}, nil
		}
		n.logger.Debug("history navigation failed, retrying direct", "target", target)
	}

	if err := n.page.Goto(ctx, target, interfaces.LoadStateLoad, timeout); err != nil {
		// A timeout with the page nonetheless on the target still
		// counts: slow subresources must not fail the navigation.
		if SameDocument(n.page.URL(), target) {
			n.Record(n.page.URL())
			return Result{Success: true, Method: MethodDirect}, nil
		}
		return Result{Success: false, Method: MethodDirect}, fmt.Errorf("navigation to %s failed: %w", target, err)
	}
	n.Record(n.page.URL())
	return Result{Success: true, Method: MethodDirect}, nil
}

// SameDocument compares two URLs by host and path, ignoring query,
// fragment, scheme, and a trailing slash.
func SameDocument(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return normalizeHost(ua) == normalizeHost(ub) && normalizePath(ua.Path) == normalizePath(ub.Path)
}

// SameHost compares only the hosts of two URLs.
func SameHost(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return normalizeHost(ua) == normalizeHost(ub)
}

func normalizeHost(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return strings.TrimSuffix(p, "/")
}
