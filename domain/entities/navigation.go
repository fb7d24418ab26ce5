package entities

import "time"

// NavigationEntry is one visited URL in a run's append-only navigation
// log. Entries are scoped to a single run and discarded with it.
type NavigationEntry struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}
