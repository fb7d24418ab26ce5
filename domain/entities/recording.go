package entities

import (
	"encoding/json"
	"fmt"
	"os"
)

// Viewport is the browser window size the recording was captured with.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Recording is the immutable input of a run: an ordered sequence of
// captured actions plus the context they were captured in.
type Recording struct {
	ID        string   `json:"id"`
	TestName  string   `json:"testName"`
	URL       string   `json:"url"`
	Viewport  Viewport `json:"viewport"`
	UserAgent string   `json:"userAgent,omitempty"`
	Actions   []Action `json:"-"`
}

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
)

// UnmarshalJSON decodes the recording and its action union.
func (r *Recording) UnmarshalJSON(data []byte) error {
	type alias Recording
	var raw struct {
		alias
		RawActions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Recording(raw.alias)
	r.Actions = make([]Action, 0, len(raw.RawActions))
	for i, ra := range raw.RawActions {
		a, err := DecodeAction(ra)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		r.Actions = append(r.Actions, a)
	}
	return nil
}

// Validate checks the fields replay cannot run without and fills
// viewport defaults.
func (r *Recording) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("recording %q has no start URL", r.ID)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("recording %q has no actions", r.ID)
	}
	if r.Viewport.Width <= 0 {
		r.Viewport.Width = defaultViewportWidth
	}
	if r.Viewport.Height <= 0 {
		r.Viewport.Height = defaultViewportHeight
	}
	if r.TestName == "" {
		r.TestName = r.ID
	}
	return nil
}

// LoadRecording reads and validates a recording JSON file.
func LoadRecording(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse recording %s: %w", path, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}
