package entities

import (
	"encoding/json"
	"fmt"
)

// Strategy identifies how a selector candidate locates an element.
type Strategy string

const (
	StrategyID          Strategy = "id"
	StrategyCSS         Strategy = "css"
	StrategyXPath       Strategy = "xpath"
	StrategyName        Strategy = "name"
	StrategyAriaLabel   Strategy = "aria-label"
	StrategyTextContent Strategy = "text-content"
	StrategyCSSSemantic Strategy = "css-semantic"
	StrategyHrefPattern Strategy = "href-pattern"
	StrategySrcPattern  Strategy = "src-pattern"
	StrategyPosition    Strategy = "position"
)

// legacyConfidence is assigned to candidates decoded from the legacy
// plain-list selector form. It sits below the trust threshold so the
// legacy path always tolerates ambiguity and runs through
// disambiguation.
const legacyConfidence = 50

// PositionValue is the structured payload of a position-strategy
// candidate: the nth child of a parent container.
type PositionValue struct {
	Parent string `json:"parent"`
	Index  int    `json:"index"`
}

// SelectorCandidate is one way of finding an element: a strategy with
// its value, tried in ascending Priority order. Confidence (0-100) is
// the recorder's certainty that the selector uniquely identifies the
// intended element.
type SelectorCandidate struct {
	Strategy        Strategy       `json:"strategy"`
	Value           string         `json:"value,omitempty"`
	Position        *PositionValue `json:"position,omitempty"`
	Priority        int            `json:"priority"`
	Confidence      int            `json:"confidence"`
	Context         string         `json:"context,omitempty"`
	TextHint        string         `json:"textHint,omitempty"`
	ValidatedUnique bool           `json:"validatedUnique,omitempty"`
}

// UnmarshalJSON accepts the position value either as a plain string or
// as a structured {parent, index} object.
func (c *SelectorCandidate) UnmarshalJSON(data []byte) error {
	type alias SelectorCandidate
	var raw struct {
		alias
		RawValue json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = SelectorCandidate(raw.alias)
	if len(raw.RawValue) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.RawValue, &s); err == nil {
		c.Value = s
		return nil
	}
	var pos PositionValue
	if err := json.Unmarshal(raw.RawValue, &pos); err != nil {
		return fmt.Errorf("selector candidate value is neither string nor position: %w", err)
	}
	c.Position = &pos
	return nil
}

// SelectorModel is an ordered set of candidates describing one target
// element. The recorder emits either the rich candidate form or a
// legacy list of raw CSS selectors.
type SelectorModel struct {
	Candidates []SelectorCandidate
}

func (m *SelectorModel) IsEmpty() bool {
	return m == nil || len(m.Candidates) == 0
}

// UnmarshalJSON decodes the three recorded shapes of a selector:
// {"candidates": [...]}, a plain array of selector strings, or a single
// selector string. The legacy string forms become CSS candidates with
// priority taken from list order and an implied low confidence.
func (m *SelectorModel) UnmarshalJSON(data []byte) error {
	var rich struct {
		Candidates []SelectorCandidate `json:"candidates"`
	}
	if err := json.Unmarshal(data, &rich); err == nil && rich.Candidates != nil {
		m.Candidates = rich.Candidates
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		m.Candidates = legacyCandidates(list)
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		m.Candidates = legacyCandidates([]string{single})
		return nil
	}
	return fmt.Errorf("unrecognized selector model: %s", string(data))
}

func (m SelectorModel) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Candidates []SelectorCandidate `json:"candidates"`
	}{Candidates: m.Candidates})
}

func legacyCandidates(values []string) []SelectorCandidate {
	out := make([]SelectorCandidate, 0, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		out = append(out, SelectorCandidate{
			Strategy:   StrategyCSS,
			Value:      v,
			Priority:   i,
			Confidence: legacyConfidence,
		})
	}
	return out
}

// ContentFingerprint describes an element by its visible content
// instead of its structure.
type ContentFingerprint struct {
	Heading  string `json:"heading,omitempty"`
	LinkHref string `json:"linkHref,omitempty"`
	ImageSrc string `json:"imageSrc,omitempty"`
	Price    string `json:"price,omitempty"`
}

// ContentSignature is the last-resort element description used when
// every structural candidate has been exhausted.
type ContentSignature struct {
	ElementType      string             `json:"elementType"`
	Fingerprint      ContentFingerprint `json:"contentFingerprint"`
	FallbackPosition *int               `json:"fallbackPosition,omitempty"`
	ListContainer    string             `json:"listContainer,omitempty"`
}

func (s *ContentSignature) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Fingerprint == (ContentFingerprint{}) && s.FallbackPosition == nil
}
