package entities

import (
	"encoding/json"
	"fmt"
)

// ActionKind is the tag of the Action union.
type ActionKind string

const (
	ActionClick      ActionKind = "click"
	ActionInput      ActionKind = "input"
	ActionScroll     ActionKind = "scroll"
	ActionNavigation ActionKind = "navigation"
	ActionSubmit     ActionKind = "submit"
	ActionHover      ActionKind = "hover"
	ActionSelect     ActionKind = "select"
	ActionKeypress   ActionKind = "keypress"
	ActionCheckpoint ActionKind = "checkpoint"
	ActionModal      ActionKind = "modal-lifecycle"
)

// InputSimulation selects how recorded text is replayed into a field.
type InputSimulation string

const (
	SimulationInstant   InputSimulation = "instant"
	SimulationRealistic InputSimulation = "realistic"
)

// ModalPhase distinguishes the two halves of a modal-lifecycle action.
type ModalPhase string

const (
	ModalOpen  ModalPhase = "open"
	ModalClose ModalPhase = "close"
)

// ScrollWindowTarget is the sentinel element value of a scroll action
// that targets the window rather than an element.
const ScrollWindowTarget = "window"

// ActionMeta holds the fields every action kind shares. Timestamp is
// recorded in absolute milliseconds and normalized to run-relative
// milliseconds by preprocessing. URL is the page the recording expects
// to be on when the action fires.
type ActionMeta struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	URL       string `json:"url,omitempty"`
	// RecoveryHint is set by preprocessing when the action presupposes
	// page state the preceding action does not obviously produce.
	RecoveryHint string `json:"-"`
}

// Action is the closed union over recorded interaction kinds. The
// engine dispatches on the concrete type; every kind must be handled.
type Action interface {
	Kind() ActionKind
	Meta() *ActionMeta
	// Selector returns the selector model this action targets, or nil
	// for actions without an element target.
	Selector() *SelectorModel
}

type ClickAction struct {
	ActionMeta
	Target     SelectorModel     `json:"selector"`
	Signature  *ContentSignature `json:"signature,omitempty"`
	Button     string            `json:"button,omitempty"`
	ClickCount int               `json:"clickCount,omitempty"`
}

func (a *ClickAction) Kind() ActionKind         { return ActionClick }
func (a *ClickAction) Meta() *ActionMeta        { return &a.ActionMeta }
func (a *ClickAction) Selector() *SelectorModel { return &a.Target }

type InputAction struct {
	ActionMeta
	Target      SelectorModel     `json:"selector"`
	Signature   *ContentSignature `json:"signature,omitempty"`
	Value       string            `json:"value"`
	Simulation  InputSimulation   `json:"simulationType,omitempty"`
	TypingDelay int64             `json:"typingDelay,omitempty"`
}

func (a *InputAction) Kind() ActionKind         { return ActionInput }
func (a *InputAction) Meta() *ActionMeta        { return &a.ActionMeta }
func (a *InputAction) Selector() *SelectorModel { return &a.Target }

// ScrollAction scrolls the window when Element is "window", otherwise
// the element found via Target.
type ScrollAction struct {
	ActionMeta
	Element string        `json:"element,omitempty"`
	Target  SelectorModel `json:"selector,omitempty"`
	ScrollX int           `json:"scrollX"`
	ScrollY int           `json:"scrollY"`
}

func (a *ScrollAction) Kind() ActionKind  { return ActionScroll }
func (a *ScrollAction) Meta() *ActionMeta { return &a.ActionMeta }
func (a *ScrollAction) Selector() *SelectorModel {
	if a.IsWindow() {
		return nil
	}
	return &a.Target
}
func (a *ScrollAction) IsWindow() bool {
	return a.Element == ScrollWindowTarget || a.Target.IsEmpty()
}

// UnmarshalJSON handles the recorded "element" field being either the
// literal string "window" or a selector model for an inner scroll
// container.
func (a *ScrollAction) UnmarshalJSON(data []byte) error {
	type alias ScrollAction
	var raw struct {
		alias
		RawElement json.RawMessage `json:"element"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = ScrollAction(raw.alias)
	if len(raw.RawElement) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.RawElement, &s); err == nil && s == ScrollWindowTarget {
		a.Element = ScrollWindowTarget
		return nil
	}
	var target SelectorModel
	if err := json.Unmarshal(raw.RawElement, &target); err != nil {
		return fmt.Errorf("scroll element is neither %q nor a selector: %w", ScrollWindowTarget, err)
	}
	a.Target = target
	return nil
}

type NavigationAction struct {
	ActionMeta
	To string `json:"to"`
}

func (a *NavigationAction) Kind() ActionKind         { return ActionNavigation }
func (a *NavigationAction) Meta() *ActionMeta        { return &a.ActionMeta }
func (a *NavigationAction) Selector() *SelectorModel { return nil }

type SubmitAction struct {
	ActionMeta
	Target SelectorModel `json:"selector"`
}

func (a *SubmitAction) Kind() ActionKind         { return ActionSubmit }
func (a *SubmitAction) Meta() *ActionMeta        { return &a.ActionMeta }
func (a *SubmitAction) Selector() *SelectorModel { return &a.Target }

type HoverAction struct {
	ActionMeta
	Target SelectorModel `json:"selector"`
}

func (a *HoverAction) Kind() ActionKind         { return ActionHover }
func (a *HoverAction) Meta() *ActionMeta        { return &a.ActionMeta }
func (a *HoverAction) Selector() *SelectorModel { return &a.Target }

type SelectOptionAction struct {
	ActionMeta
	Target SelectorModel `json:"selector"`
	Value  string        `json:"value"`
}

func (a *SelectOptionAction) Kind() ActionKind         { return ActionSelect }
func (a *SelectOptionAction) Meta() *ActionMeta        { return &a.ActionMeta }
func (a *SelectOptionAction) Selector() *SelectorModel { return &a.Target }

type KeypressAction struct {
	ActionMeta
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers,omitempty"`
}

func (a *KeypressAction) Kind() ActionKind         { return ActionKeypress }
func (a *KeypressAction) Meta() *ActionMeta        { return &a.ActionMeta }
func (a *KeypressAction) Selector() *SelectorModel { return nil }

// CheckpointAction asserts page state: the expected URL from the meta
// plus, optionally, text that must be present on the page.
type CheckpointAction struct {
	ActionMeta
	ExpectText string `json:"expectText,omitempty"`
}

func (a *CheckpointAction) Kind() ActionKind         { return ActionCheckpoint }
func (a *CheckpointAction) Meta() *ActionMeta        { return &a.ActionMeta }
func (a *CheckpointAction) Selector() *SelectorModel { return nil }

type ModalAction struct {
	ActionMeta
	Phase  ModalPhase    `json:"phase"`
	Target SelectorModel `json:"selector"`
}

func (a *ModalAction) Kind() ActionKind         { return ActionModal }
func (a *ModalAction) Meta() *ActionMeta        { return &a.ActionMeta }
func (a *ModalAction) Selector() *SelectorModel { return &a.Target }

// DecodeAction decodes one recorded action by its "type" tag.
func DecodeAction(data []byte) (Action, error) {
	var tag struct {
		Type ActionKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("failed to read action type: %w", err)
	}

	var a Action
	switch tag.Type {
	case ActionClick:
		a = &ClickAction{}
	case ActionInput:
		a = &InputAction{}
	case ActionScroll:
		a = &ScrollAction{}
	case ActionNavigation:
		a = &NavigationAction{}
	case ActionSubmit:
		a = &SubmitAction{}
	case ActionHover:
		a = &HoverAction{}
	case ActionSelect:
		a = &SelectOptionAction{}
	case ActionKeypress:
		a = &KeypressAction{}
	case ActionCheckpoint:
		a = &CheckpointAction{}
	case ActionModal:
		a = &ModalAction{}
	default:
		return nil, fmt.Errorf("unknown action type %q", tag.Type)
	}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("failed to decode %s action: %w", tag.Type, err)
	}
	return a, nil
}
