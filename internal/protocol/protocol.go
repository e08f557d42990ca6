// Package protocol defines the messages exchanged between the registry
// daemon and its pages. Every frame is one JSON object carrying an
// "action" tag, an "id", an optional "replyTo", and the variant payload.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/atomicstack/tab-popup-control/internal/tab"
)

type Action string

const (
	ActionHello      Action = "hello"
	ActionWelcome    Action = "welcome"
	ActionToggle     Action = "toggleSwitcher"
	ActionSwitch     Action = "switchToTab"
	ActionGetTabList Action = "getTabList"
	ActionTabList    Action = "tabList"
	ActionAck        Action = "ack"
	ActionError      Action = "error"
)

// Role identifies what kind of page is connecting.
type Role string

const (
	RoleOverlay Role = "overlay"
	RoleCLI     Role = "cli"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMalformed     = errors.New("malformed message")
)

// Message is implemented by every variant.
type Message interface {
	Action() Action
}

// Hello registers a page with the daemon.
type Hello struct {
	Role Role `json:"role"`
}

// Welcome answers Hello with the page id the daemon assigned.
type Welcome struct {
	PageID string `json:"pageId"`
}

// ToggleRequest asks the daemon to toggle the switcher on the requesting
// tab's page.
type ToggleRequest struct{}

// ShowSwitcher is the daemon's toggle push: the tabs of the requesting
// window in recency order plus the tab the request came from.
type ShowSwitcher struct {
	Tabs         []tab.Tab `json:"tabs"`
	CurrentTabID tab.ID    `json:"currentTabId"`
}

// SwitchToTab asks the daemon to activate a tab.
type SwitchToTab struct {
	TabID tab.ID `json:"tabId"`
}

type GetTabList struct{}

type TabList struct {
	Tabs []tab.Tab `json:"tabs"`
}

type Ack struct{}

// ErrorReply carries a failure back to the requester.
type ErrorReply struct {
	Message string `json:"error"`
}

func (Hello) Action() Action         { return ActionHello }
func (Welcome) Action() Action       { return ActionWelcome }
func (ToggleRequest) Action() Action { return ActionToggle }
func (ShowSwitcher) Action() Action  { return ActionToggle }
func (SwitchToTab) Action() Action   { return ActionSwitch }
func (GetTabList) Action() Action    { return ActionGetTabList }
func (TabList) Action() Action       { return ActionTabList }
func (Ack) Action() Action           { return ActionAck }
func (ErrorReply) Action() Action    { return ActionError }

func (e ErrorReply) Error() string { return e.Message }

// Errorf builds an ErrorReply.
func Errorf(format string, args ...interface{}) ErrorReply {
	return ErrorReply{Message: fmt.Sprintf(format, args...)}
}

// Envelope is a message plus its routing ids.
type Envelope struct {
	ID      string
	ReplyTo string
	Message Message
}

// NewID returns a fresh message id.
func NewID() string {
	return uuid.NewString()
}

// Encode flattens an envelope into a single JSON object.
func Encode(env Envelope) ([]byte, error) {
	if env.Message == nil {
		return nil, fmt.Errorf("%w: no message", ErrMalformed)
	}
	msg := normalize(env.Message)
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	if err := setString(fields, "action", string(msg.Action())); err != nil {
		return nil, err
	}
	if env.ID != "" {
		if err := setString(fields, "id", env.ID); err != nil {
			return nil, err
		}
	}
	if env.ReplyTo != "" {
		if err := setString(fields, "replyTo", env.ReplyTo); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

// Decode parses a frame into its concrete variant. When only the payload is
// bad, the returned envelope still carries the frame's ids.
func Decode(data []byte) (Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var env Envelope
	var action string
	if err := getString(fields, "action", &action); err != nil {
		return Envelope{}, err
	}
	if err := getString(fields, "id", &env.ID); err != nil {
		return Envelope{}, err
	}
	if err := getString(fields, "replyTo", &env.ReplyTo); err != nil {
		return Envelope{}, err
	}

	msg, err := decodeMessage(Action(action), fields, data)
	if err != nil {
		// ids are kept so the peer can still be answered
		return env, err
	}
	env.Message = msg
	return env, nil
}

func decodeMessage(action Action, fields map[string]json.RawMessage, data []byte) (Message, error) {
	switch action {
	case ActionHello:
		return decodeAs[Hello](data)
	case ActionWelcome:
		return decodeAs[Welcome](data)
	case ActionToggle:
		if _, push := fields["tabs"]; push {
			return decodeAs[ShowSwitcher](data)
		}
		return ToggleRequest{}, nil
	case ActionSwitch:
		var sw SwitchToTab
		if err := json.Unmarshal(data, &sw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if sw.TabID == "" {
			return nil, fmt.Errorf("%w: switchToTab without tabId", ErrMalformed)
		}
		return sw, nil
	case ActionGetTabList:
		return GetTabList{}, nil
	case ActionTabList:
		return decodeAs[TabList](data)
	case ActionAck:
		return Ack{}, nil
	case ActionError:
		return decodeAs[ErrorReply](data)
	case "":
		return nil, fmt.Errorf("%w: missing action", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, string(action))
	}
}

func decodeAs[T Message](data []byte) (Message, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return msg, nil
}

// normalize keeps list payloads encoded as arrays rather than null.
func normalize(msg Message) Message {
	switch m := msg.(type) {
	case ShowSwitcher:
		if m.Tabs == nil {
			m.Tabs = []tab.Tab{}
		}
		return m
	case TabList:
		if m.Tabs == nil {
			m.Tabs = []tab.Tab{}
		}
		return m
	}
	return msg
}

func setString(fields map[string]json.RawMessage, key, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	fields[key] = raw
	return nil
}

func getString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}
