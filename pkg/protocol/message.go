package protocol

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/vango-dev/sliderbind/pkg/binding"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxMessageSize bounds a single client message.
const MaxMessageSize = 64 * 1024

var (
	// ErrMalformedMessage is returned for payloads that are not a well-formed
	// message object.
	ErrMalformedMessage = errors.New("protocol: invalid message")

	// ErrUnknownType is returned for messages whose type is not recognized.
	ErrUnknownType = errors.New("protocol: unknown message type")

	// ErrMessageTooLarge is returned for payloads above MaxMessageSize.
	ErrMessageTooLarge = errors.New("protocol: message too large")
)

// Type is the value of a message's "type" field.
type Type string

// Client to server.
const (
	TypeInit    Type = "init"
	TypeDrag    Type = "drag"
	TypeAnimate Type = "animate"
	TypePing    Type = "ping"
)

// Server to client.
const (
	TypeRender Type = "render"
	TypeValues Type = "values"
	TypeState  Type = "state"
	TypeError  Type = "error"
	TypePong   Type = "pong"
)

// ClientMessage is a message sent by the browser.
type ClientMessage struct {
	Type  Type   `json:"type"`
	Page  string `json:"page,omitempty"`
	ID    string `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
	On    bool   `json:"on,omitempty"`
}

// DecodeClient parses and validates a client message.
func DecodeClient(data []byte) (*ClientMessage, error) {
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(data))
	}
	if !jsoniter.ConfigFastest.Valid(data) {
		return nil, fmt.Errorf("%w: not JSON", ErrMalformedMessage)
	}
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch m.Type {
	case TypeInit, TypePing:
	case TypeDrag, TypeAnimate:
		if m.ID == "" {
			return nil, fmt.Errorf("%w: %s without id", ErrMalformedMessage, m.Type)
		}
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return &m, nil
}

// Encode returns the JSON encoding of m.
func (m *ClientMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// ServerMessage is a message sent to the browser.
type ServerMessage struct {
	Type    Type                     `json:"type"`
	HTML    string                   `json:"html,omitempty"`
	Values  map[string]binding.Value `json:"values,omitempty"`
	States  map[string]binding.State `json:"states,omitempty"`
	Code    ErrorCode                `json:"code,omitempty"`
	Message string                   `json:"message,omitempty"`
}

// Render returns a message carrying the page HTML.
func Render(html string) *ServerMessage {
	return &ServerMessage{Type: TypeRender, HTML: html}
}

// Values returns a message carrying relayed input values.
func Values(values map[string]binding.Value) *ServerMessage {
	return &ServerMessage{Type: TypeValues, Values: values}
}

// State returns a message carrying widget states.
func State(states map[string]binding.State) *ServerMessage {
	return &ServerMessage{Type: TypeState, States: states}
}

// Error returns an error message.
func Error(code ErrorCode, format string, args ...any) *ServerMessage {
	return &ServerMessage{Type: TypeError, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Pong answers a ping.
func Pong() *ServerMessage {
	return &ServerMessage{Type: TypePong}
}

// Encode returns the JSON encoding of m.
func (m *ServerMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeServer parses a server message.
func DecodeServer(data []byte) (*ServerMessage, error) {
	var m ServerMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return &m, nil
}

// InputMessage addresses a binding.Message to one input. It is how
// application code pushes updates to a widget.
type InputMessage struct {
	ID      string          `json:"id"`
	Message binding.Message `json:"message"`
}

// DecodeInput parses an input message.
func DecodeInput(data []byte) (*InputMessage, error) {
	var m InputMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("%w: input message without id", ErrMalformedMessage)
	}
	return &m, nil
}
