package binding

import (
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// Message is a partial update pushed from the server to one input.
// A nil field was absent from the payload.
type Message struct {
	Value *Value  `json:"value,omitempty"`
	Label *string `json:"label,omitempty"`

	// Unsupported lists payload keys the binding cannot apply, sorted.
	Unsupported []string `json:"-"`
}

// ValueMessage returns a message that sets only the value.
func ValueMessage(v Value) Message {
	return Message{Value: &v}
}

// LabelMessage returns a message that sets only the label.
func LabelMessage(label string) Message {
	return Message{Label: &label}
}

// IsEmpty reports whether the message carries no recognized field.
func (m Message) IsEmpty() bool {
	return m.Value == nil && m.Label == nil
}

// UnmarshalJSON records which keys are present and collects unknown ones.
func (m *Message) UnmarshalJSON(data []byte) error {
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("binding: decode message: %w", err)
	}
	*m = Message{}
	for key, raw := range fields {
		switch key {
		case "value":
			v, err := DecodeValue(raw)
			if err != nil {
				return fmt.Errorf("binding: decode message value: %w", err)
			}
			m.Value = &v
		case "label":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("binding: decode message label: %w", err)
			}
			m.Label = &s
		default:
			m.Unsupported = append(m.Unsupported, key)
		}
	}
	sort.Strings(m.Unsupported)
	return nil
}
