package formerrors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Message is a single error entry. Plain messages carry Text; structured
// messages carry an i18n ID plus interpolation Values so clients can render
// them in their own locale.
type Message struct {
	Text   string
	ID     string
	Values map[string]any
}

// Textf builds a plain message.
func Textf(format string, args ...any) Message {
	if len(args) == 0 {
		return Message{Text: format}
	}
	return Message{Text: fmt.Sprintf(format, args...)}
}

// Keyed builds a structured message. values may be nil.
func Keyed(id string, values map[string]any) Message {
	return Message{ID: id, Values: values}
}

// Structured reports whether the message carries an i18n id.
func (m Message) Structured() bool {
	return m.ID != ""
}

// String renders the message for logs and Error() output. Structured messages
// print their id followed by sorted values.
func (m Message) String() string {
	if !m.Structured() {
		return m.Text
	}
	if len(m.Values) == 0 {
		return m.ID
	}
	keys := make([]string, 0, len(m.Values))
	for key := range m.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, m.Values[key]))
	}
	return m.ID + " (" + strings.Join(parts, ", ") + ")"
}

type structuredMessage struct {
	ID     string         `json:"id"`
	Values map[string]any `json:"values,omitempty"`
}

// MarshalJSON emits a bare string for plain messages and {id, values} for
// structured ones.
func (m Message) MarshalJSON() ([]byte, error) {
	if !m.Structured() {
		return json.Marshal(m.Text)
	}
	return json.Marshal(structuredMessage{ID: m.ID, Values: m.Values})
}

// UnmarshalJSON accepts either representation produced by MarshalJSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*m = Message{Text: text}
		return nil
	}
	var structured structuredMessage
	if err := json.Unmarshal(trimmed, &structured); err != nil {
		return fmt.Errorf("formerrors: decode message: %w", err)
	}
	*m = Message{ID: structured.ID, Values: structured.Values}
	return nil
}

func joinMessages(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg.String())
	}
	return strings.Join(parts, "; ")
}
