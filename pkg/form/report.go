package form

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
)

// Status is the outcome recorded in a Report. The zero value means the schema
// is valid and marshals to null.
type Status string

const (
	StatusFormatError Status = "FORMAT ERROR"
	StatusSchemaError Status = "SCHEMA ERROR"
)

// MarshalJSON emits null for the zero status.
func (s Status) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// Item types reported in schema issues.
const (
	ItemField   = "FIELD"
	ItemSection = "SECTION"
	ItemPage    = "PAGE"
)

// Issue is one schema problem attached to the item it was found on. Format
// issues carry only a message.
type Issue struct {
	ID      string             `json:"id,omitempty"`
	Type    string             `json:"type,omitempty"`
	Message formerrors.Message `json:"message"`
}

func (i Issue) String() string {
	if i.Type == "" {
		return i.Message.String()
	}
	return fmt.Sprintf("%s '%s': %s", i.Type, i.ID, i.Message.String())
}

// Report collects every problem found while compiling a schema.
type Report struct {
	Result Status  `json:"result"`
	Errors []Issue `json:"errors"`
}

// Valid reports whether no problem was recorded.
func (r Report) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Report) addSchema(itemType, id string, messages ...formerrors.Message) {
	if r.Result == StatusFormatError || len(messages) == 0 {
		return
	}
	r.Result = StatusSchemaError
	for _, msg := range messages {
		r.Errors = append(r.Errors, Issue{ID: id, Type: itemType, Message: msg})
	}
}

// setFormat replaces any schema issues gathered so far: a format problem makes
// them meaningless.
func (r *Report) setFormat(messages ...formerrors.Message) {
	r.Result = StatusFormatError
	r.Errors = r.Errors[:0]
	for _, msg := range messages {
		r.Errors = append(r.Errors, Issue{Message: msg})
	}
}

// Err converts the report into a typed error, or nil when valid.
func (r Report) Err() error {
	switch {
	case r.Valid():
		return nil
	case r.Result == StatusFormatError:
		messages := make([]formerrors.Message, 0, len(r.Errors))
		for _, issue := range r.Errors {
			messages = append(messages, issue.Message)
		}
		return formerrors.NewFormatError(messages...)
	default:
		messages := make([]formerrors.Message, 0, len(r.Errors))
		for _, issue := range r.Errors {
			messages = append(messages, formerrors.Textf("%s", issue.String()))
		}
		return &formerrors.SchemaError{Messages: messages}
	}
}

// Answer check outcomes.
const (
	ResultOK          = "OK"
	ResultAnswerError = "ANSWER_ERROR"
)

// AnswerIssue is one problem with the answer given for a field.
type AnswerIssue struct {
	ID      string             `json:"id"`
	Message formerrors.Message `json:"message"`
}

// Result is the outcome of checking an answers document.
type Result struct {
	Result  string        `json:"result"`
	Message string        `json:"message,omitempty"`
	Errors  []AnswerIssue `json:"errors,omitempty"`
}

// OK reports whether the answers were accepted.
func (r Result) OK() bool {
	return r.Result == ResultOK
}

// State is the resolved visibility and required flag of a field for a given
// answer set.
type State struct {
	Hidden   bool `json:"hidden"`
	Required bool `json:"required"`
}
