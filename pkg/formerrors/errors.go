package formerrors

import "errors"

// FormatError reports that the outer shape of a schema is wrong. Form
// construction stops at the first FormatError.
type FormatError struct {
	Messages []Message
}

// NewFormatError wraps one or more messages.
func NewFormatError(messages ...Message) *FormatError {
	return &FormatError{Messages: messages}
}

func (e *FormatError) Error() string {
	return "format error: " + joinMessages(e.Messages)
}

// SchemaError aggregates every structural problem found while compiling a
// schema.
type SchemaError struct {
	Messages []Message
}

func (e *SchemaError) Error() string {
	return "schema error: " + joinMessages(e.Messages)
}

// FieldError reports an invalid field descriptor or an invalid answer for a
// single field.
type FieldError struct {
	Messages []Message
}

// NewFieldError wraps one or more messages.
func NewFieldError(messages ...Message) *FieldError {
	return &FieldError{Messages: messages}
}

func (e *FieldError) Error() string {
	return "field error: " + joinMessages(e.Messages)
}

// ConditionError reports a malformed condition descriptor.
type ConditionError struct {
	Messages []Message
}

// NewConditionError wraps one or more messages.
func NewConditionError(messages ...Message) *ConditionError {
	return &ConditionError{Messages: messages}
}

func (e *ConditionError) Error() string {
	return "condition error: " + joinMessages(e.Messages)
}

// ValidationError reports a malformed validator descriptor.
type ValidationError struct {
	Messages []Message
}

// NewValidationError wraps one or more messages.
func NewValidationError(messages ...Message) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation error: " + joinMessages(e.Messages)
}

// MessagesOf extracts the message list carried by any of the package error
// types. Other errors become a single plain message.
func MessagesOf(err error) []Message {
	if err == nil {
		return nil
	}
	var (
		formatErr    *FormatError
		schemaErr    *SchemaError
		fieldErr     *FieldError
		conditionErr *ConditionError
		validateErr  *ValidationError
	)
	switch {
	case errors.As(err, &fieldErr):
		return fieldErr.Messages
	case errors.As(err, &conditionErr):
		return conditionErr.Messages
	case errors.As(err, &validateErr):
		return validateErr.Messages
	case errors.As(err, &schemaErr):
		return schemaErr.Messages
	case errors.As(err, &formatErr):
		return formatErr.Messages
	default:
		return []Message{{Text: err.Error()}}
	}
}
