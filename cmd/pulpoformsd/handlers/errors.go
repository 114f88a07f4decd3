package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrorMessage is the body of every error response.
type ErrorMessage struct {
	Reason string   `json:"reason"`
	Advice string   `json:"advice,omitempty"`
	Detail []string `json:"detail,omitempty"`
	Cause  error    `json:"-"`
}

func (e ErrorMessage) String() string {
	lines := []string{e.Reason}
	if e.Advice != "" {
		lines = append(lines, e.Advice)
	}
	lines = append(lines, e.Detail...)
	if e.Cause != nil {
		lines = append(lines, "caused by: "+e.Cause.Error())
	}
	return strings.Join(lines, "\n")
}

func (e ErrorMessage) Error() string {
	return e.String()
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

// MarshalJSON keeps echo's error handler from flattening the message into a
// string.
func (e ErrorMessage) MarshalJSON() ([]byte, error) {
	type plain ErrorMessage
	return json.Marshal(struct {
		Message plain `json:"message"`
	}{Message: plain(e)})
}

// ErrorMessageOption decorates an ErrorMessage.
type ErrorMessageOption func(in *ErrorMessage)

// WithAdvice tells the client how to fix the request.
func WithAdvice(advice string) ErrorMessageOption {
	return func(in *ErrorMessage) {
		in.Advice = advice
	}
}

// WithError records the underlying error. It is logged, not returned.
func WithError(err error) ErrorMessageOption {
	return func(in *ErrorMessage) {
		in.Cause = err
	}
}

// WithDetail lists individual problems.
func WithDetail(detail ...string) ErrorMessageOption {
	return func(in *ErrorMessage) {
		in.Detail = append(in.Detail, detail...)
	}
}

// NewErrorMessage builds an echo error carrying an ErrorMessage body.
func NewErrorMessage(code int, reason string, opts ...ErrorMessageOption) *echo.HTTPError {
	msg := ErrorMessage{Reason: reason}
	for _, opt := range opts {
		opt(&msg)
	}
	return echo.NewHTTPError(code, msg).SetInternal(msg)
}

// BadRequest reports a request the host cannot understand.
func BadRequest(reason string, err error, opts ...ErrorMessageOption) *echo.HTTPError {
	return NewErrorMessage(http.StatusBadRequest, reason, append(opts, WithError(err))...)
}

// NotFound reports an unknown resource.
func NotFound(reason string, err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, reason, WithError(err))
}

// Conflict reports a resource that exists but cannot serve the request.
func Conflict(reason string, err error, opts ...ErrorMessageOption) *echo.HTTPError {
	return NewErrorMessage(http.StatusConflict, reason, append(opts, WithError(err))...)
}

// InternalServerError reports a failure of the host itself.
func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusInternalServerError, "internal server error", WithAdvice("ask your system admin."), WithError(err))
}
