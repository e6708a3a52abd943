package core

import (
	"errors"
)

// ClassificationFailedMessage is the only failure text shown to users
const ClassificationFailedMessage = "Failed to classify content. Please check API connectivity."

var (
	// ErrEmptyInput is returned when the submitted text is blank
	ErrEmptyInput = errors.New("email content is empty")
	// ErrEmptyResponse is returned when the model produced no content
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrMalformedResponse is returned when the reply is not a JSON object
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrSchemaViolation is returned when the reply does not match the verdict schema
	ErrSchemaViolation = errors.New("response does not match verdict schema")
	// ErrClientUnavailable is returned by clients that could not be configured
	ErrClientUnavailable = errors.New("llm client unavailable")
)

// ClassificationError wraps any failure of the remote classification call.
// Error() never exposes the cause; use errors.Is / errors.As or Unwrap for diagnostics.
type ClassificationError struct {
	Op  string
	Err error
}

func (e *ClassificationError) Error() string {
	return ClassificationFailedMessage
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// IsClassificationError reports whether err is, or wraps, a ClassificationError
func IsClassificationError(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce)
}
