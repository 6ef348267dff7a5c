package codegen

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the model reply contains no content.
var ErrEmptyResponse = errors.New("empty model response")

// MalformedResponseError is returned when the model reply cannot be decoded
// into an artifact. Raw holds the offending content for diagnostics.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

// UpstreamError is returned when the generation backend cannot be reached
// or answers with a non-success status.
type UpstreamError struct {
	StatusCode int // zero when the call never completed
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("generation backend unreachable: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
