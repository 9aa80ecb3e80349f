package ai

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned before any outbound call when no key is configured.
	ErrMissingCredential = errors.New("gemini api key is not configured")
	// ErrMalformedResponse is returned when a 2xx body is not valid JSON.
	ErrMalformedResponse = errors.New("malformed response from gemini")
	// ErrResponseTooLarge is returned when a 2xx body exceeds the read limit.
	// It matches ErrMalformedResponse under errors.Is.
	ErrResponseTooLarge = fmt.Errorf("%w: response body exceeds %d bytes", ErrMalformedResponse, maxUpstreamBody)
)

// UnreachableError wraps a transport failure. Detail has the key redacted.
type UnreachableError struct {
	Detail string
	Err    error
}

func (e *UnreachableError) Error() string {
	return "failed to reach gemini: " + e.Detail
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// UpstreamError carries a non-2xx response from Gemini.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini api error: status %d", e.StatusCode)
}

// Details returns the parsed JSON body, or the raw text if it is not JSON.
func (e *UpstreamError) Details() any {
	var parsed any
	if err := json.Unmarshal(e.Body, &parsed); err == nil {
		return parsed
	}
	return string(e.Body)
}

// NoReplyError means Gemini answered 2xx without extractable text.
type NoReplyError struct {
	FinishReason string
}

func (e *NoReplyError) Error() string {
	return fmt.Sprintf("no reply from gemini (finishReason=%s)", e.FinishReason)
}
