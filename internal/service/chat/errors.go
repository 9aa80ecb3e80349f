package chat

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zhouzirui/caffeine-relay/backend/internal/model/chat"
	"github.com/zhouzirui/caffeine-relay/backend/internal/service/ai"
)

// Kind classifies a relay failure.
type Kind string

const (
	KindInvalidBody         Kind = "InvalidBody"
	KindMissingMessage      Kind = "MissingMessage"
	KindUnknownPersona      Kind = "UnknownPersona"
	KindMissingCredential   Kind = "MissingCredential"
	KindUpstreamUnreachable Kind = "UpstreamUnreachable"
	KindUpstreamError       Kind = "UpstreamError"
	KindMalformedUpstream   Kind = "MalformedUpstreamResponse"
	KindNoReply             Kind = "NoReply"
	KindInternal            Kind = "Internal"
)

// RelayError is a request-scoped failure with its client-facing status.
type RelayError struct {
	Kind         Kind
	Status       int
	Message      string
	Details      any
	FinishReason string
	Err          error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RelayError) Unwrap() error { return e.Err }

// CallerFault reports whether the client must change its request.
func (e *RelayError) CallerFault() bool {
	switch e.Kind {
	case KindInvalidBody, KindMissingMessage, KindUnknownPersona:
		return true
	}
	return false
}

// Response renders the failure envelope.
func (e *RelayError) Response() chat.ErrorResponse {
	resp := chat.ErrorResponse{
		Error:        e.Message,
		Details:      e.Details,
		FinishReason: e.FinishReason,
	}
	if e.Kind == KindUpstreamError {
		resp.Status = e.Status
	}
	return resp
}

func errInvalidBody(err error) *RelayError {
	return &RelayError{Kind: KindInvalidBody, Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err}
}

func errMissingMessage() *RelayError {
	return &RelayError{Kind: KindMissingMessage, Status: http.StatusBadRequest, Message: `Missing or invalid "message" field`}
}

func errUnknownPersona(id string) *RelayError {
	return &RelayError{Kind: KindUnknownPersona, Status: http.StatusBadRequest, Message: fmt.Sprintf("Unknown persona %q", id)}
}

// InvalidBody wraps a body read failure, such as an oversized request.
func InvalidBody(err error) *RelayError {
	return errInvalidBody(err)
}

// fromGateway maps gateway errors onto the relay taxonomy.
func fromGateway(err error) *RelayError {
	var (
		unreachable *ai.UnreachableError
		upstream    *ai.UpstreamError
		noReply     *ai.NoReplyError
	)

	switch {
	case errors.Is(err, ai.ErrMissingCredential):
		return &RelayError{
			Kind:    KindMissingCredential,
			Status:  http.StatusInternalServerError,
			Message: "Server misconfigured: GEMINI_API_KEY is not set",
			Err:     err,
		}
	case errors.As(err, &upstream):
		return &RelayError{
			Kind:    KindUpstreamError,
			Status:  upstream.StatusCode,
			Message: "Gemini API error",
			Details: upstream.Details(),
			Err:     err,
		}
	case errors.As(err, &unreachable):
		return &RelayError{
			Kind:    KindUpstreamUnreachable,
			Status:  http.StatusBadGateway,
			Message: "Failed to reach Gemini API",
			Details: unreachable.Detail,
			Err:     err,
		}
	case errors.As(err, &noReply):
		return &RelayError{
			Kind:         KindNoReply,
			Status:       http.StatusBadGateway,
			Message:      "No reply from Gemini",
			FinishReason: noReply.FinishReason,
			Err:          err,
		}
	case errors.Is(err, ai.ErrMalformedResponse):
		relayErr := &RelayError{
			Kind:    KindMalformedUpstream,
			Status:  http.StatusBadGateway,
			Message: "Malformed response from Gemini API",
			Err:     err,
		}
		if errors.Is(err, ai.ErrResponseTooLarge) {
			relayErr.Details = "response body too large"
		}
		return relayErr
	default:
		return &RelayError{
			Kind:    KindInternal,
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
			Err:     err,
		}
	}
}

// Outcome returns a low-cardinality label for metrics.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return string(relayErr.Kind)
	}
	return string(KindInternal)
}
