package chat

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/caffeine-relay/backend/internal/config"
	"github.com/zhouzirui/caffeine-relay/backend/internal/model/chat"
)

// ReplyGenerator is the upstream gateway the relay forwards to.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, contents []chat.Turn) (string, error)
}

// Service relays one widget request to the model and normalizes the outcome.
type Service struct {
	generator ReplyGenerator
	prompter  *PersonaPrompter
	policy    string
}

// NewService wires the relay. policy is config.PolicyStructured or config.PolicyFallback.
func NewService(generator ReplyGenerator, prompter *PersonaPrompter, policy string) *Service {
	if policy == "" {
		policy = config.PolicyStructured
	}
	return &Service{generator: generator, prompter: prompter, policy: policy}
}

// Policy returns the error-surfacing policy in effect.
func (s *Service) Policy() string {
	return s.policy
}

// RelayBody decodes a raw request body and relays it.
func (s *Service) RelayBody(ctx context.Context, body []byte) (chat.Response, error) {
	req, err := DecodeRequest(body)
	if err != nil {
		return chat.Response{}, err
	}
	return s.Relay(ctx, req)
}

// Relay builds the conversation, calls the model once and returns its reply.
// Every failure is a *RelayError.
func (s *Service) Relay(ctx context.Context, req chat.Request) (chat.Response, error) {
	if req.Message == "" {
		return chat.Response{}, errMissingMessage()
	}

	priming, err := s.prompter.Resolve(req.SystemPrompt, req.PersonaID)
	if err != nil {
		return chat.Response{}, err
	}

	contents := BuildConversation(priming, req.History, req.Message)

	reply, err := s.generator.GenerateReply(ctx, contents)
	if err != nil {
		return s.fail(req, fromGateway(err))
	}
	return chat.Response{Reply: reply}, nil
}

func (s *Service) fail(req chat.Request, relayErr *RelayError) (chat.Response, error) {
	if s.policy == config.PolicyFallback && !relayErr.CallerFault() {
		log.Warn().Err(relayErr).Str("kind", string(relayErr.Kind)).Msg("masking relay failure with fallback reply")
		return chat.Response{Reply: FallbackReply(req.Message)}, nil
	}

	if errors.Is(relayErr, context.Canceled) {
		log.Debug().Msg("client went away before gemini answered")
	} else {
		log.Warn().Err(relayErr).Int("status", relayErr.Status).Msg("relay failed")
	}
	return chat.Response{}, relayErr
}
