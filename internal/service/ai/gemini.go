package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/caffeine-relay/backend/internal/config"
	"github.com/zhouzirui/caffeine-relay/backend/internal/metrics"
	"github.com/zhouzirui/caffeine-relay/backend/internal/model/chat"
)

const maxUpstreamBody = 2 << 20

// Service issues generateContent calls against the Gemini REST API.
type Service struct {
	cfg     config.AIConfig
	client  *http.Client
	metrics *metrics.Collector
}

// NewService creates a Gemini gateway. A nil client uses a default transport;
// a nil collector disables metrics.
func NewService(cfg config.AIConfig, client *http.Client, collector *metrics.Collector) *Service {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				TLSHandshakeTimeout:   5 * time.Second,
				MaxIdleConnsPerHost:   16,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		}
	}
	return &Service{cfg: cfg, client: client, metrics: collector}
}

// HasCredential reports whether calls can be attempted at all.
func (s *Service) HasCredential() bool {
	return s.cfg.HasCredential()
}

// GenerateReply sends the conversation upstream once and returns the reply text.
func (s *Service) GenerateReply(ctx context.Context, contents []chat.Turn) (string, error) {
	if !s.cfg.HasCredential() {
		return "", ErrMissingCredential
	}

	start := time.Now()
	status, body, err := s.generateContent(ctx, contents)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveUpstream(outcomeOf(err), status, elapsed)
		return "", err
	}

	reply, err := ExtractReply(body)
	if err != nil {
		log.Warn().Err(err).Int("status", status).Msg("gemini returned no usable reply")
		s.metrics.ObserveUpstream(outcomeOf(err), status, elapsed)
		return "", err
	}

	s.metrics.ObserveUpstream("ok", status, elapsed)
	log.Debug().Dur("elapsed", elapsed).Int("replyLength", len(reply)).Msg("gemini reply received")
	return reply, nil
}

func (s *Service) generateContent(ctx context.Context, contents []chat.Turn) (int, []byte, error) {
	payload := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			TopK:            topK,
			TopP:            topP,
			MaxOutputTokens: maxOutputTokens,
		},
	}
	if s.cfg.SafetySettings {
		payload.SafetySettings = defaultSafetySettings()
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), bytes.NewReader(jsonBody))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		detail := s.redact(transportDetail(err))
		log.Warn().Str("detail", detail).Msg("gemini unreachable")
		return 0, nil, &UnreachableError{Detail: detail, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody+1))
	if err != nil {
		detail := s.redact(transportDetail(err))
		return resp.StatusCode, nil, &UnreachableError{Detail: "reading response: " + detail, Err: err}
	}
	oversized := len(body) > maxUpstreamBody
	if oversized {
		body = body[:maxUpstreamBody]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Str("body", truncate(string(body), 300)).Msg("gemini http error")
		return resp.StatusCode, nil, &UpstreamError{StatusCode: resp.StatusCode, Body: body}
	}

	if oversized {
		log.Warn().Int("status", resp.StatusCode).Int("limit", maxUpstreamBody).Msg("gemini response too large")
		return resp.StatusCode, nil, ErrResponseTooLarge
	}

	return resp.StatusCode, body, nil
}

func (s *Service) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		s.cfg.BaseURL, url.PathEscape(s.cfg.Model), url.QueryEscape(s.cfg.APIKey))
}

func (s *Service) redact(text string) string {
	if s.cfg.APIKey == "" {
		return text
	}
	text = strings.ReplaceAll(text, url.QueryEscape(s.cfg.APIKey), "REDACTED")
	return strings.ReplaceAll(text, s.cfg.APIKey, "REDACTED")
}

// transportDetail drops the request URL, which carries the key, from *url.Error.
func transportDetail(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}

func outcomeOf(err error) string {
	var (
		unreachable *UnreachableError
		upstream    *UpstreamError
		noReply     *NoReplyError
	)
	switch {
	case errors.As(err, &unreachable):
		return "unreachable"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.As(err, &noReply):
		return "no_reply"
	case errors.Is(err, ErrResponseTooLarge):
		return "too_large"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
