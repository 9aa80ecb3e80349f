package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/zhouzirui/caffeine-relay/backend/internal/model/chat"
)

var errNotObject = errors.New("request body is not a JSON object")

type rawRequest struct {
	Message      json.RawMessage `json:"message"`
	History      json.RawMessage `json:"history"`
	SystemPrompt json.RawMessage `json:"systemPrompt"`
	PersonaID    json.RawMessage `json:"personaId"`
}

type rawTurn struct {
	Role  json.RawMessage `json:"role"`
	Parts json.RawMessage `json:"parts"`
}

type rawPart struct {
	Text json.RawMessage `json:"text"`
}

// DecodeRequest validates a widget request body.
//
// Only message is mandatory. Optional fields of the wrong type are treated as
// absent, and malformed history turns are dropped.
func DecodeRequest(body []byte) (chat.Request, error) {
	if trimmed := bytes.TrimLeft(body, " \t\r\n"); len(trimmed) == 0 || trimmed[0] != '{' {
		return chat.Request{}, errInvalidBody(errNotObject)
	}

	var raw rawRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return chat.Request{}, errInvalidBody(err)
	}

	message, ok := decodeString(raw.Message)
	message = strings.TrimSpace(message)
	if !ok || message == "" {
		return chat.Request{}, errMissingMessage()
	}

	systemPrompt, _ := decodeString(raw.SystemPrompt)
	personaID, _ := decodeString(raw.PersonaID)

	return chat.Request{
		Message:      message,
		History:      FilterHistory(raw.History),
		SystemPrompt: strings.TrimSpace(systemPrompt),
		PersonaID:    strings.TrimSpace(personaID),
	}, nil
}

// FilterHistory keeps the well-formed turns among the last HistoryLimit entries.
// A value that is not a JSON array yields no history.
func FilterHistory(raw json.RawMessage) []chat.Turn {
	if len(raw) == 0 {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	if len(entries) > HistoryLimit {
		entries = entries[len(entries)-HistoryLimit:]
	}

	turns := make([]chat.Turn, 0, len(entries))
	for _, entry := range entries {
		if turn, ok := decodeTurn(entry); ok {
			turns = append(turns, turn)
		}
	}
	return turns
}

func decodeTurn(entry json.RawMessage) (chat.Turn, bool) {
	var rt rawTurn
	if err := json.Unmarshal(entry, &rt); err != nil {
		return chat.Turn{}, false
	}

	role, ok := decodeString(rt.Role)
	if !ok || (role != chat.RoleUser && role != chat.RoleModel) {
		return chat.Turn{}, false
	}

	var rawParts []json.RawMessage
	if err := json.Unmarshal(rt.Parts, &rawParts); err != nil || len(rawParts) == 0 {
		return chat.Turn{}, false
	}

	parts := make([]chat.Part, 0, len(rawParts))
	for _, rp := range rawParts {
		var part rawPart
		if err := json.Unmarshal(rp, &part); err != nil {
			continue
		}
		if text, ok := decodeString(part.Text); ok && text != "" {
			parts = append(parts, chat.Part{Text: text})
		}
	}
	if len(parts) == 0 {
		return chat.Turn{}, false
	}

	return chat.Turn{Role: role, Parts: parts}, true
}

// decodeString reports false unless raw is a JSON string.
func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
