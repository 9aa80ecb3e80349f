package ai

import (
	"encoding/json"
	"fmt"
)

const unknownFinishReason = "UNKNOWN"

// ExtractReply pulls candidates[0].content.parts[0].text out of a generateContent body.
//
// Only a body that is not JSON at all is malformed. Any other shape without
// usable text is a NoReplyError, so the finish reason survives odd field types.
func ExtractReply(body []byte) (string, error) {
	var resp any
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	root, _ := resp.(map[string]any)
	candidates, _ := root["candidates"].([]any)
	if len(candidates) == 0 {
		reason := unknownFinishReason
		if feedback, ok := root["promptFeedback"].(map[string]any); ok {
			if block, ok := feedback["blockReason"].(string); ok && block != "" {
				reason = block
			}
		}
		return "", &NoReplyError{FinishReason: reason}
	}

	first, _ := candidates[0].(map[string]any)
	content, _ := first["content"].(map[string]any)
	if parts, _ := content["parts"].([]any); len(parts) > 0 {
		part, _ := parts[0].(map[string]any)
		if text, ok := part["text"].(string); ok && text != "" {
			return text, nil
		}
	}

	reason, _ := first["finishReason"].(string)
	if reason == "" {
		reason = unknownFinishReason
	}
	return "", &NoReplyError{FinishReason: reason}
}
