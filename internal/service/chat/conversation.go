package chat

import "github.com/zhouzirui/caffeine-relay/backend/internal/model/chat"

// HistoryLimit caps the trailing history turns forwarded upstream.
const HistoryLimit = 10

// Priming is the synthetic user/model exchange that steers the model's tone.
type Priming struct {
	Prompt         string
	Acknowledgment string
}

// BuildConversation assembles the upstream contents in order: the optional
// priming pair, at most HistoryLimit trailing history turns, then the message.
func BuildConversation(priming *Priming, history []chat.Turn, message string) []chat.Turn {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	contents := make([]chat.Turn, 0, len(history)+3)
	if priming != nil && priming.Prompt != "" {
		contents = append(contents,
			chat.TextTurn(chat.RoleUser, priming.Prompt),
			chat.TextTurn(chat.RoleModel, priming.Acknowledgment),
		)
	}
	contents = append(contents, history...)
	contents = append(contents, chat.TextTurn(chat.RoleUser, message))
	return contents
}
