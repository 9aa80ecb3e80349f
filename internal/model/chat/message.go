package chat

// Roles accepted in a conversation turn.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is one text fragment of a turn.
type Part struct {
	Text string `json:"text"`
}

// Turn is one conversation exchange unit sent upstream.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// TextTurn builds a single-part turn.
func TextTurn(role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Text: text}}}
}

// Request is a validated inbound chat request.
type Request struct {
	Message      string
	History      []Turn
	SystemPrompt string
	PersonaID    string
}

// Response is the success envelope returned to the widget.
type Response struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the failure envelope returned to the widget.
type ErrorResponse struct {
	Error        string `json:"error"`
	Details      any    `json:"details,omitempty"`
	Status       int    `json:"status,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
}
