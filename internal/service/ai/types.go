package ai

import "github.com/zhouzirui/caffeine-relay/backend/internal/model/chat"

// Fixed generation parameters. Callers cannot override them per request.
const (
	temperature     = 0.7
	topK            = 40
	topP            = 0.95
	maxOutputTokens = 512

	blockMediumAndAbove = "BLOCK_MEDIUM_AND_ABOVE"
)

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []chat.Turn      `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings,omitempty"`
}

func defaultSafetySettings() []safetySetting {
	return []safetySetting{
		{Category: "HARM_CATEGORY_HARASSMENT", Threshold: blockMediumAndAbove},
		{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: blockMediumAndAbove},
	}
}
