package chat

import (
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/caffeine-relay/backend/internal/config"
	"github.com/zhouzirui/caffeine-relay/backend/internal/model/persona"
)

// PersonaPrompter resolves which priming pair a request gets.
type PersonaPrompter struct {
	personas  persona.Store
	defaultID string
}

// NewPersonaPrompter binds the persona store to the deployment default.
// defaultID of "" or config.NoPersona disables the default priming pair.
func NewPersonaPrompter(personas persona.Store, defaultID string) *PersonaPrompter {
	if defaultID == config.NoPersona {
		defaultID = ""
	}
	return &PersonaPrompter{personas: personas, defaultID: defaultID}
}

// Resolve picks the caller's systemPrompt first, then personaID, then the default.
func (p *PersonaPrompter) Resolve(systemPrompt, personaID string) (*Priming, error) {
	if systemPrompt != "" {
		return &Priming{Prompt: systemPrompt, Acknowledgment: p.defaultAck()}, nil
	}

	if personaID != "" {
		found, ok := p.personas.FindByID(personaID)
		if !ok {
			return nil, errUnknownPersona(personaID)
		}
		return &Priming{Prompt: found.Prompt, Acknowledgment: found.Ack()}, nil
	}

	if p.defaultID == "" {
		return nil, nil
	}
	found, ok := p.personas.FindByID(p.defaultID)
	if !ok {
		log.Warn().Str("persona", p.defaultID).Msg("default persona not found, sending without priming")
		return nil, nil
	}
	return &Priming{Prompt: found.Prompt, Acknowledgment: found.Ack()}, nil
}

func (p *PersonaPrompter) defaultAck() string {
	if p.defaultID != "" {
		if found, ok := p.personas.FindByID(p.defaultID); ok {
			return found.Ack()
		}
	}
	return persona.DefaultAcknowledgment
}
