package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store exposes persona retrieval for HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the configured persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

type personaFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile reads a YAML persona list of the form `personas: [...]`.
func LoadFile(path string) ([]Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}

	var file personaFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse persona file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(file.Personas))
	for i, p := range file.Personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona #%d in %s has no id", i+1, path)
		}
		if p.Prompt == "" {
			return nil, fmt.Errorf("persona %q in %s has no prompt", p.ID, path)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q in %s", p.ID, path)
		}
		seen[p.ID] = struct{}{}
	}
	return file.Personas, nil
}
