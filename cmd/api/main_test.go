package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/caffeine-relay/backend/internal/config"
)

func TestLoadPersonasUsesSeed(t *testing.T) {
	store, err := loadPersonas(config.RelayConfig{DefaultPersona: "caffeine-barista"})
	require.NoError(t, err)

	_, ok := store.FindByID("caffeine-barista")
	assert.True(t, ok)
}

func TestLoadPersonasRejectsUnknownDefault(t *testing.T) {
	_, err := loadPersonas(config.RelayConfig{DefaultPersona: "tea-sommelier"})
	assert.Error(t, err)

	_, err = loadPersonas(config.RelayConfig{DefaultPersona: config.NoPersona})
	assert.NoError(t, err)
}

func TestLoadPersonasFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`personas:
  - id: night-owl
    name: Night Owl
    prompt: You recommend late-night cold brew.
`), 0o600))

	store, err := loadPersonas(config.RelayConfig{DefaultPersona: "night-owl", PersonaFile: path})
	require.NoError(t, err)
	assert.Len(t, store.List(), 1)
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
