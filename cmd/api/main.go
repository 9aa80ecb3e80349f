package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/caffeine-relay/backend/internal/config"
	"github.com/zhouzirui/caffeine-relay/backend/internal/handler"
	"github.com/zhouzirui/caffeine-relay/backend/internal/logging"
	"github.com/zhouzirui/caffeine-relay/backend/internal/metrics"
	"github.com/zhouzirui/caffeine-relay/backend/internal/model/persona"
	"github.com/zhouzirui/caffeine-relay/backend/internal/service/ai"
	"github.com/zhouzirui/caffeine-relay/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env file, continuing with system environment variables only")
	}

	personaStore, err := loadPersonas(cfg.Relay)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize personas")
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
	}

	aiService := ai.NewService(cfg.AI, nil, collector)
	if !aiService.HasCredential() {
		log.Warn().Msg("GEMINI_API_KEY 未配置，所有聊天请求将返回 500")
	} else {
		log.Info().Str("model", cfg.AI.Model).Dur("timeout", cfg.AI.Timeout).Msg("gemini gateway initialized")
	}

	prompter := chat.NewPersonaPrompter(personaStore, cfg.Relay.DefaultPersona)
	chatService := chat.NewService(aiService, prompter, cfg.Relay.ErrorPolicy)
	log.Info().Str("policy", chatService.Policy()).Str("persona", cfg.Relay.DefaultPersona).Msg("relay configured")

	router := handler.NewRouter(personaStore, chatService, aiService, collector, cfg.Relay.MaxBodyBytes)

	startServer(ctx, cfg.Server, router)
}

// loadPersonas 读取persona文件（若配置），并校验默认persona存在
func loadPersonas(cfg config.RelayConfig) (*persona.MemoryStore, error) {
	items := persona.Seed()
	if cfg.PersonaFile != "" {
		loaded, err := persona.LoadFile(cfg.PersonaFile)
		if err != nil {
			return nil, err
		}
		items = loaded
		log.Info().Str("file", cfg.PersonaFile).Int("count", len(items)).Msg("personas loaded")
	}

	store := persona.NewMemoryStore(items)
	if cfg.DefaultPersona != config.NoPersona {
		if _, ok := store.FindByID(cfg.DefaultPersona); !ok {
			return nil, fmt.Errorf("default persona %q not found", cfg.DefaultPersona)
		}
	}
	return store, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("Caffeine Machine relay listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
