package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/caffeine-relay/backend/internal/handler/chat"
	"github.com/zhouzirui/caffeine-relay/backend/internal/handler/persona"
	"github.com/zhouzirui/caffeine-relay/backend/internal/handler/ws"
	"github.com/zhouzirui/caffeine-relay/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/caffeine-relay/backend/internal/middleware"
	personaModel "github.com/zhouzirui/caffeine-relay/backend/internal/model/persona"
	aiService "github.com/zhouzirui/caffeine-relay/backend/internal/service/ai"
	chatService "github.com/zhouzirui/caffeine-relay/backend/internal/service/chat"
	"github.com/zhouzirui/caffeine-relay/backend/pkg/utils"
)

type healthResponse struct {
	Status     string `json:"status"`
	Credential bool   `json:"credential"`
}

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, aiSvc *aiService.Service, collector *metrics.Collector, maxBodyBytes int64) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Create handlers
	personaHandler := persona.New(personas)
	chatHandler := chat.New(chatSvc, collector, maxBodyBytes)
	wsHandler := ws.New(chatSvc, collector, maxBodyBytes)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, healthResponse{
			Status:     "ok",
			Credential: aiSvc != nil && aiSvc.HasCredential(),
		})
	})

	// The widget posts straight to the service root.
	r.Post("/", chatHandler.HandleChat)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
	})

	wsHandler.RegisterRoutes(r)

	if collector != nil {
		r.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	return r
}
