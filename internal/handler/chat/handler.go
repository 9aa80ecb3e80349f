package chat

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/caffeine-relay/backend/internal/metrics"
	chatService "github.com/zhouzirui/caffeine-relay/backend/internal/service/chat"
	"github.com/zhouzirui/caffeine-relay/backend/pkg/utils"
)

// Handler 聊天中继的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	metrics      *metrics.Collector
	maxBodyBytes int64
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, collector *metrics.Collector, maxBodyBytes int64) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		metrics:      collector,
		maxBodyBytes: maxBodyBytes,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
}

// HandleChat relays one widget message and writes the reply or error envelope.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	reader := r.Body
	if h.maxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		h.metrics.RecordRequest("http", string(chatService.KindInvalidBody))
		respondRelayError(w, chatService.InvalidBody(err))
		return
	}

	resp, err := h.chatSvc.RelayBody(r.Context(), body)
	h.metrics.RecordRequest("http", chatService.Outcome(err))
	if err != nil {
		respondRelayError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// respondRelayError 发送结构化错误响应
func respondRelayError(w http.ResponseWriter, err error) {
	var relayErr *chatService.RelayError
	if !errors.As(err, &relayErr) {
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondJSON(w, relayErr.Status, relayErr.Response())
}
