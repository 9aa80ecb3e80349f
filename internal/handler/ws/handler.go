package ws

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/caffeine-relay/backend/internal/metrics"
	chatModel "github.com/zhouzirui/caffeine-relay/backend/internal/model/chat"
	chatService "github.com/zhouzirui/caffeine-relay/backend/internal/service/chat"
)

var errFrameTooLarge = errors.New("websocket message exceeds size limit")

const (
	writeWait    = 10 * time.Second
	frameBacklog = 8
)

// Handler WebSocket聊天中继处理器
type Handler struct {
	chatSvc         *chatService.Service
	metrics         *metrics.Collector
	maxMessageBytes int64
	upgrader        websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatService.Service, collector *metrics.Collector, maxMessageBytes int64) *Handler {
	return &Handler{
		chatSvc:         chatSvc,
		metrics:         collector,
		maxMessageBytes: maxMessageBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.handleWebSocket)
}

type outgoingMessage struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId,omitempty"`
	Reply        string `json:"reply,omitempty"`
	Error        string `json:"error,omitempty"`
	Status       int    `json:"status,omitempty"`
	Details      any    `json:"details,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
}

// handleWebSocket 处理WebSocket连接：每个入站帧对应一次中继调用和一个出站帧
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to upgrade websocket")
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	logger := log.With().Str("conn", connID).Logger()
	logger.Debug().Msg("websocket opened")

	// Closing the socket cancels whatever relay call is in flight.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan inboundFrame, frameBacklog)
	go func() {
		defer close(frames)
		defer cancel()
		for {
			frame, err := h.readFrame(conn)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn().Err(err).Msg("websocket read error")
				}
				return
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := h.write(conn, outgoingMessage{Type: "ready", ConnectionID: connID}); err != nil {
		return
	}

	for frame := range frames {
		var (
			resp chatModel.Response
			err  = frame.err
		)
		if err == nil {
			resp, err = h.chatSvc.RelayBody(ctx, frame.data)
		}
		h.metrics.RecordRequest("ws", chatService.Outcome(err))
		if ctx.Err() != nil {
			return
		}

		msg := outgoingMessage{Type: "reply", Reply: resp.Reply}
		if err != nil {
			msg = errorMessage(err)
		}
		if err := h.write(conn, msg); err != nil {
			logger.Warn().Err(err).Msg("websocket write error")
			return
		}
	}
	logger.Debug().Msg("websocket closed")
}

type inboundFrame struct {
	data []byte
	err  error
}

// readFrame reads one message. An oversized message is drained and reported
// as an InvalidBody frame so the connection stays usable.
func (h *Handler) readFrame(conn *websocket.Conn) (inboundFrame, error) {
	_, reader, err := conn.NextReader()
	if err != nil {
		return inboundFrame{}, err
	}
	if h.maxMessageBytes <= 0 {
		data, err := io.ReadAll(reader)
		return inboundFrame{data: data}, err
	}

	data, err := io.ReadAll(io.LimitReader(reader, h.maxMessageBytes+1))
	if err != nil {
		return inboundFrame{}, err
	}
	if int64(len(data)) > h.maxMessageBytes {
		if _, err := io.Copy(io.Discard, reader); err != nil {
			return inboundFrame{}, err
		}
		return inboundFrame{err: chatService.InvalidBody(errFrameTooLarge)}, nil
	}
	return inboundFrame{data: data}, nil
}

func (h *Handler) write(conn *websocket.Conn, msg outgoingMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func errorMessage(err error) outgoingMessage {
	var relayErr *chatService.RelayError
	if !errors.As(err, &relayErr) {
		return outgoingMessage{Type: "error", Error: "Internal server error", Status: http.StatusInternalServerError}
	}
	body := relayErr.Response()
	return outgoingMessage{
		Type:         "error",
		Error:        body.Error,
		Status:       relayErr.Status,
		Details:      body.Details,
		FinishReason: body.FinishReason,
	}
}
