package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/caffeine-relay/backend/internal/config"
	"github.com/zhouzirui/caffeine-relay/backend/internal/model/chat"
	"github.com/zhouzirui/caffeine-relay/backend/internal/model/persona"
	"github.com/zhouzirui/caffeine-relay/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/caffeine-relay/backend/internal/service/chat"
)

type echoGenerator struct {
	calls int32
}

func (g *echoGenerator) GenerateReply(_ context.Context, contents []chat.Turn) (string, error) {
	atomic.AddInt32(&g.calls, 1)
	last := contents[len(contents)-1].Parts[0].Text
	if last == "fail" {
		return "", &ai.NoReplyError{FinishReason: "SAFETY"}
	}
	return "echo: " + last, nil
}

func dial(t *testing.T, gen chatservice.ReplyGenerator) *websocket.Conn {
	t.Helper()
	store := persona.NewMemoryStore(persona.Seed())
	chatSvc := chatservice.NewService(gen, chatservice.NewPersonaPrompter(store, "caffeine-barista"), config.PolicyStructured)

	r := chi.NewRouter()
	New(chatSvc, nil, 4096).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ready outgoingMessage
	require.NoError(t, conn.ReadJSON(&ready))
	require.Equal(t, "ready", ready.Type)
	require.NotEmpty(t, ready.ConnectionID)
	return conn
}

func TestWebSocketRelaysEachFrame(t *testing.T) {
	gen := &echoGenerator{}
	conn := dial(t, gen)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"first"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"second"}`)))

	var first, second outgoingMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, outgoingMessage{Type: "reply", Reply: "echo: first"}, first)
	assert.Equal(t, outgoingMessage{Type: "reply", Reply: "echo: second"}, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&gen.calls))
}

func TestWebSocketErrorFrames(t *testing.T) {
	gen := &echoGenerator{}
	conn := dial(t, gen)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"history":[]}`)))
	var missing outgoingMessage
	require.NoError(t, conn.ReadJSON(&missing))
	assert.Equal(t, "error", missing.Type)
	assert.Equal(t, 400, missing.Status)
	assert.Equal(t, `Missing or invalid "message" field`, missing.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"fail"}`)))
	var noReply outgoingMessage
	require.NoError(t, conn.ReadJSON(&noReply))
	assert.Equal(t, 502, noReply.Status)
	assert.Equal(t, "SAFETY", noReply.FinishReason)

	assert.Equal(t, int32(1), atomic.LoadInt32(&gen.calls))
}

func TestWebSocketOversizedFrameGetsErrorFrame(t *testing.T) {
	gen := &echoGenerator{}
	conn := dial(t, gen)

	big := `{"message":"` + strings.Repeat("a", 8192) + `"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(big)))

	var tooLarge outgoingMessage
	require.NoError(t, conn.ReadJSON(&tooLarge))
	assert.Equal(t, outgoingMessage{Type: "error", Error: "Invalid JSON body", Status: 400}, tooLarge)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"still here"}`)))
	var reply outgoingMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "echo: still here", reply.Reply)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gen.calls))
}

func TestWebSocketCloseCancelsUpstreamCall(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
			close(cancelled)
		case <-time.After(10 * time.Second):
		}
	}))
	t.Cleanup(upstream.Close)

	gateway := ai.NewService(config.AIConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		BaseURL: upstream.URL,
		Timeout: 30 * time.Second,
	}, nil, nil)
	conn := dial(t, gateway)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"slow question"}`)))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream call never started")
	}

	require.NoError(t, conn.Close())

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream call was not cancelled after the socket closed")
	}
}
