package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/adapters/memory"
	chatapp "github.com/Apurer/go-gin-storefront/internal/domains/chat/application"
	chattypes "github.com/Apurer/go-gin-storefront/internal/domains/chat/application/types"
)

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newHubServer(t *testing.T) *httptest.Server {
	t.Helper()
	registry := NewRegistry()
	svc := chatapp.NewService(memory.NewRepository(), registry)
	hub := NewHub(svc, registry, WithHubLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := chattypes.Actor{UserID: r.URL.Query().Get("user"), IsAdmin: r.URL.Query().Get("admin") == "1"}
		_ = hub.Serve(w, r, actor)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user string, admin bool) *websocket.Conn {
	t.Helper()
	q := url.Values{"user": {user}}
	if admin {
		q.Set("admin", "1")
	}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/?"+q.Encode(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func emit(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func readUntil(t *testing.T, conn *websocket.Conn, event string) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg received
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Event == event {
			return msg
		}
	}
}

func TestHub_CustomerAgentRoundTrip(t *testing.T) {
	srv := newHubServer(t)

	agent := dial(t, srv, "a-1", true)
	emit(t, agent, "register", map[string]string{"name": "Support"})
	readUntil(t, agent, "conversationsUpdated")

	customer := dial(t, srv, "u-1", false)
	emit(t, customer, "register", map[string]string{"name": "Linh"})
	readUntil(t, customer, "presenceChanged")

	emit(t, customer, "sendMessage", map[string]string{"receiverId": "admin", "text": "hello"})
	sent := readUntil(t, customer, "messageSent")
	var own MessageView
	require.NoError(t, json.Unmarshal(sent.Data, &own))
	assert.Equal(t, "hello", own.Message)

	delivered := readUntil(t, agent, "messageDelivered")
	var pushed MessageView
	require.NoError(t, json.Unmarshal(delivered.Data, &pushed))
	assert.Equal(t, "u-1", pushed.SenderID)
	assert.Equal(t, "admin", pushed.ReceiverID)

	update := readUntil(t, agent, "conversationsUpdated")
	var conversations []ConversationView
	require.NoError(t, json.Unmarshal(update.Data, &conversations))
	require.Len(t, conversations, 1)
	assert.Equal(t, 1, conversations[0].UnreadCount)

	emit(t, agent, "sendMessage", map[string]string{"receiverId": "u-1", "text": "hi there"})
	reply := readUntil(t, customer, "messageDelivered")
	require.NoError(t, json.Unmarshal(reply.Data, &pushed))
	assert.Equal(t, "hi there", pushed.Message)

	emit(t, customer, "fetchHistory", map[string]string{})
	history := readUntil(t, customer, "historyResult")
	var thread historyView
	require.NoError(t, json.Unmarshal(history.Data, &thread))
	assert.Equal(t, "u-1", thread.CustomerID)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, "hello", thread.Messages[0].Message)
}

func TestHub_RejectsImpersonation(t *testing.T) {
	srv := newHubServer(t)
	customer := dial(t, srv, "u-1", false)

	emit(t, customer, "register", map[string]string{"role": "admin"})
	failure := readUntil(t, customer, "error")
	var view errorView
	require.NoError(t, json.Unmarshal(failure.Data, &view))
	assert.Equal(t, "register", view.Event)

	emit(t, customer, "fetchHistory", map[string]string{"customerId": "u-2"})
	failure = readUntil(t, customer, "error")
	require.NoError(t, json.Unmarshal(failure.Data, &view))
	assert.Equal(t, "fetchHistory", view.Event)
	assert.Contains(t, view.Error, "not permitted")
}

func TestHub_MalformedEvent(t *testing.T) {
	srv := newHubServer(t)
	conn := dial(t, srv, "u-1", false)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	failure := readUntil(t, conn, "error")
	assert.Contains(t, string(failure.Data), "malformed")
}
