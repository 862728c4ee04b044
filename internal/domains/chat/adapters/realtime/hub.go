package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	chatapp "github.com/Apurer/go-gin-storefront/internal/domains/chat/application"
	chattypes "github.com/Apurer/go-gin-storefront/internal/domains/chat/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
	chatports "github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	requestTimeout = 10 * time.Second
)

// Inbound event names.
const (
	inRegister         = "register"
	inSendMessage      = "sendMessage"
	inFetchHistory     = "fetchHistory"
	inMarkRead         = "markRead"
	inMarkAllRead      = "markAllRead"
	inGetConversations = "getConversations"

	eventMessagesRead = "messagesRead"
)

var errConnectionClosed = errors.New("connection closed")

// Hub upgrades HTTP requests to websocket connections and routes their events to the
// chat service. Connections are tracked in the Registry once they register.
type Hub struct {
	service    chatports.Service
	registry   *Registry
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	sendBuffer int
}

type HubOption func(*Hub)

func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithAllowedOrigins restricts the Origin header on upgrade. An empty list accepts any origin.
func WithAllowedOrigins(origins []string) HubOption {
	return func(h *Hub) {
		if len(origins) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, origin)
		}
	}
}

func WithSendBuffer(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.sendBuffer = size
		}
	}
}

func NewHub(service chatports.Service, registry *Registry, opts ...HubOption) *Hub {
	h := &Hub{
		service:  service,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:     slog.Default(),
		sendBuffer: 32,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Serve upgrades the request and blocks until the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, actor chattypes.Actor) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{
		hub:   h,
		conn:  conn,
		actor: actor,
		send:  make(chan []byte, h.sendBuffer),
		done:  make(chan struct{}),
	}
	go c.writePump()
	c.readPump(context.WithoutCancel(r.Context()))
	return nil
}

func (h *Hub) dispatch(ctx context.Context, c *client, event string, data json.RawMessage) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch event {
	case inRegister:
		h.register(ctx, c, data)
	case inSendMessage:
		var in struct {
			SenderID   string `json:"senderId"`
			ReceiverID string `json:"receiverId"`
			Text       string `json:"text"`
		}
		if !c.decode(event, data, &in) {
			return
		}
		result, err := h.service.SendMessage(ctx, chattypes.SendMessageInput{
			Actor:      c.actor,
			SenderID:   in.SenderID,
			ReceiverID: in.ReceiverID,
			Text:       in.Text,
		})
		if err != nil {
			c.fail(event, err)
			return
		}
		c.push(chatports.Event{Name: chatports.EventMessageSent, Payload: result.Message})
	case inFetchHistory:
		var in struct {
			CustomerID string `json:"customerId"`
		}
		if !c.decode(event, data, &in) {
			return
		}
		messages, err := h.service.History(ctx, chattypes.HistoryInput{Actor: c.actor, CustomerID: in.CustomerID})
		if err != nil {
			c.fail(event, err)
			return
		}
		customerID := in.CustomerID
		if customerID == "" {
			customerID = c.actor.UserID
		}
		c.push(chatports.Event{Name: chatports.EventHistoryResult, Payload: historyView{CustomerID: customerID, Messages: ToMessageViews(messages)}})
	case inMarkRead:
		var in struct {
			CustomerID string `json:"customerId"`
		}
		if !c.decode(event, data, &in) {
			return
		}
		result, err := h.service.MarkRead(ctx, chattypes.MarkReadInput{Actor: c.actor, CustomerID: in.CustomerID})
		if err != nil {
			c.fail(event, err)
			return
		}
		c.push(chatports.Event{Name: eventMessagesRead, Payload: readView{CustomerID: result.CustomerID, Marked: result.Marked}})
	case inMarkAllRead:
		conversations, err := h.service.MarkAllRead(ctx, c.actor)
		if err != nil {
			c.fail(event, err)
			return
		}
		if !c.isRegistered() {
			c.push(chatports.Event{Name: chatports.EventConversationsUpdated, Payload: conversations})
		}
	case inGetConversations:
		conversations, err := h.service.Conversations(ctx, c.actor)
		if err != nil {
			c.fail(event, err)
			return
		}
		c.push(chatports.Event{Name: chatports.EventConversationsUpdated, Payload: conversations})
	default:
		c.push(chatports.Event{Name: chatports.EventError, Payload: errorView{Event: event, Error: "unknown event"}})
	}
}

func (h *Hub) register(ctx context.Context, c *client, data json.RawMessage) {
	var in struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}
	if !c.decode(inRegister, data, &in) {
		return
	}
	if in.UserID != "" && in.UserID != c.actor.UserID {
		c.fail(inRegister, chatapp.ErrForbidden)
		return
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		c.fail(inRegister, err)
		return
	}
	if c.actor.IsAdmin {
		role = domain.RoleAgent
	} else if role == domain.RoleAgent {
		c.fail(inRegister, chatapp.ErrForbidden)
		return
	}

	replaced, ok := h.registry.Register(c.actor.UserID, Metadata{Role: role, Name: strings.TrimSpace(in.Name), Avatar: in.Avatar}, c)
	if ok {
		if old, isClient := replaced.(*client); isClient {
			old.close()
		}
	}
	c.markRegistered()
	h.logger.InfoContext(ctx, "chat client registered", slog.String("user.id", c.actor.UserID), slog.String("role", string(role)))

	snapshot := h.registry.Snapshot()
	if role != domain.RoleAgent {
		c.push(chatports.Event{Name: chatports.EventPresenceChanged, Payload: snapshot})
	}
	h.registry.BroadcastToRole(domain.RoleAgent, chatports.Event{Name: chatports.EventPresenceChanged, Payload: snapshot})
	if role == domain.RoleAgent {
		if conversations, err := h.service.Conversations(ctx, c.actor); err == nil {
			c.push(chatports.Event{Name: chatports.EventConversationsUpdated, Payload: conversations})
		}
	}
}

func (h *Hub) disconnect(c *client) {
	c.close()
	if userID, ok := h.registry.Unregister(c); ok {
		h.logger.Info("chat client disconnected", slog.String("user.id", userID))
		h.registry.BroadcastToRole(domain.RoleAgent, chatports.Event{Name: chatports.EventPresenceChanged, Payload: h.registry.Snapshot()})
	}
}

// clientError reports whether err is safe to show to the caller verbatim.
func clientError(err error) bool {
	return errors.Is(err, chatapp.ErrInvalidInput) ||
		errors.Is(err, chatapp.ErrForbidden) ||
		errors.Is(err, chatapp.ErrMissingActor) ||
		errors.Is(err, domain.ErrInvalidRole)
}

type client struct {
	hub   *Hub
	conn  *websocket.Conn
	actor chattypes.Actor
	send  chan []byte
	done  chan struct{}

	mu         sync.Mutex
	closed     bool
	registered bool
}

// Deliver queues an event without blocking; a full buffer drops it.
func (c *client) Deliver(event chatports.Event) error {
	data, err := json.Marshal(envelope{Event: event.Name, Data: encodePayload(event.Payload)})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSlowConsumer
	}
}

func (c *client) push(event chatports.Event) {
	if err := c.Deliver(event); err != nil && !errors.Is(err, errConnectionClosed) {
		c.hub.logger.Warn("chat reply dropped", slog.String("user.id", c.actor.UserID), slog.String("event", event.Name), slog.String("error", err.Error()))
	}
}

func (c *client) fail(event string, err error) {
	message := err.Error()
	if !clientError(err) {
		c.hub.logger.Error("chat event failed", slog.String("user.id", c.actor.UserID), slog.String("event", event), slog.String("error", message))
		message = "internal error"
	}
	c.push(chatports.Event{Name: chatports.EventError, Payload: errorView{Event: event, Error: message}})
}

func (c *client) decode(event string, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.push(chatports.Event{Name: chatports.EventError, Payload: errorView{Event: event, Error: "malformed payload"}})
		return false
	}
	return true
}

func (c *client) markRegistered() {
	c.mu.Lock()
	c.registered = true
	c.mu.Unlock()
}

func (c *client) isRegistered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registered
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

func (c *client) readPump(ctx context.Context) {
	defer c.hub.disconnect(c)
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("chat connection closed unexpectedly", slog.String("user.id", c.actor.UserID), slog.String("error", err.Error()))
			}
			return
		}
		var in struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &in); err != nil || in.Event == "" {
			c.push(chatports.Event{Name: chatports.EventError, Payload: errorView{Error: "malformed event"}})
			continue
		}
		c.hub.dispatch(ctx, c, in.Event, in.Data)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
