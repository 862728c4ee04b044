package realtime

import (
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
)

// MessageView is the JSON shape of a message on both the websocket and REST surfaces.
type MessageView struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"senderId"`
	ReceiverID string     `json:"receiverId"`
	Message    string     `json:"message"`
	Timestamp  time.Time  `json:"timestamp"`
	IsRead     bool       `json:"isRead"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
}

// ConversationView is the JSON shape of a conversation rollup.
type ConversationView struct {
	UserID          string     `json:"userId"`
	UserName        string     `json:"userName"`
	LastMessage     string     `json:"lastMessage"`
	LastMessageTime time.Time  `json:"lastMessageTime"`
	UnreadCount     int        `json:"unreadCount"`
	IsActive        bool       `json:"isActive"`
	ReadAt          *time.Time `json:"readAt,omitempty"`
}

type historyView struct {
	CustomerID string        `json:"customerId"`
	Messages   []MessageView `json:"messages"`
}

type errorView struct {
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}

type readView struct {
	CustomerID string `json:"customerId"`
	Marked     int64  `json:"marked"`
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func ToMessageView(m *domain.Message) MessageView {
	return MessageView{
		ID:         m.ID,
		SenderID:   m.Sender.String(),
		ReceiverID: m.Receiver.String(),
		Message:    m.Text,
		Timestamp:  m.SentAt,
		IsRead:     m.Read,
		ReadAt:     m.ReadAt,
	}
}

func ToMessageViews(messages []*domain.Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, ToMessageView(m))
	}
	return views
}

func ToConversationView(c *domain.Conversation) ConversationView {
	return ConversationView{
		UserID:          c.CustomerID,
		UserName:        c.CustomerName,
		LastMessage:     c.LastMessage,
		LastMessageTime: c.LastMessageAt,
		UnreadCount:     c.UnreadCount,
		IsActive:        c.Active,
		ReadAt:          c.ReadAt,
	}
}

func ToConversationViews(conversations []*domain.Conversation) []ConversationView {
	views := make([]ConversationView, 0, len(conversations))
	for _, c := range conversations {
		views = append(views, ToConversationView(c))
	}
	return views
}

// encodePayload converts domain payloads into their wire views.
func encodePayload(payload any) any {
	switch p := payload.(type) {
	case *domain.Message:
		return ToMessageView(p)
	case []*domain.Message:
		return ToMessageViews(p)
	case *domain.Conversation:
		return ToConversationView(p)
	case []*domain.Conversation:
		return ToConversationViews(p)
	default:
		return payload
	}
}
