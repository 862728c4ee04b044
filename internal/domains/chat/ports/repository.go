package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// ConversationUpdate describes the rollup change caused by one new message.
type ConversationUpdate struct {
	CustomerID   string
	CustomerName string
	LastMessage  string
	At           time.Time
	// FromCustomer increments the unread counter atomically; otherwise it is reset to zero.
	FromCustomer bool
}

// Repository stores the message log and the per-customer conversation rollups.
type Repository interface {
	AppendMessage(ctx context.Context, msg *domain.Message) error
	// TouchConversation upserts the rollup for update.CustomerID in one atomic operation.
	TouchConversation(ctx context.Context, update ConversationUpdate) (*domain.Conversation, error)
	GetConversation(ctx context.Context, customerID string) (*domain.Conversation, error)
	// ListConversations returns active conversations, most recent activity first.
	ListConversations(ctx context.Context) ([]*domain.Conversation, error)
	// History returns at most limit of the newest messages for the customer, oldest first.
	History(ctx context.Context, customerID string, limit int) ([]*domain.Message, error)
	// MarkRead flags every unread message from -> to and reports how many changed.
	MarkRead(ctx context.Context, from, to domain.Participant, at time.Time) (int64, error)
	CountUnread(ctx context.Context, from, to domain.Participant) (int, error)
	// SetUnread overwrites the cached counter with a value derived from the log.
	SetUnread(ctx context.Context, customerID string, unread int, at time.Time) (*domain.Conversation, error)
}
