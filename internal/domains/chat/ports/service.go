package ports

import (
	"context"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
)

// Service exposes support-chat use cases to the REST and websocket adapters.
type Service interface {
	SendMessage(ctx context.Context, input types.SendMessageInput) (*types.SendResult, error)
	History(ctx context.Context, input types.HistoryInput) ([]*domain.Message, error)
	MarkRead(ctx context.Context, input types.MarkReadInput) (*types.ReadResult, error)
	MarkAllRead(ctx context.Context, actor types.Actor) ([]*domain.Conversation, error)
	Conversations(ctx context.Context, actor types.Actor) ([]*domain.Conversation, error)
	UnreadCount(ctx context.Context, input types.UnreadInput) (int, error)
}
