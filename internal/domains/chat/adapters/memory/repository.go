package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps the chat log and conversation rollups in process memory.
type Repository struct {
	mu            sync.RWMutex
	messages      []*domain.Message
	conversations map[string]*domain.Conversation
}

func NewRepository() *Repository {
	return &Repository{conversations: map[string]*domain.Conversation{}}
}

func (r *Repository) AppendMessage(_ context.Context, msg *domain.Message) error {
	if msg == nil {
		return errors.New("message is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg.Clone())
	return nil
}

func (r *Repository) TouchConversation(_ context.Context, update ports.ConversationUpdate) (*domain.Conversation, error) {
	if update.CustomerID == "" {
		return nil, domain.ErrEmptyParticipant
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.conversations[update.CustomerID]
	if !ok {
		conversation = &domain.Conversation{CustomerID: update.CustomerID}
		r.conversations[update.CustomerID] = conversation
	}
	if update.CustomerName != "" {
		conversation.CustomerName = update.CustomerName
	}
	conversation.LastMessage = update.LastMessage
	conversation.LastMessageAt = update.At
	conversation.Active = true
	if update.FromCustomer {
		conversation.UnreadCount++
	} else {
		conversation.UnreadCount = 0
	}
	return conversation.Clone(), nil
}

func (r *Repository) GetConversation(_ context.Context, customerID string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conversation, ok := r.conversations[customerID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return conversation.Clone(), nil
}

func (r *Repository) ListConversations(_ context.Context) ([]*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Conversation, 0, len(r.conversations))
	for _, conversation := range r.conversations {
		if conversation.Active {
			result = append(result, conversation.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastMessageAt.Equal(result[j].LastMessageAt) {
			return result[i].CustomerID < result[j].CustomerID
		}
		return result[i].LastMessageAt.After(result[j].LastMessageAt)
	})
	return result, nil
}

func (r *Repository) History(_ context.Context, customerID string, limit int) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var thread []*domain.Message
	for _, msg := range r.messages {
		if msg.CustomerID() == customerID {
			thread = append(thread, msg.Clone())
		}
	}
	sort.SliceStable(thread, func(i, j int) bool { return thread[i].SentAt.Before(thread[j].SentAt) })
	if limit > 0 && len(thread) > limit {
		thread = thread[len(thread)-limit:]
	}
	return thread, nil
}

func (r *Repository) MarkRead(_ context.Context, from, to domain.Participant, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var marked int64
	for _, msg := range r.messages {
		if msg.Sender == from && msg.Receiver == to && msg.MarkRead(at) {
			marked++
		}
	}
	return marked, nil
}

func (r *Repository) CountUnread(_ context.Context, from, to domain.Participant) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, msg := range r.messages {
		if msg.Sender == from && msg.Receiver == to && !msg.Read {
			count++
		}
	}
	return count, nil
}

func (r *Repository) SetUnread(_ context.Context, customerID string, unread int, at time.Time) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.conversations[customerID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	conversation.UnreadCount = unread
	ts := at.UTC()
	conversation.ReadAt = &ts
	return conversation.Clone(), nil
}
