package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
)

// DefaultHistoryLimit caps how many messages a history fetch returns.
const DefaultHistoryLimit = 100

var _ ports.Service = (*Service)(nil)

// Service stores chat messages, keeps conversation rollups in sync and pushes
// updates to whoever is connected.
type Service struct {
	repo         ports.Repository
	fanout       ports.Fanout
	directory    ports.Directory
	historyLimit int
	now          func() time.Time
	newID        func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithDirectory resolves customer display names when conversations are written.
func WithDirectory(directory ports.Directory) Option {
	return func(s *Service) {
		s.directory = directory
	}
}

func WithHistoryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// NewService wires the chat service. fanout may be nil when no realtime transport runs.
func NewService(repo ports.Repository, fanout ports.Fanout, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		fanout:       fanout,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SendMessage appends the message, upserts the customer's conversation and pushes the
// message to the other side if it is connected.
func (s *Service) SendMessage(ctx context.Context, input types.SendMessageInput) (*types.SendResult, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}
	sender := input.Actor.Participant()
	if strings.TrimSpace(input.SenderID) != "" {
		claimed, err := domain.ParseParticipant(input.SenderID)
		if err != nil {
			return nil, mapError(err)
		}
		if claimed != sender {
			return nil, fmt.Errorf("%w: cannot send as %s", ErrForbidden, claimed)
		}
	}
	receiver, err := s.resolveReceiver(sender, input.ReceiverID)
	if err != nil {
		return nil, mapError(err)
	}

	msg, err := domain.NewMessage(s.newID(), sender, receiver, input.Text, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	conversation, err := s.repo.TouchConversation(ctx, ports.ConversationUpdate{
		CustomerID:   msg.CustomerID(),
		CustomerName: s.displayName(ctx, msg.CustomerID()),
		LastMessage:  msg.Text,
		At:           msg.SentAt,
		FromCustomer: msg.FromCustomer(),
	})
	if err != nil {
		return nil, err
	}

	result := &types.SendResult{Message: msg, Conversation: conversation}
	if s.fanout == nil {
		return result, nil
	}
	delivered := ports.Event{Name: ports.EventMessageDelivered, Payload: msg}
	if msg.FromCustomer() {
		result.Pushed = s.fanout.BroadcastToRole(domain.RoleAgent, delivered)
	} else if s.fanout.SendTo(msg.CustomerID(), delivered) {
		result.Pushed = 1
	}
	s.notifyAgents(ctx)
	return result, nil
}

// History returns the customer's thread with the agent channel, oldest first.
func (s *Service) History(ctx context.Context, input types.HistoryInput) ([]*domain.Message, error) {
	customerID, err := s.authorizeThread(input.Actor, input.CustomerID)
	if err != nil {
		return nil, err
	}
	return s.repo.History(ctx, customerID, s.historyLimit)
}

// MarkRead flags the thread read for the acting side and recomputes the rollup
// counter from the message log.
func (s *Service) MarkRead(ctx context.Context, input types.MarkReadInput) (*types.ReadResult, error) {
	customerID, err := s.authorizeThread(input.Actor, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if !input.Actor.IsAdmin {
		marked, err := s.repo.MarkRead(ctx, domain.AgentChannel(), domain.Customer(customerID), s.now())
		if err != nil {
			return nil, err
		}
		return &types.ReadResult{CustomerID: customerID, Marked: marked}, nil
	}

	result, err := s.markCustomerMessagesRead(ctx, customerID)
	if err != nil {
		return nil, err
	}
	s.notifyAgents(ctx)
	return result, nil
}

// MarkAllRead clears every active conversation for the agents.
func (s *Service) MarkAllRead(ctx context.Context, actor types.Actor) ([]*domain.Conversation, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	conversations, err := s.repo.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	for _, conversation := range conversations {
		if _, err := s.markCustomerMessagesRead(ctx, conversation.CustomerID); err != nil {
			return nil, err
		}
	}
	updated, err := s.repo.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	s.broadcastConversations(updated)
	return updated, nil
}

func (s *Service) Conversations(ctx context.Context, actor types.Actor) ([]*domain.Conversation, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.ListConversations(ctx)
}

// UnreadCount reports agent replies the customer has not read yet.
func (s *Service) UnreadCount(ctx context.Context, input types.UnreadInput) (int, error) {
	customerID, err := s.authorizeThread(input.Actor, input.UserID)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, domain.AgentChannel(), domain.Customer(customerID))
}

func (s *Service) markCustomerMessagesRead(ctx context.Context, customerID string) (*types.ReadResult, error) {
	now := s.now()
	customer := domain.Customer(customerID)
	marked, err := s.repo.MarkRead(ctx, customer, domain.AgentChannel(), now)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, customer, domain.AgentChannel())
	if err != nil {
		return nil, err
	}
	conversation, err := s.repo.SetUnread(ctx, customerID, unread, now)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	return &types.ReadResult{CustomerID: customerID, Marked: marked, Conversation: conversation}, nil
}

func (s *Service) resolveReceiver(sender domain.Participant, raw string) (domain.Participant, error) {
	if !sender.IsAgent() && strings.TrimSpace(raw) == "" {
		return domain.AgentChannel(), nil
	}
	return domain.ParseParticipant(raw)
}

// authorizeThread lets customers act on their own thread and agents on any thread.
func (s *Service) authorizeThread(actor types.Actor, customerID string) (string, error) {
	if err := requireActor(actor); err != nil {
		return "", err
	}
	id := strings.TrimSpace(customerID)
	if id == "" && !actor.IsAdmin {
		id = actor.UserID
	}
	participant, err := domain.ParseParticipant(id)
	if err != nil {
		return "", mapError(err)
	}
	if participant.IsAgent() {
		return "", fmt.Errorf("%w: the agent channel has no thread of its own", ErrInvalidInput)
	}
	if !actor.IsAdmin && participant.CustomerID() != actor.UserID {
		return "", ErrForbidden
	}
	return participant.CustomerID(), nil
}

func (s *Service) displayName(ctx context.Context, customerID string) string {
	if s.directory == nil {
		return domain.DisplayName(customerID, "", "")
	}
	profile, err := s.directory.Lookup(ctx, customerID)
	if err != nil {
		return domain.DefaultCustomerName
	}
	return domain.DisplayName(customerID, profile.Name, profile.Email)
}

func (s *Service) notifyAgents(ctx context.Context) {
	if s.fanout == nil {
		return
	}
	conversations, err := s.repo.ListConversations(ctx)
	if err != nil {
		return
	}
	s.broadcastConversations(conversations)
}

func (s *Service) broadcastConversations(conversations []*domain.Conversation) {
	if s.fanout == nil {
		return
	}
	s.fanout.BroadcastToRole(domain.RoleAgent, ports.Event{Name: ports.EventConversationsUpdated, Payload: conversations})
}

func requireActor(actor types.Actor) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return ErrMissingActor
	}
	return nil
}

func requireAdmin(actor types.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}
