package types

import "github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"

// Actor is the authenticated principal behind a chat request.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// Participant is the chat identity the actor speaks as.
func (a Actor) Participant() domain.Participant {
	if a.IsAdmin {
		return domain.AgentChannel()
	}
	return domain.Customer(a.UserID)
}

// SendMessageInput carries a new message. SenderID is optional and, when present,
// must match the actor's own identity.
type SendMessageInput struct {
	Actor      Actor
	SenderID   string
	ReceiverID string
	Text       string
}

type SendResult struct {
	Message      *domain.Message
	Conversation *domain.Conversation
	// Pushed counts the live connections the message reached.
	Pushed int
}

type HistoryInput struct {
	Actor      Actor
	CustomerID string
}

// MarkReadInput marks a thread read. Agents clear messages sent by the customer;
// a customer clears replies addressed to them.
type MarkReadInput struct {
	Actor      Actor
	CustomerID string
}

type ReadResult struct {
	CustomerID   string
	Marked       int64
	Conversation *domain.Conversation
}

type UnreadInput struct {
	Actor  Actor
	UserID string
}
