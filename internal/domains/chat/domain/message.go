package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength bounds a single chat message in characters.
const MaxMessageLength = 2000

var (
	ErrEmptyText        = errors.New("message text is required")
	ErrTextTooLong      = errors.New("message text is too long")
	ErrMissingAgentSide = errors.New("exactly one side of a message must be the agent channel")
)

// Message is an immutable chat entry; only the read flag changes after creation.
type Message struct {
	ID       string
	Sender   Participant
	Receiver Participant
	Text     string
	SentAt   time.Time
	Read     bool
	ReadAt   *time.Time
}

// NewMessage validates the parties and text of a new message.
func NewMessage(id string, sender, receiver Participant, text string, at time.Time) (*Message, error) {
	if sender.IsZero() || receiver.IsZero() {
		return nil, ErrEmptyParticipant
	}
	if sender.IsAgent() == receiver.IsAgent() {
		return nil, ErrMissingAgentSide
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, ErrTextTooLong
	}
	return &Message{
		ID:       id,
		Sender:   sender,
		Receiver: receiver,
		Text:     text,
		SentAt:   at.UTC(),
	}, nil
}

// CustomerID is the owner of the conversation this message belongs to.
func (m *Message) CustomerID() string {
	if m.Sender.IsAgent() {
		return m.Receiver.CustomerID()
	}
	return m.Sender.CustomerID()
}

// FromCustomer reports whether a customer wrote the message.
func (m *Message) FromCustomer() bool { return !m.Sender.IsAgent() }

// MarkRead flips the read flag once.
func (m *Message) MarkRead(at time.Time) bool {
	if m.Read {
		return false
	}
	m.Read = true
	ts := at.UTC()
	m.ReadAt = &ts
	return true
}

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	clone := *m
	if m.ReadAt != nil {
		ts := *m.ReadAt
		clone.ReadAt = &ts
	}
	return &clone
}
