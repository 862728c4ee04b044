package domain

import (
	"errors"
	"strings"
)

// AgentChannelID is the wire identifier of the shared support-agent endpoint.
const AgentChannelID = "admin"

var (
	ErrEmptyParticipant = errors.New("participant id is required")
	ErrInvalidRole      = errors.New("role must be customer or agent")
)

// Role classifies a connected actor.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// ParseRole accepts the transport spellings of a role, including the legacy "admin".
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "customer", "user":
		return RoleCustomer, nil
	case "agent", "admin":
		return RoleAgent, nil
	}
	return "", ErrInvalidRole
}

// Participant is either a specific customer or the agent channel. It is resolved once
// at the transport boundary so downstream code never inspects raw identifiers.
type Participant struct {
	agent      bool
	customerID string
}

// Customer builds a participant for the given customer id.
func Customer(id string) Participant {
	return Participant{customerID: strings.TrimSpace(id)}
}

// AgentChannel is the participant that stands for all connected support staff.
func AgentChannel() Participant {
	return Participant{agent: true}
}

// ParseParticipant resolves a wire identifier.
func ParseParticipant(raw string) (Participant, error) {
	id := strings.TrimSpace(raw)
	switch {
	case id == "":
		return Participant{}, ErrEmptyParticipant
	case strings.EqualFold(id, AgentChannelID):
		return AgentChannel(), nil
	}
	return Customer(id), nil
}

func (p Participant) IsAgent() bool { return p.agent }

// CustomerID returns the customer identifier, or "" for the agent channel.
func (p Participant) CustomerID() string {
	if p.agent {
		return ""
	}
	return p.customerID
}

// IsZero reports whether the participant was never set.
func (p Participant) IsZero() bool { return !p.agent && p.customerID == "" }

// String renders the wire identifier.
func (p Participant) String() string {
	if p.agent {
		return AgentChannelID
	}
	return p.customerID
}
