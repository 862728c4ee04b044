package domain

import (
	"strings"
	"time"
)

const (
	// DefaultCustomerName is shown when the directory has no record of the customer.
	DefaultCustomerName = "Customer"
	anonymousPrefix     = "User_"
)

// Conversation is the per-customer rollup of a thread with the agent channel.
// UnreadCount is a cache derived from the message log.
type Conversation struct {
	CustomerID    string
	CustomerName  string
	LastMessage   string
	LastMessageAt time.Time
	UnreadCount   int
	Active        bool
	ReadAt        *time.Time
}

func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	clone := *c
	if c.ReadAt != nil {
		ts := *c.ReadAt
		clone.ReadAt = &ts
	}
	return &clone
}

// DisplayName picks the conversation label: the profile name, then the email local
// part, then a short id-derived handle.
func DisplayName(customerID, name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(email), "@"); ok && local != "" {
		return local
	}
	id := strings.TrimSpace(customerID)
	if id == "" {
		return DefaultCustomerName
	}
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return anonymousPrefix + id
}
