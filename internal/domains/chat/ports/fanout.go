package ports

import "github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"

// Outbound realtime event names.
const (
	EventMessageDelivered     = "messageDelivered"
	EventMessageSent          = "messageSent"
	EventHistoryResult        = "historyResult"
	EventConversationsUpdated = "conversationsUpdated"
	EventPresenceChanged      = "presenceChanged"
	EventError                = "error"
)

// Event is a named payload pushed to connected clients.
type Event struct {
	Name    string
	Payload any
}

// Fanout pushes events to currently connected actors. Delivery is best effort: an
// absent recipient simply receives nothing.
type Fanout interface {
	SendTo(userID string, event Event) bool
	BroadcastToRole(role domain.Role, event Event) int
}
