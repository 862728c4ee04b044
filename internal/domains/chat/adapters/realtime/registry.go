package realtime

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
)

// ErrSlowConsumer is returned by a Handle whose outbound buffer is full.
var ErrSlowConsumer = errors.New("connection send buffer full")

// Handle is a live transport connection.
type Handle interface {
	Deliver(event ports.Event) error
}

// Metadata describes a connected actor.
type Metadata struct {
	Role   domain.Role
	Name   string
	Avatar string
}

// Presence is the public view of one registry entry.
type Presence struct {
	UserID      string      `json:"userId"`
	Role        domain.Role `json:"role"`
	Name        string      `json:"name,omitempty"`
	Avatar      string      `json:"avatar,omitempty"`
	ConnectedAt time.Time   `json:"connectedAt"`
}

type entry struct {
	presence Presence
	handle   Handle
}

var _ ports.Fanout = (*Registry)(nil)

// Registry maps user ids to their single live connection. It lives for the process
// only; a disconnect is the sole removal trigger.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	logger  *slog.Logger
}

type RegistryOption func(*Registry)

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{entries: map[string]entry{}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register stores the connection for userID, replacing any earlier one. The replaced
// handle is returned so the caller can close it.
func (r *Registry) Register(userID string, meta Metadata, handle Handle) (Handle, bool) {
	if meta.Role == "" {
		meta.Role = domain.RoleCustomer
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	previous, existed := r.entries[userID]
	r.entries[userID] = entry{
		presence: Presence{
			UserID:      userID,
			Role:        meta.Role,
			Name:        meta.Name,
			Avatar:      meta.Avatar,
			ConnectedAt: r.now().UTC(),
		},
		handle: handle,
	}
	if existed && previous.handle != handle {
		return previous.handle, true
	}
	return nil, false
}

// Unregister removes the entry owned by handle. A handle that was already replaced by
// a newer connection removes nothing.
func (r *Registry) Unregister(handle Handle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, e := range r.entries {
		if e.handle == handle {
			delete(r.entries, userID)
			return userID, true
		}
	}
	return "", false
}

// Lookup returns the presence entry for userID.
func (r *Registry) Lookup(userID string) (Presence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[userID]
	return e.presence, ok
}

// SendTo pushes event to the user's connection, if any.
func (r *Registry) SendTo(userID string, event ports.Event) bool {
	r.mu.RLock()
	e, ok := r.entries[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return r.deliver(userID, e.handle, event)
}

// BroadcastToRole pushes event to every connection registered with role and reports
// how many accepted it.
func (r *Registry) BroadcastToRole(role domain.Role, event ports.Event) int {
	r.mu.RLock()
	targets := make(map[string]Handle)
	for userID, e := range r.entries {
		if e.presence.Role == role {
			targets[userID] = e.handle
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for userID, handle := range targets {
		if r.deliver(userID, handle, event) {
			delivered++
		}
	}
	return delivered
}

// Snapshot lists everyone online, ordered by user id.
func (r *Registry) Snapshot() []Presence {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Presence, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, e.presence)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list
}

func (r *Registry) deliver(userID string, handle Handle, event ports.Event) bool {
	if err := handle.Deliver(event); err != nil {
		if r.logger != nil {
			r.logger.Warn("realtime push dropped",
				slog.String("user.id", userID),
				slog.String("event", event.Name),
				slog.String("error", err.Error()))
		}
		return false
	}
	return true
}
