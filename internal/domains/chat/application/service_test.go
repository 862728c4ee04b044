package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/adapters/memory"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
)

type pushed struct {
	target string
	event  ports.Event
}

// recordingFanout stands in for the presence registry.
type recordingFanout struct {
	mu     sync.Mutex
	online map[string]domain.Role
	pushes []pushed
}

func newRecordingFanout() *recordingFanout {
	return &recordingFanout{online: map[string]domain.Role{}}
}

func (f *recordingFanout) connect(userID string, role domain.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = role
}

func (f *recordingFanout) SendTo(userID string, event ports.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.online[userID]; !ok {
		return false
	}
	f.pushes = append(f.pushes, pushed{target: userID, event: event})
	return true
}

func (f *recordingFanout) BroadcastToRole(role domain.Role, event ports.Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for userID, r := range f.online {
		if r == role {
			f.pushes = append(f.pushes, pushed{target: userID, event: event})
			n++
		}
	}
	return n
}

func (f *recordingFanout) events(target string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, p := range f.pushes {
		if p.target == target {
			names = append(names, p.event.Name)
		}
	}
	return names
}

type stubDirectory map[string]ports.Profile

func (d stubDirectory) Lookup(_ context.Context, userID string) (ports.Profile, error) {
	profile, ok := d[userID]
	if !ok {
		return ports.Profile{}, ports.ErrUnknownUser
	}
	return profile, nil
}

var (
	customer = types.Actor{UserID: "u-1"}
	agent    = types.Actor{UserID: "staff-1", IsAdmin: true}
)

func newTestService(t *testing.T, fanout ports.Fanout, opts ...Option) (*Service, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	clock := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	seq := 0
	base := []Option{
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("msg-%d", seq)
		}),
	}
	return NewService(repo, fanout, append(base, opts...)...), repo
}

func TestSendMessage_NoAgentOnlineStillPersists(t *testing.T) {
	fanout := newRecordingFanout()
	svc, repo := newTestService(t, fanout)
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: customer, ReceiverID: "admin", Text: "hello"})
	require.NoError(t, err)
	assert.Zero(t, result.Pushed)
	assert.Equal(t, 1, result.Conversation.UnreadCount)

	history, err := svc.History(ctx, types.HistoryInput{Actor: customer})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Text)

	conversation, err := repo.GetConversation(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, conversation.UnreadCount)
	assert.Empty(t, fanout.pushes)
}

func TestSendMessage_FansOutToAgentsAndCustomer(t *testing.T) {
	fanout := newRecordingFanout()
	fanout.connect("staff-1", domain.RoleAgent)
	fanout.connect("staff-2", domain.RoleAgent)
	fanout.connect("u-1", domain.RoleCustomer)
	fanout.connect("u-2", domain.RoleCustomer)
	svc, _ := newTestService(t, fanout)
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: customer, Text: "where is my order?"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pushed)
	assert.Equal(t, []string{ports.EventMessageDelivered, ports.EventConversationsUpdated}, fanout.events("staff-2"))
	assert.Empty(t, fanout.events("u-1"))

	reply, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: agent, ReceiverID: "u-1", Text: "on its way"})
	require.NoError(t, err)
	assert.Equal(t, 1, reply.Pushed)
	assert.Zero(t, reply.Conversation.UnreadCount)
	assert.Equal(t, []string{ports.EventMessageDelivered}, fanout.events("u-1"))
	assert.Empty(t, fanout.events("u-2"))
}

func TestSendMessage_AgentOfflineCustomer(t *testing.T) {
	svc, _ := newTestService(t, newRecordingFanout())
	result, err := svc.SendMessage(context.Background(), types.SendMessageInput{Actor: agent, ReceiverID: "u-9", Text: "hi"})
	require.NoError(t, err)
	assert.Zero(t, result.Pushed)
	assert.Equal(t, "u-9", result.Conversation.CustomerID)
}

func TestSendMessage_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: customer, Text: "  "})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SendMessage(ctx, types.SendMessageInput{Actor: customer, ReceiverID: "u-2", Text: "hey"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SendMessage(ctx, types.SendMessageInput{Actor: agent, Text: "to nobody"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SendMessage(ctx, types.SendMessageInput{Actor: customer, SenderID: "u-2", Text: "spoof"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SendMessage(ctx, types.SendMessageInput{Actor: customer, SenderID: "admin", Text: "spoof"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SendMessage(ctx, types.SendMessageInput{Text: "anon"})
	require.ErrorIs(t, err, ErrMissingActor)
}

func TestSendMessage_ResolvesDisplayName(t *testing.T) {
	dir := stubDirectory{
		"u-1": {Name: "Linh Tran", Email: "linh@example.com"},
		"u-2": {Email: "binh@example.com"},
		"u-3": {},
	}
	svc, _ := newTestService(t, nil, WithDirectory(dir))
	ctx := context.Background()

	cases := map[string]string{
		"u-1":    "Linh Tran",
		"u-2":    "binh",
		"u-3":    "User_u-3",
		"ghost7": domain.DefaultCustomerName,
	}
	for id, want := range cases {
		result, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: types.Actor{UserID: id}, Text: "hi"})
		require.NoError(t, err)
		assert.Equal(t, want, result.Conversation.CustomerName, id)
	}
}

func TestMarkRead_RecomputesFromLog(t *testing.T) {
	fanout := newRecordingFanout()
	fanout.connect("staff-1", domain.RoleAgent)
	svc, repo := newTestService(t, fanout)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: customer, Text: text})
		require.NoError(t, err)
	}
	// Drift the cached counter away from the log.
	_, err := repo.SetUnread(ctx, "u-1", 42, time.Now())
	require.NoError(t, err)

	result, err := svc.MarkRead(ctx, types.MarkReadInput{Actor: agent, CustomerID: "u-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, result.Marked)
	require.NotNil(t, result.Conversation)
	assert.Zero(t, result.Conversation.UnreadCount)

	unread, err := repo.CountUnread(ctx, domain.Customer("u-1"), domain.AgentChannel())
	require.NoError(t, err)
	assert.Zero(t, unread)

	names := fanout.events("staff-1")
	assert.Equal(t, ports.EventConversationsUpdated, names[len(names)-1])
}

func TestMarkRead_CustomerClearsReplies(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: agent, ReceiverID: "u-1", Text: "hello"})
	require.NoError(t, err)
	count, err := svc.UnreadCount(ctx, types.UnreadInput{Actor: customer, UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	result, err := svc.MarkRead(ctx, types.MarkReadInput{Actor: customer})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Marked)

	count, err = svc.UnreadCount(ctx, types.UnreadInput{Actor: customer})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllRead(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	for _, id := range []string{"u-1", "u-2"} {
		_, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: types.Actor{UserID: id}, Text: "ping"})
		require.NoError(t, err)
	}

	_, err := svc.MarkAllRead(ctx, customer)
	require.ErrorIs(t, err, ErrForbidden)

	conversations, err := svc.MarkAllRead(ctx, agent)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	for _, c := range conversations {
		assert.Zero(t, c.UnreadCount)
	}
}

func TestConversations_NewestFirstAdminOnly(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	for _, id := range []string{"u-1", "u-2", "u-3"} {
		_, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: types.Actor{UserID: id}, Text: "hi from " + id})
		require.NoError(t, err)
	}

	_, err := svc.Conversations(ctx, customer)
	require.ErrorIs(t, err, ErrForbidden)

	list, err := svc.Conversations(ctx, agent)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "u-3", list[0].CustomerID)
	assert.Equal(t, "hi from u-3", list[0].LastMessage)
}

func TestHistory_Authorization(t *testing.T) {
	svc, _ := newTestService(t, nil, WithHistoryLimit(2))
	ctx := context.Background()
	for _, text := range []string{"a", "b", "c"} {
		_, err := svc.SendMessage(ctx, types.SendMessageInput{Actor: customer, Text: text})
		require.NoError(t, err)
	}

	_, err := svc.History(ctx, types.HistoryInput{Actor: types.Actor{UserID: "u-2"}, CustomerID: "u-1"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.History(ctx, types.HistoryInput{Actor: agent})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.History(ctx, types.HistoryInput{Actor: agent, CustomerID: "admin"})
	require.ErrorIs(t, err, ErrInvalidInput)

	history, err := svc.History(ctx, types.HistoryInput{Actor: agent, CustomerID: "u-1"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "b", history[0].Text)
	assert.Equal(t, "c", history[1].Text)
}

type failingRepo struct {
	*memory.Repository
}

func (failingRepo) AppendMessage(context.Context, *domain.Message) error {
	return errors.New("disk full")
}

func TestSendMessage_StorageFailureSkipsFanout(t *testing.T) {
	fanout := newRecordingFanout()
	fanout.connect("staff-1", domain.RoleAgent)
	svc := NewService(failingRepo{memory.NewRepository()}, fanout)

	_, err := svc.SendMessage(context.Background(), types.SendMessageInput{Actor: customer, Text: "hello"})
	require.Error(t, err)
	assert.Empty(t, fanout.events("staff-1"))
}
