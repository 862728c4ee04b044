package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
)

func TestTouchConversation_ConcurrentIncrements(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	at := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.TouchConversation(ctx, ports.ConversationUpdate{CustomerID: "u-1", LastMessage: "hi", At: at, FromCustomer: true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	conversation, err := repo.GetConversation(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 50, conversation.UnreadCount)

	reset, err := repo.TouchConversation(ctx, ports.ConversationUpdate{CustomerID: "u-1", LastMessage: "ok", At: at})
	require.NoError(t, err)
	assert.Zero(t, reset.UnreadCount)
}

func TestHistory_NewestWindowAscending(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, text := range []string{"one", "two", "three"} {
		msg, err := domain.NewMessage(text, domain.Customer("u-1"), domain.AgentChannel(), text, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.AppendMessage(ctx, msg))
	}
	other, err := domain.NewMessage("x", domain.AgentChannel(), domain.Customer("u-2"), "other", base)
	require.NoError(t, err)
	require.NoError(t, repo.AppendMessage(ctx, other))

	history, err := repo.History(ctx, "u-1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Text)
	assert.Equal(t, "three", history[1].Text)
}

func TestMarkRead_OnlyMatchingDirection(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	now := time.Now()
	in, _ := domain.NewMessage("m-1", domain.Customer("u-1"), domain.AgentChannel(), "hello", now)
	out, _ := domain.NewMessage("m-2", domain.AgentChannel(), domain.Customer("u-1"), "hi", now)
	require.NoError(t, repo.AppendMessage(ctx, in))
	require.NoError(t, repo.AppendMessage(ctx, out))

	marked, err := repo.MarkRead(ctx, domain.Customer("u-1"), domain.AgentChannel(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)

	unread, err := repo.CountUnread(ctx, domain.AgentChannel(), domain.Customer("u-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	_, err = repo.SetUnread(ctx, "ghost", 0, now)
	require.ErrorIs(t, err, ports.ErrNotFound)
}
