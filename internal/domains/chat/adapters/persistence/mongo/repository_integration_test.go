//go:build integration

package mongo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
)

func setupChatMongoContainer(t *testing.T) (*mongo.Database, func()) {
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	cleanup := func() {
		_ = client.Disconnect(ctx)
		_ = container.Terminate(ctx)
	}
	return client.Database("storefront_test"), cleanup
}

func TestMongoRepository_ConversationCounters(t *testing.T) {
	db, cleanup := setupChatMongoContainer(t)
	defer cleanup()

	ctx := context.Background()
	repo, err := NewRepository(ctx, db)
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Millisecond)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.TouchConversation(ctx, ports.ConversationUpdate{
				CustomerID: "u-1", CustomerName: "Linh", LastMessage: "hello", At: at, FromCustomer: true,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	conversation, err := repo.GetConversation(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 20, conversation.UnreadCount)
	assert.Equal(t, "Linh", conversation.CustomerName)
	assert.True(t, conversation.Active)

	reply, err := repo.TouchConversation(ctx, ports.ConversationUpdate{CustomerID: "u-1", LastMessage: "hi", At: at.Add(time.Second)})
	require.NoError(t, err)
	assert.Zero(t, reply.UnreadCount)
	assert.Equal(t, "Linh", reply.CustomerName)
}

func TestMongoRepository_MarkReadRecomputes(t *testing.T) {
	db, cleanup := setupChatMongoContainer(t)
	defer cleanup()

	ctx := context.Background()
	repo, err := NewRepository(ctx, db)
	require.NoError(t, err)

	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	for i, text := range []string{"one", "two", "three"} {
		msg, err := domain.NewMessage("m-"+text, domain.Customer("u-1"), domain.AgentChannel(), text, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.AppendMessage(ctx, msg))
		_, err = repo.TouchConversation(ctx, ports.ConversationUpdate{CustomerID: "u-1", LastMessage: text, At: msg.SentAt, FromCustomer: true})
		require.NoError(t, err)
	}

	history, err := repo.History(ctx, "u-1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Text)
	assert.True(t, history[1].Receiver.IsAgent())

	marked, err := repo.MarkRead(ctx, domain.Customer("u-1"), domain.AgentChannel(), base.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)

	unread, err := repo.CountUnread(ctx, domain.Customer("u-1"), domain.AgentChannel())
	require.NoError(t, err)
	assert.Zero(t, unread)

	conversation, err := repo.SetUnread(ctx, "u-1", unread, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, conversation.UnreadCount)
	require.NotNil(t, conversation.ReadAt)

	list, err := repo.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "three", list[0].LastMessage)

	_, err = repo.GetConversation(ctx, "ghost")
	require.ErrorIs(t, err, ports.ErrNotFound)
}
