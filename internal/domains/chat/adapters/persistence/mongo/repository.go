package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
)

const (
	messagesCollection      = "messages"
	conversationsCollection = "conversations"
)

var _ ports.Repository = (*Repository)(nil)

// Repository stores chat messages and conversation rollups in MongoDB. Counter changes
// use server-side update operators so concurrent writers never lose increments.
type Repository struct {
	messages      *mongo.Collection
	conversations *mongo.Collection
}

// NewRepository binds the chat collections in db and ensures their indexes.
func NewRepository(ctx context.Context, db *mongo.Database) (*Repository, error) {
	if db == nil {
		return nil, errors.New("mongo database is nil")
	}
	repo := &Repository{
		messages:      db.Collection(messagesCollection),
		conversations: db.Collection(conversationsCollection),
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) ensureIndexes(ctx context.Context) error {
	_, err := r.conversations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "lastMessageTime", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create conversation indexes: %w", err)
	}
	_, err = r.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "receiverId", Value: 1}, {Key: "isRead", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}
	return nil
}

type messageDocument struct {
	ID         string     `bson:"_id"`
	SenderID   string     `bson:"senderId"`
	ReceiverID string     `bson:"receiverId"`
	CustomerID string     `bson:"customerId"`
	Text       string     `bson:"message"`
	SentAt     time.Time  `bson:"timestamp"`
	Read       bool       `bson:"isRead"`
	ReadAt     *time.Time `bson:"readAt,omitempty"`
}

type conversationDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        string             `bson:"userId"`
	UserName      string             `bson:"userName"`
	LastMessage   string             `bson:"lastMessage"`
	LastMessageAt time.Time          `bson:"lastMessageTime"`
	UnreadCount   int                `bson:"unreadCount"`
	IsActive      bool               `bson:"isActive"`
	ReadAt        *time.Time         `bson:"readAt,omitempty"`
}

func (r *Repository) AppendMessage(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return errors.New("message is nil")
	}
	doc := messageDocument{
		ID:         msg.ID,
		SenderID:   msg.Sender.String(),
		ReceiverID: msg.Receiver.String(),
		CustomerID: msg.CustomerID(),
		Text:       msg.Text,
		SentAt:     msg.SentAt,
		Read:       msg.Read,
		ReadAt:     msg.ReadAt,
	}
	if _, err := r.messages.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// TouchConversation upserts the rollup with $inc or a reset, in a single round trip.
func (r *Repository) TouchConversation(ctx context.Context, update ports.ConversationUpdate) (*domain.Conversation, error) {
	if update.CustomerID == "" {
		return nil, domain.ErrEmptyParticipant
	}
	set := bson.M{
		"lastMessage":     update.LastMessage,
		"lastMessageTime": update.At,
		"isActive":        true,
	}
	onInsert := bson.M{}
	if update.CustomerName != "" {
		set["userName"] = update.CustomerName
	} else {
		onInsert["userName"] = ""
	}
	change := bson.M{"$set": set}
	if update.FromCustomer {
		change["$inc"] = bson.M{"unreadCount": 1}
	} else {
		set["unreadCount"] = 0
	}
	if len(onInsert) > 0 {
		change["$setOnInsert"] = onInsert
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.M{"userId": update.CustomerID}
	var doc conversationDocument
	err := r.conversations.FindOneAndUpdate(ctx, filter, change, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// Two first messages raced on the unique userId index; the loser now updates the winner's row.
		err = r.conversations.FindOneAndUpdate(ctx, filter, change, opts).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert conversation: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *Repository) GetConversation(ctx context.Context, customerID string) (*domain.Conversation, error) {
	var doc conversationDocument
	err := r.conversations.FindOne(ctx, bson.M{"userId": customerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *Repository) ListConversations(ctx context.Context) ([]*domain.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastMessageTime", Value: -1}, {Key: "userId", Value: 1}})
	cursor, err := r.conversations.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	var docs []conversationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	result := make([]*domain.Conversation, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toDomain())
	}
	return result, nil
}

func (r *Repository) History(ctx context.Context, customerID string, limit int) ([]*domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.messages.Find(ctx, bson.M{"customerId": customerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	slices.Reverse(docs)
	result := make([]*domain.Message, 0, len(docs))
	for i := range docs {
		msg, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, nil
}

func (r *Repository) MarkRead(ctx context.Context, from, to domain.Participant, at time.Time) (int64, error) {
	res, err := r.messages.UpdateMany(ctx,
		bson.M{"senderId": from.String(), "receiverId": to.String(), "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": at.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *Repository) CountUnread(ctx context.Context, from, to domain.Participant) (int, error) {
	count, err := r.messages.CountDocuments(ctx,
		bson.M{"senderId": from.String(), "receiverId": to.String(), "isRead": false})
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return int(count), nil
}

func (r *Repository) SetUnread(ctx context.Context, customerID string, unread int, at time.Time) (*domain.Conversation, error) {
	var doc conversationDocument
	err := r.conversations.FindOneAndUpdate(ctx,
		bson.M{"userId": customerID},
		bson.M{"$set": bson.M{"unreadCount": unread, "readAt": at.UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("sync unread count: %w", err)
	}
	return doc.toDomain(), nil
}

func (d messageDocument) toDomain() (*domain.Message, error) {
	sender, err := domain.ParseParticipant(d.SenderID)
	if err != nil {
		return nil, fmt.Errorf("message %s sender: %w", d.ID, err)
	}
	receiver, err := domain.ParseParticipant(d.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("message %s receiver: %w", d.ID, err)
	}
	return &domain.Message{
		ID:       d.ID,
		Sender:   sender,
		Receiver: receiver,
		Text:     d.Text,
		SentAt:   d.SentAt.UTC(),
		Read:     d.Read,
		ReadAt:   d.ReadAt,
	}, nil
}

func (d conversationDocument) toDomain() *domain.Conversation {
	return &domain.Conversation{
		CustomerID:    d.UserID,
		CustomerName:  d.UserName,
		LastMessage:   d.LastMessage,
		LastMessageAt: d.LastMessageAt.UTC(),
		UnreadCount:   d.UnreadCount,
		Active:        d.IsActive,
		ReadAt:        d.ReadAt,
	}
}
