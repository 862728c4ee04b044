package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultDatabase is used when MONGO_DB is not provided.
const DefaultDatabase = "storefront"

// Connect dials MongoDB and pings the primary before handing the client back.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongo URI is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// ConnectOptional returns the named database when MONGO_URI is configured, or nil plus a no-op
// cleanup so callers can fall back to in-memory adapters.
func ConnectOptional(ctx context.Context, uri, database string, log *slog.Logger) (*mongo.Database, func()) {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(uri) == "" {
		log.Warn("MONGO_URI not set, falling back to in-memory chat store")
		return nil, func() {}
	}
	client, err := Connect(ctx, uri)
	if err != nil {
		log.Warn("failed to connect to mongo, falling back to in-memory chat store", slog.String("error", err.Error()))
		return nil, func() {}
	}
	if strings.TrimSpace(database) == "" {
		database = DefaultDatabase
	}
	log.Info("mongo connection established", slog.String("database", database))
	return client.Database(database), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
}
