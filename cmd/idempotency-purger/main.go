package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	orderpostgres "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectOptional(ctx, os.Getenv("POSTGRES_DSN"), logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge idempotency keys")
	}

	store := orderpostgres.NewIdempotencyStore(db)
	removed, err := store.PurgeOlderThan(ctx, time.Now().UTC().Add(-ttlFromEnv()))
	if err != nil {
		log.Fatalf("failed to purge idempotency keys: %v", err)
	}
	logger.Info("idempotency key purge completed", slog.Int64("removed", removed))
}

func ttlFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("IDEMPOTENCY_TTL_HOURS"))
	if raw == "" {
		return orderpostgres.DefaultIdempotencyTTL
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return orderpostgres.DefaultIdempotencyTTL
	}
	return time.Duration(hours) * time.Hour
}
