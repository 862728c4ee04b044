package api

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/external/mailer"
	usertokens "github.com/Apurer/go-gin-storefront/internal/domains/users/adapters/tokens"
	paymentdomain "github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	platformmongo "github.com/Apurer/go-gin-storefront/internal/platform/mongo"
)

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port               string
	PostgresDSN        string
	MongoURI           string
	MongoDatabase      string
	TemporalAddress    string
	TemporalNamespace  string
	TemporalDisabled   bool
	AccessTokenSecret  string
	// RefreshTokenSecret falls back to AccessTokenSecret when unset.
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	StripeSecretKey    string
	VNDPerUSD          decimal.Decimal
	Mail               mailer.Config
	ChatHistoryLimit   int
	AllowedOrigins     []string
}

// LoadConfig reads a .env file when present, then environment variables, applies defaults,
// and validates basic constraints. Process-specific requirements are checked by the caller.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Port:               envDefault("PORT", "8080"),
		PostgresDSN:        strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		MongoURI:           strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase:      envDefault("MONGO_DB", platformmongo.DefaultDatabase),
		TemporalAddress:    envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:  envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:   isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		AccessTokenSecret:  strings.TrimSpace(os.Getenv("ACCESS_TOKEN")),
		RefreshTokenSecret: strings.TrimSpace(os.Getenv("REFRESH_TOKEN")),
		AccessTokenTTL:     usertokens.DefaultAccessTTL,
		RefreshTokenTTL:    usertokens.DefaultRefreshTTL,
		StripeSecretKey:    strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
		VNDPerUSD:          paymentdomain.DefaultVNDPerUSD,
		Mail: mailer.Config{
			Host:     envDefault("MAIL_HOST", "smtp.gmail.com"),
			Port:     465,
			Username: strings.TrimSpace(os.Getenv("MAIL_ACCOUNT")),
			Password: os.Getenv("MAIL_PASSWORD"),
			FromName: strings.TrimSpace(os.Getenv("MAIL_FROM_NAME")),
		},
		ChatHistoryLimit: 100,
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
	}
	if raw := strings.TrimSpace(os.Getenv("PAYMENT_VND_PER_USD")); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || !rate.IsPositive() {
			return Config{}, fmt.Errorf("PAYMENT_VND_PER_USD must be a positive number")
		}
		cfg.VNDPerUSD = rate
	}
	if cfg.RefreshTokenSecret == "" {
		cfg.RefreshTokenSecret = cfg.AccessTokenSecret
	}
	for key, target := range map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &cfg.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": &cfg.RefreshTokenTTL,
	} {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			ttl, err := time.ParseDuration(raw)
			if err != nil || ttl <= 0 {
				return Config{}, fmt.Errorf("%s must be a positive duration such as 15m", key)
			}
			*target = ttl
		}
	}
	if raw := strings.TrimSpace(os.Getenv("MAIL_PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("MAIL_PORT must be a valid port number")
		}
		cfg.Mail.Port = port
	}
	if raw := strings.TrimSpace(os.Getenv("CHAT_HISTORY_LIMIT")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Config{}, fmt.Errorf("CHAT_HISTORY_LIMIT must be a positive integer")
		}
		cfg.ChatHistoryLimit = limit
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
