package api

import (
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/external/mailer"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
)

// ConnectTemporal dials the configured Temporal frontend with tracing and structured logging attached.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer(tracerName)
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

// NewMailer returns the SMTP mailer when credentials are configured and a log-only mailer otherwise.
func NewMailer(cfg Config, logger *slog.Logger) orderports.Mailer {
	if !cfg.Mail.Configured() {
		logger.Warn("MAIL_ACCOUNT not set, order confirmations are logged only")
		return mailer.NewLogMailer(logger)
	}
	smtpMailer, err := mailer.NewSMTPMailer(cfg.Mail)
	if err != nil {
		logger.Warn("failed to configure SMTP mailer, order confirmations are logged only", slog.String("error", err.Error()))
		return mailer.NewLogMailer(logger)
	}
	return smtpMailer
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
