package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/go-gin-storefront/internal/durable/temporal/workflows/orders"
)

var (
	_ ports.ConfirmationDispatcher = (*TemporalConfirmations)(nil)
	_ ports.ConfirmationDispatcher = (*InlineConfirmations)(nil)
)

// TemporalConfirmations starts a durable confirmation workflow per order and returns immediately.
type TemporalConfirmations struct {
	client    client.Client
	taskQueue string
	logger    *slog.Logger
}

// NewTemporalConfirmations wires a Temporal client into the dispatcher.
func NewTemporalConfirmations(c client.Client, logger *slog.Logger) *TemporalConfirmations {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemporalConfirmations{client: c, taskQueue: orderworkflows.ConfirmationTaskQueue, logger: logger}
}

// Dispatch starts the workflow without waiting for delivery. The workflow id is derived
// from the order id so a replayed placement never emails twice.
func (d *TemporalConfirmations) Dispatch(ctx context.Context, confirmation ports.Confirmation) error {
	if d == nil || d.client == nil {
		return errors.New("temporal confirmations not configured")
	}
	options := client.StartWorkflowOptions{
		ID:        confirmationWorkflowID(confirmation.OrderID),
		TaskQueue: d.taskQueue,
	}
	_, err := d.client.ExecuteWorkflow(ctx, options, orderworkflows.ConfirmationWorkflow, orderworkflows.ConfirmationWorkflowInput{
		Confirmation: confirmation,
		TraceID:      workflowTraceID(ctx),
	})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		d.logger.ErrorContext(ctx, "failed to start confirmation workflow",
			slog.String("order.id", confirmation.OrderID), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// InlineConfirmations sends confirmations in the background without Temporal, useful for tests or dev fallbacks.
type InlineConfirmations struct {
	mailer  ports.Mailer
	logger  *slog.Logger
	timeout time.Duration
}

// NewInlineConfirmations wraps a mailer for best-effort asynchronous delivery.
func NewInlineConfirmations(mailer ports.Mailer, logger *slog.Logger) *InlineConfirmations {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineConfirmations{mailer: mailer, logger: logger, timeout: 30 * time.Second}
}

// Dispatch sends in a goroutine detached from the request context; failures are logged.
func (d *InlineConfirmations) Dispatch(ctx context.Context, confirmation ports.Confirmation) error {
	if d == nil || d.mailer == nil {
		return errors.New("inline confirmations not configured")
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := d.mailer.SendConfirmation(sendCtx, confirmation); err != nil {
			d.logger.ErrorContext(sendCtx, "order confirmation email failed",
				slog.String("order.id", confirmation.OrderID), slog.String("error", err.Error()))
			return
		}
		d.logger.InfoContext(sendCtx, "order confirmation email sent", slog.String("order.id", confirmation.OrderID))
	}()
	return nil
}

func confirmationWorkflowID(orderID string) string {
	return fmt.Sprintf("order-confirmation-%s", orderID)
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
