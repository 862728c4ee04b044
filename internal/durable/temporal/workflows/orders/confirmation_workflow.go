package orders

import (
	"go.temporal.io/sdk/workflow"

	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/durable/temporal/sequences"
)

const (
	// ConfirmationWorkflowName is the public identifier for registering the workflow.
	ConfirmationWorkflowName = "orders.workflows.Confirmation"
	// ConfirmationTaskQueue is the queue consumed by the worker processing confirmation workflows.
	ConfirmationTaskQueue = "ORDER_CONFIRMATION"
)

// ConfirmationWorkflowInput captures the payload required to notify a customer.
type ConfirmationWorkflowInput struct {
	Confirmation orderports.Confirmation
	TraceID      string
}

// ConfirmationWorkflow delivers an order confirmation with durable retries.
func ConfirmationWorkflow(ctx workflow.Context, input ConfirmationWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	orderID := input.Confirmation.OrderID
	logger.Info("ConfirmationWorkflow started", withTraceID(input.TraceID, "orderId", orderID)...)
	if err := sequences.RunConfirmationSequence(ctx, input.Confirmation); err != nil {
		logger.Error("ConfirmationWorkflow failed", withTraceID(input.TraceID, "orderId", orderID, "error", err)...)
		return err
	}
	logger.Info("ConfirmationWorkflow completed", withTraceID(input.TraceID, "orderId", orderID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
