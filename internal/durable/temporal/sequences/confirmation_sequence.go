package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-gin-storefront/internal/durable/temporal/activities/orders"
)

// RunConfirmationSequence executes the activities that notify a customer about a placed order.
func RunConfirmationSequence(ctx workflow.Context, input orderports.Confirmation) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("confirmation sequence started", "orderId", input.OrderID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    8,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	if err := workflow.ExecuteActivity(ctx, orderactivities.SendConfirmationActivityName, input).Get(ctx, nil); err != nil {
		logger.Error("confirmation sequence failed", "orderId", input.OrderID, "error", err)
		return err
	}
	logger.Info("confirmation sequence completed", "orderId", input.OrderID)
	return nil
}
