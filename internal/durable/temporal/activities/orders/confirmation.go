package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// SendConfirmationActivityName delivers the order confirmation email.
const SendConfirmationActivityName = "orders.activities.SendConfirmation"

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	mailer orderports.Mailer
}

// NewActivities wires the orders collaborators into the Temporal activities bundle.
func NewActivities(mailer orderports.Mailer) *Activities {
	return &Activities{mailer: mailer}
}

// SendConfirmation emails the customer. Errors are returned so Temporal retries the send.
func (a *Activities) SendConfirmation(ctx context.Context, input orderports.Confirmation) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.mailer == nil {
		logger.Error("confirmation activity not initialized", "orderId", input.OrderID)
		return errors.New("confirmation activity not initialized")
	}
	logger.Info("SendConfirmation activity started", "orderId", input.OrderID, "attempt", activity.GetInfo(ctx).Attempt)
	if err := a.mailer.SendConfirmation(ctx, input); err != nil {
		logger.Error("SendConfirmation activity failed", "orderId", input.OrderID, "error", err)
		return err
	}
	logger.Info("SendConfirmation activity completed", "orderId", input.OrderID)
	return nil
}
