package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-storefront/internal/app/api"
	orderactivities "github.com/Apurer/go-gin-storefront/internal/durable/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-storefront/internal/durable/temporal/workflows/orders"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
)

func main() {
	ctx := context.Background()
	const serviceName = "storefront-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	confirmationActivities := orderactivities.NewActivities(api.NewMailer(cfg, logger))

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.ConfirmationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.ConfirmationWorkflow, workflow.RegisterOptions{Name: orderworkflows.ConfirmationWorkflowName})
	w.RegisterActivityWithOptions(confirmationActivities.SendConfirmation, activity.RegisterOptions{Name: orderactivities.SendConfirmationActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.ConfirmationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
