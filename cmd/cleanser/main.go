package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/joho/godotenv"

	"github.com/nationalarchives/da-caselaw-document-processing/internal/models"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/pipeline"
)

const pubsubEventType = "google.cloud.pubsub.topic.v1.messagePublished"

var (
	processor *pipeline.Processor
	once      sync.Once
	initErr   error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// A .env file is a local-development convenience; absence is fine.
	_ = godotenv.Load()

	functions.CloudEvent("CleanseDocuments", cleanseDocuments)
}

// main is required by the Go Functions Framework.
func main() {}

// cleanseDocuments is the CloudEvent entry point. It unwraps the event
// envelope into storage notifications and processes them as one batch.
// A malformed envelope or any per-object failure fails the invocation so
// the queue redelivers the event; the version gate makes redelivery of
// already-cleansed siblings a no-op.
func cleanseDocuments(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		processor, initErr = pipeline.New(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	return handleEvent(ctx, e, processor)
}

func handleEvent(ctx context.Context, e cloudevents.Event, p *pipeline.Processor) error {
	records, err := unwrapNotifications(e)
	if err != nil {
		slog.Error("Failed to unwrap event envelope", "error", err, "eventType", e.Type(), "eventId", e.ID())
		return err
	}

	result := p.ProcessBatch(ctx, records)
	if !result.AllSucceeded() {
		slog.Warn("Batch completed with failures.",
			"failedCount", len(result.BatchItemFailures), "totalCount", len(records), "result", result)
		return fmt.Errorf("failed to process %d of %d notifications", len(result.BatchItemFailures), len(records))
	}

	slog.Info("All notifications processed successfully.", "totalCount", len(records))
	return nil
}

// unwrapNotifications extracts storage notifications from either a
// Pub/Sub-wrapped batch or a direct storage event.
func unwrapNotifications(e cloudevents.Event) ([]models.StorageObject, error) {
	data := e.Data()

	if e.Type() == pubsubEventType {
		var envelope models.PubSubEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pubsub envelope: %w", err)
		}
		records, err := models.ParseNotifications(envelope.Message.Data)
		if err != nil {
			return nil, err
		}
		for i := range records {
			if records[i].NotificationID == "" {
				records[i].NotificationID = envelope.Message.MessageID
			}
		}
		return records, nil
	}

	return models.ParseNotifications(data)
}
