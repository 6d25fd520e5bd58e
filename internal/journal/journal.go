// Package journal records per-object processing outcomes in Firestore so
// operators can see what was cleansed, skipped or failed without trawling
// logs. The journal is observability, not control flow: a nil Journal is a
// no-op and a write failure never fails the pipeline.
package journal

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
)

// Statuses recorded for an object.
const (
	StatusCleansed       = "CLEANSED"
	StatusSkippedVersion = "SKIPPED_VERSION"
	StatusSkippedFormat  = "SKIPPED_FORMAT"
	StatusVisualMismatch = "VISUAL_MISMATCH"
	StatusFailed         = "FAILED"
)

// Entry is one processing outcome.
type Entry struct {
	Bucket           string    `firestore:"bucket"`
	Object           string    `firestore:"object"`
	NotificationID   string    `firestore:"notificationId,omitempty"`
	Status           string    `firestore:"status"`
	Detail           string    `firestore:"detail,omitempty"`
	ProcessorVersion string    `firestore:"processorVersion"`
	RecordedAt       time.Time `firestore:"recordedAt"`
}

// Journal writes entries to a Firestore collection.
type Journal struct {
	client     *firestore.Client
	collection string
}

// New returns a Journal writing to the named collection.
func New(client *firestore.Client, collection string) *Journal {
	return &Journal{client: client, collection: collection}
}

// Record writes one entry. Failures are logged and swallowed.
func (j *Journal) Record(ctx context.Context, entry Entry) {
	if j == nil || j.client == nil {
		return
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	if _, _, err := j.client.Collection(j.collection).Add(ctx, entry); err != nil {
		slog.Warn("Failed to record journal entry",
			"error", err, "gcsBucket", entry.Bucket, "gcsObject", entry.Object, "status", entry.Status)
	}
}
