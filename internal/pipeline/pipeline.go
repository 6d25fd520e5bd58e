// Package pipeline ties sniffing, version gating, cleansing, visual
// verification and write-back into one per-object workflow. Objects are
// processed independently: one object's failure never aborts its siblings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nationalarchives/da-caselaw-document-processing/internal/cleanse"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/gcp"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/journal"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/models"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/runner"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/sniff"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/version"
)

// ObjectStore is the storage contract the pipeline consumes.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, name string) ([]byte, error)
	GetTags(ctx context.Context, bucket, name string) (map[string]string, error)
	PutObject(ctx context.Context, bucket, name string, data []byte, contentType string, tags map[string]string) error
}

// StrategyRegistry resolves a cleansing strategy for a sniffed format.
type StrategyRegistry interface {
	ForFormat(f sniff.Format) (cleanse.Strategy, bool)
}

// Processor runs the cleanse-verify-write workflow for storage objects.
type Processor struct {
	store    ObjectStore
	registry StrategyRegistry
	journal  *journal.Journal
	version  string
}

// New constructs a Processor from the environment: PROCESSOR_VERSION,
// and optionally PROJECT_ID + JOURNAL_COLLECTION for the outcome journal
// and SOFFICE_TIMEOUT_SECONDS for the DOCX conversion budget.
func New(ctx context.Context) (*Processor, error) {
	store, err := gcp.NewStorage(ctx)
	if err != nil {
		return nil, err
	}

	var convertTimeout time.Duration
	if v := gcp.GetEnv("SOFFICE_TIMEOUT_SECONDS", ""); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SOFFICE_TIMEOUT_SECONDS %q: %w", v, err)
		}
		convertTimeout = time.Duration(seconds) * time.Second
	}

	var jr *journal.Journal
	projectID := gcp.GetEnv("PROJECT_ID", "")
	collection := gcp.GetEnv("JOURNAL_COLLECTION", "")
	if projectID != "" && collection != "" {
		client, err := gcp.NewFirestoreClient(ctx, projectID)
		if err != nil {
			return nil, err
		}
		jr = journal.New(client, collection)
	}

	registry := cleanse.NewRegistry(cleanse.Toolchain{
		Runner:         runner.ExecRunner{},
		ConvertTimeout: convertTimeout,
	})

	return NewWithDeps(store, registry, jr, gcp.GetEnv("PROCESSOR_VERSION", version.Default))
}

// NewWithDeps constructs a Processor from explicit collaborators.
func NewWithDeps(store ObjectStore, registry StrategyRegistry, jr *journal.Journal, processorVersion string) (*Processor, error) {
	if !version.IsTagSafe(processorVersion) {
		return nil, fmt.Errorf("processor version %q is not safe to embed in a storage tag", processorVersion)
	}
	return &Processor{store: store, registry: registry, journal: jr, version: processorVersion}, nil
}

// Version returns the processor version new write-backs are tagged with.
func (p *Processor) Version() string {
	return p.version
}

// ProcessBatch processes each notification independently and reports which
// ones failed so the queueing layer can redeliver only those.
func (p *Processor) ProcessBatch(ctx context.Context, objects []models.StorageObject) models.BatchResult {
	var result models.BatchResult
	for _, obj := range objects {
		logCtx := objectLogger(obj)
		if err := p.ProcessObject(ctx, obj); err != nil {
			logCtx.Error("Failed to process object", "error", err)
			result.AddFailure(obj)
			continue
		}
		logCtx.Info("Processing finished on object.")
	}
	return result
}

// ProcessObject runs the full workflow for one object: fetch, gate, sniff,
// clean, verify, write back. A skip (already processed, or unsupported
// format) is a successful no-op. A visual mismatch is an error, but the
// original object is left untouched.
func (p *Processor) ProcessObject(ctx context.Context, obj models.StorageObject) error {
	logCtx := objectLogger(obj)
	logCtx.Info("Processing object.")

	tags, err := p.store.GetTags(ctx, obj.Bucket, obj.Name)
	if err != nil {
		p.journalOutcome(ctx, obj, journal.StatusFailed, err.Error())
		return err
	}

	decision := version.Evaluate(tags, p.version)
	if decision.Reason == version.ReasonParseFailure {
		logCtx.Warn("Could not parse version strings for comparison. Proceeding with processing.",
			"existingVersion", decision.Existing, "currentVersion", p.version)
	}
	if !decision.Process {
		logCtx.Info("Object already processed with a compatible version. Skipping.",
			"existingVersion", decision.Existing, "currentVersion", p.version)
		p.journalOutcome(ctx, obj, journal.StatusSkippedVersion, decision.Existing)
		return nil
	}

	doc, err := p.store.GetObject(ctx, obj.Bucket, obj.Name)
	if err != nil {
		p.journalOutcome(ctx, obj, journal.StatusFailed, err.Error())
		return err
	}

	format := sniff.Detect(doc)
	strategy, ok := p.registry.ForFormat(format)
	if !ok {
		logCtx.Warn("Skipping unsupported file.", "format", format.String(), "leadingBytes", fmt.Sprintf("%.5q", doc))
		p.journalOutcome(ctx, obj, journal.StatusSkippedFormat, format.String())
		return nil
	}

	cleansed, err := strategy.Clean(ctx, doc)
	if err != nil {
		p.journalOutcome(ctx, obj, journal.StatusFailed, err.Error())
		return fmt.Errorf("failed to cleanse %s object: %w", format, err)
	}

	identical, err := strategy.Compare(ctx, doc, cleansed)
	if err != nil {
		p.journalOutcome(ctx, obj, journal.StatusFailed, err.Error())
		return fmt.Errorf("failed to verify %s object: %w", format, err)
	}
	if !identical {
		p.journalOutcome(ctx, obj, journal.StatusVisualMismatch, "")
		return fmt.Errorf("object gs://%s/%s: %w", obj.Bucket, obj.Name, cleanse.ErrVisuallyDifferent)
	}

	newTags := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		newTags[k] = v
	}
	newTags[version.TagKey] = p.version

	if err := p.store.PutObject(ctx, obj.Bucket, obj.Name, cleansed, format.StoredContentType(), newTags); err != nil {
		p.journalOutcome(ctx, obj, journal.StatusFailed, err.Error())
		return err
	}

	logCtx.Info("Successfully processed and rewrote object.", "format", format.String(), "processorVersion", p.version)
	p.journalOutcome(ctx, obj, journal.StatusCleansed, "")
	return nil
}

// objectLogger builds the log context every object-scoped line carries,
// including the notification id the object arrived under.
func objectLogger(obj models.StorageObject) *slog.Logger {
	return slog.With("gcsBucket", obj.Bucket, "gcsObject", obj.Name, "notificationId", obj.NotificationID)
}

// IsVisualMismatch reports whether an error is the expected, recoverable
// visually-different outcome rather than a genuine processing fault.
func IsVisualMismatch(err error) bool {
	return errors.Is(err, cleanse.ErrVisuallyDifferent)
}

func (p *Processor) journalOutcome(ctx context.Context, obj models.StorageObject, status, detail string) {
	p.journal.Record(ctx, journal.Entry{
		Bucket:           obj.Bucket,
		Object:           obj.Name,
		NotificationID:   obj.NotificationID,
		Status:           status,
		Detail:           detail,
		ProcessorVersion: p.version,
	})
}
