package journal

import (
	"context"
	"fmt"
	"time"

	"emosante/internal/cache"
	"emosante/internal/emotion"
	"emosante/internal/observability"
	"emosante/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Analyzer labels a stored entry with its emotion. It is shared by the
// inline path of JournalService and by the queue worker.
type Analyzer struct {
	repo       EntryRepositoryInterface
	db         *sqlx.DB
	classifier emotion.Classifier
	cache      *cache.JSONCache
}

func NewAnalyzer(repo EntryRepositoryInterface, db *sqlx.DB, classifier emotion.Classifier, c *cache.JSONCache) *Analyzer {
	return &Analyzer{
		repo:       repo,
		db:         db,
		classifier: classifier,
		cache:      c,
	}
}

// Analyze marks the entry PROCESSING, classifies its text and records the
// outcome. A classification failure is recorded on the entry as FAILED
// and is not returned; store errors are returned so the caller can retry.
func (a *Analyzer) Analyze(ctx context.Context, payload AnalysisPayload) (Status, error) {
	start := time.Now()
	defer func() {
		observability.GlobalMetrics.AnalysisProcessDuration.Observe(time.Since(start).Seconds())
	}()

	entry, err := a.repo.GetByID(ctx, a.db, payload.EntryID)
	if err != nil {
		return "", err
	}
	if entry.UserID != payload.UserID {
		return "", fmt.Errorf("entry %d does not belong to user %d: %w", payload.EntryID, payload.UserID, ErrForbidden)
	}

	if err := utils.WithTransaction(ctx, a.db, func(tx *sqlx.Tx) error {
		return a.repo.MarkProcessing(ctx, tx, entry.ID)
	}); err != nil {
		observability.GlobalMetrics.AnalysisFailedTotal.WithLabelValues("mark_processing_error").Inc()
		return "", fmt.Errorf("mark entry %d processing: %w", entry.ID, err)
	}
	a.invalidate(ctx, entry)

	label, classifyErr := a.classifier.Classify(ctx, entry.Text)

	// The entry is PROCESSING now; its outcome is recorded even if the
	// caller went away during the provider call.
	storeCtx := context.WithoutCancel(ctx)

	status := StatusAnalyzed
	if err := utils.WithTransaction(storeCtx, a.db, func(tx *sqlx.Tx) error {
		if classifyErr != nil {
			status = StatusFailed
			return a.repo.MarkFailed(storeCtx, tx, entry.ID, classifyErr.Error())
		}
		return a.repo.MarkAnalyzed(storeCtx, tx, entry.ID, label)
	}); err != nil {
		observability.GlobalMetrics.AnalysisFailedTotal.WithLabelValues("mark_result_error").Inc()
		return "", fmt.Errorf("record analysis of entry %d: %w", entry.ID, err)
	}
	a.invalidate(storeCtx, entry)

	if classifyErr != nil {
		logrus.WithError(classifyErr).WithField("entry_id", entry.ID).Warn("Emotion analysis failed")
		observability.GlobalMetrics.AnalysisFailedTotal.WithLabelValues("classification_error").Inc()
		observability.GlobalMetrics.AnalysisProcessedTotal.WithLabelValues("failed").Inc()
		return status, nil
	}

	logrus.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"emotion":  label,
	}).Info("Entry analyzed")
	observability.GlobalMetrics.AnalysisProcessedTotal.WithLabelValues("analyzed").Inc()
	return status, nil
}

// MarkFailed records a terminal failure for an entry.
func (a *Analyzer) MarkFailed(ctx context.Context, entryID int, reason string) error {
	var entry *Entry
	err := utils.WithTransaction(ctx, a.db, func(tx *sqlx.Tx) error {
		var err error
		if entry, err = a.repo.GetByID(ctx, tx, entryID); err != nil {
			return err
		}
		return a.repo.MarkFailed(ctx, tx, entryID, reason)
	})
	if err != nil {
		return err
	}
	a.invalidate(ctx, entry)
	return nil
}

func (a *Analyzer) invalidate(ctx context.Context, entry *Entry) {
	if err := a.cache.Delete(ctx, cache.EntryKey(entry.ID), cache.UserEntriesKey(entry.UserID)); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate journal cache")
	}
}
