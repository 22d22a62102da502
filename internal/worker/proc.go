package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"emosante/internal/journal"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	RetryHeader = "x-retry-count"
	MaxRetries  = 3
)

// Analyzer is the part of journal.Analyzer the worker drives.
type Analyzer interface {
	Analyze(ctx context.Context, payload journal.AnalysisPayload) (journal.Status, error)
	MarkFailed(ctx context.Context, entryID int, reason string) error
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeDrop
	outcomeRetry
)

func (o outcome) String() string {
	switch o {
	case outcomeAck:
		return "ack"
	case outcomeDrop:
		return "drop"
	case outcomeRetry:
		return "retry"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// retryCount reads the retry header. Brokers hand integers back with
// whatever width they were published with.
func retryCount(headers amqp.Table) int32 {
	if headers == nil {
		return 0
	}
	switch v := headers[RetryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	case int16:
		return int32(v)
	default:
		return 0
	}
}

// process runs one analysis job and decides what to do with its message.
func process(ctx context.Context, a Analyzer, body []byte, retries int32, workerID int) outcome {
	var payload journal.AnalysisPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.EntryID <= 0 {
		logrus.WithField("worker", workerID).Error("invalid payload")
		return outcomeDrop
	}

	log := logrus.WithFields(logrus.Fields{
		"worker":   workerID,
		"entry_id": payload.EntryID,
		"user_id":  payload.UserID,
		"retry":    retries,
	})
	log.Info("Processing analysis job")

	status, err := a.Analyze(ctx, payload)
	if err == nil {
		log.WithField("status", status).Info("Analysis job done")
		return outcomeAck
	}

	switch {
	case errors.Is(err, journal.ErrEntryNotFound):
		// Deleted after it was queued.
		log.Warn("Entry no longer exists, dropping job")
		return outcomeAck
	case errors.Is(err, journal.ErrForbidden):
		log.WithError(err).Error("Job does not match entry owner")
		return outcomeDrop
	}

	log.WithError(err).Error("Failed to analyze entry")
	if retries >= MaxRetries {
		if err := a.MarkFailed(ctx, payload.EntryID, "max retries reached"); err != nil {
			log.WithError(err).Error("Failed to mark entry as failed after max retries")
		}
		return outcomeDrop
	}
	return outcomeRetry
}
