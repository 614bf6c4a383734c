package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/desa-digital/panel-desa/internal/activity"
	jobmetrics "github.com/desa-digital/panel-desa/internal/jobs"
)

// EntryWriter persists a validated entry.
type EntryWriter interface {
	Record(ctx context.Context, entry activity.NewEntry) (activity.LogEntry, error)
}

// ActivityRecordJob writes queued activity entries.
type ActivityRecordJob struct {
	Writer  EntryWriter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewActivityRecordJob wires dependencies for the record handler.
func NewActivityRecordJob(writer EntryWriter, logger *slog.Logger, metrics *jobmetrics.Metrics) *ActivityRecordJob {
	return &ActivityRecordJob{Writer: writer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskActivityRecord tasks. Invalid entries are never retried.
func (j *ActivityRecordJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Writer == nil {
		return errors.New("activity record: handler not configured")
	}
	tracker := j.Metrics.Track(TaskActivityRecord)
	defer func() {
		err = tracker.End(err)
	}()

	var payload ActivityRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("activity record: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	saved, err := j.Writer.Record(ctx, payload.Entry)
	if err != nil {
		if errors.Is(err, activity.ErrInvalidEntry) {
			j.logger().Warn("drop invalid activity entry", slog.String("actor_id", payload.Entry.ActorID), slog.Any("error", err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	j.logger().Debug("activity recorded",
		slog.String("id", saved.ID),
		slog.String("category", string(saved.Category)),
		slog.Duration("queue_latency", saved.Timestamp.Sub(payload.EnqueuedAt)),
	)
	return nil
}

func (j *ActivityRecordJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
