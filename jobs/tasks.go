package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/desa-digital/panel-desa/internal/activity"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueActivity carries activity writes so they are not starved by reporting jobs.
	QueueActivity = "activity"

	// TaskActivityRecord persists one activity log entry.
	TaskActivityRecord = "activity:record"
	// TaskActivityDigest aggregates one local day of activity.
	TaskActivityDigest = "activity:digest"
)

// ActivityRecordPayload wraps an entry queued by a content screen.
type ActivityRecordPayload struct {
	Entry      activity.NewEntry `json:"entry"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// ActivityDigestPayload selects the day to aggregate. Empty Day means yesterday.
type ActivityDigestPayload struct {
	Day string `json:"day,omitempty"`
}

// NewActivityRecordTask constructs an Asynq task for an activity write.
func NewActivityRecordTask(payload ActivityRecordPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityRecord, data, asynq.MaxRetry(5), asynq.Queue(QueueActivity)), nil
}

// NewActivityDigestTask constructs an Asynq task for the daily digest.
func NewActivityDigestTask(payload ActivityDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityDigest, data, asynq.MaxRetry(3), asynq.Queue(QueueDefault), asynq.Timeout(2*time.Minute)), nil
}
