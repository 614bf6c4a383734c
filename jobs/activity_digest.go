package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/desa-digital/panel-desa/internal/activity"
	jobmetrics "github.com/desa-digital/panel-desa/internal/jobs"
)

const digestKeyPrefix = "activity:digest:"

// Digest is the stored aggregate for one local day.
type Digest struct {
	Day         string           `json:"day"`
	Summary     activity.Summary `json:"summary"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// DigestStore keeps daily digests in Redis.
type DigestStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDigestStore constructs a DigestStore; digests expire after ttl.
func NewDigestStore(client *redis.Client, ttl time.Duration) *DigestStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &DigestStore{client: client, ttl: ttl}
}

// Save stores the digest under its day.
func (s *DigestStore) Save(ctx context.Context, d Digest) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, digestKeyPrefix+d.Day, data, s.ttl).Err()
}

// Load returns the digest for day. The boolean is false when none exists.
func (s *DigestStore) Load(ctx context.Context, day string) (Digest, bool, error) {
	data, err := s.client.Get(ctx, digestKeyPrefix+day).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Digest{}, false, nil
		}
		return Digest{}, false, err
	}
	var d Digest
	if err := json.Unmarshal(data, &d); err != nil {
		return Digest{}, false, err
	}
	return d, true, nil
}

// Summarizer computes authoritative counts for a filter.
type Summarizer interface {
	Summary(ctx context.Context, filter activity.FilterState) (activity.Summary, error)
}

// ActivityDigestJob aggregates one day of activity into the DigestStore.
type ActivityDigestJob struct {
	Summaries Summarizer
	Store     *DigestStore
	Location  *time.Location
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewActivityDigestJob wires dependencies for the digest handler.
func NewActivityDigestJob(summaries Summarizer, store *DigestStore, loc *time.Location, logger *slog.Logger, metrics *jobmetrics.Metrics) *ActivityDigestJob {
	if loc == nil {
		loc = time.Local
	}
	return &ActivityDigestJob{
		Summaries: summaries,
		Store:     store,
		Location:  loc,
		Logger:    logger,
		Metrics:   metrics,
		clock:     time.Now,
	}
}

// Handle processes TaskActivityDigest tasks.
func (j *ActivityDigestJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Summaries == nil || j.Store == nil {
		return errors.New("activity digest: handler not configured")
	}
	tracker := j.Metrics.Track(TaskActivityDigest)
	defer func() {
		err = tracker.End(err)
	}()

	var payload ActivityDigestPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("activity digest: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	day := payload.Day
	if day == "" {
		day = j.clock().In(j.Location).AddDate(0, 0, -1).Format(activity.DateLayout)
	}
	if _, err := time.ParseInLocation(activity.DateLayout, day, j.Location); err != nil {
		return fmt.Errorf("activity digest: day %q: %w", day, asynq.SkipRetry)
	}

	summary, err := j.Summaries.Summary(ctx, activity.FilterState{
		Category: activity.CategoryAll,
		DateFrom: day,
		DateTo:   day,
	})
	if err != nil {
		return fmt.Errorf("activity digest: summary %s: %w", day, err)
	}
	digest := Digest{Day: day, Summary: summary, GeneratedAt: j.clock().UTC()}
	if err := j.Store.Save(ctx, digest); err != nil {
		return fmt.Errorf("activity digest: save %s: %w", day, err)
	}
	j.logger().Info("activity digest stored",
		slog.String("day", day),
		slog.Int64("total", summary.Total),
		slog.Int64("distinct_actors", summary.DistinctActors),
	)
	return nil
}

func (j *ActivityDigestJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
