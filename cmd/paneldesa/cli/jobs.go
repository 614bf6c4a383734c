package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"

	"github.com/desa-digital/panel-desa/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis options.
func NewJobsCLI(redisOpts asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: asynq.NewClient(redisOpts), inspector: asynq.NewInspector(redisOpts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name. arg carries the job parameter,
// the local day for activity:digest; empty means the job default.
func (c *JobsCLI) Trigger(ctx context.Context, name, arg string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var task *asynq.Task
	var err error
	switch name {
	case jobs.TaskActivityDigest, "digest":
		task, err = jobs.NewActivityDigestTask(jobs.ActivityDigestPayload{Day: arg})
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueue reports the queue metrics for queue.
func (c *JobsCLI) InspectQueue(ctx context.Context, queue string) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	stats := QueueStats{Queue: queue}
	info, err := c.inspector.GetQueueInfo(queue)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return stats, nil
		}
		return QueueStats{}, err
	}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(ctx context.Context, queue string, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(queue, asynq.PageSize(size), asynq.Page(1))
}

const usage = `usage: paneldesa jobs <command>

  digest [YYYY-MM-DD]   enqueue the activity digest (default: yesterday)
  stats                 show activity and default queue counters
  scheduled [queue]     list scheduled tasks`

// Run executes a jobs subcommand and writes its output to out.
func Run(ctx context.Context, redisOpts asynq.RedisClientOpt, loc *time.Location, args []string, out io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(out, usage)
		return errors.New("jobs cli: missing command")
	}
	if err := validateArgs(args, loc); err != nil {
		return err
	}
	c := NewJobsCLI(redisOpts)
	defer func() { _ = c.Close() }()

	switch args[0] {
	case "digest":
		day := ""
		if len(args) > 1 {
			day = args[1]
		}
		info, err := c.Trigger(ctx, jobs.TaskActivityDigest, day)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		for _, queue := range []string{jobs.QueueActivity, jobs.QueueDefault} {
			stats, err := c.InspectQueue(ctx, queue)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "%-10s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		}
	case "scheduled":
		queue := jobs.QueueDefault
		if len(args) > 1 {
			queue = args[1]
		}
		tasks, err := c.ListScheduled(ctx, queue, 20)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			_, _ = fmt.Fprintf(out, "%s %s next=%s\n", t.ID, t.Type, t.NextProcessAt.Format(time.RFC3339))
		}
	}
	return nil
}

func validateArgs(args []string, loc *time.Location) error {
	switch args[0] {
	case "digest":
		if len(args) > 2 {
			return errors.New("jobs cli: digest takes at most one day argument")
		}
		if len(args) == 2 {
			if loc == nil {
				loc = time.Local
			}
			if _, err := time.ParseInLocation("2006-01-02", args[1], loc); err != nil {
				return fmt.Errorf("jobs cli: invalid day %q", args[1])
			}
		}
	case "stats", "scheduled":
	default:
		return fmt.Errorf("jobs cli: unknown command %q", args[0])
	}
	return nil
}
