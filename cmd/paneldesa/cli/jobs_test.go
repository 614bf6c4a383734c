package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestValidateArgs(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	require.NoError(t, validateArgs([]string{"digest"}, loc))
	require.NoError(t, validateArgs([]string{"digest", "2024-05-01"}, loc))
	require.NoError(t, validateArgs([]string{"stats"}, loc))
	require.ErrorContains(t, validateArgs([]string{"digest", "01/05/2024"}, loc), "invalid day")
	require.ErrorContains(t, validateArgs([]string{"digest", "2024-05-01", "extra"}, loc), "at most one")
	require.ErrorContains(t, validateArgs([]string{"purge"}, loc), "unknown command")
}

func TestRunWithoutCommandPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), asynq.RedisClientOpt{Addr: "127.0.0.1:0"}, nil, nil, &out)
	require.Error(t, err)
	require.Contains(t, out.String(), "paneldesa jobs")
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	c := NewJobsCLI(asynq.RedisClientOpt{Addr: "127.0.0.1:0"})
	defer func() { _ = c.Close() }()
	_, err := c.Trigger(context.Background(), "inventory:revalue", "")
	require.ErrorContains(t, err, "unsupported job")
}

func TestNilCLIIsNotConfigured(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), "digest", "")
	require.Error(t, err)
	_, err = c.InspectQueue(context.Background(), "default")
	require.Error(t, err)
}
