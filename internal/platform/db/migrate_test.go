package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsOrdered(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.Equal(t, []string{
		"migrations/0001_admins.sql",
		"migrations/0002_activity_logs.sql",
	}, names)

	body, err := migrationFS.ReadFile(names[1])
	require.NoError(t, err)
	require.Contains(t, string(body), "occurred_at DESC, id DESC")
}
