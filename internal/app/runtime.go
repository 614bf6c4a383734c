package app

import (
	"os"
	"strings"
	"sync"
)

const testModeEnv = "PANELDESA_TEST_MODE"

var testMode = sync.OnceValue(func() bool { return envFlag(testModeEnv) })

// InTestMode reports whether binaries should skip connecting to PostgreSQL
// and Redis. The flag is read once per process.
func InTestMode() bool {
	return testMode()
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
