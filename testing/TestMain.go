// Package testing switches the application into test mode when imported by
// a test binary, so handlers skip external side effects.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("PANELDESA_TEST_MODE", "1")
		if os.Getenv("APP_TIMEZONE") == "" {
			_ = os.Setenv("APP_TIMEZONE", "Asia/Jakarta")
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain can be delegated to from packages that need test mode before flags parse.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
