package web

import (
	"os"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/banshee-data/venus.report/internal/monitoring"
)

func TestMain(m *testing.M) {
	if os.Getenv("VENUS_TEST_VERBOSE") == "" {
		monitoring.SetLogger(nil)
	}
	goleak.VerifyTestMain(m)
}

const (
	timeoutShort = 2 * time.Second
	tick         = 10 * time.Millisecond
)
