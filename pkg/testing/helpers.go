package testing

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
)

// AssertEventually fails the test unless condition turns true within timeout
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := WaitForCondition(ctx, condition, 10*time.Millisecond); err != nil {
		t.Fatalf("Condition not met within %s: %s", timeout, message)
	}
}

// CreateTestContext creates a context with a timeout for tests
func CreateTestContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// WaitForCondition polls condition every interval until it holds or ctx ends
func WaitForCondition(ctx context.Context, condition func() bool, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if condition() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LogBuffer is a goroutine safe sink for captured log output
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewCapturingLogger returns a debug level JSON logger writing into the
// returned buffer
func NewCapturingLogger(t *testing.T) (*logging.Logger, *LogBuffer) {
	t.Helper()
	buf := &LogBuffer{}
	logger := logging.New(&logging.Config{
		Level:       logging.LevelDebug,
		ServiceName: t.Name(),
		Environment: "test",
		Output:      buf,
	})
	require.NotNil(t, logger)
	return logger, buf
}
