package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"fileaccess/internal/telemetry"
)

// NewMockDB creates a pgxmock pool and automatically handles cleanup via t.Cleanup
func NewMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(func() {
		mockPool.Close()
	})

	return mockPool
}

// NewTestLogger creates a standardized logger for tests
func NewTestLogger() *slog.Logger {
	baseHandler := slog.NewJSONHandler(os.Stdout, nil)
	return slog.New(telemetry.NewTraceHandler(baseHandler))
}
