package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/autoflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_Execute_NextRun(t *testing.T) {
	driver := New()
	driver.now = func() time.Time {
		return time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	}

	result := driver.Execute(context.Background(), protocol.Request{Params: map[string]any{
		"cron":     "0 9 * * *",
		"timezone": "UTC",
	}})

	require.True(t, result.IsSuccess(), result.Reason)
	assert.Equal(t, "2025-03-03T09:00:00Z", result.Data["next_run"])
}

func TestDriver_Execute_Invalid(t *testing.T) {
	driver := New()

	result := driver.Execute(context.Background(), protocol.Request{Params: map[string]any{"cron": "not a cron"}})
	assert.Equal(t, protocol.OutcomeFatal, result.Outcome)

	result = driver.Execute(context.Background(), protocol.Request{Params: map[string]any{
		"cron":     "0 9 * * *",
		"timezone": "Mars/Olympus",
	}})
	assert.Equal(t, protocol.OutcomeFatal, result.Outcome)

	result = driver.Execute(context.Background(), protocol.Request{Params: map[string]any{}})
	assert.Equal(t, protocol.OutcomeFatal, result.Outcome)
}
