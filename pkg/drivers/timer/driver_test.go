package timer

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/autoflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("1.5")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, err = ParseDuration("5m")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	_, err = ParseDuration("")
	assert.Error(t, err)

	_, err = ParseDuration("-1s")
	assert.Error(t, err)

	_, err = ParseDuration("soon")
	assert.Error(t, err)
}

func TestDriver_Execute_Waits(t *testing.T) {
	result := New(time.Second).Execute(context.Background(), protocol.Request{Params: map[string]any{
		"duration": "10ms",
	}})

	require.True(t, result.IsSuccess())
	assert.Equal(t, "10ms", result.Data["waited"])
}

func TestDriver_Execute_ExceedsMaximum(t *testing.T) {
	result := New(time.Second).Execute(context.Background(), protocol.Request{Params: map[string]any{
		"duration": "1h",
	}})

	assert.Equal(t, protocol.OutcomeFatal, result.Outcome)
}

func TestDriver_Execute_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := New(time.Minute).Execute(ctx, protocol.Request{Params: map[string]any{
		"duration": "30s",
	}})

	assert.Equal(t, protocol.OutcomeRetryable, result.Outcome)
	assert.Less(t, time.Since(start), 5*time.Second)
}
