package ifelse

import (
	"context"
	"testing"

	"github.com/dukex/autoflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_Execute(t *testing.T) {
	tests := []struct {
		name      string
		condition any
		expected  bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"string true", "true", true},
		{"string false", "false", false},
		{"zero", "0", false},
		{"number", "42", true},
		{"empty", "", false},
		{"text", "active", true},
		{"empty list", "[]", false},
		{"list", `["a"]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New().Execute(context.Background(), protocol.Request{Params: map[string]any{
				"condition": tt.condition,
			}})

			require.True(t, result.IsSuccess())
			require.NotNil(t, result.Branch)
			assert.Equal(t, tt.expected, *result.Branch)
			assert.Equal(t, tt.expected, result.Data["condition_result"])
		})
	}
}

func TestDriver_Execute_MissingCondition(t *testing.T) {
	result := New().Execute(context.Background(), protocol.Request{Params: map[string]any{}})

	assert.Equal(t, protocol.OutcomeFatal, result.Outcome)
	assert.Nil(t, result.Branch)
}
