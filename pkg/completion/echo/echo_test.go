package echo

import (
	"context"
	"testing"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	svc := New()

	body, err := svc.Generate(context.Background(), "Let's meet next week.", models.StyleHints{Company: "Acme", Product: "RocketCRM"})
	require.NoError(t, err)

	assert.Contains(t, body, "from Acme to introduce RocketCRM")
	assert.Contains(t, body, "Let's meet next week.")
	assert.Contains(t, body, "Best regards,\nAcme")

	again, err := svc.Generate(context.Background(), "Let's meet next week.", models.StyleHints{Company: "Acme", Product: "RocketCRM"})
	require.NoError(t, err)
	assert.Equal(t, body, again)
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Generate(ctx, "x", models.StyleHints{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReply(t *testing.T) {
	reply, err := New().Reply(context.Background(), nil, "hello there")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)

	empty, err := New().Reply(context.Background(), nil, "   ")
	require.NoError(t, err)
	assert.Contains(t, empty, "How can I help?")
}
