package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/autoflow/pkg/channels/gochannel"
	"github.com/dukex/autoflow/pkg/events"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(slog.Default()))
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	received := make(chan *events.WorkflowStatusChanged, 1)

	require.NoError(t, bus.Handle(events.WorkflowStatusChangedEvent, func(ctx context.Context, event any) error {
		received <- event.(*events.WorkflowStatusChanged)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	workflow := &models.Workflow{ID: "wf-1", Owner: "user-1", Agent: "agent-1"}
	event := events.NewWorkflowStatusChanged(workflow, models.Transition{
		From: models.WorkflowStatusPreviewReady,
		To:   models.WorkflowStatusApproved,
	})

	require.NoError(t, bus.Publish(ctx, workflow.ID, event))

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, models.WorkflowStatusApproved, got.To)
		assert.Equal(t, events.WorkflowStatusChangedEvent, got.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}

func TestWatermillEventBus_DropsUndecodableMessages(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	received := make(chan *events.NodeExecuted, 2)

	require.NoError(t, bus.Handle(events.NodeExecutedEvent, func(ctx context.Context, event any) error {
		received <- event.(*events.NodeExecuted)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	garbled := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	garbled.Metadata.Set(events.EventTypeMetadataKey, string(events.NodeExecutedEvent))

	unknown := message.NewMessage(watermill.NewUUID(), []byte("{}"))
	unknown.Metadata.Set(events.EventTypeMetadataKey, "workflow.unknown")

	require.NoError(t, pub.Publish(events.Topic, garbled, unknown))

	result := models.NodeResult{NodeID: "send_email_1", Type: models.NodeTypeEmailSend, Status: models.NodeStatusSuccess}
	require.NoError(t, bus.Publish(ctx, "wf-1", events.NewNodeExecuted("wf-1", "exec-1", result)))

	select {
	case got := <-received:
		assert.Equal(t, "send_email_1", got.NodeID)
		assert.Equal(t, "exec-1", got.ExecutionID)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	assert.Empty(t, received)
}
