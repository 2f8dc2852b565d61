// Package manual provides the driver for manually started workflows.
package manual

import (
	"context"
	"time"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/protocol"
)

type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Type() string {
	return models.NodeTypeManual
}

func (d *Driver) Execute(ctx context.Context, req protocol.Request) protocol.Result {
	if err := ctx.Err(); err != nil {
		return protocol.Retryable(err.Error())
	}

	return protocol.Success(map[string]any{
		"trigger":      models.NodeTypeManual,
		"triggered_at": time.Now().UTC().Format(time.RFC3339),
	})
}
