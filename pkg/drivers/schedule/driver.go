// Package schedule provides the driver for schedule-triggered workflows.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/autoflow/pkg/drivers"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/protocol"
	"github.com/robfig/cron/v3"
)

type Driver struct {
	now func() time.Time
}

func New() *Driver {
	return &Driver{now: time.Now}
}

func (d *Driver) Type() string {
	return models.NodeTypeCron
}

// Execute validates the expression and reports the next run time.
func (d *Driver) Execute(ctx context.Context, req protocol.Request) protocol.Result {
	expr := drivers.String(req.Params, "cron")

	schedule, location, err := Parse(expr, drivers.String(req.Params, "timezone"))
	if err != nil {
		return protocol.Fatal(err.Error())
	}

	now := d.now().In(location)

	return protocol.Success(map[string]any{
		"trigger":      models.NodeTypeCron,
		"cron":         expr,
		"timezone":     location.String(),
		"triggered_at": now.Format(time.RFC3339),
		"next_run":     schedule.Next(now).Format(time.RFC3339),
	})
}

// Parse parses a standard 5-field expression in the given timezone.
func Parse(expr, timezone string) (cron.Schedule, *time.Location, error) {
	if expr == "" {
		return nil, nil, errors.New("cron expression is required")
	}

	if timezone == "" {
		timezone = "UTC"
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	return schedule, location, nil
}
