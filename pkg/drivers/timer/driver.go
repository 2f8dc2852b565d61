// Package timer provides the timer driver.
package timer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/autoflow/pkg/drivers"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/protocol"
)

type Driver struct {
	max time.Duration
}

// New creates a timer driver that refuses waits longer than max.
func New(max time.Duration) *Driver {
	return &Driver{max: max}
}

func (d *Driver) Type() string {
	return models.NodeTypeTimer
}

func (d *Driver) Execute(ctx context.Context, req protocol.Request) protocol.Result {
	duration, err := ParseDuration(drivers.String(req.Params, "duration"))
	if err != nil {
		return protocol.Fatal(err.Error())
	}

	if d.max > 0 && duration > d.max {
		return protocol.Fatal(fmt.Sprintf("duration %s exceeds the maximum of %s", duration, d.max))
	}

	t := time.NewTimer(duration)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return protocol.Retryable(ctx.Err().Error())
	case <-t.C:
	}

	return protocol.Success(map[string]any{
		"waited": duration.String(),
	})
}

// AttemptTimeout extends base by the requested wait.
func (d *Driver) AttemptTimeout(params map[string]any, base time.Duration) time.Duration {
	duration, err := ParseDuration(drivers.String(params, "duration"))
	if err != nil {
		return base
	}

	return base + duration
}

// ParseDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("duration is required")
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return 0, errors.New("duration must not be negative")
		}

		return time.Duration(seconds * float64(time.Second)), nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}

	if duration < 0 {
		return 0, errors.New("duration must not be negative")
	}

	return duration, nil
}
