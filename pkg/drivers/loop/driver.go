// Package loop provides the loop_items driver.
package loop

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dukex/autoflow/pkg/drivers"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/protocol"
)

const DefaultMaxIterations = 25

type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Type() string {
	return models.NodeTypeLoopItems
}

// Execute resolves the collection. The dispatcher runs the body once per
// returned item.
func (d *Driver) Execute(ctx context.Context, req protocol.Request) protocol.Result {
	items, err := Resolve(req.Params["items"])
	if err != nil {
		return protocol.Fatal(err.Error())
	}

	limit := drivers.Int(req.Params, "max_iterations", DefaultMaxIterations)
	if limit < 1 {
		limit = DefaultMaxIterations
	}

	truncated := false
	if len(items) > limit {
		items = items[:limit]
		truncated = true
	}

	result := protocol.Success(map[string]any{
		"count":     len(items),
		"truncated": truncated,
	})
	result.Items = items

	return result
}

// Resolve turns a list, a JSON array string or a comma separated string into items.
func Resolve(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case []string:
		items := make([]any, 0, len(v))
		for _, s := range v {
			items = append(items, s)
		}

		return items, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			var items []any
			if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
				return nil, &ItemsError{Value: v, Err: err}
			}

			return items, nil
		}

		parts := drivers.SplitList(trimmed)
		items := make([]any, 0, len(parts))
		for _, part := range parts {
			items = append(items, part)
		}

		return items, nil
	case nil:
		return nil, &ItemsError{}
	default:
		return nil, &ItemsError{Value: v}
	}
}

// ItemsError reports an items parameter that is not a collection.
type ItemsError struct {
	Value any
	Err   error
}

func (e *ItemsError) Error() string {
	if e.Err != nil {
		return "items is not a valid JSON array: " + e.Err.Error()
	}

	if e.Value == nil {
		return "items is required"
	}

	return "items must be a list, a JSON array or a comma separated string"
}

func (e *ItemsError) Unwrap() error {
	return e.Err
}
