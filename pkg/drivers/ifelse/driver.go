// Package ifelse provides the conditional branching driver.
package ifelse

import (
	"context"

	"github.com/dukex/autoflow/pkg/drivers"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/protocol"
	"github.com/dukex/autoflow/pkg/template"
)

type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Type() string {
	return models.NodeTypeIfElse
}

// Execute evaluates the condition. The dispatcher runs the then branch when
// the result's Branch is true and the else branch otherwise.
func (d *Driver) Execute(ctx context.Context, req protocol.Request) protocol.Result {
	value, ok := req.Params["condition"]
	if !ok {
		return protocol.Fatal("missing required field 'condition'")
	}

	// rendered strings are re-typed so "1", "true" and JSON values evaluate naturally
	if str, ok := value.(string); ok {
		typed, err := template.Render(str, nil)
		if err == nil {
			value = typed
		}
	}

	isTrue := drivers.Truthy(value)

	result := protocol.Success(map[string]any{
		"condition_result": isTrue,
		"evaluated_value":  value,
	})
	result.Branch = &isTrue

	return result
}
