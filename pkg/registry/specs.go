// Package registry provides the read-only node spec and driver registries.
package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dukex/autoflow/pkg/models"
)

// NodeSpecs maps node types to their parameter specs. It has no mutators and
// is safe for concurrent use once built.
type NodeSpecs struct {
	specs map[string]models.NodeSpec
	order []string
}

// NewNodeSpecs builds a registry from the given specs.
func NewNodeSpecs(specs ...models.NodeSpec) (*NodeSpecs, error) {
	r := &NodeSpecs{
		specs: make(map[string]models.NodeSpec, len(specs)),
		order: make([]string, 0, len(specs)),
	}

	for _, spec := range specs {
		if _, exists := r.specs[spec.Type]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRegistration, spec.Type)
		}

		r.specs[spec.Type] = cloneSpec(spec)
		r.order = append(r.order, spec.Type)
	}

	return r, nil
}

// DefaultNodeSpecs returns the registry of built-in node types.
func DefaultNodeSpecs() *NodeSpecs {
	r, err := NewNodeSpecs(BuiltinNodeSpecs()...)
	if err != nil {
		panic(err)
	}

	return r
}

// Get returns a copy of the spec for the node type.
func (r *NodeSpecs) Get(nodeType string) (models.NodeSpec, error) {
	spec, ok := r.specs[nodeType]
	if !ok {
		return models.NodeSpec{}, &UnknownNodeTypeError{Type: nodeType}
	}

	return cloneSpec(spec), nil
}

func (r *NodeSpecs) Has(nodeType string) bool {
	_, ok := r.specs[nodeType]

	return ok
}

// All returns copies of every spec in registration order.
func (r *NodeSpecs) All() []models.NodeSpec {
	specs := make([]models.NodeSpec, 0, len(r.order))
	for _, nodeType := range r.order {
		specs = append(specs, cloneSpec(r.specs[nodeType]))
	}

	return specs
}

// WithDefaults returns params merged over the spec's optional defaults.
func (r *NodeSpecs) WithDefaults(nodeType string, params map[string]any) (map[string]any, error) {
	spec, err := r.Get(nodeType)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(spec.Optional)+len(params))
	maps.Copy(merged, spec.Optional)
	maps.Copy(merged, params)

	return merged, nil
}

func cloneSpec(spec models.NodeSpec) models.NodeSpec {
	spec.Required = slices.Clone(spec.Required)
	spec.Optional = cloneMap(spec.Optional)
	spec.Schema = cloneMap(spec.Schema)

	return spec
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)

			continue
		}

		out[k] = v
	}

	return out
}
