package registry

import (
	"fmt"
	"slices"

	"github.com/dukex/autoflow/pkg/protocol"
)

// Drivers maps each node type to exactly one driver. It has no mutators and
// is safe for concurrent use once built.
type Drivers struct {
	drivers map[string]protocol.Driver
}

// NewDrivers builds a driver registry, rejecting duplicate node types.
func NewDrivers(drivers ...protocol.Driver) (*Drivers, error) {
	r := &Drivers{drivers: make(map[string]protocol.Driver, len(drivers))}

	for _, driver := range drivers {
		if _, exists := r.drivers[driver.Type()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRegistration, driver.Type())
		}

		r.drivers[driver.Type()] = driver
	}

	return r, nil
}

// Get returns the driver registered for the node type.
func (r *Drivers) Get(nodeType string) (protocol.Driver, error) {
	driver, ok := r.drivers[nodeType]
	if !ok {
		return nil, &UnknownNodeTypeError{Type: nodeType}
	}

	return driver, nil
}

// Types returns the registered node types, sorted.
func (r *Drivers) Types() []string {
	types := make([]string, 0, len(r.drivers))
	for nodeType := range r.drivers {
		types = append(types, nodeType)
	}

	slices.Sort(types)

	return types
}

// Covers reports node types from specs that have no driver.
func (r *Drivers) Covers(specs *NodeSpecs) []string {
	var missing []string

	for _, spec := range specs.All() {
		if _, ok := r.drivers[spec.Type]; !ok {
			missing = append(missing, spec.Type)
		}
	}

	return missing
}
