package models

// ExecutionContext carries state accumulated while a workflow executes.
type ExecutionContext struct {
	ID          string                `json:"id"`
	WorkflowID  string                `json:"workflow_id"`
	TriggerData map[string]any        `json:"trigger_data,omitempty"`
	Variables   map[string]any        `json:"variables,omitempty"`
	NodeResults map[string]NodeResult `json:"node_results,omitempty"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
}

// NewExecutionContext creates an empty context for a workflow run.
func NewExecutionContext(id, workflowID string) *ExecutionContext {
	return &ExecutionContext{
		ID:          id,
		WorkflowID:  workflowID,
		TriggerData: make(map[string]any),
		Variables:   make(map[string]any),
		NodeResults: make(map[string]NodeResult),
		Metadata:    make(map[string]any),
	}
}

// WithVariables returns a copy sharing results but with extra variables, used
// for loop iterations.
func (c *ExecutionContext) WithVariables(vars map[string]any) *ExecutionContext {
	clone := *c
	clone.Variables = make(map[string]any, len(c.Variables)+len(vars))

	for k, v := range c.Variables {
		clone.Variables[k] = v
	}

	for k, v := range vars {
		clone.Variables[k] = v
	}

	return &clone
}
