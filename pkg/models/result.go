package models

// ResultStatus is the externally visible outcome of handling a message.
type ResultStatus string

const (
	ResultConversational              ResultStatus = "conversational"
	ResultAwaitingContentConfirmation ResultStatus = "awaiting_content_confirmation"
	ResultPreviewReady                ResultStatus = "preview_ready"
	ResultScheduled                   ResultStatus = "scheduled"
	ResultExecuting                   ResultStatus = "executing"
	ResultCompleted                   ResultStatus = "completed"
	ResultFailed                      ResultStatus = "failed"
)

// PreviewNode is the human-readable rendering of a single node.
type PreviewNode struct {
	NodeID  string            `json:"node_id"`
	Type    string            `json:"type"`
	Summary string            `json:"summary"`
	Fields  map[string]string `json:"fields"`
	Depth   int               `json:"depth"`
}

// Preview is the reviewable rendering of a draft workflow's effects.
type Preview struct {
	WorkflowID string        `json:"workflow_id"`
	Status     WorkflowStatus `json:"status"`
	Nodes      []PreviewNode `json:"nodes"`
}

// MissingField names a required parameter absent from a node.
type MissingField struct {
	NodeID string `json:"node_id"`
	Field  string `json:"field"`
}

// OrchestrationResult is returned for every inbound message.
type OrchestrationResult struct {
	Status        ResultStatus   `json:"status"`
	Reply         string         `json:"reply"`
	Preview       *Preview       `json:"preview,omitempty"`
	WorkflowID    string         `json:"workflow_id,omitempty"`
	NodeResults   []NodeResult   `json:"node_results,omitempty"`
	MissingFields []MissingField `json:"missing_fields,omitempty"`
}

// ExecutionReport collects per-node results of a dispatch.
type ExecutionReport struct {
	WorkflowID  string         `json:"workflow_id"`
	ExecutionID string         `json:"execution_id"`
	Status      WorkflowStatus `json:"status"`
	NodeResults []NodeResult   `json:"node_results"`
}
