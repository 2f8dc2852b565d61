package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft                       WorkflowStatus = "draft"
	WorkflowStatusAwaitingContentConfirmation WorkflowStatus = "awaiting_content_confirmation"
	WorkflowStatusPreviewReady                WorkflowStatus = "preview_ready"
	WorkflowStatusApproved                    WorkflowStatus = "approved"
	WorkflowStatusExecuting                   WorkflowStatus = "executing"
	WorkflowStatusCompleted                   WorkflowStatus = "completed"
	WorkflowStatusFailed                      WorkflowStatus = "failed"
	WorkflowStatusCancelled                   WorkflowStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusFailed || s == WorkflowStatusCancelled
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s WorkflowStatus) CanTransitionTo(target WorkflowStatus) bool {
	if target == WorkflowStatusCancelled {
		return !s.IsTerminal()
	}

	switch s {
	case WorkflowStatusDraft:
		return target == WorkflowStatusAwaitingContentConfirmation || target == WorkflowStatusPreviewReady
	case WorkflowStatusAwaitingContentConfirmation:
		return target == WorkflowStatusPreviewReady
	case WorkflowStatusPreviewReady:
		// preview_ready -> preview_ready records an edit
		return target == WorkflowStatusPreviewReady || target == WorkflowStatusApproved
	case WorkflowStatusApproved:
		return target == WorkflowStatusExecuting
	case WorkflowStatusExecuting:
		return target == WorkflowStatusCompleted || target == WorkflowStatusFailed
	default:
		return false // Terminal states
	}
}

// Transition records a single status change of a workflow.
type Transition struct {
	From   WorkflowStatus `json:"from"`
	To     WorkflowStatus `json:"to"`
	Reason string         `json:"reason,omitempty"`
	At     time.Time      `json:"at"`
}

// ContentRequest holds what the completion service will be asked to produce
// once the user confirms generation.
type ContentRequest struct {
	Prompt     string     `json:"prompt"`
	StyleHints StyleHints `json:"style_hints"`
}

// StyleHints steer content generation.
type StyleHints struct {
	Tone     string `json:"tone,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
	Company  string `json:"company,omitempty"`
	Product  string `json:"product,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Workflow represents a trigger followed by an ordered tree of action nodes.
// Runs of a scheduled workflow carry its id in ScheduledFrom.
type Workflow struct {
	ID             string           `json:"id"`
	Owner          string           `json:"owner"`
	Agent          string           `json:"agent"`
	Nodes          []*WorkflowNode  `json:"nodes"`
	Status         WorkflowStatus   `json:"status"`
	Transitions    []Transition     `json:"transitions"`
	Content        string           `json:"content,omitempty"`
	ContentRequest *ContentRequest  `json:"content_request,omitempty"`
	Intent         *ExtractedIntent `json:"intent,omitempty"`
	ScheduledFrom  string           `json:"scheduled_from,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Trigger returns the trigger node, or nil when the workflow has none.
func (w *Workflow) Trigger() *WorkflowNode {
	for _, node := range w.Nodes {
		if node.IsTrigger() {
			return node
		}
	}

	return nil
}

// Actions returns the top-level action nodes in execution order.
func (w *Workflow) Actions() []*WorkflowNode {
	actions := make([]*WorkflowNode, 0, len(w.Nodes))

	for _, node := range w.Nodes {
		if !node.IsTrigger() {
			actions = append(actions, node)
		}
	}

	return actions
}

// Walk visits every node of the workflow, including nested children.
func (w *Workflow) Walk(fn func(*WorkflowNode)) {
	for _, node := range w.Nodes {
		node.Walk(fn)
	}
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	clone := *w
	clone.Nodes = cloneNodes(w.Nodes)
	clone.Transitions = append([]Transition(nil), w.Transitions...)

	if w.ContentRequest != nil {
		request := *w.ContentRequest
		clone.ContentRequest = &request
	}

	return &clone
}
