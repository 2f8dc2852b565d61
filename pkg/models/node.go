// Package models defines the core domain models for intent-driven workflow automation
package models

import (
	"time"
)

// Role represents the position of a node in a workflow.
type Role string

const (
	RoleTrigger Role = "trigger" // Starts a workflow (manual, cron)
	RoleAction  Role = "action"  // Performs work (email_send, webhook, if_else, ...)
)

// Built-in node types.
const (
	NodeTypeManual    = "manual"
	NodeTypeCron      = "cron"
	NodeTypeEmailSend = "email_send"
	NodeTypeWebhook   = "webhook"
	NodeTypeIfElse    = "if_else"
	NodeTypeLoopItems = "loop_items"
	NodeTypeTimer     = "timer"
)

// NodeSpec describes a node type and the parameters it accepts.
// Specs are built once at process start and never mutated.
type NodeSpec struct {
	Type        string         `json:"type"`
	Role        Role           `json:"role"`
	Description string         `json:"description"`
	Required    []string       `json:"required"`
	Optional    map[string]any `json:"optional"` // name -> default value
	Schema      map[string]any `json:"schema,omitempty"`
}

// IsRequired reports whether name is a required parameter of the spec.
func (s NodeSpec) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}

	return false
}

// WorkflowNode represents a node instance in a workflow.
//
// Control nodes own their child sequences by value: if_else nodes use Then and
// Else, loop_items nodes use Body. A tree cannot contain a cycle.
type WorkflowNode struct {
	ID         string          `json:"id"                   validate:"required"`
	Type       string          `json:"type"                 validate:"required"`
	Role       Role            `json:"role"                 validate:"required,oneof=trigger action"`
	Parameters map[string]any  `json:"parameters"`
	Then       []*WorkflowNode `json:"then,omitempty"`
	Else       []*WorkflowNode `json:"else,omitempty"`
	Body       []*WorkflowNode `json:"body,omitempty"`
}

func (n *WorkflowNode) IsTrigger() bool {
	return n.Role == RoleTrigger
}

// Walk visits the node and all of its descendants depth-first.
func (n *WorkflowNode) Walk(fn func(*WorkflowNode)) {
	fn(n)

	for _, children := range [][]*WorkflowNode{n.Then, n.Else, n.Body} {
		for _, child := range children {
			child.Walk(fn)
		}
	}
}

// Clone returns a deep copy of the node.
func (n *WorkflowNode) Clone() *WorkflowNode {
	if n == nil {
		return nil
	}

	clone := &WorkflowNode{
		ID:         n.ID,
		Type:       n.Type,
		Role:       n.Role,
		Parameters: make(map[string]any, len(n.Parameters)),
		Then:       cloneNodes(n.Then),
		Else:       cloneNodes(n.Else),
		Body:       cloneNodes(n.Body),
	}

	for k, v := range n.Parameters {
		clone.Parameters[k] = v
	}

	return clone
}

func cloneNodes(nodes []*WorkflowNode) []*WorkflowNode {
	if nodes == nil {
		return nil
	}

	cloned := make([]*WorkflowNode, 0, len(nodes))
	for _, node := range nodes {
		cloned = append(cloned, node.Clone())
	}

	return cloned
}

// StringParam returns a string parameter, or "" if absent or not a string.
func (n *WorkflowNode) StringParam(name string) string {
	value, _ := n.Parameters[name].(string)

	return value
}

// NodeStatus defines the possible outcomes of a node execution.
type NodeStatus string

const (
	NodeStatusSuccess   NodeStatus = "success"
	NodeStatusRetryable NodeStatus = "retryable_failure"
	NodeStatusFatal     NodeStatus = "fatal_failure"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// NodeResult represents the result of a node execution.
type NodeResult struct {
	NodeID    string         `json:"node_id"`
	Type      string         `json:"type"`
	Status    NodeStatus     `json:"status"`
	Data      map[string]any `json:"data,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Attempts  int            `json:"attempts"`
	Timestamp time.Time      `json:"timestamp"`
}
