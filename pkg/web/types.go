// Package web provides HTTP request and response types for the chat API.
package web

import "github.com/dukex/autoflow/pkg/models"

// MessageRequest is the body of a chat message.
type MessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// NodeSpecsResponse lists the node types a workflow may contain.
type NodeSpecsResponse struct {
	NodeSpecs []models.NodeSpec `json:"node_specs"`
}

// HealthResponse reports the state of the API and its store.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RunResponse is the record of a run started from a schedule.
type RunResponse struct {
	Run    *models.Workflow        `json:"run"`
	Report *models.ExecutionReport `json:"report,omitempty"`
	Error  string                  `json:"error,omitempty"`
}
