// Package protocol defines the contract between the dispatcher and pluggable node drivers.
package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/autoflow/pkg/models"
)

// Outcome classifies a driver invocation.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRetryable Outcome = "retryable"
	OutcomeFatal     Outcome = "fatal"
)

// Result is returned by every driver invocation.
//
// Control drivers report their decision through Branch (if_else) or Items
// (loop_items); the dispatcher owns the traversal of child sequences.
type Result struct {
	Outcome Outcome
	Data    map[string]any
	Reason  string
	Branch  *bool
	Items   []any
}

// Success builds a successful result.
func Success(data map[string]any) Result {
	if data == nil {
		data = make(map[string]any)
	}

	return Result{Outcome: OutcomeSuccess, Data: data}
}

// Retryable builds a transient failure result.
func Retryable(reason string) Result {
	return Result{Outcome: OutcomeRetryable, Reason: reason}
}

// Fatal builds a permanent failure result.
func Fatal(reason string) Result {
	return Result{Outcome: OutcomeFatal, Reason: reason}
}

func (r Result) IsSuccess() bool {
	return r.Outcome == OutcomeSuccess
}

func (r Result) IsRetryable() bool {
	return r.Outcome == OutcomeRetryable
}

// Request carries everything a driver needs for one invocation. Params are
// already rendered against the execution context and merged with defaults.
type Request struct {
	Node      *models.WorkflowNode
	Params    map[string]any
	Execution *models.ExecutionContext
	Logger    *slog.Logger
}

// Driver executes one node type. Drivers must honor ctx cancellation.
type Driver interface {
	// Type returns the node type this driver serves
	Type() string

	// Execute performs the node's effect
	Execute(ctx context.Context, req Request) Result
}

// AttemptTimeouter is implemented by drivers whose work legitimately outlasts
// the dispatcher's default per attempt timeout.
type AttemptTimeouter interface {
	AttemptTimeout(params map[string]any, base time.Duration) time.Duration
}
