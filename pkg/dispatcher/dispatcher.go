// Package dispatcher executes approved workflows node by node through the driver registry.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dukex/autoflow/pkg/approval"
	"github.com/dukex/autoflow/pkg/eventbus"
	"github.com/dukex/autoflow/pkg/events"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/otelhelper"
	"github.com/dukex/autoflow/pkg/protocol"
	"github.com/dukex/autoflow/pkg/registry"
	"github.com/dukex/autoflow/pkg/template"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Dispatcher struct {
	specs     *registry.NodeSpecs
	drivers   *registry.Drivers
	machine   *approval.Machine
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	config    Config
	logger    *slog.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithTracer wraps every driver call in a span of the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// WithPublisher publishes a node.executed event per dispatched node.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(d *Dispatcher) {
		d.publisher = publisher
	}
}

func New(specs *registry.NodeSpecs, drivers *registry.Drivers, machine *approval.Machine, config Config, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		specs:   specs,
		drivers: drivers,
		machine: machine,
		tracer:  otelhelper.NoopTracer(),
		config:  config,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

type runState int

const (
	stateRunning runState = iota
	stateFailed
	stateCancelled
)

// run holds the state of one dispatch.
type run struct {
	workflow *models.Workflow
	report   *models.ExecutionReport
	state    runState
	fatal    *DriverFatalError
}

// Execute dispatches an approved workflow. The returned report lists one
// result per node visit, including skipped nodes. The error is a
// *DriverFatalError when a node failed and wraps ErrExecutionCancelled when
// ctx was cancelled; the report is returned in both cases.
func (d *Dispatcher) Execute(ctx context.Context, workflow *models.Workflow) (*models.ExecutionReport, error) {
	switch workflow.Status {
	case models.WorkflowStatusApproved:
		if err := d.machine.Transition(ctx, workflow, models.WorkflowStatusExecuting, "dispatch started"); err != nil {
			return nil, err
		}
	case models.WorkflowStatusExecuting:
	default:
		return nil, &NotApprovedError{WorkflowID: workflow.ID, Status: string(workflow.Status)}
	}

	execCtx := models.NewExecutionContext(uuid.New().String(), workflow.ID)
	execCtx.Metadata["owner"] = workflow.Owner
	execCtx.Metadata["agent"] = workflow.Agent

	r := &run{
		workflow: workflow,
		report: &models.ExecutionReport{
			WorkflowID:  workflow.ID,
			ExecutionID: execCtx.ID,
			NodeResults: make([]models.NodeResult, 0, len(workflow.Nodes)),
		},
	}

	logger := d.logger.With("workflow_id", workflow.ID, "execution_id", execCtx.ID)
	logger.InfoContext(ctx, "Dispatching workflow", "nodes", len(workflow.Nodes))

	d.sequence(ctx, r, workflow.Nodes, execCtx, logger)

	// the final transition must not be lost to the cancelled request context
	finalCtx := context.WithoutCancel(ctx)

	var (
		target models.WorkflowStatus
		reason string
		err    error
	)

	switch r.state {
	case stateCancelled:
		target, reason = models.WorkflowStatusCancelled, "execution cancelled"
		err = fmt.Errorf("%w: %w", ErrExecutionCancelled, ctx.Err())
	case stateFailed:
		target, reason = models.WorkflowStatusFailed, r.fatal.Error()
		err = r.fatal
		logger.ErrorContext(ctx, "Workflow failed", "node_id", r.fatal.NodeID, "reason", r.fatal.Reason)
	default:
		target, reason = models.WorkflowStatusCompleted, "all nodes succeeded"
		logger.InfoContext(ctx, "Workflow completed")
	}

	if terr := d.machine.Transition(finalCtx, workflow, target, reason); terr != nil {
		err = errors.Join(err, terr)
	}

	r.report.Status = workflow.Status

	return r.report, err
}

// sequence runs nodes in order. Once the run stops every remaining node is
// reported as skipped.
func (d *Dispatcher) sequence(ctx context.Context, r *run, nodes []*models.WorkflowNode, execCtx *models.ExecutionContext, logger *slog.Logger) {
	for _, node := range nodes {
		if r.state != stateRunning {
			d.skip(r, node, "workflow stopped")

			continue
		}

		if ctx.Err() != nil {
			r.state = stateCancelled
			d.skip(r, node, "execution cancelled")

			continue
		}

		d.node(ctx, r, node, execCtx, logger)
	}
}

func (d *Dispatcher) node(ctx context.Context, r *run, node *models.WorkflowNode, execCtx *models.ExecutionContext, logger *slog.Logger) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "node."+node.Type,
		attribute.String(otelhelper.WorkflowIDKey, r.workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, execCtx.ID),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.Type),
	)
	defer span.End()

	result, attempts, err := d.invoke(ctx, node, execCtx, logger)

	nodeResult := models.NodeResult{
		NodeID:    node.ID,
		Type:      node.Type,
		Data:      result.Data,
		Attempts:  attempts,
		Timestamp: time.Now().UTC(),
	}

	span.SetAttributes(attribute.Int(otelhelper.AttemptKey, attempts))

	switch {
	case err == nil:
		nodeResult.Status = models.NodeStatusSuccess
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		nodeResult.Status = models.NodeStatusSkipped
		nodeResult.Reason = "execution cancelled"
		r.state = stateCancelled
	default:
		fatal := &DriverFatalError{NodeID: node.ID, Type: node.Type, Reason: result.Reason, Attempts: attempts}

		var retryErr *RetryableError
		if errors.As(err, &retryErr) {
			fatal.Reason = "retries exhausted: " + retryErr.Reason
		} else if fatal.Reason == "" {
			fatal.Reason = err.Error()
		}

		nodeResult.Status = models.NodeStatusFatal
		nodeResult.Reason = fatal.Reason
		r.state = stateFailed
		r.fatal = fatal

		otelhelper.SetError(span, fatal, attribute.String(otelhelper.NodeIDKey, node.ID))
	}

	span.SetAttributes(attribute.String(otelhelper.OutcomeKey, string(nodeResult.Status)))
	d.record(ctx, r, execCtx, nodeResult)

	if nodeResult.Status != models.NodeStatusSuccess {
		d.skipChildren(r, node, "workflow stopped")

		return
	}

	switch {
	case result.Branch != nil:
		taken, untaken := node.Then, node.Else
		if !*result.Branch {
			taken, untaken = node.Else, node.Then
		}

		d.sequence(ctx, r, taken, execCtx, logger)

		for _, child := range untaken {
			d.skip(r, child, "branch not taken")
		}
	case len(node.Body) > 0:
		d.loop(ctx, r, node, result.Items, execCtx, logger)
	}
}

func (d *Dispatcher) loop(ctx context.Context, r *run, node *models.WorkflowNode, items []any, execCtx *models.ExecutionContext, logger *slog.Logger) {
	if len(items) > d.config.MaxLoopIterations {
		logger.WarnContext(ctx, "Loop truncated", "node_id", node.ID, "items", len(items), "limit", d.config.MaxLoopIterations)
		items = items[:d.config.MaxLoopIterations]
	}

	for i, item := range items {
		if r.state != stateRunning {
			return
		}

		iteration := execCtx.WithVariables(map[string]any{"item": item, "index": i})
		d.sequence(ctx, r, node.Body, iteration, logger)
	}

	if len(items) == 0 {
		for _, child := range node.Body {
			d.skip(r, child, "no items")
		}
	}
}

// invoke calls the driver, retrying retryable outcomes with exponential backoff.
func (d *Dispatcher) invoke(ctx context.Context, node *models.WorkflowNode, execCtx *models.ExecutionContext, logger *slog.Logger) (protocol.Result, int, error) {
	driver, err := d.drivers.Get(node.Type)
	if err != nil {
		return protocol.Fatal(err.Error()), 0, err
	}

	params, err := d.specs.WithDefaults(node.Type, node.Parameters)
	if err != nil {
		return protocol.Fatal(err.Error()), 0, err
	}

	params, err = template.RenderParams(params, execCtx)
	if err != nil {
		return protocol.Fatal(err.Error()), 0, err
	}

	timeout := d.config.AttemptTimeout
	if t, ok := driver.(protocol.AttemptTimeouter); ok {
		timeout = t.AttemptTimeout(params, timeout)
	}

	var (
		result   protocol.Result
		attempts int
	)

	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}

		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result = driver.Execute(attemptCtx, protocol.Request{
			Node:      node,
			Params:    params,
			Execution: execCtx,
			Logger:    logger.With("node_id", node.ID, "node_type", node.Type),
		})

		switch result.Outcome {
		case protocol.OutcomeSuccess:
			return nil
		case protocol.OutcomeRetryable:
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}

			logger.WarnContext(ctx, "Retryable node failure", "node_id", node.ID, "attempt", attempts, "reason", result.Reason)

			return &RetryableError{NodeID: node.ID, Reason: result.Reason}
		default:
			return backoff.Permanent(&DriverFatalError{NodeID: node.ID, Type: node.Type, Reason: result.Reason})
		}
	}

	err = backoff.Retry(operation, backoff.WithContext(d.backOff(), ctx))

	return result, attempts, err
}

func (d *Dispatcher) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.InitialInterval
	b.MaxInterval = d.config.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	maxAttempts := d.config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return backoff.WithMaxRetries(b, uint64(maxAttempts-1))
}

func (d *Dispatcher) record(ctx context.Context, r *run, execCtx *models.ExecutionContext, result models.NodeResult) {
	r.report.NodeResults = append(r.report.NodeResults, result)
	execCtx.NodeResults[result.NodeID] = result

	if d.publisher == nil {
		return
	}

	if err := d.publisher.Publish(context.WithoutCancel(ctx), r.workflow.ID, events.NewNodeExecuted(r.workflow.ID, execCtx.ID, result)); err != nil {
		d.logger.WarnContext(ctx, "Failed to publish node result", "node_id", result.NodeID, "error", err)
	}
}

func (d *Dispatcher) skip(r *run, node *models.WorkflowNode, reason string) {
	node.Walk(func(n *models.WorkflowNode) {
		r.report.NodeResults = append(r.report.NodeResults, models.NodeResult{
			NodeID:    n.ID,
			Type:      n.Type,
			Status:    models.NodeStatusSkipped,
			Reason:    reason,
			Timestamp: time.Now().UTC(),
		})
	})
}

func (d *Dispatcher) skipChildren(r *run, node *models.WorkflowNode, reason string) {
	for _, children := range [][]*models.WorkflowNode{node.Then, node.Else, node.Body} {
		for _, child := range children {
			d.skip(r, child, reason)
		}
	}
}
