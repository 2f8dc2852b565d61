// Package orchestrator turns chat messages into workflows and drives them
// through confirmation, preview, approval and dispatch.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/autoflow/pkg/approval"
	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/completion"
	"github.com/dukex/autoflow/pkg/gate"
	"github.com/dukex/autoflow/pkg/intent"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/otelhelper"
	"github.com/dukex/autoflow/pkg/session"
	"github.com/dukex/autoflow/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dispatcher executes an approved workflow.
type Dispatcher interface {
	Execute(ctx context.Context, workflow *models.Workflow) (*models.ExecutionReport, error)
}

// Scheduler takes ownership of approved cron workflows.
type Scheduler interface {
	Schedule(workflow *models.Workflow) error
}

// WorkflowStore keeps the record of workflows leaving the session.
type WorkflowStore interface {
	Save(ctx context.Context, workflow *models.Workflow) error
}

type Config struct {
	// HistoryWindow is how many recent messages accompany a chitchat reply
	HistoryWindow int `yaml:"history_window" validate:"min=1"`
}

func DefaultConfig() Config {
	return Config{HistoryWindow: 10}
}

// Deps are the collaborators of an Orchestrator. Scheduler is optional; without
// one, cron workflows run once on approval.
type Deps struct {
	Sessions   *session.Manager
	Classifier *intent.Classifier
	Extractor  *intent.Extractor
	Gate       *gate.Gate
	Builder    *builder.Builder
	Validator  *validation.Validator
	Machine    *approval.Machine
	Dispatcher Dispatcher
	Scheduler  Scheduler
	Completion completion.Service
	Workflows  WorkflowStore
	Tracer     trace.Tracer
}

type Orchestrator struct {
	Deps

	config Config
	logger *slog.Logger
}

func New(deps Deps, config Config, logger *slog.Logger) *Orchestrator {
	if deps.Tracer == nil {
		deps.Tracer = otelhelper.NoopTracer()
	}

	return &Orchestrator{
		Deps:   deps,
		config: config,
		logger: logger.With("module", "orchestrator"),
	}
}

// HandleMessage runs one turn of the (user, agent) conversation. Turns of the
// same conversation are serialized. Recoverable problems are answered in the
// reply; the error is reserved for infrastructure failures and invariant
// violations.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, agentID, message string) (*models.OrchestrationResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, o.Tracer, "orchestrator.handle_message",
		attribute.String(otelhelper.OwnerIDKey, userID),
		attribute.String("autoflow.agent.id", agentID),
	)
	defer span.End()

	var result *models.OrchestrationResult

	err := o.Sessions.With(ctx, userID, agentID, func(s *models.Session) error {
		s.Append(models.MessageRoleUser, message)

		turn := &turn{session: s, logger: o.logger.With("user_id", userID, "agent_id", agentID, "iteration", s.Iteration+1)}

		res, err := o.handle(ctx, turn, message)
		if err != nil {
			return err
		}

		if err := o.settle(ctx, turn); err != nil {
			return err
		}

		s.Append(models.MessageRoleAssistant, res.Reply)
		s.Iteration++

		result = res

		return nil
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String("autoflow.result.status", string(result.Status)))

	return result, nil
}

// ClearMemory forgets the conversation, cancelling its pending workflow. Both
// happen under one hold of the session lock.
func (o *Orchestrator) ClearMemory(ctx context.Context, userID, agentID string) error {
	return o.Sessions.ClearMemory(ctx, userID, agentID, func(s *models.Session) error {
		pending := s.PendingWorkflow
		if pending == nil || pending.Status.IsTerminal() {
			return nil
		}

		if err := o.Machine.Cancel(ctx, pending, "memory cleared"); err != nil {
			return fmt.Errorf("failed to cancel pending workflow: %w", err)
		}

		if err := o.Workflows.Save(context.WithoutCancel(ctx), pending); err != nil {
			return fmt.Errorf("failed to cancel pending workflow: %w", err)
		}

		return nil
	})
}

// turn carries the state of one HandleMessage call.
type turn struct {
	session *models.Session
	logger  *slog.Logger
	// retired are workflows that left the session during this turn
	retired []*models.Workflow
}

func (t *turn) pending() *models.Workflow {
	return t.session.PendingWorkflow
}

// release hands the pending workflow over to the workflow store.
func (t *turn) release() {
	if t.session.PendingWorkflow != nil {
		t.retired = append(t.retired, t.session.PendingWorkflow)
		t.session.PendingWorkflow = nil
	}
}

func (o *Orchestrator) handle(ctx context.Context, t *turn, message string) (*models.OrchestrationResult, error) {
	classified := o.Classifier.Classify(message, intent.SessionContext{PendingStatus: t.session.PendingStatus()})
	classified.Entities = o.Extractor.Extract(classified.Message)

	t.logger.DebugContext(ctx, "Classified message",
		"intent", classified.PrimaryIntent,
		"confidence", classified.Confidence,
		"reply", classified.Reply,
		"provider", classified.ProviderHint,
	)

	if err := o.Classifier.Check(classified); err != nil {
		t.logger.InfoContext(ctx, "Ambiguous message", "error", err)

		return conversational(replyAmbiguous), nil
	}

	switch classified.PrimaryIntent {
	case models.IntentConfirmation:
		return o.confirm(ctx, t, classified)
	case models.IntentAutomationRequest:
		return o.automate(ctx, t, classified)
	case models.IntentContentRequest:
		return o.writeContent(ctx, t, classified)
	default:
		return o.chat(ctx, t, classified)
	}
}

// settle stores workflows that left the session and the pending workflow so
// that it can be looked up by id. A workflow that left the session is only
// logged when its record cannot be saved: the session must still be saved
// without it, or a later approval would run it again.
func (o *Orchestrator) settle(ctx context.Context, t *turn) error {
	if pending := t.pending(); pending != nil && pending.Status.IsTerminal() {
		t.release()
	}

	// a cancelled request still records what happened
	ctx = context.WithoutCancel(ctx)

	for _, workflow := range t.retired {
		if err := o.Workflows.Save(ctx, workflow); err != nil {
			t.logger.ErrorContext(ctx, "Failed to save workflow record", "workflow_id", workflow.ID, "status", workflow.Status, "error", err)
		}
	}

	if pending := t.pending(); pending != nil {
		if err := o.Workflows.Save(ctx, pending); err != nil {
			return fmt.Errorf("failed to save workflow %s: %w", pending.ID, err)
		}
	}

	return nil
}

func (o *Orchestrator) writeContent(ctx context.Context, t *turn, classified models.ExtractedIntent) (*models.OrchestrationResult, error) {
	content, err := o.Completion.Generate(ctx, classified.Message, builder.StyleHintsFor(classified))
	if err != nil {
		return o.completionFailed(ctx, t, err)
	}

	return conversational(content), nil
}

func (o *Orchestrator) chat(ctx context.Context, t *turn, classified models.ExtractedIntent) (*models.OrchestrationResult, error) {
	reply, err := o.Completion.Reply(ctx, t.session.Recent(o.config.HistoryWindow), classified.Message)
	if err != nil {
		return o.completionFailed(ctx, t, err)
	}

	return conversational(reply), nil
}

// completionFailed turns a completion outage into a try-again reply.
func (o *Orchestrator) completionFailed(ctx context.Context, t *turn, err error) (*models.OrchestrationResult, error) {
	if !completion.IsTryAgain(err) {
		return nil, err
	}

	t.logger.WarnContext(ctx, "Completion service failed", "error", err)

	if errors.Is(err, completion.ErrRateLimited) {
		return conversational(replyRateLimited), nil
	}

	return conversational(replyUnavailable), nil
}

func conversational(reply string) *models.OrchestrationResult {
	return &models.OrchestrationResult{Status: models.ResultConversational, Reply: reply}
}
