package orchestrator

import (
	"context"
	"errors"

	"github.com/dukex/autoflow/pkg/approval"
	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/completion"
	"github.com/dukex/autoflow/pkg/gate"
	"github.com/dukex/autoflow/pkg/intent"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/validation"
)

func (o *Orchestrator) automate(ctx context.Context, t *turn, classified models.ExtractedIntent) (*models.OrchestrationResult, error) {
	if _, err := o.Extractor.Schedule(classified.Message); err != nil {
		var incomplete *intent.ExtractionIncompleteError
		if errors.As(err, &incomplete) {
			return conversational(replyIncomplete(incomplete)), nil
		}

		return nil, err
	}

	decision := o.Gate.Decide(classified)

	workflow, err := o.Builder.Build(classified, "")
	if err != nil {
		var buildErr *builder.BuildError
		if errors.As(err, &buildErr) {
			return conversational(replyBuildError(buildErr)), nil
		}

		return nil, err
	}

	workflow.Owner = t.session.UserID
	workflow.Agent = t.session.AgentID

	var notice string

	if pending := t.pending(); pending != nil && !pending.Status.IsTerminal() {
		if err := o.Machine.Cancel(ctx, pending, "replaced by a new request"); err != nil {
			return nil, err
		}

		t.logger.InfoContext(ctx, "Replaced pending workflow", "workflow_id", pending.ID, "replacement_id", workflow.ID)
		t.release()

		notice = replyReplaced
	}

	t.session.PendingWorkflow = workflow

	t.logger.InfoContext(ctx, "Built workflow",
		"workflow_id", workflow.ID,
		"decision", decision,
		"nodes", len(workflow.Nodes),
		"trigger", workflow.Trigger().Type,
	)

	var result *models.OrchestrationResult

	switch decision {
	case gate.DecisionNeedsConfirmation:
		result, err = o.askForContent(ctx, workflow, "")
	case gate.DecisionAutoGenerate:
		result, err = o.generate(ctx, t, workflow)
	default:
		result, err = o.preview(ctx, workflow, "")
	}

	if err != nil {
		return nil, err
	}

	result.Reply = notice + result.Reply

	return result, nil
}

// askForContent suspends the workflow until the user confirms generation.
func (o *Orchestrator) askForContent(ctx context.Context, workflow *models.Workflow, prefix string) (*models.OrchestrationResult, error) {
	if workflow.Status != models.WorkflowStatusAwaitingContentConfirmation {
		if err := o.Machine.Transition(ctx, workflow, models.WorkflowStatusAwaitingContentConfirmation, "content needs confirmation"); err != nil {
			return nil, err
		}
	}

	return &models.OrchestrationResult{
		Status:     models.ResultAwaitingContentConfirmation,
		Reply:      prefix + replyConfirmContent(workflow),
		WorkflowID: workflow.ID,
	}, nil
}

// generate asks the completion service for the content of workflow and
// previews the result. An outage leaves the workflow waiting for the user to
// confirm a new attempt.
func (o *Orchestrator) generate(ctx context.Context, t *turn, workflow *models.Workflow) (*models.OrchestrationResult, error) {
	request := workflow.ContentRequest
	if request == nil {
		request = &models.ContentRequest{Prompt: workflow.Intent.Message}
	}

	content, err := o.Completion.Generate(ctx, request.Prompt, request.StyleHints)
	if err != nil {
		if !completion.IsTryAgain(err) {
			return nil, err
		}

		t.logger.WarnContext(ctx, "Content generation failed", "workflow_id", workflow.ID, "error", err)

		prefix := replyUnavailable
		if errors.Is(err, completion.ErrRateLimited) {
			prefix = replyRateLimited
		}

		return o.askForContent(ctx, workflow, prefix+" ")
	}

	builder.ApplyContent(workflow, content)

	return o.preview(ctx, workflow, "")
}

// preview validates the workflow and moves it to preview_ready. Missing
// parameters keep it where it is and are listed in the reply.
func (o *Orchestrator) preview(ctx context.Context, workflow *models.Workflow, prefix string) (*models.OrchestrationResult, error) {
	if rejected, err := o.rejection(workflow, prefix); rejected != nil || err != nil {
		return rejected, err
	}

	if err := o.Machine.Transition(ctx, workflow, models.WorkflowStatusPreviewReady, "validated"); err != nil {
		return nil, err
	}

	preview := approval.Preview(workflow)

	return &models.OrchestrationResult{
		Status:     models.ResultPreviewReady,
		Reply:      prefix + replyPreview(workflow, approval.Render(preview)),
		Preview:    preview,
		WorkflowID: workflow.ID,
	}, nil
}

// rejection returns the reply explaining why the workflow cannot be
// previewed, or nil when it passes validation.
func (o *Orchestrator) rejection(workflow *models.Workflow, prefix string) (*models.OrchestrationResult, error) {
	if err := o.Validator.ValidateWorkflow(workflow); err != nil {
		var missing *validation.MissingParametersError
		if errors.As(err, &missing) {
			return &models.OrchestrationResult{
				Status:        models.ResultConversational,
				Reply:         prefix + replyMissing(missing.Missing),
				WorkflowID:    workflow.ID,
				MissingFields: missing.Missing,
			}, nil
		}

		return nil, err
	}

	if err := o.Validator.CheckWorkflowFormats(workflow); err != nil {
		return &models.OrchestrationResult{
			Status:     models.ResultConversational,
			Reply:      prefix + replyInvalid(err),
			WorkflowID: workflow.ID,
		}, nil
	}

	return nil, nil
}
