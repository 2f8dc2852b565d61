package orchestrator

import (
	"context"
	"errors"

	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/dispatcher"
	"github.com/dukex/autoflow/pkg/models"
)

// confirm applies a yes, no or edit reply to the pending workflow.
func (o *Orchestrator) confirm(ctx context.Context, t *turn, classified models.ExtractedIntent) (*models.OrchestrationResult, error) {
	workflow := t.pending()
	if workflow == nil {
		return conversational(replyNothingPending), nil
	}

	if classified.Reply == models.ReplyNegative {
		if err := o.Machine.Cancel(ctx, workflow, "declined by user"); err != nil {
			return nil, err
		}

		t.logger.InfoContext(ctx, "Workflow cancelled by user", "workflow_id", workflow.ID)

		return &models.OrchestrationResult{
			Status:     models.ResultConversational,
			Reply:      replyCancelled,
			WorkflowID: workflow.ID,
		}, nil
	}

	if classified.Reply == models.ReplyHold {
		t.logger.InfoContext(ctx, "Workflow on hold", "workflow_id", workflow.ID, "status", workflow.Status)

		return hold(workflow), nil
	}

	switch workflow.Status {
	case models.WorkflowStatusAwaitingContentConfirmation:
		if classified.Reply == models.ReplyEdit {
			return o.askForContent(ctx, workflow, replyAnswerYesNo+" ")
		}

		return o.generate(ctx, t, workflow)
	case models.WorkflowStatusPreviewReady:
		if classified.Reply == models.ReplyEdit {
			return o.edit(ctx, workflow, classified)
		}

		return o.approve(ctx, t, workflow)
	default:
		return conversational(replyNothingPending), nil
	}
}

// hold leaves the pending workflow untouched and waits for a clear answer.
func hold(workflow *models.Workflow) *models.OrchestrationResult {
	result := &models.OrchestrationResult{
		Status:     models.ResultPreviewReady,
		Reply:      replyHolding,
		WorkflowID: workflow.ID,
	}

	if workflow.Status == models.WorkflowStatusAwaitingContentConfirmation {
		result.Status = models.ResultAwaitingContentConfirmation
		result.Reply = "No problem, I'll wait. " + replyAnswerYesNo
	}

	return result
}

func (o *Orchestrator) edit(ctx context.Context, workflow *models.Workflow, classified models.ExtractedIntent) (*models.OrchestrationResult, error) {
	edit := builder.ParseEdit(classified.Message, classified.Entities.RecipientEmails)

	// the pending workflow only changes once the edited copy validates
	candidate := workflow.Clone()

	if err := o.Builder.ApplyEdit(candidate, edit); err != nil {
		var buildErr *builder.BuildError

		switch {
		case errors.Is(err, builder.ErrEmptyEdit):
			return &models.OrchestrationResult{
				Status:     models.ResultPreviewReady,
				Reply:      replyEditUnclear,
				WorkflowID: workflow.ID,
			}, nil
		case errors.As(err, &buildErr):
			return conversational(replyBuildError(buildErr)), nil
		default:
			return nil, err
		}
	}

	if rejected, err := o.rejection(candidate, replyEditRejected); rejected != nil || err != nil {
		if rejected != nil {
			rejected.Status = models.ResultPreviewReady
		}

		return rejected, err
	}

	*workflow = *candidate

	return o.preview(ctx, workflow, replyEdited)
}

// approve approves the previewed workflow and runs it, or hands it to the
// scheduler when it is cron-triggered.
func (o *Orchestrator) approve(ctx context.Context, t *turn, workflow *models.Workflow) (*models.OrchestrationResult, error) {
	if err := o.Machine.Transition(ctx, workflow, models.WorkflowStatusApproved, "approved by user"); err != nil {
		return nil, err
	}

	if trigger := workflow.Trigger(); trigger != nil && trigger.Type == models.NodeTypeCron && o.Scheduler != nil {
		if err := o.Scheduler.Schedule(workflow); err != nil {
			return nil, err
		}

		t.logger.InfoContext(ctx, "Workflow scheduled", "workflow_id", workflow.ID, "cron", trigger.StringParam("cron"))
		t.release()

		return &models.OrchestrationResult{
			Status:     models.ResultScheduled,
			Reply:      replyScheduled(trigger.StringParam("cron")),
			WorkflowID: workflow.ID,
		}, nil
	}

	report, err := o.Dispatcher.Execute(ctx, workflow)
	if report == nil {
		return nil, err
	}

	result := &models.OrchestrationResult{
		WorkflowID:  workflow.ID,
		NodeResults: report.NodeResults,
	}

	var fatal *dispatcher.DriverFatalError

	switch {
	case err == nil:
		result.Status = models.ResultCompleted
		result.Reply = replyCompleted(report)
	case errors.As(err, &fatal):
		result.Status = models.ResultFailed
		result.Reply = replyFailed(fatal)
	case errors.Is(err, dispatcher.ErrExecutionCancelled):
		result.Status = models.ResultFailed
		result.Reply = replyExecutionCancelled
	default:
		return nil, err
	}

	return result, nil
}
