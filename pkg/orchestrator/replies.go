package orchestrator

import (
	"fmt"
	"strings"

	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/dispatcher"
	"github.com/dukex/autoflow/pkg/intent"
	"github.com/dukex/autoflow/pkg/models"
)

const (
	replyAmbiguous          = "I'm not sure what you'd like me to do. Do you want me to set up an email automation, write some content, or just chat?"
	replyUnavailable        = "The writing service is unavailable right now, please try again in a moment."
	replyRateLimited        = "The writing service is receiving too many requests, please try again in a minute."
	replyReplaced           = "I cancelled the previous draft and started a new one.\n\n"
	replyNothingPending     = "There is nothing waiting for your confirmation right now."
	replyCancelled          = "Okay, I cancelled it. Nothing was sent."
	replyAnswerYesNo        = "Please answer yes to generate the content or no to cancel."
	replyEditUnclear        = "I couldn't tell what to change. You can say things like \"change the subject to Welcome\" or \"send it to ana@example.com instead\"."
	replyEdited             = "Updated.\n\n"
	replyHolding            = "No problem, I'll wait. Nothing has been sent. Reply yes when you're ready, or tell me what to change."
	replyEditRejected       = "I kept the previous version because the change doesn't validate. "
	replyExecutionCancelled = "The run was cancelled before it finished. Remaining steps were skipped."
)

func replyIncomplete(err *intent.ExtractionIncompleteError) string {
	if err.Cue != "" {
		return fmt.Sprintf("I couldn't understand the %s %q. Try something like \"every day at 9am\" or \"every monday\".", err.Field, err.Cue)
	}

	return fmt.Sprintf("I'm missing the %s. Could you tell me?", err.Field)
}

func replyBuildError(err *builder.BuildError) string {
	if err.Field == "toEmail" {
		return "Who should receive it? Please include at least one email address."
	}

	return fmt.Sprintf("I couldn't build that automation: %v.", err.Err)
}

func replyConfirmContent(workflow *models.Workflow) string {
	return fmt.Sprintf("Before I send anything to %s, should I write the content for you? Reply yes to generate a draft or no to cancel.",
		strings.Join(recipients(workflow), ", "))
}

func replyMissing(missing []models.MissingField) string {
	var b strings.Builder

	b.WriteString("I still need a few details before I can show a preview:")

	for _, field := range missing {
		fmt.Fprintf(&b, "\n- %s (step %s)", field.Field, field.NodeID)
	}

	return b.String()
}

func replyInvalid(err error) string {
	return fmt.Sprintf("Some values don't look right: %v. Could you correct them?", err)
}

func replyPreview(workflow *models.Workflow, rendered string) string {
	action := "run it now"
	if trigger := workflow.Trigger(); trigger != nil && trigger.Type == models.NodeTypeCron {
		action = "schedule it"
	}

	return fmt.Sprintf("Here is what I'll do:\n%s\n\nReply yes to %s, no to cancel, or tell me what to change.", rendered, action)
}

func replyScheduled(cron string) string {
	return fmt.Sprintf("Scheduled. It will run on the schedule %q.", cron)
}

func replyCompleted(report *models.ExecutionReport) string {
	sent := 0

	for _, result := range report.NodeResults {
		if result.Status == models.NodeStatusSuccess && result.Type == models.NodeTypeEmailSend {
			sent++
		}
	}

	if sent > 0 {
		return fmt.Sprintf("Done. %d email(s) sent.", sent)
	}

	return "Done. Every step completed."
}

func replyFailed(err *dispatcher.DriverFatalError) string {
	return fmt.Sprintf("The automation failed at step %s after %d attempt(s): %s. Remaining steps were skipped.", err.NodeID, err.Attempts, err.Reason)
}

func recipients(workflow *models.Workflow) []string {
	var to []string

	workflow.Walk(func(node *models.WorkflowNode) {
		if node.Type == models.NodeTypeEmailSend {
			to = append(to, node.StringParam("toEmail"))
		}
	})

	return to
}
