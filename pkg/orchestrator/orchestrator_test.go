package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dukex/autoflow/pkg/approval"
	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/completion"
	"github.com/dukex/autoflow/pkg/dispatcher"
	"github.com/dukex/autoflow/pkg/drivers/email"
	"github.com/dukex/autoflow/pkg/drivers/manual"
	"github.com/dukex/autoflow/pkg/drivers/schedule"
	"github.com/dukex/autoflow/pkg/gate"
	"github.com/dukex/autoflow/pkg/intent"
	"github.com/dukex/autoflow/pkg/mocks"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence"
	"github.com/dukex/autoflow/pkg/persistence/memory"
	"github.com/dukex/autoflow/pkg/registry"
	"github.com/dukex/autoflow/pkg/session"
	"github.com/dukex/autoflow/pkg/transport"
	"github.com/dukex/autoflow/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	user  = "user-1"
	agent = "agent-1"
)

type fakeScheduler struct {
	scheduled []*models.Workflow
}

func (f *fakeScheduler) Schedule(workflow *models.Workflow) error {
	f.scheduled = append(f.scheduled, workflow)

	return nil
}

type harness struct {
	orchestrator *Orchestrator
	sender       *mocks.MockEmailSender
	completion   *mocks.MockCompletionService
	scheduler    *fakeScheduler
	sessions     *persistence.SessionRepository
	workflows    *persistence.WorkflowRepository
}

type harnessOption func(*intent.Weights, *gate.Policy)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store := memory.NewStore()

	h := &harness{
		sender:     &mocks.MockEmailSender{},
		completion: &mocks.MockCompletionService{},
		scheduler:  &fakeScheduler{},
		sessions:   persistence.NewSessionRepository(store),
		workflows:  persistence.NewWorkflowRepository(store),
	}

	weights := intent.DefaultWeights()
	policy := gate.Policy{}

	for _, opt := range opts {
		opt(&weights, &policy)
	}

	specs := registry.DefaultNodeSpecs()

	drivers, err := registry.NewDrivers(manual.New(), schedule.New(), email.New(h.sender))
	require.NoError(t, err)

	machine := approval.New(nil, logger)

	config := dispatcher.DefaultConfig()
	config.InitialInterval = time.Millisecond
	config.MaxInterval = 2 * time.Millisecond

	h.orchestrator = New(Deps{
		Sessions:   session.NewManager(h.sessions, logger),
		Classifier: intent.NewClassifier(weights),
		Extractor:  intent.NewExtractor(),
		Gate:       gate.New(policy),
		Builder:    builder.New(specs),
		Validator:  validation.New(specs),
		Machine:    machine,
		Dispatcher: dispatcher.New(specs, drivers, machine, config, logger),
		Scheduler:  h.scheduler,
		Completion: h.completion,
		Workflows:  h.workflows,
	}, DefaultConfig(), logger)

	return h
}

func (h *harness) send(t *testing.T, message string) *models.OrchestrationResult {
	t.Helper()

	result, err := h.orchestrator.HandleMessage(context.Background(), user, agent, message)
	require.NoError(t, err)
	require.NotNil(t, result)

	return result
}

func (h *harness) session(t *testing.T) *models.Session {
	t.Helper()

	s, err := h.sessions.Get(context.Background(), user, agent)
	require.NoError(t, err)

	return s
}

func (h *harness) workflow(t *testing.T, id string) *models.Workflow {
	t.Helper()

	wf, err := h.workflows.GetByID(context.Background(), id)
	require.NoError(t, err)

	return wf
}

func statusesOf(wf *models.Workflow) []models.WorkflowStatus {
	statuses := make([]models.WorkflowStatus, 0, len(wf.Transitions))
	for _, transition := range wf.Transitions {
		statuses = append(statuses, transition.To)
	}

	return statuses
}

func TestHandleMessage_SimpleEmailReachesPreview(t *testing.T) {
	h := newHarness(t)

	result := h.send(t, "send an email to slakshanand1105@gmail.com")

	assert.Equal(t, models.ResultPreviewReady, result.Status)
	require.NotNil(t, result.Preview)
	assert.Contains(t, result.Reply, "Reply yes to run it now")

	wf := h.workflow(t, result.WorkflowID)
	require.Len(t, wf.Nodes, 2)
	assert.Equal(t, models.NodeTypeManual, wf.Nodes[0].Type)
	assert.Equal(t, models.NodeTypeEmailSend, wf.Nodes[1].Type)
	assert.Equal(t, "slakshanand1105@gmail.com", wf.Nodes[1].StringParam("toEmail"))
	assert.Equal(t, user, wf.Owner)

	s := h.session(t)
	require.NotNil(t, s.PendingWorkflow)
	assert.Equal(t, models.WorkflowStatusPreviewReady, s.PendingWorkflow.Status)
	assert.Len(t, s.History, 2)
	assert.Equal(t, 1, s.Iteration)

	h.completion.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessage_ApproveDispatches(t *testing.T) {
	h := newHarness(t)
	h.sender.On("Send", mock.Anything, mock.MatchedBy(func(e transport.Email) bool {
		return len(e.To) == 1 && e.To[0] == "slakshanand1105@gmail.com"
	})).Return(nil).Once()

	preview := h.send(t, "send an email to slakshanand1105@gmail.com")
	result := h.send(t, "yes")

	assert.Equal(t, models.ResultCompleted, result.Status)
	assert.Equal(t, preview.WorkflowID, result.WorkflowID)
	assert.Contains(t, result.Reply, "1 email(s) sent")
	require.Len(t, result.NodeResults, 2)

	wf := h.workflow(t, result.WorkflowID)
	assert.Equal(t, models.WorkflowStatusCompleted, wf.Status)
	assert.Equal(t, []models.WorkflowStatus{
		models.WorkflowStatusPreviewReady,
		models.WorkflowStatusApproved,
		models.WorkflowStatusExecuting,
		models.WorkflowStatusCompleted,
	}, statusesOf(wf))

	s := h.session(t)
	assert.Nil(t, s.PendingWorkflow)
	assert.Equal(t, 2, s.Iteration)

	h.sender.AssertExpectations(t)
}

func TestHandleMessage_SalesPitchWaitsForConfirmation(t *testing.T) {
	h := newHarness(t)
	h.completion.On("Generate", mock.Anything, mock.Anything, mock.MatchedBy(func(hints models.StyleHints) bool {
		return hints.Tone == "professional" && hints.Company == "Acme" && hints.Product == "RocketCRM"
	})).Return("Meet RocketCRM, the CRM that flies.", nil).Once()

	first := h.send(t, "draft a sales pitch for Acme's RocketCRM and send it to buyer@example.com")

	assert.Equal(t, models.ResultAwaitingContentConfirmation, first.Status)
	assert.Contains(t, first.Reply, "buyer@example.com")
	h.completion.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)

	// an unrelated reply keeps it waiting
	h.completion.On("Reply", mock.Anything, mock.Anything, mock.Anything).Return("Sure thing.", nil).Once()
	h.send(t, "what time is it")
	assert.Equal(t, models.WorkflowStatusAwaitingContentConfirmation, h.session(t).PendingStatus())

	second := h.send(t, "yes")

	assert.Equal(t, models.ResultPreviewReady, second.Status)
	wf := h.workflow(t, second.WorkflowID)
	assert.Equal(t, "Meet RocketCRM, the CRM that flies.", wf.Nodes[1].StringParam("body"))
	assert.Nil(t, wf.ContentRequest)

	h.completion.AssertExpectations(t)
}

func TestHandleMessage_GenerationOutageKeepsWaiting(t *testing.T) {
	h := newHarness(t)
	h.completion.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("", &completion.ServiceError{Provider: "test", Kind: completion.ErrRateLimited}).Once()

	h.send(t, "draft a sales pitch and send it to buyer@example.com")
	result := h.send(t, "yes")

	assert.Equal(t, models.ResultAwaitingContentConfirmation, result.Status)
	assert.Contains(t, result.Reply, "try again")
	assert.Equal(t, models.WorkflowStatusAwaitingContentConfirmation, h.session(t).PendingStatus())
}

func TestHandleMessage_AutoGenerate(t *testing.T) {
	h := newHarness(t, func(_ *intent.Weights, policy *gate.Policy) { policy.AutoGenerate = true })
	h.completion.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("Welcome aboard!", nil).Once()

	result := h.send(t, "write a welcome note and send it to new@example.com")

	assert.Equal(t, models.ResultPreviewReady, result.Status)
	assert.Equal(t, "Welcome aboard!", h.workflow(t, result.WorkflowID).Nodes[1].StringParam("body"))
}

func TestHandleMessage_NegativeCancels(t *testing.T) {
	h := newHarness(t)

	preview := h.send(t, "send an email to ana@example.com")
	result := h.send(t, "no")

	assert.Equal(t, models.ResultConversational, result.Status)
	assert.Equal(t, replyCancelled, result.Reply)
	assert.Equal(t, models.WorkflowStatusCancelled, h.workflow(t, preview.WorkflowID).Status)
	assert.Nil(t, h.session(t).PendingWorkflow)

	h.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandleMessage_EditSubject(t *testing.T) {
	h := newHarness(t)

	h.send(t, "send an email to ana@example.com")
	result := h.send(t, "change the subject to Quarterly update")

	assert.Equal(t, models.ResultPreviewReady, result.Status)
	assert.Contains(t, result.Reply, "Updated.")
	assert.Equal(t, "Quarterly update", h.workflow(t, result.WorkflowID).Nodes[1].StringParam("subject"))
}

func TestHandleMessage_HedgedRepliesDoNotDispatch(t *testing.T) {
	h := newHarness(t)

	preview := h.send(t, "send an email to slakshanand1105@gmail.com")

	held := h.send(t, "ok wait, don't send it yet")

	assert.Equal(t, models.ResultPreviewReady, held.Status)
	assert.Equal(t, replyHolding, held.Reply)
	assert.Equal(t, models.WorkflowStatusPreviewReady, h.session(t).PendingStatus())

	edited := h.send(t, "sure, but change the subject to Launch")

	assert.Equal(t, models.ResultPreviewReady, edited.Status)
	assert.Equal(t, preview.WorkflowID, edited.WorkflowID)
	assert.Equal(t, "Launch", h.workflow(t, edited.WorkflowID).Nodes[1].StringParam("subject"))
	assert.Equal(t, models.WorkflowStatusPreviewReady, h.session(t).PendingStatus())

	h.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	h.sender.On("Send", mock.Anything, mock.MatchedBy(func(e transport.Email) bool {
		return e.Subject == "Launch"
	})).Return(nil).Once()

	result := h.send(t, "yes, send it")

	assert.Equal(t, models.ResultCompleted, result.Status)
	h.sender.AssertExpectations(t)
}

func TestHandleMessage_HoldWhileAwaitingContent(t *testing.T) {
	h := newHarness(t)

	h.send(t, "draft a sales pitch and send it to buyer@example.com")
	result := h.send(t, "hang on")

	assert.Equal(t, models.ResultAwaitingContentConfirmation, result.Status)
	assert.Equal(t, models.WorkflowStatusAwaitingContentConfirmation, h.session(t).PendingStatus())
	h.completion.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessage_InvalidEditKeepsPreviousVersion(t *testing.T) {
	h := newHarness(t)

	preview := h.send(t, "send an email to ana@example.com")
	subject := h.workflow(t, preview.WorkflowID).Nodes[1].StringParam("subject")

	result := h.send(t, "change the subject to "+strings.Repeat("x", 1000))

	assert.Equal(t, models.ResultPreviewReady, result.Status)
	assert.Contains(t, result.Reply, "kept the previous version")

	pending := h.session(t).PendingWorkflow
	require.NotNil(t, pending)
	assert.Equal(t, models.WorkflowStatusPreviewReady, pending.Status)
	assert.Equal(t, subject, pending.Nodes[1].StringParam("subject"))

	h.sender.On("Send", mock.Anything, mock.MatchedBy(func(e transport.Email) bool {
		return e.Subject == subject
	})).Return(nil).Once()

	assert.Equal(t, models.ResultCompleted, h.send(t, "yes").Status)
	h.sender.AssertExpectations(t)
}

func TestHandleMessage_CronIsScheduledOnApproval(t *testing.T) {
	h := newHarness(t)

	preview := h.send(t, "send an email to team@example.com every monday at 9am")
	require.Equal(t, models.ResultPreviewReady, preview.Status)
	assert.Contains(t, preview.Reply, "schedule it")

	result := h.send(t, "yes")

	assert.Equal(t, models.ResultScheduled, result.Status)
	require.Len(t, h.scheduler.scheduled, 1)
	assert.Equal(t, "0 9 * * 1", h.scheduler.scheduled[0].Trigger().StringParam("cron"))

	wf := h.workflow(t, result.WorkflowID)
	assert.Equal(t, models.WorkflowStatusApproved, wf.Status)
	assert.Nil(t, h.session(t).PendingWorkflow)

	h.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandleMessage_NewRequestReplacesPending(t *testing.T) {
	h := newHarness(t)

	first := h.send(t, "send an email to ana@example.com")
	second := h.send(t, "send an email to bob@example.com")

	assert.Contains(t, second.Reply, "cancelled the previous draft")
	assert.NotEqual(t, first.WorkflowID, second.WorkflowID)
	assert.Equal(t, models.WorkflowStatusCancelled, h.workflow(t, first.WorkflowID).Status)
	assert.Equal(t, second.WorkflowID, h.session(t).PendingWorkflow.ID)
}

func TestHandleMessage_MissingRecipient(t *testing.T) {
	h := newHarness(t)

	result := h.send(t, "send an email about the launch")

	assert.Equal(t, models.ResultConversational, result.Status)
	assert.Contains(t, result.Reply, "at least one email address")
	assert.Nil(t, h.session(t).PendingWorkflow)
}

func TestHandleMessage_Ambiguous(t *testing.T) {
	h := newHarness(t, func(weights *intent.Weights, _ *gate.Policy) { weights.MinConfidence = 0.99 })

	result := h.send(t, "send an email to ana@example.com")

	assert.Equal(t, models.ResultConversational, result.Status)
	assert.Equal(t, replyAmbiguous, result.Reply)
}

func TestHandleMessage_ChitchatOutage(t *testing.T) {
	h := newHarness(t)
	h.completion.On("Reply", mock.Anything, mock.Anything, "hello there").
		Return("", completion.TranslateError("test", errors.New("connection refused"))).Once()

	result := h.send(t, "hello there")

	assert.Equal(t, models.ResultConversational, result.Status)
	assert.Equal(t, replyUnavailable, result.Reply)
}

func TestHandleMessage_ChitchatUsesHistory(t *testing.T) {
	h := newHarness(t)
	h.completion.On("Reply", mock.Anything, mock.MatchedBy(func(history []models.Message) bool {
		return len(history) == 1 && history[0].Content == "hello there"
	}), "hello there").Return("Hi!", nil).Once()

	result := h.send(t, "hello there")

	assert.Equal(t, "Hi!", result.Reply)
	h.completion.AssertExpectations(t)
}

func TestHandleMessage_DriverFailureFailsWorkflow(t *testing.T) {
	h := newHarness(t)
	h.sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("mailbox unavailable"))

	h.send(t, "send an email to ana@example.com")
	result := h.send(t, "yes")

	assert.Equal(t, models.ResultFailed, result.Status)
	assert.Contains(t, result.Reply, "mailbox unavailable")
	assert.Equal(t, models.WorkflowStatusFailed, h.workflow(t, result.WorkflowID).Status)
	assert.Nil(t, h.session(t).PendingWorkflow)
}

func TestHandleMessage_UnknownScheduleCue(t *testing.T) {
	h := newHarness(t)

	result := h.send(t, "send an email to ana@example.com every 90 minutes")

	assert.Equal(t, models.ResultConversational, result.Status)
	assert.Contains(t, result.Reply, "couldn't understand the schedule")
}

type failingWorkflowStore struct{}

func (failingWorkflowStore) Save(context.Context, *models.Workflow) error {
	return errors.New("store unavailable")
}

func TestHandleMessage_RecordSaveFailureDoesNotResend(t *testing.T) {
	h := newHarness(t)
	h.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	h.send(t, "send an email to ana@example.com")

	h.orchestrator.Workflows = failingWorkflowStore{}

	result := h.send(t, "yes")

	assert.Equal(t, models.ResultCompleted, result.Status)
	assert.Nil(t, h.session(t).PendingWorkflow)

	// with nothing pending a second yes is only small talk
	h.completion.On("Reply", mock.Anything, mock.Anything, "yes").Return("Anything else?", nil).Once()

	again := h.send(t, "yes")

	assert.Equal(t, models.ResultConversational, again.Status)
	h.sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestClearMemory(t *testing.T) {
	h := newHarness(t)

	preview := h.send(t, "send an email to ana@example.com")
	require.NoError(t, h.orchestrator.ClearMemory(context.Background(), user, agent))

	assert.Equal(t, models.WorkflowStatusCancelled, h.workflow(t, preview.WorkflowID).Status)

	_, err := h.sessions.Get(context.Background(), user, agent)
	assert.True(t, persistence.IsNotFound(err))
}
