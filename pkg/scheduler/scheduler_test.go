package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dukex/autoflow/pkg/events"
	"github.com/dukex/autoflow/pkg/mocks"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence"
	"github.com/dukex/autoflow/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	mu      sync.Mutex
	seen    []*models.Workflow
	release chan struct{}
	started chan struct{}
}

func (f *fakeExecutor) Execute(ctx context.Context, workflow *models.Workflow) (*models.ExecutionReport, error) {
	f.mu.Lock()
	f.seen = append(f.seen, workflow)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	workflow.Status = models.WorkflowStatusCompleted

	return &models.ExecutionReport{WorkflowID: workflow.ID, Status: workflow.Status}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func cronWorkflow(id, expr string) *models.Workflow {
	return &models.Workflow{
		ID:     id,
		Owner:  "user-1",
		Status: models.WorkflowStatusApproved,
		Nodes: []*models.WorkflowNode{
			{ID: "trigger", Type: models.NodeTypeCron, Role: models.RoleTrigger, Parameters: map[string]any{"cron": expr}},
			{ID: "send_email_1", Type: models.NodeTypeEmailSend, Role: models.RoleAction, Parameters: map[string]any{"to": "ana@example.com"}},
		},
	}
}

func newScheduler(executor Executor) (*Scheduler, *persistence.WorkflowRepository) {
	repo := persistence.NewWorkflowRepository(memory.NewStore())

	return New(executor, repo, testLogger()), repo
}

func TestSchedule_RejectsNonSchedulable(t *testing.T) {
	s, _ := newScheduler(&fakeExecutor{})

	draft := cronWorkflow("wf-1", "0 9 * * *")
	draft.Status = models.WorkflowStatusPreviewReady
	assert.ErrorIs(t, s.Schedule(draft), ErrNotSchedulable)

	manual := cronWorkflow("wf-2", "0 9 * * *")
	manual.Nodes[0].Type = models.NodeTypeManual
	assert.ErrorIs(t, s.Schedule(manual), ErrNotSchedulable)

	invalid := cronWorkflow("wf-3", "not a cron")
	assert.ErrorIs(t, s.Schedule(invalid), ErrNotSchedulable)

	assert.Equal(t, 0, s.Len())
}

func TestSchedule_ReplacesExistingEntry(t *testing.T) {
	s, _ := newScheduler(&fakeExecutor{})

	require.NoError(t, s.Schedule(cronWorkflow("wf-1", "0 9 * * *")))
	require.NoError(t, s.Schedule(cronWorkflow("wf-1", "30 10 * * 1")))

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "30 10 * * 1", entries[0].Cron)
}

func TestSchedule_Timezone(t *testing.T) {
	s, _ := newScheduler(&fakeExecutor{})

	wf := cronWorkflow("wf-1", "0 9 * * *")
	wf.Nodes[0].Parameters["timezone"] = "America/Sao_Paulo"

	require.NoError(t, s.Schedule(wf))
	assert.Equal(t, "CRON_TZ=America/Sao_Paulo 0 9 * * *", s.Entries()[0].Cron)
}

func TestSchedule_PublishesScheduledEvent(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "wf-1", mock.MatchedBy(func(event events.WorkflowScheduled) bool {
		return event.WorkflowID == "wf-1" && event.Cron == "0 9 * * *" && !event.NextRun.IsZero()
	})).Return(nil).Once()

	repo := persistence.NewWorkflowRepository(memory.NewStore())
	s := New(&fakeExecutor{}, repo, testLogger(), WithPublisher(bus))

	require.NoError(t, s.Schedule(cronWorkflow("wf-1", "0 9 * * *")))
	bus.AssertExpectations(t)
}

func TestRunNow_ClonesAndRecordsRun(t *testing.T) {
	executor := &fakeExecutor{}
	s, repo := newScheduler(executor)

	template := cronWorkflow("wf-1", "0 9 * * *")
	require.NoError(t, s.Schedule(template))

	run, report, err := s.RunNow(context.Background(), "wf-1")
	require.NoError(t, err)

	assert.NotEqual(t, "wf-1", run.ID)
	assert.Equal(t, "wf-1", run.ScheduledFrom)
	assert.Equal(t, models.WorkflowStatusCompleted, report.Status)

	require.Len(t, executor.seen, 1)
	assert.Equal(t, run.ID, executor.seen[0].ID)

	saved, err := repo.GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, saved.Status)
	assert.Equal(t, "wf-1", saved.ScheduledFrom)

	// the template stays approved for the next tick
	assert.Equal(t, models.WorkflowStatusApproved, template.Status)
	second, _, err := s.RunNow(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.NotEqual(t, run.ID, second.ID)
}

func TestRunNow_Unknown(t *testing.T) {
	s, _ := newScheduler(&fakeExecutor{})

	_, _, err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownSchedule)
}

func TestUnschedule(t *testing.T) {
	s, _ := newScheduler(&fakeExecutor{})
	ctx := context.Background()

	require.NoError(t, s.Schedule(cronWorkflow("wf-1", "0 9 * * *")))
	require.NoError(t, s.Unschedule(ctx, "wf-1"))

	assert.Equal(t, 0, s.Len())
	assert.ErrorIs(t, s.Unschedule(ctx, "wf-1"), ErrUnknownSchedule)
}

func TestUnschedule_SurvivesRestart(t *testing.T) {
	s, repo := newScheduler(&fakeExecutor{})
	ctx := context.Background()

	template := cronWorkflow("wf-1", "0 9 * * *")
	require.NoError(t, repo.Save(ctx, template))
	require.NoError(t, s.Schedule(template))
	require.NoError(t, s.Unschedule(ctx, "wf-1"))

	stored, err := repo.GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCancelled, stored.Status)
	require.NotEmpty(t, stored.Transitions)
	assert.Equal(t, models.WorkflowStatusApproved, stored.Transitions[len(stored.Transitions)-1].From)

	// the registered template itself is left alone
	assert.Equal(t, models.WorkflowStatusApproved, template.Status)

	restarted := New(&fakeExecutor{}, repo, testLogger())

	restored, err := restarted.Restore(ctx, repo)
	require.NoError(t, err)
	assert.Zero(t, restored)
	assert.Empty(t, restarted.Entries())
}

func TestUnschedule_SaveFailureKeepsSchedule(t *testing.T) {
	store := &mocks.MockStore{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	s := New(&fakeExecutor{}, persistence.NewWorkflowRepository(store), testLogger())
	ctx := context.Background()

	require.NoError(t, s.Schedule(cronWorkflow("wf-1", "0 9 * * *")))
	require.Error(t, s.Unschedule(ctx, "wf-1"))
	assert.Equal(t, 1, s.Len())
}

func TestRunNow_AfterStop(t *testing.T) {
	s, _ := newScheduler(&fakeExecutor{})
	ctx := context.Background()

	require.NoError(t, s.Schedule(cronWorkflow("wf-1", "0 9 * * *")))
	s.Start()
	require.NoError(t, s.Stop(ctx))

	_, _, err := s.RunNow(ctx, "wf-1")
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRestore(t *testing.T) {
	s, repo := newScheduler(&fakeExecutor{})
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, cronWorkflow("wf-1", "0 9 * * *")))

	completed := cronWorkflow("wf-2", "0 9 * * *")
	completed.Status = models.WorkflowStatusCompleted
	require.NoError(t, repo.Save(ctx, completed))

	manual := cronWorkflow("wf-3", "0 9 * * *")
	manual.Nodes[0].Type = models.NodeTypeManual
	require.NoError(t, repo.Save(ctx, manual))

	restored, err := s.Restore(ctx, repo)
	require.NoError(t, err)

	assert.Equal(t, 1, restored)
	assert.Equal(t, "wf-1", s.Entries()[0].WorkflowID)
}

func TestStop_DrainsInflightRuns(t *testing.T) {
	executor := &fakeExecutor{release: make(chan struct{}), started: make(chan struct{}, 1)}
	s, _ := newScheduler(executor)

	require.NoError(t, s.Schedule(cronWorkflow("wf-1", "0 9 * * *")))
	s.Start()

	done := make(chan error, 1)
	go func() {
		_, _, err := s.RunNow(context.Background(), "wf-1")
		done <- err
	}()

	<-executor.started

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	stopped := make(chan error, 1)
	go func() { stopped <- s.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a run was in flight")
	case <-short.Done():
	}

	close(executor.release)

	require.NoError(t, <-done)
	require.NoError(t, <-stopped)
}

func TestStop_GivesUpAndCancelsRuns(t *testing.T) {
	executor := &fakeExecutor{release: make(chan struct{}), started: make(chan struct{}, 1)}
	s, _ := newScheduler(executor)

	require.NoError(t, s.Schedule(cronWorkflow("wf-1", "0 9 * * *")))
	s.Start()

	done := make(chan error, 1)
	go func() {
		_, _, err := tickRun(s, "wf-1")
		done <- err
	}()

	<-executor.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := s.Stop(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// the tick context is cancelled so the run returns
	assert.ErrorIs(t, <-done, context.Canceled)
}

// tickRun runs the scheduled template the way a cron tick does.
func tickRun(s *Scheduler, workflowID string) (*models.Workflow, *models.ExecutionReport, error) {
	s.mu.RLock()
	entry := s.entries[workflowID]
	s.mu.RUnlock()

	return s.run(s.ctx, entry.workflow)
}
