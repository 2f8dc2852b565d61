// Package scheduler runs approved cron-triggered workflows on their schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dukex/autoflow/pkg/approval"
	"github.com/dukex/autoflow/pkg/eventbus"
	"github.com/dukex/autoflow/pkg/events"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

var (
	// ErrNotSchedulable indicates the workflow is not an approved cron workflow.
	ErrNotSchedulable = errors.New("workflow is not schedulable")

	// ErrUnknownSchedule indicates no schedule exists for the workflow id.
	ErrUnknownSchedule = errors.New("workflow is not scheduled")

	// ErrStopped indicates the scheduler no longer starts runs.
	ErrStopped = errors.New("scheduler is stopped")
)

// Executor dispatches a single run.
type Executor interface {
	Execute(ctx context.Context, workflow *models.Workflow) (*models.ExecutionReport, error)
}

// RunRecorder persists finished runs and cancelled templates.
type RunRecorder interface {
	Save(ctx context.Context, workflow *models.Workflow) error
}

// WorkflowLister lists stored workflows for Restore.
type WorkflowLister interface {
	All(ctx context.Context) ([]*models.Workflow, error)
}

// Entry describes one scheduled workflow.
type Entry struct {
	WorkflowID string    `json:"workflow_id"`
	Cron       string    `json:"cron"`
	Next       time.Time `json:"next"`
}

type scheduled struct {
	entryID  cron.EntryID
	spec     string
	workflow *models.Workflow
}

type Scheduler struct {
	cron      *cron.Cron
	executor  Executor
	runs      RunRecorder
	publisher eventbus.EventPublisher
	machine   *approval.Machine
	logger    *slog.Logger

	mu      sync.RWMutex
	entries map[string]*scheduled
	// stopped is set under mu before Stop waits on inflight
	stopped bool

	inflight sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithPublisher publishes a workflow.scheduled event for every registered schedule.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(s *Scheduler) {
		s.publisher = publisher
	}
}

// WithMachine records unscheduling as a cancelled transition through machine.
func WithMachine(machine *approval.Machine) Option {
	return func(s *Scheduler) {
		s.machine = machine
	}
}

func New(executor Executor, runs RunRecorder, logger *slog.Logger, opts ...Option) *Scheduler {
	logger = logger.With("module", "scheduler")
	cronLog := cronLogger{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLog),
			cron.Recover(cronLog),
		), cron.WithLogger(cronLog)),
		executor: executor,
		runs:     runs,
		logger:   logger,
		entries:  make(map[string]*scheduled),
		ctx:      ctx,
		cancel:   cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.machine == nil {
		s.machine = approval.New(nil, logger)
	}

	return s
}

// Start begins firing schedules. Runs use a context detached from callers
// that is cancelled only when Stop gives up waiting.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", "entries", s.Len())
	s.cron.Start()
}

// Schedule registers an approved workflow whose trigger is a cron node.
// Scheduling the same workflow again replaces its previous entry.
func (s *Scheduler) Schedule(workflow *models.Workflow) error {
	spec, err := cronSpec(workflow)
	if err != nil {
		return err
	}

	template := workflow.Clone()

	entryID, err := s.cron.AddFunc(spec, func() { s.tick(template) })
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotSchedulable, workflow.ID, err)
	}

	s.mu.Lock()
	previous, replaced := s.entries[workflow.ID]
	s.entries[workflow.ID] = &scheduled{entryID: entryID, spec: spec, workflow: template}
	s.mu.Unlock()

	if replaced {
		s.cron.Remove(previous.entryID)
	}

	s.logger.Info("Scheduled workflow", "workflow_id", workflow.ID, "cron", spec, "replaced", replaced)
	s.announce(workflow, entryID)

	return nil
}

func (s *Scheduler) announce(workflow *models.Workflow, entryID cron.EntryID) {
	if s.publisher == nil {
		return
	}

	trigger := workflow.Trigger()
	next := s.cron.Entry(entryID).Next

	// Next is zero until the cron has been started
	if next.IsZero() {
		if schedule, err := cronParser.Parse(s.spec(workflow.ID)); err == nil {
			next = schedule.Next(time.Now())
		}
	}

	event := events.NewWorkflowScheduled(workflow.ID, trigger.StringParam("cron"), trigger.StringParam("timezone"), next)
	if err := s.publisher.Publish(context.Background(), workflow.ID, event); err != nil {
		s.logger.Warn("Failed to publish scheduled event", "workflow_id", workflow.ID, "error", err)
	}
}

func (s *Scheduler) spec(workflowID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.entries[workflowID]; ok {
		return entry.spec
	}

	return ""
}

// Unschedule removes the workflow's schedule and stores the template as
// cancelled, so Restore does not bring it back. Runs already started finish.
func (s *Scheduler) Unschedule(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[workflowID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSchedule, workflowID)
	}

	// ticks keep cloning the registered template, so the cancellation goes on a copy
	cancelled := entry.workflow.Clone()
	if err := s.machine.Cancel(ctx, cancelled, "unscheduled"); err != nil {
		return err
	}

	if err := s.runs.Save(context.WithoutCancel(ctx), cancelled); err != nil {
		return fmt.Errorf("failed to save unscheduled workflow %s: %w", workflowID, err)
	}

	delete(s.entries, workflowID)
	s.cron.Remove(entry.entryID)
	s.logger.InfoContext(ctx, "Unscheduled workflow", "workflow_id", workflowID)

	return nil
}

// Restore schedules every stored workflow that is approved and cron-triggered.
func (s *Scheduler) Restore(ctx context.Context, workflows WorkflowLister) (int, error) {
	all, err := workflows.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list workflows: %w", err)
	}

	restored := 0

	for _, workflow := range all {
		if _, err := cronSpec(workflow); err != nil {
			continue
		}

		if err := s.Schedule(workflow); err != nil {
			s.logger.WarnContext(ctx, "Failed to restore schedule", "workflow_id", workflow.ID, "error", err)

			continue
		}

		restored++
	}

	return restored, nil
}

// RunNow dispatches one run of a scheduled workflow immediately.
func (s *Scheduler) RunNow(ctx context.Context, workflowID string) (*models.Workflow, *models.ExecutionReport, error) {
	s.mu.RLock()
	entry, ok := s.entries[workflowID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownSchedule, workflowID)
	}

	return s.run(ctx, entry.workflow)
}

// Entries lists schedules ordered by workflow id.
func (s *Scheduler) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for id, entry := range s.entries {
		entries = append(entries, Entry{
			WorkflowID: id,
			Cron:       entry.spec,
			Next:       s.cron.Entry(entry.entryID).Next,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].WorkflowID < entries[j].WorkflowID })

	return entries
}

func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Stop stops firing schedules and waits for runs in flight. When ctx ends
// first the runs are cancelled and ctx's error is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping scheduler")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.cron.Stop()

	drained := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		s.cancel()
		s.logger.InfoContext(ctx, "Scheduler stopped")

		return nil
	case <-ctx.Done():
		s.cancel()

		return fmt.Errorf("scheduler did not drain: %w", ctx.Err())
	}
}

func (s *Scheduler) tick(template *models.Workflow) {
	if _, _, err := s.run(s.ctx, template); err != nil && !errors.Is(err, ErrStopped) {
		s.logger.Error("Scheduled run failed", "workflow_id", template.ID, "error", err)
	}
}

// run clones the template into a fresh approved run, dispatches it and saves
// the run record.
func (s *Scheduler) run(ctx context.Context, template *models.Workflow) (*models.Workflow, *models.ExecutionReport, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()

		return nil, nil, ErrStopped
	}

	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()

	now := time.Now().UTC()

	run := template.Clone()
	run.ID = uuid.New().String()
	run.ScheduledFrom = template.ID
	run.Status = models.WorkflowStatusApproved
	run.CreatedAt = now
	run.UpdatedAt = now

	logger := s.logger.With("workflow_id", template.ID, "run_id", run.ID)
	logger.InfoContext(ctx, "Running scheduled workflow")

	report, err := s.executor.Execute(ctx, run)

	if saveErr := s.runs.Save(context.WithoutCancel(ctx), run); saveErr != nil {
		logger.ErrorContext(ctx, "Failed to save run record", "error", saveErr)
		err = errors.Join(err, saveErr)
	}

	return run, report, err
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func cronSpec(workflow *models.Workflow) (string, error) {
	if workflow.Status != models.WorkflowStatusApproved {
		return "", fmt.Errorf("%w: %s is %s", ErrNotSchedulable, workflow.ID, workflow.Status)
	}

	trigger := workflow.Trigger()
	if trigger == nil || trigger.Type != models.NodeTypeCron {
		return "", fmt.Errorf("%w: %s has no cron trigger", ErrNotSchedulable, workflow.ID)
	}

	expr := trigger.StringParam("cron")
	if expr == "" {
		return "", fmt.Errorf("%w: %s has an empty cron expression", ErrNotSchedulable, workflow.ID)
	}

	if tz := trigger.StringParam("timezone"); tz != "" {
		return "CRON_TZ=" + tz + " " + expr, nil
	}

	return expr, nil
}

// cronLogger routes robfig/cron logs to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
