package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/autoflow/pkg/approval"
	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/cmd"
	"github.com/dukex/autoflow/pkg/completion"
	"github.com/dukex/autoflow/pkg/config"
	"github.com/dukex/autoflow/pkg/dispatcher"
	"github.com/dukex/autoflow/pkg/eventbus"
	"github.com/dukex/autoflow/pkg/events"
	"github.com/dukex/autoflow/pkg/gate"
	"github.com/dukex/autoflow/pkg/intent"
	"github.com/dukex/autoflow/pkg/orchestrator"
	"github.com/dukex/autoflow/pkg/otelhelper"
	"github.com/dukex/autoflow/pkg/persistence"
	"github.com/dukex/autoflow/pkg/registry"
	"github.com/dukex/autoflow/pkg/scheduler"
	"github.com/dukex/autoflow/pkg/session"
	"github.com/dukex/autoflow/pkg/validation"
	"github.com/dukex/autoflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/trace"
)

// Options are the process level settings shared by every command.
type Options struct {
	DatabaseURL  string
	ConfigPath   string
	EventBus     string
	KafkaBrokers []string
	Tracing      bool
}

// Application holds the wired engine.
type Application struct {
	Config       config.Config
	Store        persistence.Store
	EventBus     eventbus.EventBus
	Specs        *registry.NodeSpecs
	Workflows    *persistence.WorkflowRepository
	Scheduler    *scheduler.Scheduler
	Orchestrator *orchestrator.Orchestrator

	logger  *slog.Logger
	closers []func(context.Context) error
}

// NewApplication loads the configuration and builds every component.
// Close releases what was opened even when construction fails half way.
func NewApplication(ctx context.Context, opts Options, logger *slog.Logger) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	app := &Application{Config: cfg, logger: logger, Specs: registry.DefaultNodeSpecs()}

	if err := app.build(ctx, opts); err != nil {
		return nil, errors.Join(err, app.Close(ctx))
	}

	return app, nil
}

func (a *Application) build(ctx context.Context, opts Options) error {
	tracer := otelhelper.NoopTracer()

	if opts.Tracing {
		t, shutdown, err := otelhelper.NewTracer(ctx, "autoflow")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		tracer = t
		a.closers = append(a.closers, shutdown)
	}

	store, err := cmd.NewStore(ctx, a.logger, opts.DatabaseURL)
	if err != nil {
		return err
	}

	a.Store = store
	a.closers = append(a.closers, store.Close)

	bus, err := cmd.NewEventBus(opts.EventBus, opts.KafkaBrokers, a.logger)
	if err != nil {
		return err
	}

	a.EventBus = bus
	a.closers = append(a.closers, func(context.Context) error { return bus.Close() })

	llm, err := cmd.NewCompletion(a.Config.Completion)
	if err != nil {
		return err
	}

	drivers, err := cmd.NewDrivers(cmd.NewEmailSender(a.Config.SMTP, a.logger), a.Config.Dispatcher)
	if err != nil {
		return err
	}

	if missing := drivers.Covers(a.Specs); len(missing) > 0 {
		return fmt.Errorf("no driver registered for node types %v", missing)
	}

	a.Workflows = persistence.NewWorkflowRepository(store)

	machine := approval.New(bus, a.logger)
	dispatch := dispatcher.New(a.Specs, drivers, machine, a.Config.Dispatcher, a.logger,
		dispatcher.WithPublisher(bus),
		dispatcher.WithTracer(tracer),
	)

	a.Scheduler = scheduler.New(dispatch, a.Workflows, a.logger,
		scheduler.WithPublisher(bus),
		scheduler.WithMachine(machine),
	)
	a.Orchestrator = a.newOrchestrator(llm, machine, dispatch, tracer)

	return nil
}

func (a *Application) newOrchestrator(llm completion.Service, machine *approval.Machine, dispatch *dispatcher.Dispatcher, tracer trace.Tracer) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Deps{
		Sessions:   session.NewManager(persistence.NewSessionRepository(a.Store), a.logger),
		Classifier: intent.NewClassifier(a.Config.Intent),
		Extractor:  intent.NewExtractor(),
		Gate:       gate.New(a.Config.Gate),
		Builder:    builder.New(a.Specs, builder.WithDefaultSubject(a.Config.Builder.DefaultSubject)),
		Validator:  validation.New(a.Specs),
		Machine:    machine,
		Dispatcher: dispatch,
		Scheduler:  a.Scheduler,
		Completion: llm,
		Workflows:  a.Workflows,
		Tracer:     tracer,
	}, a.Config.Orchestrator, a.logger)
}

// Start restores persisted schedules, starts firing them and begins
// delivering lifecycle events to the logger.
func (a *Application) Start(ctx context.Context) error {
	for _, eventType := range []events.EventType{
		events.WorkflowStatusChangedEvent,
		events.WorkflowScheduledEvent,
		events.NodeExecutedEvent,
	} {
		if err := a.EventBus.Handle(eventType, a.logEvent); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", eventType, err)
		}
	}

	if err := a.EventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	restored, err := a.Scheduler.Restore(ctx, a.Workflows)
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "Restored schedules", "count", restored)
	a.Scheduler.Start()

	return nil
}

// HTTP returns the fiber app serving the orchestrator.
func (a *Application) HTTP() *fiber.App {
	handlers := web.NewAPIHandlers(
		a.Orchestrator,
		a.Workflows,
		a.Specs,
		a.Store,
		a.Scheduler,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	return web.App(handlers)
}

// Close stops the scheduler and releases the store, bus and tracer in
// reverse order of creation.
func (a *Application) Close(ctx context.Context) error {
	var errs []error

	if a.Scheduler != nil {
		errs = append(errs, a.Scheduler.Stop(ctx))
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}

	return errors.Join(errs...)
}

func (a *Application) logEvent(ctx context.Context, event any) error {
	a.logger.DebugContext(ctx, "Event", "event", event)

	return nil
}
