// Package web exposes the orchestrator over HTTP.
package web

import (
	"context"
	"net/http"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/registry"
	"github.com/dukex/autoflow/pkg/scheduler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// Conversations handles chat turns.
type Conversations interface {
	HandleMessage(ctx context.Context, userID, agentID, message string) (*models.OrchestrationResult, error)
	ClearMemory(ctx context.Context, userID, agentID string) error
}

type WorkflowReader interface {
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Schedules manages scheduled workflows; optional.
type Schedules interface {
	Entries() []scheduler.Entry
	RunNow(ctx context.Context, workflowID string) (*models.Workflow, *models.ExecutionReport, error)
	Unschedule(ctx context.Context, workflowID string) error
}

type APIHandlers struct {
	conversations Conversations
	workflows     WorkflowReader
	specs         *registry.NodeSpecs
	store         HealthChecker
	schedules     Schedules
	validator     *validator.Validate
}

func NewAPIHandlers(
	conversations Conversations,
	workflows WorkflowReader,
	specs *registry.NodeSpecs,
	store HealthChecker,
	schedules Schedules,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		conversations: conversations,
		workflows:     workflows,
		specs:         specs,
		store:         store,
		schedules:     schedules,
		validator:     validator,
	}
}

func (h *APIHandlers) PostMessage(c fiber.Ctx) error {
	agentID := c.Params("agentId")
	userID := c.Params("userId")

	if agentID == "" || userID == "" {
		return badRequest(c, "Agent ID and user ID are required")
	}

	var req MessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.conversations.HandleMessage(c.Context(), userID, agentID, req.Message)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) DeleteMemory(c fiber.Ctx) error {
	agentID := c.Params("agentId")
	userID := c.Params("userId")

	if err := h.conversations.ClearMemory(c.Context(), userID, agentID); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflows.GetByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) GetNodeSpecs(c fiber.Ctx) error {
	return c.JSON(NodeSpecsResponse{NodeSpecs: h.specs.All()})
}

func (h *APIHandlers) GetSchedules(c fiber.Ctx) error {
	entries := []scheduler.Entry{}
	if h.schedules != nil {
		entries = h.schedules.Entries()
	}

	return c.JSON(fiber.Map{"schedules": entries})
}

// RunSchedule dispatches one run of a scheduled workflow now. A run that
// fails still answers 200 with its record; the failure is in Error.
func (h *APIHandlers) RunSchedule(c fiber.Ctx) error {
	if h.schedules == nil {
		return notFound(c, "scheduling is disabled")
	}

	run, report, err := h.schedules.RunNow(c.Context(), c.Params("id"))
	if run == nil {
		return handleError(c, err)
	}

	response := RunResponse{Run: run, Report: report}
	if err != nil {
		response.Error = err.Error()
	}

	return c.JSON(response)
}

func (h *APIHandlers) DeleteSchedule(c fiber.Ctx) error {
	if h.schedules == nil {
		return notFound(c, "scheduling is disabled")
	}

	if err := h.schedules.Unschedule(c.Context(), c.Params("id")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.store.HealthCheck(c.Context()); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(HealthResponse{
			Status:  "unhealthy",
			Message: "store is unavailable: " + err.Error(),
		})
	}

	return c.JSON(HealthResponse{Status: "healthy", Message: "Autoflow API is healthy"})
}
