package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/vetflow/vetflow/pkg/models"
	"github.com/vetflow/vetflow/pkg/orchestrator"
)

const (
	defaultListLimit      = 10
	maxListLimit          = 100
	defaultCleanupMaxAgeH = 24
)

type APIHandlers struct {
	manager   *orchestrator.Manager
	validator *validator.Validate
}

func NewAPIHandlers(manager *orchestrator.Manager, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		manager:   manager,
		validator: validator,
	}
}

// CreateWorkflow accepts a proposal and starts its evaluation in the
// background, acknowledging before completion.
func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.manager.RunWorkflowAsync(c.Context(), req.ProposalID, req.UserID, req.ProposalData); err != nil {
		return handleManagerError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(WorkflowAcceptedResponse{
		WorkflowID: req.ProposalID,
		Status:     "accepted",
		Message:    "Workflow for proposal " + req.ProposalID + " has been started",
	})
}

// RunWorkflowSync runs the full pipeline inline and returns the result.
func (h *APIHandlers) RunWorkflowSync(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.manager.RunWorkflow(c.Context(), req.ProposalID, req.UserID, req.ProposalData)
	if err != nil {
		return handleManagerError(c, err)
	}

	return c.JSON(NewWorkflowResultResponse(result))
}

// GetWorkflowStatus returns the status summary for one workflow.
func (h *APIHandlers) GetWorkflowStatus(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	summary, err := h.manager.GetWorkflowStatus(id)
	if err != nil {
		return handleManagerError(c, err)
	}

	return c.JSON(summary)
}

// ListWorkflows returns paged status summaries with an optional status filter.
func (h *APIHandlers) ListWorkflows(c fiber.Ctx) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	summaries := h.manager.GetAllWorkflows()

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.WorkflowStatus(statusStr)
		filtered := make([]orchestrator.StatusSummary, 0, len(summaries))

		for _, summary := range summaries {
			if summary.Status == status {
				filtered = append(filtered, summary)
			}
		}

		summaries = filtered
	}

	total := len(summaries)
	page := paginate(summaries, limit, offset)

	return c.JSON(fiber.Map{
		"workflows": page,
		"count":     total,
		"pagination": fiber.Map{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// CancelWorkflow cancels a running workflow.
func (h *APIHandlers) CancelWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	summary, err := h.manager.CancelWorkflow(c.Context(), id)
	if err != nil {
		return handleManagerError(c, err)
	}

	return c.JSON(WorkflowCancelResponse{
		ID:      summary.ID,
		Status:  summary.Status,
		Message: "Workflow " + summary.ID + " has been canceled",
	})
}

// CleanupWorkflows removes workflows older than the requested age.
func (h *APIHandlers) CleanupWorkflows(c fiber.Ctx) error {
	maxAgeHours := defaultCleanupMaxAgeH

	if maxAgeStr := c.Query("max_age_hours"); maxAgeStr != "" {
		parsed, err := strconv.Atoi(maxAgeStr)
		if err != nil || parsed <= 0 {
			return badRequest(c, "max_age_hours must be a positive integer")
		}

		maxAgeHours = parsed
	}

	removed := h.manager.CleanupWorkflows(c.Context(), time.Duration(maxAgeHours)*time.Hour)

	return c.JSON(WorkflowCleanupResponse{
		RemovedCount: removed,
		Message:      "Removed " + strconv.Itoa(removed) + " workflows older than " + strconv.Itoa(maxAgeHours) + " hours",
	})
}

// GetWorkflowResult returns the full result of a completed workflow,
// including the recommendation.
func (h *APIHandlers) GetWorkflowResult(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	result, err := h.manager.GetWorkflowResult(id)
	if err != nil {
		return handleManagerError(c, err)
	}

	return c.JSON(NewWorkflowResultResponse(result))
}

// HealthCheck reports component health.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	managerCheck, ok := h.manager.HealthCheck()

	status := "unhealthy"
	message := "Vetflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Vetflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"orchestrator": managerCheck,
		},
		"active_workflows": h.manager.CountActive(),
		"timestamp":        time.Now().UTC(),
	})
}

func parsePagination(c fiber.Ctx) (limit, offset int, err error) {
	limit = defaultListLimit

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, err
		}
	}

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, err
		}
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}

func paginate(summaries []orchestrator.StatusSummary, limit, offset int) []orchestrator.StatusSummary {
	if offset >= len(summaries) {
		return []orchestrator.StatusSummary{}
	}

	end := offset + limit
	if end > len(summaries) {
		end = len(summaries)
	}

	return summaries[offset:end]
}
