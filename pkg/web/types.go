// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"time"

	"github.com/vetflow/vetflow/pkg/models"
)

// CreateWorkflowRequest is the body for both asynchronous creation and the
// synchronous run endpoint.
type CreateWorkflowRequest struct {
	ProposalID   string         `json:"proposal_id"   validate:"required,min=1"`
	UserID       string         `json:"user_id"       validate:"required,min=1"`
	ProposalData map[string]any `json:"proposal_data" validate:"required"`
}

// WorkflowAcceptedResponse acknowledges a fire-and-forget submission.
type WorkflowAcceptedResponse struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// WorkflowCancelResponse reports a cancellation.
type WorkflowCancelResponse struct {
	ID      string                `json:"id"`
	Status  models.WorkflowStatus `json:"status"`
	Message string                `json:"message"`
}

// WorkflowCleanupResponse reports a registry cleanup.
type WorkflowCleanupResponse struct {
	RemovedCount int    `json:"removed_count"`
	Message      string `json:"message"`
}

// WorkflowResultResponse is the full result of a completed workflow,
// recommendation included.
type WorkflowResultResponse struct {
	ProposalID       string              `json:"proposal_id"`
	WorkflowType     models.WorkflowType `json:"workflow_type"`
	ProcessingTimeMS float64             `json:"processing_time_ms"`
	Compliance       map[string]any      `json:"compliance"`
	Evaluation       map[string]any      `json:"evaluation"`
	Market           map[string]any      `json:"market"`
	Recommendation   string              `json:"recommendation"`
}

// NewWorkflowResultResponse converts a run result into its API shape.
func NewWorkflowResultResponse(result *models.RunResult) WorkflowResultResponse {
	return WorkflowResultResponse{
		ProposalID:       result.ProposalID,
		WorkflowType:     result.WorkflowType,
		ProcessingTimeMS: float64(result.Duration) / float64(time.Millisecond),
		Compliance:       result.Compliance,
		Evaluation:       result.Evaluation,
		Market:           result.Market,
		Recommendation:   result.Recommendation,
	}
}
