// Package models defines the core domain models for proposal evaluation workflows.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow run.
type WorkflowStatus string

const (
	WorkflowStatusPending   WorkflowStatus = "pending"   // Registered, not started
	WorkflowStatusRunning   WorkflowStatus = "running"   // Stages in flight
	WorkflowStatusCompleted WorkflowStatus = "completed" // All stages succeeded
	WorkflowStatusFailed    WorkflowStatus = "failed"    // A stage or the orchestrator failed
	WorkflowStatusCanceled  WorkflowStatus = "canceled"  // Canceled by an explicit request
	WorkflowStatusTimeout   WorkflowStatus = "timeout"   // Reserved for an external timeout collaborator
)

// IsTerminal reports whether no further stage work happens after this status.
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusFailed || s == WorkflowStatusCanceled || s == WorkflowStatusTimeout
}

// WorkflowType classifies a proposal run; chosen by the stage runner's routing logic.
type WorkflowType string

const (
	WorkflowTypeStandard  WorkflowType = "standard"
	WorkflowTypeHighValue WorkflowType = "high_value"
	WorkflowTypeExpedited WorkflowType = "expedited"
	WorkflowTypeRegulated WorkflowType = "regulated"
)

// WorkflowRecord is the registry's unit of state, one per submitted proposal.
// The registry owns all instances; callers only ever see copies.
type WorkflowRecord struct {
	ID             string                    `json:"id"`
	Type           WorkflowType              `json:"type"`
	Status         WorkflowStatus            `json:"status"`
	Tasks          []TaskResult              `json:"tasks"`
	Results        map[string]map[string]any `json:"results"`
	Recommendation string                    `json:"recommendation,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
	CompletedAt    *time.Time                `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the record safe to hand outside the registry.
func (w WorkflowRecord) Clone() WorkflowRecord {
	out := w

	out.Tasks = make([]TaskResult, len(w.Tasks))
	for i, task := range w.Tasks {
		out.Tasks[i] = task.Clone()
	}

	out.Results = make(map[string]map[string]any, len(w.Results))
	for stage, payload := range w.Results {
		out.Results[stage] = clonePayload(payload)
	}

	if w.CompletedAt != nil {
		completedAt := *w.CompletedAt
		out.CompletedAt = &completedAt
	}

	return out
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}

	return out
}
