package models

import "time"

// Task statuses recorded per stage invocation.
const (
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// OrchestratorStage is the synthetic stage name used for the error task
// appended when a run fails before producing stage results.
const OrchestratorStage = "orchestrator"

// Built-in analysis stage names.
const (
	StageCompliance = "compliance"
	StageEvaluation = "evaluation"
	StageMarket     = "market"
)

// TaskResult is the recorded outcome of one stage invocation within a workflow.
type TaskResult struct {
	TaskID    string         `json:"task_id"`
	StageName string         `json:"stage_name"`
	Status    string         `json:"status"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

// NewTaskID derives a deterministic task identifier from the workflow id and
// stage name. The orchestrator's error task uses the "-error" suffix.
func NewTaskID(workflowID, stageName string) string {
	return workflowID + "-" + stageName
}

// ErrorTaskID returns the task identifier for a run-level failure.
func ErrorTaskID(workflowID string) string {
	return workflowID + "-error"
}

// Clone returns a copy of the task with its payload map duplicated.
func (t TaskResult) Clone() TaskResult {
	out := t
	out.Result = clonePayload(t.Result)

	return out
}
