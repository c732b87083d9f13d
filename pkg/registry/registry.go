// Package registry provides the in-memory authoritative store of workflow state.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vetflow/vetflow/pkg/models"
)

// ErrDuplicateWorkflow is returned by Register under PolicyReject when the
// workflow id is already tracked.
var ErrDuplicateWorkflow = errors.New("workflow already registered")

// Policy controls what Register does when the id is already tracked.
type Policy string

const (
	// PolicyReject refuses re-registration with ErrDuplicateWorkflow.
	PolicyReject Policy = "reject"
	// PolicyReset replaces the existing record, dropping its tasks and
	// results. Re-registration is a full reset, never a merge.
	PolicyReset Policy = "reset"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case PolicyReject:
		return PolicyReject, nil
	case PolicyReset:
		return PolicyReset, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy: %s", name)
	}
}

// Registry tracks every workflow record behind a single coarse lock.
// All operations are short critical sections with no I/O under the lock;
// callers only ever receive deep copies of records.
type Registry struct {
	mu        sync.RWMutex
	workflows map[string]*models.WorkflowRecord
	order     []string
	policy    Policy
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithPolicy sets the duplicate-registration policy.
func WithPolicy(policy Policy) Option {
	return func(r *Registry) {
		r.policy = policy
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty workflow registry. The default duplicate
// policy is PolicyReject.
func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		workflows: make(map[string]*models.WorkflowRecord),
		policy:    PolicyReject,
		logger:    logger.With("module", "workflow_registry"),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register creates a record with status pending and empty task list.
// Under PolicyReject an already-tracked id is a conflict; under PolicyReset
// the prior record is replaced wholesale.
func (r *Registry) Register(id string, workflowType models.WorkflowType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workflows[id]; exists {
		if r.policy == PolicyReject {
			return ErrDuplicateWorkflow
		}

		r.logger.Warn("Re-registering workflow, prior record replaced", "workflow_id", id)
	} else {
		r.order = append(r.order, id)
	}

	now := r.now()
	r.workflows[id] = &models.WorkflowRecord{
		ID:        id,
		Type:      workflowType,
		Status:    models.WorkflowStatusPending,
		Tasks:     []models.TaskResult{},
		Results:   make(map[string]map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}

	return nil
}

// UpdateStatus sets the workflow status. Unknown ids are a silent no-op so a
// stale background run never crashes on a reclaimed record. CompletedAt is
// stamped exactly once, on the first transition into completed or failed.
func (r *Registry) UpdateStatus(id string, status models.WorkflowStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.workflows[id]
	if !exists {
		return
	}

	r.setStatus(record, status)
}

// Finish applies a terminal status only when the workflow is still running,
// and reports whether the write happened. A run whose workflow was canceled
// underneath it must not overwrite the canceled status.
func (r *Registry) Finish(id string, status models.WorkflowStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.workflows[id]
	if !exists || record.Status != models.WorkflowStatusRunning {
		return false
	}

	r.setStatus(record, status)

	return true
}

// Cancel flips the status to canceled only while the workflow is still
// running, and reports whether the write happened. The check and the write
// share one critical section, so a run finishing concurrently can never be
// overwritten with canceled.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.workflows[id]
	if !exists || record.Status != models.WorkflowStatusRunning {
		return false
	}

	r.setStatus(record, models.WorkflowStatusCanceled)

	return true
}

func (r *Registry) setStatus(record *models.WorkflowRecord, status models.WorkflowStatus) {
	now := r.now()
	record.Status = status
	record.UpdatedAt = now

	if record.CompletedAt == nil &&
		(status == models.WorkflowStatusCompleted || status == models.WorkflowStatusFailed) {
		completedAt := now
		record.CompletedAt = &completedAt
	}
}

// AddTaskResult appends a task outcome. Unknown ids are a silent no-op.
// Non-empty task payloads are recorded in the per-stage results map,
// last write wins per stage name.
func (r *Registry) AddTaskResult(id string, task models.TaskResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.workflows[id]
	if !exists {
		return
	}

	record.Tasks = append(record.Tasks, task.Clone())
	record.UpdatedAt = r.now()

	if len(task.Result) > 0 {
		record.Results[task.StageName] = task.Clone().Result
	}
}

// SetRecommendation records the synthesized recommendation for a workflow.
// Unknown ids are a silent no-op.
func (r *Registry) SetRecommendation(id, recommendation string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.workflows[id]
	if !exists {
		return
	}

	record.Recommendation = recommendation
	record.UpdatedAt = r.now()
}

// Get returns a snapshot of one record.
func (r *Registry) Get(id string) (models.WorkflowRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.workflows[id]
	if !exists {
		return models.WorkflowRecord{}, false
	}

	return record.Clone(), true
}

// List returns snapshots of every record in registration order.
func (r *Registry) List() []models.WorkflowRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.WorkflowRecord, 0, len(r.workflows))

	for _, id := range r.order {
		if record, exists := r.workflows[id]; exists {
			out = append(out, record.Clone())
		}
	}

	return out
}

// Count returns the number of tracked workflows.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.workflows)
}

// Cleanup removes every record created more than maxAge ago and returns the
// number removed. Records are removed regardless of status; retention is
// purely age-based.
func (r *Registry) Cleanup(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	removed := 0
	kept := r.order[:0]

	for _, id := range r.order {
		record, exists := r.workflows[id]
		if !exists {
			continue
		}

		if record.CreatedAt.Before(cutoff) {
			delete(r.workflows, id)
			removed++

			continue
		}

		kept = append(kept, id)
	}

	r.order = kept

	if removed > 0 {
		r.logger.Info("Removed aged workflows from registry", "removed", removed, "max_age", maxAge)
	}

	return removed
}

// HealthCheck reports registry health for the API health endpoint.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.workflows == nil {
		return "Workflow registry not initialized", false
	}

	return "Workflow registry is healthy", true
}
