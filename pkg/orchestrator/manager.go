package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vetflow/vetflow/pkg/eventbus"
	"github.com/vetflow/vetflow/pkg/events"
	"github.com/vetflow/vetflow/pkg/models"
	"github.com/vetflow/vetflow/pkg/registry"
	"github.com/vetflow/vetflow/pkg/runner"
)

// Manager is the orchestration façade. It owns no workflow state itself;
// all state lives in the registry, and the manager only mediates.
type Manager struct {
	registry *registry.Registry
	runner   *runner.Runner
	eventBus eventbus.EventPublisher
	logger   *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewManager creates an orchestration manager. The event bus may be nil;
// lifecycle events are then skipped.
func NewManager(
	reg *registry.Registry,
	stageRunner *runner.Runner,
	eventBus eventbus.EventPublisher,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		registry: reg,
		runner:   stageRunner,
		eventBus: eventBus,
		logger:   logger.With("module", "orchestration_manager"),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// RunWorkflow executes the full pipeline for one proposal: classify,
// register, run stages, record task results and finish. Registration
// conflicts and stage failures are returned to the caller; registry
// bookkeeping always completes before a failure propagates.
func (m *Manager) RunWorkflow(ctx context.Context, proposalID, userID string, proposalData map[string]any) (*models.RunResult, error) {
	workflowType := m.runner.Classify(proposalData)

	if err := m.registry.Register(proposalID, workflowType); err != nil {
		return nil, err
	}

	m.publish(ctx, proposalID, events.WorkflowRegistered{
		BaseEvent:    m.newBaseEvent(events.WorkflowRegisteredEvent, proposalID),
		WorkflowType: workflowType,
		UserID:       userID,
	})

	return m.execute(ctx, proposalID, userID, workflowType, proposalData)
}

// RunWorkflowAsync registers the workflow synchronously, so duplicate ids
// are reported to the caller, then executes it on a background goroutine
// detached from the request context.
func (m *Manager) RunWorkflowAsync(ctx context.Context, proposalID, userID string, proposalData map[string]any) error {
	workflowType := m.runner.Classify(proposalData)

	if err := m.registry.Register(proposalID, workflowType); err != nil {
		return err
	}

	m.publish(ctx, proposalID, events.WorkflowRegistered{
		BaseEvent:    m.newBaseEvent(events.WorkflowRegisteredEvent, proposalID),
		WorkflowType: workflowType,
		UserID:       userID,
	})

	background := context.WithoutCancel(ctx)

	go func() {
		if _, err := m.execute(background, proposalID, userID, workflowType, proposalData); err != nil {
			m.logger.Error("Background workflow execution failed",
				"workflow_id", proposalID,
				"error", err,
			)
		}
	}()

	return nil
}

func (m *Manager) execute(ctx context.Context, proposalID, userID string, workflowType models.WorkflowType, proposalData map[string]any) (*models.RunResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.trackCancel(proposalID, cancel)
	defer m.untrackCancel(proposalID)

	m.registry.UpdateStatus(proposalID, models.WorkflowStatusRunning)
	m.publish(ctx, proposalID, events.WorkflowStarted{
		BaseEvent:    m.newBaseEvent(events.WorkflowStartedEvent, proposalID),
		WorkflowType: workflowType,
	})

	start := time.Now()

	result, err := m.runner.Process(runCtx, proposalID, userID, proposalData)
	if err != nil {
		m.failWorkflow(ctx, proposalID, err, time.Since(start))

		return nil, &ExecutionError{WorkflowID: proposalID, Err: err}
	}

	payloads := result.StagePayloads()
	// Per-stage duration is an approximation; stages run concurrently and
	// only the whole run is timed.
	stageDuration := result.Duration / time.Duration(len(payloads))

	for _, stageName := range models.StageNames() {
		m.registry.AddTaskResult(proposalID, models.TaskResult{
			TaskID:    models.NewTaskID(proposalID, stageName),
			StageName: stageName,
			Status:    models.TaskStatusCompleted,
			Result:    payloads[stageName],
			Duration:  stageDuration,
		})
	}

	m.registry.SetRecommendation(proposalID, result.Recommendation)

	if !m.registry.Finish(proposalID, models.WorkflowStatusCompleted) {
		// Canceled underneath the run; the outcome stays recorded but the
		// canceled status is never overwritten.
		m.logger.Warn("Workflow no longer running, terminal status not applied", "workflow_id", proposalID)

		return result, nil
	}

	m.publish(ctx, proposalID, events.WorkflowCompleted{
		BaseEvent:      m.newBaseEvent(events.WorkflowCompletedEvent, proposalID),
		WorkflowType:   workflowType,
		Recommendation: result.Recommendation,
		Duration:       result.Duration,
	})

	m.logger.Info("Workflow completed",
		"workflow_id", proposalID,
		"workflow_type", workflowType,
		"duration", result.Duration,
	)

	return result, nil
}

// failWorkflow records the failure before the error propagates: terminal
// status first, then the synthetic orchestrator error task.
func (m *Manager) failWorkflow(ctx context.Context, proposalID string, cause error, elapsed time.Duration) {
	if !m.registry.Finish(proposalID, models.WorkflowStatusFailed) {
		m.logger.Warn("Workflow no longer running, failed status not applied", "workflow_id", proposalID)
	}

	m.registry.AddTaskResult(proposalID, models.TaskResult{
		TaskID:    models.ErrorTaskID(proposalID),
		StageName: models.OrchestratorStage,
		Status:    models.TaskStatusFailed,
		Error:     cause.Error(),
		Duration:  elapsed,
	})

	m.publish(ctx, proposalID, events.WorkflowFailed{
		BaseEvent: m.newBaseEvent(events.WorkflowFailedEvent, proposalID),
		Error:     cause.Error(),
		Duration:  elapsed,
	})

	m.logger.Error("Workflow failed", "workflow_id", proposalID, "error", cause)
}

// StatusSummary is the query view of one workflow. Results holds the
// per-stage payloads; the recommendation is only surfaced by the result query.
type StatusSummary struct {
	ID          string                    `json:"id"`
	Status      models.WorkflowStatus     `json:"status"`
	Type        models.WorkflowType       `json:"type"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
	CompletedAt *time.Time                `json:"completed_at,omitempty"`
	TaskCount   int                       `json:"task_count"`
	Results     map[string]map[string]any `json:"results,omitempty"`
}

// GetWorkflowStatus returns the status summary for one workflow, with the
// per-stage results included.
func (m *Manager) GetWorkflowStatus(id string) (*StatusSummary, error) {
	record, found := m.registry.Get(id)
	if !found {
		return nil, notFound(id)
	}

	summary := summarize(record)
	summary.Results = record.Results

	return &summary, nil
}

// GetAllWorkflows returns summaries without stage results for every
// tracked workflow, in registration order.
func (m *Manager) GetAllWorkflows() []StatusSummary {
	records := m.registry.List()
	summaries := make([]StatusSummary, len(records))

	for i, record := range records {
		summaries[i] = summarize(record)
	}

	return summaries
}

// GetWorkflowResult returns the full result, recommendation included, once
// the workflow has completed.
func (m *Manager) GetWorkflowResult(id string) (*models.RunResult, error) {
	record, found := m.registry.Get(id)
	if !found {
		return nil, notFound(id)
	}

	if record.Status != models.WorkflowStatusCompleted {
		return nil, fmt.Errorf("workflow %s has status %s: %w", id, record.Status, ErrNotCompleted)
	}

	var duration time.Duration
	if record.CompletedAt != nil {
		duration = record.CompletedAt.Sub(record.CreatedAt)
	}

	return &models.RunResult{
		ProposalID:     record.ID,
		WorkflowType:   record.Type,
		Compliance:     record.Results[models.StageCompliance],
		Evaluation:     record.Results[models.StageEvaluation],
		Market:         record.Results[models.StageMarket],
		Recommendation: record.Recommendation,
		Duration:       duration,
	}, nil
}

// CancelWorkflow cancels a running workflow: the recorded status flips to
// canceled and the run context is canceled so in-flight stages stop at
// their next cancellation check.
func (m *Manager) CancelWorkflow(ctx context.Context, id string) (*StatusSummary, error) {
	record, found := m.registry.Get(id)
	if !found {
		return nil, notFound(id)
	}

	// The canceled write is atomic, so a run finishing concurrently wins the
	// race and the cancel is rejected rather than overwriting a terminal
	// status. Re-read after a rejection so the error reports the status that
	// actually blocked it.
	if !m.registry.Cancel(id) {
		if record, found = m.registry.Get(id); !found {
			return nil, notFound(id)
		}

		return nil, fmt.Errorf("workflow %s has status %s: %w", id, record.Status, ErrNotCancelable)
	}

	m.mu.Lock()
	if cancel, ok := m.cancels[id]; ok {
		cancel()
	}
	m.mu.Unlock()

	m.publish(ctx, id, events.WorkflowCanceled{
		BaseEvent: m.newBaseEvent(events.WorkflowCanceledEvent, id),
	})

	m.logger.Info("Workflow canceled", "workflow_id", id)

	record, _ = m.registry.Get(id)
	summary := summarize(record)

	return &summary, nil
}

// CleanupWorkflows removes records older than maxAge and returns the count.
func (m *Manager) CleanupWorkflows(ctx context.Context, maxAge time.Duration) int {
	removed := m.registry.Cleanup(maxAge)

	if removed > 0 {
		m.publish(ctx, "", events.RegistryCleaned{
			BaseEvent: m.newBaseEvent(events.RegistryCleanedEvent, ""),
			Removed:   removed,
			MaxAge:    maxAge,
		})
	}

	return removed
}

// CountActive returns the number of workflows still pending or running.
func (m *Manager) CountActive() int {
	active := 0

	for _, record := range m.registry.List() {
		if !record.Status.IsTerminal() {
			active++
		}
	}

	return active
}

// HealthCheck reports manager health for the API health endpoint.
func (m *Manager) HealthCheck() (string, bool) {
	return m.registry.HealthCheck()
}

func (m *Manager) trackCancel(id string, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancels[id] = cancel
}

func (m *Manager) untrackCancel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cancels, id)
}

func (m *Manager) publish(ctx context.Context, key string, event eventbus.Event) {
	if m.eventBus == nil {
		return
	}

	if err := m.eventBus.Publish(ctx, key, event); err != nil {
		m.logger.Warn("Failed to publish lifecycle event",
			"event_type", event.GetType(),
			"workflow_id", key,
			"error", err,
		)
	}
}

func (m *Manager) newBaseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

func summarize(record models.WorkflowRecord) StatusSummary {
	return StatusSummary{
		ID:          record.ID,
		Status:      record.Status,
		Type:        record.Type,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		CompletedAt: record.CompletedAt,
		TaskCount:   len(record.Tasks),
	}
}

func notFound(id string) error {
	return fmt.Errorf("workflow %s: %w", id, ErrWorkflowNotFound)
}
