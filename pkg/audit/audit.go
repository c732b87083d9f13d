// Package audit subscribes to workflow lifecycle events and writes them to
// the structured log, giving operators a chronological account of every run.
package audit

import (
	"context"
	"log/slog"

	"github.com/vetflow/vetflow/pkg/eventbus"
	"github.com/vetflow/vetflow/pkg/events"
)

type Logger struct {
	eventBus eventbus.EventBus
	logger   *slog.Logger
}

func NewLogger(eventBus eventbus.EventBus, logger *slog.Logger) *Logger {
	return &Logger{
		eventBus: eventBus,
		logger:   logger.With("module", "audit"),
	}
}

// Start registers handlers for every lifecycle event type and begins
// consuming. It returns once the subscription is established.
func (a *Logger) Start(ctx context.Context) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.WorkflowRegisteredEvent: a.onRegistered,
		events.WorkflowStartedEvent:    a.onStarted,
		events.WorkflowCompletedEvent:  a.onCompleted,
		events.WorkflowFailedEvent:     a.onFailed,
		events.WorkflowCanceledEvent:   a.onCanceled,
		events.RegistryCleanedEvent:    a.onCleaned,
	}

	for eventType, handler := range handlers {
		if err := a.eventBus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return a.eventBus.Subscribe(ctx)
}

func (a *Logger) onRegistered(_ context.Context, event any) error {
	if e, ok := event.(*events.WorkflowRegistered); ok {
		a.logger.Info("Workflow registered",
			"workflow_id", e.WorkflowID,
			"workflow_type", e.WorkflowType,
			"user_id", e.UserID,
		)
	}

	return nil
}

func (a *Logger) onStarted(_ context.Context, event any) error {
	if e, ok := event.(*events.WorkflowStarted); ok {
		a.logger.Info("Workflow started", "workflow_id", e.WorkflowID, "workflow_type", e.WorkflowType)
	}

	return nil
}

func (a *Logger) onCompleted(_ context.Context, event any) error {
	if e, ok := event.(*events.WorkflowCompleted); ok {
		a.logger.Info("Workflow completed",
			"workflow_id", e.WorkflowID,
			"recommendation", e.Recommendation,
			"duration", e.Duration,
		)
	}

	return nil
}

func (a *Logger) onFailed(_ context.Context, event any) error {
	if e, ok := event.(*events.WorkflowFailed); ok {
		a.logger.Error("Workflow failed", "workflow_id", e.WorkflowID, "error", e.Error)
	}

	return nil
}

func (a *Logger) onCanceled(_ context.Context, event any) error {
	if e, ok := event.(*events.WorkflowCanceled); ok {
		a.logger.Warn("Workflow canceled", "workflow_id", e.WorkflowID)
	}

	return nil
}

func (a *Logger) onCleaned(_ context.Context, event any) error {
	if e, ok := event.(*events.RegistryCleaned); ok {
		a.logger.Info("Registry cleaned", "removed", e.Removed, "max_age", e.MaxAge)
	}

	return nil
}
