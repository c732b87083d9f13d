// Package events defines event types for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/vetflow/vetflow/pkg/models"
)

type EventType string

// Topic carries every workflow lifecycle event.
const Topic = "vetflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowRegisteredEvent EventType = "workflow.registered"
	WorkflowStartedEvent    EventType = "workflow.started"
	WorkflowCompletedEvent  EventType = "workflow.completed"
	WorkflowFailedEvent     EventType = "workflow.failed"
	WorkflowCanceledEvent   EventType = "workflow.canceled"
	RegistryCleanedEvent    EventType = "registry.cleaned"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id,omitempty"`
}

type WorkflowRegistered struct {
	BaseEvent

	WorkflowType models.WorkflowType `json:"workflow_type"`
	UserID       string              `json:"user_id,omitempty"`
}

func (e WorkflowRegistered) GetType() EventType {
	return WorkflowRegisteredEvent
}

type WorkflowStarted struct {
	BaseEvent

	WorkflowType models.WorkflowType `json:"workflow_type"`
}

func (e WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

type WorkflowCompleted struct {
	BaseEvent

	WorkflowType   models.WorkflowType `json:"workflow_type"`
	Recommendation string              `json:"recommendation"`
	Duration       time.Duration       `json:"duration"`
}

func (e WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type WorkflowFailed struct {
	BaseEvent

	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

type WorkflowCanceled struct {
	BaseEvent
}

func (e WorkflowCanceled) GetType() EventType {
	return WorkflowCanceledEvent
}

type RegistryCleaned struct {
	BaseEvent

	Removed int           `json:"removed"`
	MaxAge  time.Duration `json:"max_age"`
}

func (e RegistryCleaned) GetType() EventType {
	return RegistryCleanedEvent
}
