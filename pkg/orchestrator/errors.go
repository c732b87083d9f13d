// Package orchestrator coordinates workflow runs: lifecycle transitions,
// registry bookkeeping and cancellation around the stage runner.
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/vetflow/vetflow/pkg/registry"
)

// Client errors (4xx responses).
var (
	// ErrWorkflowNotFound is returned by query paths when the id has no record.
	// Mutation paths never raise it; a stale background write is a no-op.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrNotCancelable is returned when cancel is requested for a workflow
	// that is not running.
	ErrNotCancelable = errors.New("only running workflows can be canceled")

	// ErrNotCompleted is returned by the result query before the workflow
	// has reached completed.
	ErrNotCompleted = errors.New("workflow has not completed")

	// ErrDuplicateWorkflow is surfaced when registration hits an already
	// tracked id under the reject policy.
	ErrDuplicateWorkflow = registry.ErrDuplicateWorkflow
)

// ExecutionError wraps a stage run failure. The manager finishes its
// registry bookkeeping before returning one; the underlying stage error is
// preserved in the chain.
type ExecutionError struct {
	WorkflowID string
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("workflow %s execution failed: %v", e.WorkflowID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if an error should surface as a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsInvalidState checks if an error is an illegal lifecycle transition (400).
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrNotCancelable) || errors.Is(err, ErrNotCompleted)
}

// IsConflict checks if an error is a duplicate registration (409).
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateWorkflow)
}

// IsExecutionError checks if an error came out of a stage run.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}
