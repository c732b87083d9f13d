// Package stages defines the analysis stage contract consumed by the stage runner.
package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vetflow/vetflow/pkg/models"
	"github.com/vetflow/vetflow/pkg/stages/compliance"
	"github.com/vetflow/vetflow/pkg/stages/evaluation"
	"github.com/vetflow/vetflow/pkg/stages/market"
)

// Stage is one independent analysis step over a proposal. Implementations
// are stateless and safe for concurrent use.
type Stage interface {
	Name() string
	Execute(ctx context.Context, proposal *models.ProposalContext) (map[string]any, error)
}

// Error wraps a stage collaborator failure with the stage name.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a stage failure.
func NewError(stage string, err error) *Error {
	return &Error{Stage: stage, Err: err}
}

// IsStageError reports whether err originated in a stage collaborator.
func IsStageError(err error) bool {
	var stageErr *Error

	return errors.As(err, &stageErr)
}

// Default returns the three built-in analysis stages in execution order.
func Default(logger *slog.Logger) []Stage {
	return []Stage{
		compliance.New(logger),
		evaluation.New(logger),
		market.New(logger),
	}
}
