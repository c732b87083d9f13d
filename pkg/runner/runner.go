// Package runner drives the analysis stages for a single proposal and
// synthesizes the final recommendation. The runner is stateless; all
// workflow bookkeeping lives in the registry.
package runner

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vetflow/vetflow/pkg/models"
	"github.com/vetflow/vetflow/pkg/otelhelper"
	"github.com/vetflow/vetflow/pkg/stages"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const highValueThreshold = 5_000_000

var regulatedDomains = map[string]bool{
	"federal":    true,
	"healthcare": true,
	"defense":    true,
	"financial":  true,
}

type Runner struct {
	stages []stages.Stage
	logger *slog.Logger
	tracer trace.Tracer
}

// NewRunner creates a stage runner over the given stage set. A nil tracer
// falls back to the global provider (no-op unless configured).
func NewRunner(stageSet []stages.Stage, logger *slog.Logger, tracer trace.Tracer) *Runner {
	if tracer == nil {
		tracer = otel.Tracer("vetflow/runner")
	}

	return &Runner{
		stages: stageSet,
		logger: logger.With("module", "stage_runner"),
		tracer: tracer,
	}
}

// Classify routes a proposal to a workflow type. Pure and deterministic;
// well-formed input never fails classification.
func (r *Runner) Classify(proposalData map[string]any) models.WorkflowType {
	proposal := models.ProposalContext{Data: proposalData}

	switch {
	case proposal.Expedited():
		return models.WorkflowTypeExpedited
	case proposal.Amount() > highValueThreshold:
		return models.WorkflowTypeHighValue
	case regulatedDomains[strings.ToLower(proposal.RegulatoryDomain())]:
		return models.WorkflowTypeRegulated
	default:
		return models.WorkflowTypeStandard
	}
}

// Process validates the proposal, runs every stage concurrently and returns
// the typed result with a recommendation. A single stage failure fails the
// whole call; no partial result is ever returned.
func (r *Runner) Process(ctx context.Context, proposalID, userID string, proposalData map[string]any) (*models.RunResult, error) {
	start := time.Now()

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "runner.process",
		attribute.String(otelhelper.WorkflowIDKey, proposalID),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer span.End()

	if err := validateProposalData(proposalData); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	proposal := &models.ProposalContext{
		ProposalID: proposalID,
		UserID:     userID,
		Data:       proposalData,
	}

	outputs := make(map[string]map[string]any, len(r.stages))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for _, stage := range r.stages {
		wg.Add(1)

		go func(stage stages.Stage) {
			defer wg.Done()

			stageCtx, stageSpan := otelhelper.StartSpan(ctx, r.tracer, "runner.stage",
				attribute.String(otelhelper.WorkflowIDKey, proposalID),
				attribute.String(otelhelper.StageNameKey, stage.Name()),
			)
			defer stageSpan.End()

			result, err := stage.Execute(stageCtx, proposal)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				otelhelper.SetError(stageSpan, err)

				if firstErr == nil {
					firstErr = stages.NewError(stage.Name(), err)
				}

				return
			}

			outputs[stage.Name()] = result
		}(stage)
	}

	wg.Wait()

	if firstErr != nil {
		r.logger.Error("Stage run failed", "proposal_id", proposalID, "error", firstErr)
		otelhelper.SetError(span, firstErr)

		return nil, firstErr
	}

	result := &models.RunResult{
		ProposalID:     proposalID,
		WorkflowType:   r.Classify(proposalData),
		Compliance:     outputs[models.StageCompliance],
		Evaluation:     outputs[models.StageEvaluation],
		Market:         outputs[models.StageMarket],
		Recommendation: recommend(outputs),
		Duration:       time.Since(start),
	}

	r.logger.Info("Stage run completed",
		"proposal_id", proposalID,
		"workflow_type", result.WorkflowType,
		"duration", result.Duration,
	)

	return result, nil
}
