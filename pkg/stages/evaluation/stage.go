// Package evaluation provides the proposal scoring stage.
package evaluation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vetflow/vetflow/pkg/models"
)

const (
	baseScore     = 70.0
	maxScore      = 100.0
	minDetailRune = 80
)

type Stage struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Stage {
	return &Stage{logger: logger.With("module", "evaluation_stage")}
}

func (s *Stage) Name() string {
	return models.StageEvaluation
}

// Execute scores the proposal and lists its strengths and weaknesses.
// Scoring is deterministic over the proposal attributes.
func (s *Stage) Execute(ctx context.Context, proposal *models.ProposalContext) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if proposal.Title() == "" {
		return nil, errors.New("proposal title is required")
	}

	score := baseScore

	var strengths, weaknesses, recommendations []string

	description, _ := proposal.Data["description"].(string)
	if len(description) >= minDetailRune {
		score += 10
		strengths = append(strengths, "Detailed technical description")
	} else {
		weaknesses = append(weaknesses, "Limited technical detail")
		recommendations = append(recommendations, "Expand the technical description")
	}

	if months := proposal.DurationMonths(); months > 0 && months <= 24 {
		score += 10
		strengths = append(strengths, "Deliverable within two years")
	} else if months > 24 {
		weaknesses = append(weaknesses, "Long delivery horizon")
		recommendations = append(recommendations, "Break the contract into shorter phases")
	}

	if proposal.Category() != "" {
		score += 5
		strengths = append(strengths, "Clear product or service category")
	}

	if proposal.Expedited() {
		score -= 5
		weaknesses = append(weaknesses, "Expedited handling reduces review depth")
	}

	if score > maxScore {
		score = maxScore
	}

	s.logger.Debug("Evaluation finished", "proposal_id", proposal.ProposalID, "score", score)

	if strengths == nil {
		strengths = []string{}
	}

	if weaknesses == nil {
		weaknesses = []string{}
	}

	if recommendations == nil {
		recommendations = []string{}
	}

	return map[string]any{
		"score":           score,
		"strengths":       strengths,
		"weaknesses":      weaknesses,
		"recommendations": recommendations,
	}, nil
}
