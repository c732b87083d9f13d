package runner_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetflow/vetflow/pkg/models"
	"github.com/vetflow/vetflow/pkg/runner"
	"github.com/vetflow/vetflow/pkg/stages"
)

// failingStage always errors; used to exercise the all-or-nothing contract.
type failingStage struct{ name string }

func (s *failingStage) Name() string { return s.name }

func (s *failingStage) Execute(_ context.Context, _ *models.ProposalContext) (map[string]any, error) {
	return nil, errors.New("collaborator unavailable")
}

func validProposalData() map[string]any {
	return map[string]any{
		"title":             "Data center refresh",
		"description":       strings.Repeat("full scope with staged delivery ", 4),
		"vendor":            "Acme Corp",
		"category":          "IT Services",
		"amount":            480000.0,
		"duration_months":   12,
		"regulatory_domain": "commercial",
	}
}

func TestRunner_Classify(t *testing.T) {
	t.Parallel()

	r := runner.NewRunner(stages.Default(slog.Default()), slog.Default(), nil)

	tests := []struct {
		name     string
		data     map[string]any
		expected models.WorkflowType
	}{
		{"expedited flag wins", map[string]any{"expedited": true, "amount": 9000000.0}, models.WorkflowTypeExpedited},
		{"large amount is high value", map[string]any{"amount": 6000000.0}, models.WorkflowTypeHighValue},
		{"regulated domain", map[string]any{"amount": 1000.0, "regulatory_domain": "Federal"}, models.WorkflowTypeRegulated},
		{"everything else is standard", map[string]any{"amount": 1000.0}, models.WorkflowTypeStandard},
		{"empty data is standard", map[string]any{}, models.WorkflowTypeStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, r.Classify(tt.data))
		})
	}
}

func TestRunner_Process(t *testing.T) {
	t.Parallel()

	r := runner.NewRunner(stages.Default(slog.Default()), slog.Default(), nil)

	result, err := r.Process(context.Background(), "prop-1", "user-1", validProposalData())
	require.NoError(t, err)

	assert.Equal(t, "prop-1", result.ProposalID)
	assert.Equal(t, models.WorkflowTypeStandard, result.WorkflowType)
	assert.NotEmpty(t, result.Compliance)
	assert.NotEmpty(t, result.Evaluation)
	assert.NotEmpty(t, result.Market)
	assert.NotEmpty(t, result.Recommendation)
	assert.Positive(t, result.Duration)
}

func TestRunner_ProcessInvalidData(t *testing.T) {
	t.Parallel()

	r := runner.NewRunner(stages.Default(slog.Default()), slog.Default(), nil)

	_, err := r.Process(context.Background(), "prop-1", "user-1", map[string]any{
		"title": "No vendor or amount",
	})
	require.ErrorIs(t, err, runner.ErrInvalidProposal)
}

func TestRunner_ProcessAllOrNothing(t *testing.T) {
	t.Parallel()

	stageSet := append(stages.Default(slog.Default()), stages.Stage(&failingStage{name: "audit"}))
	r := runner.NewRunner(stageSet, slog.Default(), nil)

	result, err := r.Process(context.Background(), "prop-1", "user-1", validProposalData())
	require.Error(t, err)
	assert.True(t, stages.IsStageError(err))
	assert.Nil(t, result)
}

func TestRunner_ProcessCanceledContext(t *testing.T) {
	t.Parallel()

	r := runner.NewRunner(stages.Default(slog.Default()), slog.Default(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Process(ctx, "prop-1", "user-1", validProposalData())
	require.Error(t, err)
	assert.True(t, stages.IsStageError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommendationShapes(t *testing.T) {
	t.Parallel()

	r := runner.NewRunner(stages.Default(slog.Default()), slog.Default(), nil)

	t.Run("regulated review proposal is held", func(t *testing.T) {
		t.Parallel()

		data := validProposalData()
		data["regulatory_domain"] = "healthcare"
		data["amount"] = 2400000.0

		result, err := r.Process(context.Background(), "prop-held", "user-1", data)
		require.NoError(t, err)
		assert.Contains(t, result.Recommendation, "compliance review")
	})

	t.Run("strong proposal is approved", func(t *testing.T) {
		t.Parallel()

		result, err := r.Process(context.Background(), "prop-ok", "user-1", validProposalData())
		require.NoError(t, err)
		assert.Contains(t, result.Recommendation, "approval")
	})
}
