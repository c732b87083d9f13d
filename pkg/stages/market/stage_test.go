package market_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetflow/vetflow/pkg/models"
	"github.com/vetflow/vetflow/pkg/stages/market"
)

func TestStage_Execute(t *testing.T) {
	t.Parallel()

	stage := market.New(slog.Default())

	tests := []struct {
		name               string
		amount             float64
		months             float64
		category           string
		expectedAssessment string
	}{
		{"typical monthly spend", 120000, 12, "IT Services", "within market average"},
		{"cheap contract", 24000, 12, "Consulting", "below market average"},
		{"expensive contract", 1200000, 12, "Construction", "above market average"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := stage.Execute(context.Background(), &models.ProposalContext{
				ProposalID: "prop-1",
				Data: map[string]any{
					"amount":          tt.amount,
					"duration_months": tt.months,
					"category":        tt.category,
				},
			})
			require.NoError(t, err)

			assert.Equal(t, tt.expectedAssessment, result["price_assessment"])
			assert.NotEmpty(t, result["competitive_analysis"])
			assert.NotEmpty(t, result["market_trends"])
		})
	}
}

func TestStage_ExecuteUnknownCategory(t *testing.T) {
	t.Parallel()

	stage := market.New(slog.Default())

	result, err := stage.Execute(context.Background(), &models.ProposalContext{
		ProposalID: "prop-1",
		Data: map[string]any{
			"amount":          100000.0,
			"duration_months": 10.0,
			"category":        "Falconry",
		},
	})
	require.NoError(t, err)

	trends, ok := result["market_trends"].([]string)
	require.True(t, ok)
	require.Len(t, trends, 1)
	assert.Contains(t, trends[0], "No category-specific")
}

func TestStage_ExecuteZeroAmount(t *testing.T) {
	t.Parallel()

	stage := market.New(slog.Default())

	_, err := stage.Execute(context.Background(), &models.ProposalContext{
		ProposalID: "prop-1",
		Data:       map[string]any{},
	})
	require.ErrorContains(t, err, "amount")
}
