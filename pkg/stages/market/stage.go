// Package market provides the market analysis stage.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vetflow/vetflow/pkg/models"
)

// Monthly spend bands used for the price assessment. Rates are rough
// category-independent market medians; the assessment only needs to place
// the proposal in a band, not price it.
const (
	belowMarketMonthly = 5_000
	aboveMarketMonthly = 50_000
)

var categoryTrends = map[string][]string{
	"it services":  {"Cloud adoption increasing", "Shift toward managed services"},
	"construction": {"Material costs rising", "Prefabrication gaining share"},
	"consulting":   {"Remote delivery is standard", "Outcome-based pricing growing"},
	"logistics":    {"Fuel volatility pressures margins", "Route automation expanding"},
}

type Stage struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Stage {
	return &Stage{logger: logger.With("module", "market_stage")}
}

func (s *Stage) Name() string {
	return models.StageMarket
}

// Execute places the proposal against current market conditions.
func (s *Stage) Execute(ctx context.Context, proposal *models.ProposalContext) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if proposal.Amount() <= 0 {
		return nil, errors.New("proposal amount must be positive")
	}

	months := proposal.DurationMonths()
	if months <= 0 {
		months = 1
	}

	monthly := proposal.Amount() / float64(months)

	assessment := "within market average"

	var recommendations []string

	switch {
	case monthly < belowMarketMonthly:
		assessment = "below market average"
		recommendations = append(recommendations, "Verify the vendor can deliver at the quoted price")
	case monthly > aboveMarketMonthly:
		assessment = "above market average"
		recommendations = append(recommendations, "Negotiate pricing or request itemized costs")
	}

	trends, ok := categoryTrends[strings.ToLower(proposal.Category())]
	if !ok {
		trends = []string{"No category-specific trend data available"}
	}

	analysis := fmt.Sprintf("Monthly spend of %.0f is %s for the %s category",
		monthly, assessment, proposal.Category())

	s.logger.Debug("Market analysis finished",
		"proposal_id", proposal.ProposalID,
		"monthly_spend", monthly,
		"assessment", assessment,
	)

	if recommendations == nil {
		recommendations = []string{}
	}

	return map[string]any{
		"competitive_analysis": analysis,
		"price_assessment":     assessment,
		"market_trends":        trends,
		"recommendations":      recommendations,
	}, nil
}
