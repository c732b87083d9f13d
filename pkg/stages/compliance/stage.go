// Package compliance provides the regulatory screening stage.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vetflow/vetflow/pkg/models"
)

// Review thresholds. Amounts above the review threshold in a regulated
// domain need senior procurement sign-off.
const (
	reviewAmountThreshold = 1_000_000
	maxDurationMonths     = 60
)

var regulatedDomains = map[string]bool{
	"federal":    true,
	"healthcare": true,
	"defense":    true,
	"financial":  true,
}

type Stage struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Stage {
	return &Stage{logger: logger.With("module", "compliance_stage")}
}

func (s *Stage) Name() string {
	return models.StageCompliance
}

// Execute screens the proposal against procurement rules and returns a
// compliance verdict with any regulatory issues found.
func (s *Stage) Execute(ctx context.Context, proposal *models.ProposalContext) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if proposal.Amount() <= 0 {
		return nil, errors.New("proposal amount must be positive")
	}

	if proposal.Vendor() == "" {
		return nil, errors.New("proposal vendor is required")
	}

	var issues []string

	domain := strings.ToLower(proposal.RegulatoryDomain())
	if domain == "" {
		issues = append(issues, "regulatory domain not declared")
	}

	if regulatedDomains[domain] && proposal.Amount() > reviewAmountThreshold {
		issues = append(issues, fmt.Sprintf("amounts above %d in the %s domain require senior procurement review", reviewAmountThreshold, domain))
	}

	if proposal.DurationMonths() > maxDurationMonths {
		issues = append(issues, fmt.Sprintf("contract duration exceeds the %d month ceiling", maxDurationMonths))
	}

	status := "compliant"
	details := "No compliance issues found"

	switch {
	case len(issues) > 1:
		status = "non_compliant"
		details = "Multiple regulatory issues must be resolved before award"
	case len(issues) == 1:
		status = "review_required"
		details = "Proposal needs a compliance review before award"
	}

	s.logger.Debug("Compliance screening finished",
		"proposal_id", proposal.ProposalID,
		"status", status,
		"issues", len(issues),
	)

	if issues == nil {
		issues = []string{}
	}

	return map[string]any{
		"status":            status,
		"details":           details,
		"regulatory_issues": issues,
	}, nil
}
