package runner

import "github.com/vetflow/vetflow/pkg/models"

const approvalScore = 85.0
const oversightScore = 70.0

// recommend derives the final recommendation from the stage outputs. It is
// total over any output combination so a run that reached this point always
// carries a non-empty recommendation.
func recommend(outputs map[string]map[string]any) string {
	complianceStatus, _ := outputs[models.StageCompliance]["status"].(string)
	score, _ := outputs[models.StageEvaluation]["score"].(float64)
	priceAssessment, _ := outputs[models.StageMarket]["price_assessment"].(string)

	switch complianceStatus {
	case "non_compliant":
		return "Reject: unresolved regulatory issues"
	case "review_required":
		return "Hold for compliance review before award"
	}

	switch {
	case score >= approvalScore && priceAssessment == "above market average":
		return "Recommend approval after price negotiation"
	case score >= approvalScore:
		return "Recommend approval"
	case score >= oversightScore:
		return "Recommend approval with standard oversight"
	default:
		return "Recommend rejection based on evaluation score"
	}
}
