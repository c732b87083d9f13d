package models

import "time"

// RunResult is the typed outcome of a full stage run. Each stage payload has
// its own field and the recommendation is a dedicated field rather than an
// entry in a results map, so status queries never need key filtering.
type RunResult struct {
	ProposalID     string         `json:"proposal_id"`
	WorkflowType   WorkflowType   `json:"workflow_type"`
	Compliance     map[string]any `json:"compliance"`
	Evaluation     map[string]any `json:"evaluation"`
	Market         map[string]any `json:"market"`
	Recommendation string         `json:"recommendation"`
	Duration       time.Duration  `json:"duration"`
}

// StagePayloads returns the per-stage outputs keyed by stage name, in the
// fixed stage order. The recommendation is not included.
func (r *RunResult) StagePayloads() map[string]map[string]any {
	return map[string]map[string]any{
		StageCompliance: r.Compliance,
		StageEvaluation: r.Evaluation,
		StageMarket:     r.Market,
	}
}

// StageNames lists the built-in stages in execution order.
func StageNames() []string {
	return []string{StageCompliance, StageEvaluation, StageMarket}
}
