package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vetflow/vetflow/pkg/models"
)

func TestWorkflowStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   models.WorkflowStatus
		terminal bool
	}{
		{models.WorkflowStatusPending, false},
		{models.WorkflowStatusRunning, false},
		{models.WorkflowStatusCompleted, true},
		{models.WorkflowStatusFailed, true},
		{models.WorkflowStatusCanceled, true},
		{models.WorkflowStatusTimeout, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestWorkflowRecord_CloneIsDeep(t *testing.T) {
	t.Parallel()

	completedAt := time.Now().UTC()
	record := models.WorkflowRecord{
		ID:     "prop-1",
		Type:   models.WorkflowTypeStandard,
		Status: models.WorkflowStatusCompleted,
		Tasks: []models.TaskResult{
			{
				TaskID:    "prop-1-compliance",
				StageName: models.StageCompliance,
				Status:    models.TaskStatusCompleted,
				Result:    map[string]any{"status": "compliant"},
			},
		},
		Results: map[string]map[string]any{
			models.StageCompliance: {"status": "compliant"},
		},
		CompletedAt: &completedAt,
	}

	clone := record.Clone()

	clone.Tasks[0].Result["status"] = "mutated"
	clone.Results[models.StageCompliance]["status"] = "mutated"
	*clone.CompletedAt = clone.CompletedAt.Add(time.Hour)

	assert.Equal(t, "compliant", record.Tasks[0].Result["status"])
	assert.Equal(t, "compliant", record.Results[models.StageCompliance]["status"])
	assert.Equal(t, completedAt, *record.CompletedAt)
}

func TestTaskIDs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "prop-1-compliance", models.NewTaskID("prop-1", models.StageCompliance))
	assert.Equal(t, "prop-1-error", models.ErrorTaskID("prop-1"))
}

func TestProposalContext_Accessors(t *testing.T) {
	t.Parallel()

	proposal := &models.ProposalContext{
		ProposalID: "prop-1",
		UserID:     "user-1",
		Data: map[string]any{
			"title":             "Network Upgrade",
			"vendor":            "Acme Corp",
			"category":          "hardware",
			"regulatory_domain": "federal",
			"amount":            125000.0,
			"duration_months":   18.0,
			"expedited":         true,
		},
	}

	assert.Equal(t, "Network Upgrade", proposal.Title())
	assert.Equal(t, "Acme Corp", proposal.Vendor())
	assert.Equal(t, "hardware", proposal.Category())
	assert.Equal(t, "federal", proposal.RegulatoryDomain())
	assert.InDelta(t, 125000.0, proposal.Amount(), 0.001)
	assert.Equal(t, 18, proposal.DurationMonths())
	assert.True(t, proposal.Expedited())
}

func TestProposalContext_MissingFieldsAreZero(t *testing.T) {
	t.Parallel()

	proposal := &models.ProposalContext{Data: map[string]any{}}

	assert.Empty(t, proposal.Title())
	assert.Zero(t, proposal.Amount())
	assert.Zero(t, proposal.DurationMonths())
	assert.False(t, proposal.Expedited())
}

func TestProposalContext_IntegerAmount(t *testing.T) {
	t.Parallel()

	proposal := &models.ProposalContext{Data: map[string]any{"amount": 5000}}

	assert.InDelta(t, 5000.0, proposal.Amount(), 0.001)
}
