package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetflow/vetflow/pkg/models"
	"github.com/vetflow/vetflow/pkg/orchestrator"
	"github.com/vetflow/vetflow/pkg/registry"
	"github.com/vetflow/vetflow/pkg/runner"
	"github.com/vetflow/vetflow/pkg/stages"
	"github.com/vetflow/vetflow/pkg/web"
)

func validProposalData() map[string]any {
	return map[string]any{
		"title":           "Cloud Migration Services",
		"vendor":          "Acme Corp",
		"amount":          250000.0,
		"duration_months": 12.0,
		"category":        "software",
	}
}

func setupTestApp(t *testing.T) (*fiber.App, *orchestrator.Manager) {
	t.Helper()

	logger := slog.Default()
	reg := registry.NewRegistry(logger)
	stageRunner := runner.NewRunner(stages.Default(logger), logger, nil)
	manager := orchestrator.NewManager(reg, stageRunner, nil, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())
	handlers := web.NewAPIHandlers(manager, validate)

	app := fiber.New()

	w := app.Group("/workflows")
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/run-sync", handlers.RunWorkflowSync)
	w.Get("/", handlers.ListWorkflows)
	w.Get("/:id", handlers.GetWorkflowStatus)
	w.Get("/:id/result", handlers.GetWorkflowResult)
	w.Post("/:id/cancel", handlers.CancelWorkflow)

	app.Post("/cleanup", handlers.CleanupWorkflows)
	app.Get("/health", handlers.HealthCheck)

	return app, manager
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
	}{
		{
			name: "successful creation",
			requestBody: web.CreateWorkflowRequest{
				ProposalID:   "prop-create-1",
				UserID:       "user-1",
				ProposalData: validProposalData(),
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name: "validation error - missing proposal id",
			requestBody: web.CreateWorkflowRequest{
				UserID:       "user-1",
				ProposalData: validProposalData(),
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - missing user id",
			requestBody: web.CreateWorkflowRequest{
				ProposalID:   "prop-create-2",
				ProposalData: validProposalData(),
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - missing proposal data",
			requestBody: web.CreateWorkflowRequest{
				ProposalID: "prop-create-3",
				UserID:     "user-1",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			var (
				body []byte
				err  error
			)

			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusAccepted {
				var accepted web.WorkflowAcceptedResponse

				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(body, &accepted))

				assert.Equal(t, "accepted", accepted.Status)
				assert.NotEmpty(t, accepted.WorkflowID)
			}
		})
	}
}

func TestAPIHandlers_CreateWorkflow_Duplicate(t *testing.T) {
	t.Parallel()

	app, manager := setupTestApp(t)

	_, err := manager.RunWorkflow(context.Background(), "prop-dup", "user-1", validProposalData())
	require.NoError(t, err)

	body, err := json.Marshal(web.CreateWorkflowRequest{
		ProposalID:   "prop-dup",
		UserID:       "user-1",
		ProposalData: validProposalData(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_RunWorkflowSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    web.CreateWorkflowRequest
		expectedStatus int
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name: "successful run returns recommendation",
			requestBody: web.CreateWorkflowRequest{
				ProposalID:   "prop-sync-1",
				UserID:       "user-1",
				ProposalData: validProposalData(),
			},
			expectedStatus: http.StatusOK,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var result web.WorkflowResultResponse
				require.NoError(t, json.Unmarshal(body, &result))

				assert.Equal(t, "prop-sync-1", result.ProposalID)
				assert.NotEmpty(t, result.Recommendation)
				assert.NotEmpty(t, result.Compliance)
				assert.NotEmpty(t, result.Evaluation)
				assert.NotEmpty(t, result.Market)
				assert.GreaterOrEqual(t, result.ProcessingTimeMS, 0.0)
			},
		},
		{
			name: "schema violation returns unprocessable entity",
			requestBody: web.CreateWorkflowRequest{
				ProposalID: "prop-sync-2",
				UserID:     "user-1",
				ProposalData: map[string]any{
					"title": "Missing vendor and amount",
				},
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			body, err := json.Marshal(tt.requestBody)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/workflows/run-sync", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateResult != nil {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				tt.validateResult(t, body)
			}
		})
	}
}

func TestAPIHandlers_GetWorkflowStatus(t *testing.T) {
	t.Parallel()

	app, manager := setupTestApp(t)

	_, err := manager.RunWorkflow(context.Background(), "prop-status", "user-1", validProposalData())
	require.NoError(t, err)

	t.Run("existing workflow", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workflows/prop-status", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var summary orchestrator.StatusSummary

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &summary))

		assert.Equal(t, "prop-status", summary.ID)
		assert.Equal(t, models.WorkflowStatusCompleted, summary.Status)
		assert.Len(t, summary.Results, 3)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workflows/missing", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPIHandlers_ListWorkflows(t *testing.T) {
	t.Parallel()

	app, manager := setupTestApp(t)

	for _, id := range []string{"prop-list-1", "prop-list-2", "prop-list-3"} {
		_, err := manager.RunWorkflow(context.Background(), id, "user-1", validProposalData())
		require.NoError(t, err)
	}

	t.Run("all workflows", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workflows/", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page struct {
			Workflows []orchestrator.StatusSummary `json:"workflows"`
			Count     int                          `json:"count"`
		}

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &page))

		assert.Equal(t, 3, page.Count)
		require.Len(t, page.Workflows, 3)
		assert.Equal(t, "prop-list-1", page.Workflows[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workflows/?limit=2&offset=2", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page struct {
			Workflows []orchestrator.StatusSummary `json:"workflows"`
			Count     int                          `json:"count"`
		}

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &page))

		assert.Equal(t, 3, page.Count)
		require.Len(t, page.Workflows, 1)
		assert.Equal(t, "prop-list-3", page.Workflows[0].ID)
	})

	t.Run("status filter excludes everything", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workflows/?status=failed", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page struct {
			Workflows []orchestrator.StatusSummary `json:"workflows"`
			Count     int                          `json:"count"`
		}

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &page))

		assert.Equal(t, 0, page.Count)
		assert.Empty(t, page.Workflows)
	})
}

func TestAPIHandlers_CancelWorkflow(t *testing.T) {
	t.Parallel()

	app, manager := setupTestApp(t)

	_, err := manager.RunWorkflow(context.Background(), "prop-cancel", "user-1", validProposalData())
	require.NoError(t, err)

	t.Run("completed workflow is not cancelable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/workflows/prop-cancel/cancel", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/workflows/missing/cancel", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPIHandlers_GetWorkflowResult(t *testing.T) {
	t.Parallel()

	app, manager := setupTestApp(t)

	_, err := manager.RunWorkflow(context.Background(), "prop-result", "user-1", validProposalData())
	require.NoError(t, err)

	t.Run("completed workflow", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workflows/prop-result/result", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result web.WorkflowResultResponse

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &result))

		assert.Equal(t, "prop-result", result.ProposalID)
		assert.NotEmpty(t, result.Recommendation)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workflows/missing/result", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPIHandlers_CleanupWorkflows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		query          string
		expectedStatus int
	}{
		{
			name:           "default max age",
			query:          "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "explicit max age",
			query:          "?max_age_hours=1",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid max age",
			query:          "?max_age_hours=zero",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative max age",
			query:          "?max_age_hours=-2",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, manager := setupTestApp(t)

			_, err := manager.RunWorkflow(context.Background(), "prop-clean", "user-1", validProposalData())
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/cleanup"+tt.query, nil)

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var cleanup web.WorkflowCleanupResponse

				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(body, &cleanup))

				assert.Equal(t, 0, cleanup.RemovedCount)
			}
		})
	}
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status          string `json:"status"`
		ActiveWorkflows int    `json:"active_workflows"`
	}

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &health))

	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 0, health.ActiveWorkflows)
}
