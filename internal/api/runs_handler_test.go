package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amirb101/three-sided-sub001/internal/api"
	"github.com/amirb101/three-sided-sub001/internal/domain"
)

type mockRunHistory struct {
	recentFunc func(limit int) ([]domain.RunSummary, error)
	eventsFunc func(runID uuid.UUID) ([]domain.RunAttempt, error)
	stepsFunc  func(runID uuid.UUID) ([]domain.StepResult, error)
}

func (m *mockRunHistory) RecentRuns(_ context.Context, limit int) ([]domain.RunSummary, error) {
	if m.recentFunc != nil {
		return m.recentFunc(limit)
	}
	return nil, nil
}

func (m *mockRunHistory) RunEvents(_ context.Context, runID uuid.UUID) ([]domain.RunAttempt, error) {
	if m.eventsFunc != nil {
		return m.eventsFunc(runID)
	}
	return nil, nil
}

func (m *mockRunHistory) RunSteps(_ context.Context, runID uuid.UUID) ([]domain.StepResult, error) {
	if m.stepsFunc != nil {
		return m.stepsFunc(runID)
	}
	return nil, nil
}

func setupRunsRouter(t *testing.T, handler *api.RunsHandler) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	router := gin.New()
	v1 := router.Group("/api/v1/automation")
	v1.GET("/runs", handler.ListRuns)
	v1.GET("/runs/:run_id", handler.GetRun)

	return router
}

func TestRunsHandler_ListRuns(t *testing.T) {
	now := time.Now().UTC()
	history := &mockRunHistory{
		recentFunc: func(limit int) ([]domain.RunSummary, error) {
			if limit != 10 {
				t.Errorf("limit = %d, want 10", limit)
			}
			return []domain.RunSummary{
				{RunID: uuid.New(), Status: domain.RunStatusSuccess, StartedAt: now.Add(-time.Minute), FinishedAt: now},
				{RunID: uuid.New(), Status: domain.RunStatusFailed, StartedAt: now.Add(-time.Hour), FinishedAt: now.Add(-time.Hour + time.Minute)},
			}, nil
		},
	}
	router := setupRunsRouter(t, api.NewRunsHandler(history))

	w := httptest.NewRecorder()

	req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/automation/runs?limit=10", http.NoBody)
	if reqErr != nil {
		t.Fatalf("failed to create request: %v", reqErr)
	}

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]any
	if decodeErr := json.NewDecoder(w.Body).Decode(&resp); decodeErr != nil {
		t.Fatalf("failed to decode response: %v", decodeErr)
	}

	expectedRuns := 2
	if count, ok := resp["count"].(float64); !ok || int(count) != expectedRuns {
		t.Errorf("count = %v, want %d", resp["count"], expectedRuns)
	}
}

func TestRunsHandler_ListRuns_InvalidLimit(t *testing.T) {
	router := setupRunsRouter(t, api.NewRunsHandler(&mockRunHistory{}))

	w := httptest.NewRecorder()

	req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/automation/runs?limit=abc", http.NoBody)
	if reqErr != nil {
		t.Fatalf("failed to create request: %v", reqErr)
	}

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d for a non-numeric limit", w.Code, http.StatusBadRequest)
	}
}

func TestRunsHandler_ListRuns_ClampsLimit(t *testing.T) {
	history := &mockRunHistory{
		recentFunc: func(limit int) ([]domain.RunSummary, error) {
			if limit != 200 {
				t.Errorf("limit = %d, want the 200 cap", limit)
			}
			return nil, nil
		},
	}
	router := setupRunsRouter(t, api.NewRunsHandler(history))

	w := httptest.NewRecorder()

	req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/automation/runs?limit=9999", http.NoBody)
	if reqErr != nil {
		t.Fatalf("failed to create request: %v", reqErr)
	}

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRunsHandler_GetRun(t *testing.T) {
	runID := uuid.New()
	started := time.Now().UTC().Add(-2 * time.Minute)
	finished := time.Now().UTC()

	history := &mockRunHistory{
		eventsFunc: func(id uuid.UUID) ([]domain.RunAttempt, error) {
			if id != runID {
				t.Errorf("run id = %s, want %s", id, runID)
			}
			return []domain.RunAttempt{
				{ID: 1, RunID: runID, Status: domain.RunStatusStarted, Message: "trigger=manual", Timestamp: started},
				{ID: 2, RunID: runID, Status: domain.RunStatusSuccess, Message: "published", Timestamp: finished},
			}, nil
		},
		stepsFunc: func(uuid.UUID) ([]domain.StepResult, error) {
			return []domain.StepResult{
				{ID: 1, RunID: runID, StepName: domain.StepLoadSettings, Outcome: domain.StepOutcomeSuccess, Timestamp: started},
			}, nil
		},
	}
	router := setupRunsRouter(t, api.NewRunsHandler(history))

	w := httptest.NewRecorder()

	req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/automation/runs/"+runID.String(), http.NoBody)
	if reqErr != nil {
		t.Fatalf("failed to create request: %v", reqErr)
	}

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		RunID  uuid.UUID           `json:"run_id"`
		Status domain.RunStatus    `json:"status"`
		Events []domain.RunAttempt `json:"events"`
		Steps  []domain.StepResult `json:"steps"`
	}
	if decodeErr := json.NewDecoder(w.Body).Decode(&resp); decodeErr != nil {
		t.Fatalf("failed to decode response: %v", decodeErr)
	}

	if resp.RunID != runID {
		t.Errorf("run_id = %s, want %s", resp.RunID, runID)
	}
	if resp.Status != domain.RunStatusSuccess {
		t.Errorf("status = %q, want the last event status %q", resp.Status, domain.RunStatusSuccess)
	}
	if len(resp.Events) != 2 {
		t.Errorf("events = %d, want 2", len(resp.Events))
	}
	if len(resp.Steps) != 1 {
		t.Errorf("steps = %d, want 1", len(resp.Steps))
	}
}

func TestRunsHandler_GetRun_InvalidID(t *testing.T) {
	router := setupRunsRouter(t, api.NewRunsHandler(&mockRunHistory{}))

	w := httptest.NewRecorder()

	req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/automation/runs/not-a-uuid", http.NoBody)
	if reqErr != nil {
		t.Fatalf("failed to create request: %v", reqErr)
	}

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d for a malformed run id", w.Code, http.StatusBadRequest)
	}
}

func TestRunsHandler_GetRun_NotFound(t *testing.T) {
	router := setupRunsRouter(t, api.NewRunsHandler(&mockRunHistory{}))

	w := httptest.NewRecorder()

	req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/automation/runs/"+uuid.NewString(), http.NoBody)
	if reqErr != nil {
		t.Fatalf("failed to create request: %v", reqErr)
	}

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d for an unknown run", w.Code, http.StatusNotFound)
	}
}
