package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

// maxRunHistoryLimit caps the page size for the run history listing.
const maxRunHistoryLimit = 200

// RunHistory defines the audit trail reads needed by the handler.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
	RunEvents(ctx context.Context, runID uuid.UUID) ([]domain.RunAttempt, error)
	RunSteps(ctx context.Context, runID uuid.UUID) ([]domain.StepResult, error)
}

// RunsHandler handles run history HTTP requests.
type RunsHandler struct {
	history RunHistory
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(history RunHistory) *RunsHandler {
	return &RunsHandler{history: history}
}

// runDetail is the GET /automation/runs/:run_id payload: the full audit
// trail of one run, events and step results in append order.
type runDetail struct {
	RunID      uuid.UUID           `json:"run_id"`
	Status     domain.RunStatus    `json:"status"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Events     []domain.RunAttempt `json:"events"`
	Steps      []domain.StepResult `json:"steps"`
}

// ListRuns handles GET /api/v1/automation/runs.
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limitParam := c.DefaultQuery("limit", "0")

	limit, parseErr := strconv.Atoi(limitParam)
	if parseErr != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	if limit > maxRunHistoryLimit {
		limit = maxRunHistoryLimit
	}

	runs, err := h.history.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/v1/automation/runs/:run_id.
func (h *RunsHandler) GetRun(c *gin.Context) {
	runID, parseErr := uuid.Parse(c.Param("run_id"))
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	ctx := c.Request.Context()

	events, err := h.history.RunEvents(ctx, runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	if len(events) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	steps, err := h.history.RunSteps(ctx, runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}

	last := events[len(events)-1]
	c.JSON(http.StatusOK, runDetail{
		RunID:      runID,
		Status:     last.Status,
		StartedAt:  events[0].Timestamp,
		FinishedAt: last.Timestamp,
		Events:     events,
		Steps:      steps,
	})
}
