// Package api provides HTTP handlers for the card automation service.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amirb101/three-sided-sub001/internal/domain"
	"github.com/amirb101/three-sided-sub001/internal/pipeline"
	"github.com/amirb101/three-sided-sub001/internal/schedule"
)

// Limits applied to operator-supplied settings values.
const (
	minIntervalMinutes = 1
	maxIntervalMinutes = 24 * 60
	maxRetryLimit      = 10
)

// PipelineRunner executes one automation run synchronously.
type PipelineRunner interface {
	Run(ctx context.Context, trigger pipeline.Trigger) pipeline.RunResult
}

// SettingsStore covers the settings reads and the operator upsert needed by
// the handler.
type SettingsStore interface {
	Get(ctx context.Context) (domain.Settings, error)
	Upsert(ctx context.Context, update domain.SettingsUpdate) (domain.Settings, error)
}

// AutomationHandler handles the automation control HTTP requests.
type AutomationHandler struct {
	runner   PipelineRunner
	settings SettingsStore
}

// NewAutomationHandler creates a new automation handler.
func NewAutomationHandler(runner PipelineRunner, settings SettingsStore) *AutomationHandler {
	return &AutomationHandler{runner: runner, settings: settings}
}

// gatePreview reports what the scheduling gate would decide right now.
type gatePreview struct {
	ShouldRun      bool   `json:"should_run"`
	Reason         string `json:"reason"`
	NextEligibleIn string `json:"next_eligible_in,omitempty"`
}

// statusResponse is the GET /automation/status payload.
type statusResponse struct {
	Settings domain.Settings `json:"settings"`
	Gate     gatePreview     `json:"gate"`
}

// TriggerRun handles POST /api/v1/automation/run. The run executes
// synchronously and bypasses the scheduling gate; the response carries the
// full run outcome with a status code mapped from the failure class.
func (h *AutomationHandler) TriggerRun(c *gin.Context) {
	result := h.runner.Run(c.Request.Context(), pipeline.TriggerManual)

	if result.Err != nil && errors.Is(result.Err, domain.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrRunInProgress.Error()})
		return
	}

	c.JSON(statusForResult(result), result)
}

// statusForResult maps a run outcome to an HTTP status. Configuration
// failures need operator action before a retry can help, so they map to
// conflict rather than a gateway error.
func statusForResult(result pipeline.RunResult) int {
	if result.Succeeded() {
		return http.StatusOK
	}

	switch result.Kind {
	case domain.FailureConfiguration:
		return http.StatusConflict
	case domain.FailureValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// Status handles GET /api/v1/automation/status. It returns the settings
// snapshot plus what the gate would decide if the daemon ticked right now.
func (h *AutomationHandler) Status(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSettings) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	decision := schedule.Decide(settings, time.Now().UTC())

	preview := gatePreview{
		ShouldRun: decision.ShouldRun,
		Reason:    decision.Reason,
	}
	if decision.Wait > 0 {
		preview.NextEligibleIn = decision.Wait.Round(time.Second).String()
	}

	c.JSON(http.StatusOK, statusResponse{Settings: settings, Gate: preview})
}

// GetSettings handles GET /api/v1/automation/settings.
func (h *AutomationHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSettings) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/v1/automation/settings. Omitted fields are
// left unchanged; the write creates the settings row if it does not exist yet.
func (h *AutomationHandler) UpdateSettings(c *gin.Context) {
	var update domain.SettingsUpdate
	if bindErr := c.ShouldBindJSON(&update); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "details": bindErr.Error()})
		return
	}

	if validateErr := validateUpdate(update); validateErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validateErr.Error()})
		return
	}

	settings, err := h.settings.Upsert(c.Request.Context(), update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func validateUpdate(update domain.SettingsUpdate) error {
	if update.IntervalMinutes != nil {
		if *update.IntervalMinutes < minIntervalMinutes || *update.IntervalMinutes > maxIntervalMinutes {
			return errors.New("interval_minutes must be between 1 and 1440")
		}
	}

	if update.MaxRetries != nil {
		if *update.MaxRetries < 0 || *update.MaxRetries > maxRetryLimit {
			return errors.New("max_retries must be between 0 and 10")
		}
	}

	return nil
}
