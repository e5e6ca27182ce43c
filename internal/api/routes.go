package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirb101/three-sided-sub001/internal/server"
)

// SetupRoutes configures the automation API. Health endpoints are registered
// by the server builder; /metrics stays public alongside them. Everything
// under /api/v1 requires a valid JWT when a secret is configured.
func SetupRoutes(router *gin.Engine, automation *AutomationHandler, runs *RunsHandler, publishers *PublishersHandler, metricsHandler http.Handler, jwtSecret string) {
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	protected := server.ProtectedGroup(router, "/api/v1", jwtSecret)

	automationGroup := protected.Group("/automation")
	automationGroup.POST("/run", automation.TriggerRun)
	automationGroup.GET("/status", automation.Status)
	automationGroup.GET("/settings", automation.GetSettings)
	automationGroup.PUT("/settings", automation.UpdateSettings)
	automationGroup.GET("/runs", runs.ListRuns)
	automationGroup.GET("/runs/:run_id", runs.GetRun)

	protected.GET("/publishers", publishers.ListPublishers)
}
