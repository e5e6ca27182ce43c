package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

// PublisherLister defines the publisher roster read needed by the handler.
type PublisherLister interface {
	List(ctx context.Context) ([]domain.PublisherIdentity, error)
}

// PublishersHandler handles publisher roster HTTP requests.
type PublishersHandler struct {
	directory PublisherLister
}

// NewPublishersHandler creates a new publishers handler.
func NewPublishersHandler(directory PublisherLister) *PublishersHandler {
	return &PublishersHandler{directory: directory}
}

// ListPublishers handles GET /api/v1/publishers. It returns the full roster,
// inactive identities included, so operators can see which accounts the
// selection step will skip.
func (h *PublishersHandler) ListPublishers(c *gin.Context) {
	publishers, err := h.directory.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list publishers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"publishers": publishers,
		"count":      len(publishers),
	})
}
