package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amirb101/three-sided-sub001/internal/api"
	"github.com/amirb101/three-sided-sub001/internal/domain"
)

type mockDirectory struct {
	listFunc func() ([]domain.PublisherIdentity, error)
}

func (m *mockDirectory) List(_ context.Context) ([]domain.PublisherIdentity, error) {
	if m.listFunc != nil {
		return m.listFunc()
	}
	return nil, nil
}

func setupPublishersRouter(t *testing.T, handler *api.PublishersHandler) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/api/v1/publishers", handler.ListPublishers)

	return router
}

func TestPublishersHandler_ListPublishers(t *testing.T) {
	directory := &mockDirectory{
		listFunc: func() ([]domain.PublisherIdentity, error) {
			return []domain.PublisherIdentity{
				{ID: uuid.New(), DisplayName: "eulers-ghost", IsActive: true, PostCount: 41},
				{ID: uuid.New(), DisplayName: "gauss-prime", IsActive: false, PostCount: 17},
			}, nil
		},
	}
	router := setupPublishersRouter(t, api.NewPublishersHandler(directory))

	w := httptest.NewRecorder()

	req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/publishers", http.NoBody)
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

	expectedPublishers := 2
	if count, ok := resp["count"].(float64); !ok || int(count) != expectedPublishers {
		t.Errorf("count = %v, want %d", resp["count"], expectedPublishers)
	}
}

func TestPublishersHandler_ListPublishers_Error(t *testing.T) {
	directory := &mockDirectory{
		listFunc: func() ([]domain.PublisherIdentity, error) {
			return nil, errors.New("connection refused")
		},
	}
	router := setupPublishersRouter(t, api.NewPublishersHandler(directory))

	w := httptest.NewRecorder()

	req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/publishers", http.NoBody)
	if reqErr != nil {
		t.Fatalf("failed to create request: %v", reqErr)
	}

	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
