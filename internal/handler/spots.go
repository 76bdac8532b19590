package handler

import (
	"context"
	"net/http"

	"amalajeun/internal/model"
	"amalajeun/internal/service"

	"github.com/gin-gonic/gin"
)

// SpotStore is the storage surface the spot endpoints sit on.
type SpotStore interface {
	InsertSpot(ctx context.Context, req *model.CreateSpotRequest) (*model.Spot, error)
	ListSpots(ctx context.Context) ([]model.Spot, error)
	GetSpotByID(ctx context.Context, id string) (*model.Spot, error)
}

// SpotsHandler handles spot storage and query HTTP requests
type SpotsHandler struct {
	store        SpotStore
	queryService *service.QueryService
}

// NewSpotsHandler creates a new spots handler
func NewSpotsHandler(store SpotStore, queryService *service.QueryService) *SpotsHandler {
	return &SpotsHandler{
		store:        store,
		queryService: queryService,
	}
}

// Create handles POST /api/v1/spots
func (h *SpotsHandler) Create(c *gin.Context) {
	var req model.CreateSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// The token subject, not the body, decides who the spot belongs to.
	if sub, ok := c.Get("user_id"); ok {
		if s, ok := sub.(string); ok && s != "" {
			req.UserID = s
		}
	}

	spot, err := h.store.InsertSpot(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create spot: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "spot": spot})
}

// List handles GET /api/v1/spots
func (h *SpotsHandler) List(c *gin.Context) {
	spots, err := h.store.ListSpots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list spots: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"spots": spots, "total": len(spots)})
}

// Get handles GET /api/v1/spots/:id
func (h *SpotsHandler) Get(c *gin.Context) {
	spot, err := h.store.GetSpotByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get spot: " + err.Error()})
		return
	}
	if spot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spot not found"})
		return
	}

	c.JSON(http.StatusOK, spot)
}

// Query handles POST /api/v1/spots/query
func (h *SpotsHandler) Query(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.queryService.Query(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Query failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}
