package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidooo/analysis-service/internal/api/dto"
	"github.com/kidooo/analysis-service/internal/child"
)

// ListChildren handles GET /api/children.
func (h *ChildHandler) ListChildren(c *gin.Context) {
	profiles, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list children", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list children"})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// CreateChild handles POST /api/children.
func (h *ChildHandler) CreateChild(c *gin.Context) {
	var req dto.CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	profile, err := h.store.Add(c.Request.Context(), child.Profile{
		ID:          req.ID,
		Name:        req.Name,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		h.logger.Error("Failed to create child", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create child"})
		return
	}

	h.logger.Info("Child profile created", slog.String("child_id", profile.ID))
	c.JSON(http.StatusCreated, profile)
}
