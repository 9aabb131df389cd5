package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidooo/analysis-service/internal/api/dto"
	"github.com/kidooo/analysis-service/internal/screening"
)

// SaveScreening handles POST /api/screening.
// Re-submitting for the same child replaces the stored result.
func (h *ScreeningHandler) SaveScreening(c *gin.Context) {
	var req dto.SaveScreeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result := screening.Result{
		ChildID:     req.ChildID,
		Answers:     req.Answers,
		Score:       req.Score,
		RiskLevel:   req.RiskLevel,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.store.Save(c.Request.Context(), result); err != nil {
		h.logger.Error("Failed to save screening", slog.String("child_id", req.ChildID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save screening"})
		return
	}

	h.logger.Info("Screening saved",
		slog.String("child_id", req.ChildID),
		slog.Int("score", req.Score),
		slog.String("risk_level", req.RiskLevel),
	)
	c.JSON(http.StatusCreated, result)
}

// GetScreening handles GET /api/screening/:childId.
func (h *ScreeningHandler) GetScreening(c *gin.Context) {
	childID := c.Param("childId")

	result, err := h.store.Get(c.Request.Context(), childID)
	if err != nil {
		h.logger.Error("Failed to load screening", slog.String("child_id", childID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load screening"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No screening found for child"})
		return
	}
	c.JSON(http.StatusOK, result)
}
