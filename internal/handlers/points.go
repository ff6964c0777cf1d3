package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/services"
)

type PointsHandler struct {
	log           *logger.Logger
	pointsService services.PointsService
}

func NewPointsHandler(log *logger.Logger, pointsService services.PointsService) *PointsHandler {
	return &PointsHandler{
		log:           log.With("handler", "PointsHandler"),
		pointsService: pointsService,
	}
}

// Summaries returns the user's standing in every skill they hold points in.
func (h *PointsHandler) Summaries(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	summaries, err := h.pointsService.UserSkillSummaries(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Summaries failed", "error", err, "user_id", userID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"skills": summaries})
}

func (h *PointsHandler) Balance(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	skillID, ok := pathUUID(c, "skillid")
	if !ok {
		return
	}
	balance, err := h.pointsService.GetBalance(c.Request.Context(), nil, userID, skillID, false)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"points": balance})
}

func (h *PointsHandler) Awards(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	skillID, ok := pathUUID(c, "skillid")
	if !ok {
		return
	}
	awards, err := h.pointsService.AwardHistory(c.Request.Context(), userID, skillID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"awards": awards})
}
