package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/services"
)

// EventHandler receives lifecycle webhooks from the LMS.
type EventHandler struct {
	log          *logger.Logger
	eventService services.EventService
}

func NewEventHandler(log *logger.Logger, eventService services.EventService) *EventHandler {
	return &EventHandler{
		log:          log.With("handler", "EventHandler"),
		eventService: eventService,
	}
}

type courseEvent struct {
	UserID      uuid.UUID  `json:"user_id"`
	CourseID    uuid.UUID  `json:"course_id"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (h *EventHandler) CourseCompleted(c *gin.Context) {
	var ev courseEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if ev.UserID == uuid.Nil || ev.CourseID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", nil)
		return
	}

	completedAt := time.Time{}
	if ev.CompletedAt != nil {
		completedAt = *ev.CompletedAt
	}
	result, err := h.eventService.CourseCompleted(c.Request.Context(), ev.UserID, ev.CourseID, completedAt)
	if err != nil {
		h.log.Error("CourseCompleted failed", "error", err, "user_id", ev.UserID, "course_id", ev.CourseID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"result": result})
}

func (h *EventHandler) CourseDeleted(c *gin.Context) {
	var ev courseEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if ev.CourseID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if err := h.eventService.CourseDeleted(c.Request.Context(), ev.CourseID); err != nil {
		h.log.Error("CourseDeleted failed", "error", err, "course_id", ev.CourseID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "removed"})
}

func (h *EventHandler) UserDeleted(c *gin.Context) {
	var ev courseEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if ev.UserID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if err := h.eventService.UserDeleted(c.Request.Context(), ev.UserID); err != nil {
		h.log.Error("UserDeleted failed", "error", err, "user_id", ev.UserID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "purged"})
}

func (h *EventHandler) UserEnrolled(c *gin.Context) {
	var ev courseEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if ev.UserID == uuid.Nil || ev.CourseID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if err := h.eventService.UserEnrolled(c.Request.Context(), ev.UserID, ev.CourseID); err != nil {
		h.log.Error("UserEnrolled failed", "error", err, "user_id", ev.UserID, "course_id", ev.CourseID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "enrolled"})
}

func (h *EventHandler) UserUnenrolled(c *gin.Context) {
	var ev courseEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if ev.UserID == uuid.Nil || ev.CourseID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if err := h.eventService.UserUnenrolled(c.Request.Context(), ev.UserID, ev.CourseID); err != nil {
		h.log.Error("UserUnenrolled failed", "error", err, "user_id", ev.UserID, "course_id", ev.CourseID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "unenrolled"})
}
