package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/services"
	"github.com/openlms/skills-backend/internal/types"
)

type CourseSkillHandler struct {
	log          *logger.Logger
	courseMethod *services.CourseCompletionMethod
	reconciler   services.ReconcilerService
}

func NewCourseSkillHandler(log *logger.Logger, courseMethod *services.CourseCompletionMethod, reconciler services.ReconcilerService) *CourseSkillHandler {
	return &CourseSkillHandler{
		log:          log.With("handler", "CourseSkillHandler"),
		courseMethod: courseMethod,
		reconciler:   reconciler,
	}
}

// Save upserts the course-to-skill binding and immediately reconciles the
// course so existing completions pick up the new rule.
func (h *CourseSkillHandler) Save(c *gin.Context) {
	courseID, ok := pathUUID(c, "courseid")
	if !ok {
		return
	}
	skillID, ok := pathUUID(c, "skillid")
	if !ok {
		return
	}

	var in services.SaveBindingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	in.CourseID = courseID
	in.SkillID = skillID

	binding, err := h.courseMethod.SaveConfig(c.Request.Context(), in)
	if err != nil {
		h.log.Error("Save binding failed", "error", err, "course_id", courseID, "skill_id", skillID)
		RespondServiceError(c, err)
		return
	}

	results, err := h.reconciler.ReconcileCourse(c.Request.Context(), courseID, services.Scope{SkillID: skillID})
	if err != nil {
		h.log.Error("Reconcile after save failed", "error", err, "course_id", courseID, "skill_id", skillID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"binding": binding, "reconciled": results})
}

// Disable flips the binding off and reconciles so previously granted points
// are revoked.
func (h *CourseSkillHandler) Disable(c *gin.Context) {
	courseID, ok := pathUUID(c, "courseid")
	if !ok {
		return
	}
	skillID, ok := pathUUID(c, "skillid")
	if !ok {
		return
	}

	binding, err := h.courseMethod.DisableConfig(c.Request.Context(), skillID, courseID)
	if err != nil {
		h.log.Error("Disable binding failed", "error", err, "course_id", courseID, "skill_id", skillID)
		RespondServiceError(c, err)
		return
	}

	results, err := h.reconciler.ReconcileCourse(c.Request.Context(), courseID, services.Scope{SkillID: skillID, Status: types.StatusDisabled})
	if err != nil {
		h.log.Error("Reconcile after disable failed", "error", err, "course_id", courseID, "skill_id", skillID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"binding": binding, "reconciled": results})
}

// ListForCourse returns the bindings of a course, optionally filtered by
// ?status=.
func (h *CourseSkillHandler) ListForCourse(c *gin.Context) {
	courseID, ok := pathUUID(c, "courseid")
	if !ok {
		return
	}
	bindings, err := h.courseMethod.Bindings(c.Request.Context(), nil, courseID, c.Query("status"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"bindings": bindings})
}
