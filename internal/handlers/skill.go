package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlms/skills-backend/internal/apierr"
	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/services"
)

type SkillHandler struct {
	log            *logger.Logger
	catalogService services.CatalogService
	pointsService  services.PointsService
}

func NewSkillHandler(log *logger.Logger, catalogService services.CatalogService, pointsService services.PointsService) *SkillHandler {
	return &SkillHandler{
		log:            log.With("handler", "SkillHandler"),
		catalogService: catalogService,
		pointsService:  pointsService,
	}
}

func (h *SkillHandler) Create(c *gin.Context) {
	var in services.SkillInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	skill, err := h.catalogService.CreateSkill(c.Request.Context(), in)
	if err != nil {
		h.log.Error("Create skill failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"skill": skill})
}

func (h *SkillHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in services.SkillInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	skill, err := h.catalogService.UpdateSkill(c.Request.Context(), id, in)
	if err != nil {
		h.log.Error("Update skill failed", "error", err, "skill_id", id)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"skill": skill})
}

func (h *SkillHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	skill, err := h.catalogService.GetSkill(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"skill": skill})
}

// List returns the catalog; ?archived=true|false filters on the archive
// flag and ?category= keeps only skills applying to that category.
func (h *SkillHandler) List(c *gin.Context) {
	var archived *bool
	switch c.Query("archived") {
	case "true":
		v := true
		archived = &v
	case "false":
		v := false
		archived = &v
	}
	skills, err := h.catalogService.ListSkills(c.Request.Context(), archived, c.Query("category"))
	if err != nil {
		h.log.Error("List skills failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"skills": skills})
}

func (h *SkillHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.catalogService.UpdateStatus(c.Request.Context(), id, body.Enabled); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "updated"})
}

func (h *SkillHandler) Archive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.ArchiveSkill(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "archived"})
}

func (h *SkillHandler) Activate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.ActivateSkill(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "active"})
}

func (h *SkillHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteSkill(c.Request.Context(), id); err != nil {
		h.log.Error("Delete skill failed", "error", err, "skill_id", id)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

func (h *SkillHandler) Proficient(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	rows, err := h.pointsService.ProficientUsers(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"users": rows})
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondServiceError(c, apierr.New(http.StatusBadRequest, "invalid_id", err))
		return uuid.Nil, false
	}
	return id, true
}
