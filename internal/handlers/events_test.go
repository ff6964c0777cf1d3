package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/repos"
	"github.com/openlms/skills-backend/internal/services"
	"github.com/openlms/skills-backend/internal/testkit"
	"github.com/openlms/skills-backend/internal/types"
)

type handlerEnv struct {
	router  *gin.Engine
	catalog services.CatalogService
	method  *services.CourseCompletionMethod
	points  services.PointsService
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testkit.OpenTestDB(t)
	log := logger.Nop()

	skillRepo := repos.NewSkillRepo(db, log)
	levelRepo := repos.NewSkillLevelRepo(db, log)
	bindingRepo := repos.NewCourseSkillRepo(db, log)
	pointsRepo := repos.NewUserPointsRepo(db, log)
	awardRepo := repos.NewAwardLogRepo(db, log)
	enrolments := repos.NewEnrolmentRepo(db, log)
	completions := repos.NewCourseCompletionRepo(db, log)

	points := services.NewPointsService(db, log, skillRepo, levelRepo, pointsRepo, awardRepo, enrolments, completions)
	method := services.NewCourseCompletionMethod(db, log, skillRepo, levelRepo, bindingRepo, awardRepo, points)
	registry := services.NewRegistry(method)
	catalog := services.NewCatalogService(db, log, registry, skillRepo, levelRepo, bindingRepo, pointsRepo, awardRepo)
	reconciler := services.NewReconcilerService(db, log, registry, enrolments, completions)
	events := services.NewEventService(db, log, registry, reconciler, points, enrolments, completions)

	eventHandler := NewEventHandler(log, events)
	pointsHandler := NewPointsHandler(log, points)

	router := gin.New()
	router.POST("/api/events/course-completed", eventHandler.CourseCompleted)
	router.POST("/api/events/user-deleted", eventHandler.UserDeleted)
	router.GET("/api/users/:id/skills/:skillid/points", pointsHandler.Balance)

	return &handlerEnv{router: router, catalog: catalog, method: method, points: points}
}

func (e *handlerEnv) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCourseCompletedEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	ctx := context.Background()

	skill, err := env.catalog.CreateSkill(ctx, services.SkillInput{Name: "Go", IdentityKey: "go", Enabled: true})
	if err != nil {
		t.Fatalf("create skill: %v", err)
	}
	courseID := uuid.New()
	if _, err := env.method.SaveConfig(ctx, services.SaveBindingInput{
		SkillID:  skill.ID,
		CourseID: courseID,
		Rule:     types.CompletionPoints,
		Points:   40,
		Enabled:  true,
	}); err != nil {
		t.Fatalf("save binding: %v", err)
	}

	userID := uuid.New()
	w := env.post(t, "/api/events/course-completed", gin.H{"user_id": userID, "course_id": courseID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Result services.Result `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Result.State != services.StateApplied || resp.Result.Applied != 1 {
		t.Fatalf("result = %+v", resp.Result)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/users/%s/skills/%s/points", userID, skill.ID), nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("balance status = %d", w.Code)
	}
	var balance struct {
		Points types.UserPoints `json:"points"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance.Points.Points != 40 {
		t.Fatalf("points = %d, want 40", balance.Points.Points)
	}
}

func TestCourseCompletedRejectsMissingIDs(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.post(t, "/api/events/course-completed", gin.H{"user_id": uuid.New()})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUserDeletedEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	ctx := context.Background()

	skill, err := env.catalog.CreateSkill(ctx, services.SkillInput{Name: "Go", IdentityKey: "go", Enabled: true})
	if err != nil {
		t.Fatalf("create skill: %v", err)
	}
	userID := uuid.New()
	if _, err := env.points.AdjustBalance(ctx, nil, userID, skill.ID, 9); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	w := env.post(t, "/api/events/user-deleted", gin.H{"user_id": userID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	summaries, err := env.points.UserSkillSummaries(ctx, userID)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("user data survived deletion")
	}
}
