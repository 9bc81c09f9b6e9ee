package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/config"
	"github.com/noah-isme/horas-api/internal/handler"
	"github.com/noah-isme/horas-api/internal/middleware"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/repository"
	"github.com/noah-isme/horas-api/internal/router"
	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:router_e2e?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	logger := zerolog.Nop()
	validate := utils.NewValidator(nil)
	cfg := config.Config{AppName: "Horas API", AppEnv: "test", JWTSecret: "secret"}

	lists := repository.NewActivityListRepository(db)
	students := repository.NewStudentRepository(db)
	activities := repository.NewActivityRepository(db)
	audit := service.NewAuditService(repository.NewAuditRepository(db), logger)
	progress := service.NewProgressService(students, lists, activities, nil, time.Minute, nil, logger)
	listService := service.NewActivityListService(lists, progress, audit, validate, logger)
	auth := service.NewAuthService(repository.NewUserRepository(db), validate, cfg.JWTSecret, time.Hour, logger)

	_, err = auth.UpsertUser(context.Background(), service.UserInput{Name: "Prof. Marina", Email: "marina@example.com", Role: "coordinator", Password: "s3nh4forte"})
	require.NoError(t, err)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(auth, logger),
		ActivityListHandler: handler.NewActivityListHandler(listService, logger),
		StudentHandler:      handler.NewStudentHandler(service.NewStudentService(students, lists, progress, audit, validate, logger), logger),
		ActivityHandler:     handler.NewActivityHandler(service.NewActivityService(activities, students, progress, audit, validate, logger), logger),
		ProgressHandler:     handler.NewProgressHandler(progress, logger),
		ReportHandler:       handler.NewReportHandler(service.NewReportService(lists, students, activities, logger), logger),
		DashboardHandler:    handler.NewDashboardHandler(service.NewDashboardService(listService, students, activities, nil, time.Minute, logger), logger),
		AuditHandler:        handler.NewAuditHandler(audit, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var envelope apiEnvelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &envelope))
	}
	return resp.StatusCode, envelope
}

func TestRecordStoreFlow(t *testing.T) {
	app := newTestApp(t)

	status, _ := call(t, app, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/lists", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, body := call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "marina@example.com", "password": "s3nh4forte"})
	require.Equal(t, fiber.StatusOK, status)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &login))
	token := login.Token

	status, body = call(t, app, http.MethodPost, "/api/v1/lists", token, map[string]interface{}{
		"title": "Engenharia Civil 2024.1", "total_hours_required": 150, "max_hours_per_category": 50,
	})
	require.Equal(t, fiber.StatusCreated, status)
	var list struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &list))

	status, body = call(t, app, http.MethodPost, "/api/v1/students", token, map[string]interface{}{
		"name": "Ana Paula Costa", "cpf": "123.456.789-01", "course": "Engenharia Civil", "class_name": "2024.1", "list_id": list.ID,
	})
	require.Equal(t, fiber.StatusCreated, status)
	var student struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &student))

	activitiesPath := fmt.Sprintf("/api/v1/students/%d/activities", student.ID)
	status, _ = call(t, app, http.MethodPost, activitiesPath, token, map[string]interface{}{
		"category": "events", "hours": 70, "occurred_on": "2024-03-01",
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, body = call(t, app, http.MethodPost, activitiesPath, token, map[string]interface{}{
		"category": "events", "hours": 1, "occurred_on": time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.False(t, body.Success)

	status, body = call(t, app, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/progress", student.ID), token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var progress struct {
		ValidTotalHours  float64 `json:"valid_total_hours"`
		CompletionStatus string  `json:"completion_status"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &progress))
	require.Equal(t, 50.0, progress.ValidTotalHours)
	require.Equal(t, "in progress", progress.CompletionStatus)

	status, _ = call(t, app, http.MethodGet, fmt.Sprintf("/api/v1/lists/%d/report", list.ID), token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/lists/%d", list.ID), token, nil)
	require.Equal(t, fiber.StatusConflict, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/audit", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, fiber.StatusOK, status)
}
