package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/academia-api/internal/auth"
	"github.com/noah-isme/academia-api/internal/config"
	"github.com/noah-isme/academia-api/internal/database"
	"github.com/noah-isme/academia-api/internal/handler"
	"github.com/noah-isme/academia-api/internal/middleware"
	"github.com/noah-isme/academia-api/internal/repository"
	"github.com/noah-isme/academia-api/internal/router"
	"github.com/noah-isme/academia-api/internal/service"
	"github.com/noah-isme/academia-api/pkg/events"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testServer struct {
	app *fiber.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := auth.NewTokenManager("handler-secret", "academia-test", time.Hour)

	students := repository.NewStudentRepository(db)
	courses := repository.NewCourseRepository(db)
	faculty := repository.NewFacultyRepository(db)

	dashboard := service.NewDashboardService(students, courses, faculty, client, time.Minute, validate, logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), events.NopPublisher{}, dashboard, validate, logger)

	operations := handler.NewOperationHandler(handler.Services{
		Auth:      service.NewAuthService(repository.NewUserRepository(db), tokens, activity, validate, logger),
		Students:  service.NewStudentService(students, courses, activity, validate, logger),
		Courses:   service.NewCourseService(courses, students, activity, validate, logger),
		Faculty:   service.NewFacultyService(faculty, courses, activity, validate, logger),
		Dashboard: dashboard,
		Reports:   service.NewReportService(students, courses, validate, logger),
		Activity:  activity,
	}, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Academia API", AppEnv: "test"}, router.Dependencies{
		OperationHandler:   operations,
		IdentityMiddleware: middleware.Identity(tokens, logger),
	})

	return &testServer{app: app}
}

// call posts one operation and decodes the envelope.
func (s *testServer) call(t *testing.T, token, operation string, variables interface{}) (int, envelope) {
	t.Helper()

	resp := s.post(t, token, map[string]interface{}{"operation": operation, "variables": variables})
	defer resp.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

// mustCall posts an operation that is expected to succeed and decodes its data.
func (s *testServer) mustCall(t *testing.T, token, operation string, variables interface{}, target interface{}) {
	t.Helper()

	status, body := s.call(t, token, operation, variables)
	require.Equal(t, http.StatusOK, status, body.Message)
	require.True(t, body.Success)
	require.Equal(t, operation, body.Message)
	if target != nil {
		require.NoError(t, json.Unmarshal(body.Data, target))
	}
}

func (s *testServer) post(t *testing.T, token string, payload interface{}) *http.Response {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/operations", bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// register creates an account and returns its bearer token.
func (s *testServer) register(t *testing.T, email, role string) string {
	t.Helper()

	var result struct {
		Token string `json:"token"`
	}
	s.mustCall(t, "", "register", map[string]string{
		"email":    email,
		"password": "correct-horse",
		"role":     role,
	}, &result)
	require.NotEmpty(t, result.Token)
	return result.Token
}
