package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academia-api/internal/auth"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/observability"
)

func identityApp(tokens *auth.TokenManager) *fiber.App {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Use(Identity(tokens, zerolog.Nop()))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, _ := c.Locals(LocalUserID).(uint)
		role, _ := c.Locals(LocalUserRole).(string)
		email, _ := c.Locals(LocalUserEmail).(string)
		return c.JSON(fiber.Map{"id": id, "role": role, "email": email})
	})
	return app
}

func TestIdentityAttachesClaims(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "academia-test", time.Hour)
	token, _, err := tokens.Issue(models.User{ID: 7, Email: "ada@example.com", Role: models.RoleFaculty})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := identityApp(tokens).Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	decodeJSON(t, resp, &payload)
	require.Equal(t, float64(7), payload["id"])
	require.Equal(t, "faculty", payload["role"])
	require.Equal(t, "ada@example.com", payload["email"])
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}

func TestIdentityContinuesAnonymously(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "academia-test", time.Hour)
	foreign := auth.NewTokenManager("other-secret", "academia-test", time.Hour)
	forged, _, err := foreign.Issue(models.User{ID: 1, Email: "x@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	for _, header := range []string{"", "Basic abc", "Bearer not-a-token", "Bearer " + forged} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := identityApp(tokens).Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, header)

		var payload map[string]interface{}
		decodeJSON(t, resp, &payload)
		require.Equal(t, float64(0), payload["id"], header)
		require.Equal(t, "", payload["role"], header)
	}
}

func TestCorrelationIDHonoursIncomingHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(GetCorrelationID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "req-123", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDReplacesOversizedHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(observability.CorrelationID(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, strings.Repeat("x", maxCorrelationIDLength+1))
	resp, err := app.Test(req)
	require.NoError(t, err)

	generated := resp.Header.Get(HeaderCorrelationID)
	require.Len(t, generated, 36)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, generated, string(body))
}

func TestRateLimitRejectsBurst(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit("test", 2, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
