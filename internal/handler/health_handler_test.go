package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academia-api/internal/config"
	"github.com/noah-isme/academia-api/internal/handler"
)

func TestHealthCheckReportsDependencies(t *testing.T) {
	cfg := config.Config{AppName: "Academia API", AppEnv: "test"}

	cases := []struct {
		name    string
		checks  map[string]handler.Pinger
		status  int
		overall string
	}{
		{
			name:    "no dependencies",
			status:  http.StatusOK,
			overall: "ok",
		},
		{
			name: "all healthy",
			checks: map[string]handler.Pinger{
				"database": func(context.Context) error { return nil },
			},
			status:  http.StatusOK,
			overall: "ok",
		},
		{
			name: "redis down",
			checks: map[string]handler.Pinger{
				"database": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
			status:  http.StatusServiceUnavailable,
			overall: "degraded",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", handler.HealthCheck(cfg, tc.checks))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)

			var body struct {
				Success bool                   `json:"success"`
				Data    handler.HealthResponse `json:"data"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tc.overall, body.Data.Status)
			require.Equal(t, "Academia API", body.Data.Service)
			require.Equal(t, tc.status == http.StatusOK, body.Success)
			if tc.checks["redis"] != nil {
				require.Equal(t, "unavailable", body.Data.Dependencies["redis"])
				require.Equal(t, "ok", body.Data.Dependencies["database"])
			}
		})
	}
}
