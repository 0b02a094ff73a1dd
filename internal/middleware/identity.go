package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/academia-api/internal/auth"
)

// Locals keys populated by Identity.
const (
	LocalUserID    = "user_id"
	LocalUserRole  = "user_role"
	LocalUserEmail = "user_email"
)

// Identity decodes the bearer token when one is present and attaches the
// caller's id, role and email to the request. Requests with a missing or
// invalid token continue anonymously; operations decide whether that is enough.
func Identity(tokens *auth.TokenManager, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return c.Next()
		}

		raw, err := auth.ExtractBearerToken(authorization)
		if err != nil {
			return c.Next()
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			event := logger.Debug()
			if errors.Is(err, auth.ErrExpiredToken) {
				event = logger.Info()
			}
			event.Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("ignoring unusable bearer token")
			return c.Next()
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserRole, strings.ToLower(strings.TrimSpace(claims.Role)))
		c.Locals(LocalUserEmail, claims.Email)

		return c.Next()
	}
}
