package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academia-api/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("secret", "academia-test", time.Hour)
	user := models.User{ID: 7, Email: "ada@example.com", Role: models.RoleFaculty}

	token, expiresAt, err := manager.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	require.Equal(t, uint(7), claims.UserID)
	require.Equal(t, "ada@example.com", claims.Email)
	require.Equal(t, models.RoleFaculty, claims.Role)
	require.Equal(t, "7", claims.Subject)
	require.Equal(t, "academia-test", claims.Issuer)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager := NewTokenManager("secret", "academia-test", time.Minute)
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := manager.Issue(models.User{ID: 1, Email: "a@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	manager.now = time.Now
	_, err = manager.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := NewTokenManager("secret", "academia-test", time.Hour)
	verifier := NewTokenManager("other-secret", "academia-test", time.Hour)

	token, _, err := issuer.Issue(models.User{ID: 1, Email: "a@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	require.Equal(t, "abc.def", token)

	token, err = ExtractBearerToken("bearer   xyz ")
	require.NoError(t, err)
	require.Equal(t, "xyz", token)

	_, err = ExtractBearerToken("")
	require.ErrorIs(t, err, ErrMissingBearer)

	_, err = ExtractBearerToken("Basic dXNlcg==")
	require.ErrorIs(t, err, ErrMissingBearer)

	_, err = ExtractBearerToken("Bearer ")
	require.ErrorIs(t, err, ErrMissingBearer)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)
	require.True(t, CheckPassword(hash, "password123"))
	require.False(t, CheckPassword(hash, "password124"))
}
