package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, userID uint, expiresAt time.Time) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		Role:   models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runMiddleware(authHeader string) (uint, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seenUserID uint
	handler := JWTAuthMiddleware(testSecret)(func(c echo.Context) error {
		claims := c.Get("user").(*models.JwtCustomClaims)
		seenUserID = claims.UserID
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return seenUserID, err
}

func TestJWTAuthValidToken(t *testing.T) {
	token := signToken(t, testSecret, 42, time.Now().Add(time.Hour))
	userID, err := runMiddleware("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	_, err := runMiddleware("")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestJWTAuthMalformedHeader(t *testing.T) {
	_, err := runMiddleware("Token abc")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", 42, time.Now().Add(time.Hour))
	_, err := runMiddleware("Bearer " + token)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	token := signToken(t, testSecret, 42, time.Now().Add(-time.Hour))
	_, err := runMiddleware("Bearer " + token)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
