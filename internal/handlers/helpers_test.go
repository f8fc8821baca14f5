package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/campuslink-app/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e
}

// authedContext builds an echo context carrying the JWT claims the auth
// middleware would have set.
func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID uint, role string) echo.Context {
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID, Role: role})
	}
	return c
}

// httpStatus extracts the status code from a handler error
func httpStatus(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he.Code
}

type nopPusher struct{}

func (nopPusher) EmitToUser(userID uint, event string, payload interface{}) {}
