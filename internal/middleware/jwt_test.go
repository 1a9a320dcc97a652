package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketry/ticket-platform/internal/utils"
)

func protectedEcho(secret string, roles ...string) *echo.Echo {
	e := echo.New()
	mws := []echo.MiddlewareFunc{JWTAuth(secret)}
	if len(roles) > 0 {
		mws = append(mws, RequireRole(roles...))
	}
	e.GET("/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"subject": c.Get("subject")})
	}, mws...)
	return e
}

func get(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := protectedEcho("secret")

	tok, err := utils.NewAccessToken("secret", "admin", "ADMIN", 5)
	require.NoError(t, err)

	rec := get(e, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"admin"`)

	assert.Equal(t, http.StatusUnauthorized, get(e, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "Bearer garbage").Code)

	other, err := utils.NewAccessToken("other-secret", "admin", "ADMIN", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(e, "Bearer "+other.Token).Code)
}

func TestRequireRole(t *testing.T) {
	e := protectedEcho("secret", "ADMIN")

	admin, err := utils.NewAccessToken("secret", "root", "ADMIN", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(e, "Bearer "+admin.Token).Code)

	guest, err := utils.NewAccessToken("secret", "someone", "GUEST", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(e, "Bearer "+guest.Token).Code)
}
