package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ticketry/ticket-platform/internal/utils"
)

// RoleAdmin is the only role the platform knows.  Event staff share
// one operator credential; the purchase flow itself is anonymous.
const RoleAdmin = "ADMIN"

// AuthHandler issues access tokens for the admin surface (statistics
// and CSV reports).  The operator password is configured as a bcrypt
// hash; no user table exists.
type AuthHandler struct {
	Secret       string // JWT signing secret
	PasswordHash string // bcrypt hash of the operator password
	AccessTTLMin int    // token lifetime in minutes
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(secret, passwordHash string, accessTTLMin int) *AuthHandler {
	return &AuthHandler{Secret: secret, PasswordHash: passwordHash, AccessTTLMin: accessTTLMin}
}

// Login handles POST /v1/auth/login.  It verifies the operator
// password and returns a signed access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Password == "" || !utils.VerifyPassword(h.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.Secret, "operator", RoleAdmin, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp.Format(time.RFC3339),
	})
}
