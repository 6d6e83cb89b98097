package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/invoicing-portal/internal/auth"
	"github.com/iliyamo/invoicing-portal/internal/middleware"
	"github.com/iliyamo/invoicing-portal/internal/service"
)

// AuthHandler bundles the login, logout and account endpoints.
type AuthHandler struct {
	Gate     *auth.Gate
	Accounts *service.AccountService
}

func NewAuthHandler(g *auth.Gate, a *service.AccountService) *AuthHandler {
	return &AuthHandler{Gate: g, Accounts: a}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type settingsReq struct {
	Configs map[string]any `json:"configs" validate:"required"`
}

// Login admits the caller and returns a bearer token.  A second login
// while a session is live answers 409.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Gate.Login(ctx, auth.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Logout ends the session of the presented token.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Gate.Logout(ctx, middleware.BearerToken(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the authenticated account and its session expiry.
func (h *AuthHandler) Me(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	return c.JSON(http.StatusOK, echo.Map{
		"user":               id.Account,
		"session_expires_at": id.Session.ExpiresAt,
	})
}

func (h *AuthHandler) GetSettings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	settings, err := h.Accounts.Settings(ctx, middleware.IdentityFrom(c).Account.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"settings": settings})
}

// UpdateSettings replaces the configs object of the caller's settings.
func (h *AuthHandler) UpdateSettings(c echo.Context) error {
	var req settingsReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	settings, err := h.Accounts.UpdateConfigs(ctx, middleware.IdentityFrom(c).Account.ID, req.Configs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"settings": settings})
}
