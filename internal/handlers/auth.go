package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinevisor/cinevisor-api/internal/events"
	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
	"github.com/cinevisor/cinevisor-api/internal/models"
	"github.com/cinevisor/cinevisor-api/internal/service"
)

type AuthHandler struct {
	Auth     *service.AuthService
	Producer events.Publisher
}

func publicProfile(u *models.User) echo.Map {
	return echo.Map{
		"id":       u.ID,
		"email":    u.Email,
		"username": u.Username,
		"role":     u.Role,
	}
}

func (h *AuthHandler) publish(c echo.Context, topic, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and username are required")
	}

	user, err := h.Auth.Register(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, events.TopicUserEvents, user.ID, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return respondMessageData(c, http.StatusOK, "Registration successful", echo.Map{
		"user": publicProfile(user),
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, events.TopicUserEvents, result.User.ID, map[string]any{
		"type":     "user_logged_in",
		"user_id":  result.User.ID,
		"username": result.User.Username,
	})

	return respondData(c, http.StatusOK, echo.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user": echo.Map{
			"id":         result.User.ID,
			"email":      result.User.Email,
			"username":   result.User.Username,
			"role":       result.User.Role,
			"avatar_url": result.User.AvatarURL,
			"bio":        result.User.Bio,
		},
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	accessToken, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return httpError(err)
	}
	return respondData(c, http.StatusOK, echo.Map{"access_token": accessToken})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	// A missing or malformed body still logs out; the operation is
	// best-effort hygiene, not a guarantee.
	_ = c.Bind(&req)

	if err := h.Auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return httpError(err)
	}
	return respondMessage(c, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) Me(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return respondData(c, http.StatusOK, echo.Map{
		"id":         user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"role":       user.Role,
		"avatar_url": user.AvatarURL,
		"bio":        user.Bio,
		"created_at": user.CreatedAt,
	})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.Auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}
	// Identical answer whether or not the email exists.
	return respondMessage(c, http.StatusOK, "If the email exists, a reset link has been sent")
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.Auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return httpError(err)
	}
	return respondMessage(c, http.StatusOK, "Password reset successful")
}
