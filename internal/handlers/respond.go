package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinevisor/cinevisor-api/internal/repo"
	"github.com/cinevisor/cinevisor-api/internal/service"
	"github.com/cinevisor/cinevisor-api/internal/tokens"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondData(c echo.Context, code int, data any) error {
	return c.JSON(code, Response{Success: true, Data: data})
}

func respondMessage(c echo.Context, code int, msg string) error {
	return c.JSON(code, Response{Success: true, Message: msg})
}

func respondMessageData(c echo.Context, code int, msg string, data any) error {
	return c.JSON(code, Response{Success: true, Message: msg, Data: data})
}

// httpError maps domain sentinel errors onto status codes: validation and
// conflicts 400, authentication 401, authorization 403, not found 404.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, repo.ErrEmailTaken),
		errors.Is(err, repo.ErrUsernameTaken),
		errors.Is(err, repo.ErrResetTokenInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrWrongTokenType),
		errors.Is(err, service.ErrTokenRevoked),
		errors.Is(err, tokens.ErrInvalidToken),
		errors.Is(err, tokens.ErrExpiredToken):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountDeactivated):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, repo.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

// ErrorHandler renders every error in the response envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	}
	if err := c.JSON(code, Response{Success: false, Message: msg}); err != nil {
		c.Logger().Error(err)
	}
}
