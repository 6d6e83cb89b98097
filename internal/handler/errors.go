package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	applog "github.com/iliyamo/invoicing-portal/internal/log"
)

var errInvalidQuery = apperr.Validation("invalid query parameters")

// statusOf maps a failure kind to its HTTP status.
func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": code, "message": message}.  Errors
// outside apperr are logged and answered with a generic 500.
func respondError(c echo.Context, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		applog.GetLogger(c.Request().Context()).WithError(err).Error("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "internal_error",
			"message": "Internal server error",
		})
	}
	status := statusOf(ae.Kind)
	if status == http.StatusInternalServerError {
		applog.GetLogger(c.Request().Context()).WithError(err).Error("integrity failure")
	}
	return c.JSON(status, echo.Map{"error": ae.Code, "message": ae.Message})
}

// ErrorHandler is installed as echo's HTTPErrorHandler so errors returned
// by middleware render exactly like handler errors.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		err = c.JSON(he.Code, echo.Map{"error": "http_error", "message": msg})
	} else {
		err = respondError(c, err)
	}
	if err != nil {
		applog.GetLogger(c.Request().Context()).WithError(err).Warn("write error response")
	}
}
