package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-reservations/internal/availability"
	"github.com/iliyamo/community-reservations/internal/i18n"
	"github.com/iliyamo/community-reservations/internal/repository"
	"github.com/iliyamo/community-reservations/internal/service"
)

// writeError maps service and repository errors onto HTTP responses.
// Unexpected errors are logged and reported as a generic 500.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	var rej *availability.Rejection
	switch {
	case errors.As(err, &rej):
		return writeRejection(c, rej)
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrInvalidPatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not available"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConcurrency):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot just became unavailable, please retry"})
	case errors.Is(err, service.ErrIdempotencyConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateName):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking can no longer change to that status"})
	}
	log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// writeRejection answers 422 with the reason code and a message in the
// caller's language.
func writeRejection(c echo.Context, rej *availability.Rejection) error {
	tag := i18n.Negotiate(c.Request().Header.Get("Accept-Language"))
	c.Response().Header().Set("Content-Language", tag.String())
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{
		"error":   "reservation rejected",
		"reason":  rej.Reason,
		"message": i18n.Reason(tag, rej.Reason),
	})
}

// invalid answers 400 with the validator's description of the first bad
// field.
func invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
