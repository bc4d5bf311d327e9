package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game/core"
)

var (
	errMissingActor = echo.NewHTTPError(http.StatusBadRequest, "missing "+ActorHeader+" header")
	errBadCell      = echo.NewHTTPError(http.StatusBadRequest, core.ErrInvalidCell.Error())
	errBadNumber    = echo.NewHTTPError(http.StatusBadRequest, core.ErrInvalidInput.Error())
)

// statusTable maps game sentinels to HTTP status. Order matters only in
// that the first match wins.
var statusTable = []struct {
	err  error
	code int
}{
	{core.ErrNotFound, http.StatusNotFound},
	{core.ErrNotAuthorized, http.StatusForbidden},
	{core.ErrInvalidInput, http.StatusBadRequest},
	{core.ErrInvalidCell, http.StatusBadRequest},

	{core.ErrInsufficientResources, http.StatusConflict},
	{core.ErrBuildInProgress, http.StatusConflict},
	{core.ErrResearchInProgress, http.StatusConflict},
	{core.ErrAlreadyResearched, http.StatusConflict},
	{core.ErrPrerequisitesMissing, http.StatusConflict},
	{core.ErrMaxLevel, http.StatusConflict},
	{core.ErrNotReady, http.StatusConflict},
	{core.ErrInvalidState, http.StatusConflict},
	{core.ErrNoFreeWorkers, http.StatusConflict},
	{core.ErrNoWorkerSlots, http.StatusConflict},
	{core.ErrBuildingNotBuilt, http.StatusConflict},
	{core.ErrCellOccupied, http.StatusConflict},
	{core.ErrDomainOwned, http.StatusConflict},
	{core.ErrDomainLimit, http.StatusConflict},
	{core.ErrAlreadyClaimed, http.StatusConflict},
	{core.ErrAlreadySubmitted, http.StatusConflict},
	{core.ErrAlreadyResponded, http.StatusConflict},
	{core.ErrDeadlinePassed, http.StatusConflict},
	{core.ErrLocked, http.StatusConflict},
}

// StatusFor returns the HTTP status for a service error, 500 if unknown
func StatusFor(err error) int {
	for _, row := range statusTable {
		if errors.Is(err, row.err) {
			return row.code
		}
	}
	return http.StatusInternalServerError
}

// newHTTPErrorHandler renders every error as {"error": ...}. Validation
// errors become a field map.
func newHTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code    int
			message interface{}
			httpErr *echo.HTTPError
			fldErrs validator.ValidationErrors
		)

		switch {
		case errors.As(err, &httpErr):
			if inner, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = inner
			}
			code = httpErr.Code
			message = httpErr.Message
		case errors.As(err, &fldErrs):
			fields := make(map[string]string, len(fldErrs))
			for _, fe := range fldErrs {
				fields[fe.Field()] = fe.Tag()
			}
			code = http.StatusBadRequest
			message = fields
		default:
			code = StatusFor(err)
			message = err.Error()
			if code == http.StatusInternalServerError {
				logger.Error().
					Err(err).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Msg("Request failed")
				message = http.StatusText(code)
			}
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": message})
		}
		if err != nil {
			logger.Error().Err(err).Msg("Failed to write error response")
		}
	}
}
