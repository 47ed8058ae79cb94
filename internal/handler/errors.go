package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/errs"
)

// errorStatus maps booking errors to an HTTP status and a short machine
// readable code.  Unknown errors are 500.
func errorStatus(err error) (int, string) {
	switch {
	case errs.Is(err, errs.ErrConflict):
		return http.StatusConflict, "seats_unavailable"
	case errs.Is(err, errs.ErrBusy):
		return http.StatusConflict, "busy"
	case errs.Is(err, errs.ErrAlreadyHolding):
		return http.StatusConflict, "already_holding"
	case errs.Is(err, errs.ErrEmptySelection):
		return http.StatusBadRequest, "empty_selection"
	case errs.Is(err, errs.ErrSeatNotSelectable):
		return http.StatusUnprocessableEntity, "seat_not_selectable"
	case errs.Is(err, errs.ErrSelectionFrozen):
		return http.StatusLocked, "selection_frozen"
	case errs.Is(err, errs.ErrSessionClosed):
		return http.StatusGone, "session_closed"
	case errs.Is(err, errs.ErrSessionNotFound), errs.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errs.Is(err, errs.ErrNetwork):
		return http.StatusBadGateway, "backend_unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

// writeError renders err as {"error", "code"}; a seat conflict also lists
// the seats that were taken.
func writeError(c echo.Context, err error) error {
	status, code := errorStatus(err)
	body := echo.Map{"error": err.Error(), "code": code}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	var conflict *errs.ConflictError
	if errs.As(err, &conflict) {
		body["unavailable"] = conflict.Unavailable
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "bad_request"})
}
