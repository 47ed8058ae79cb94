package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/booking"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/middleware"
)

// SessionHandler serves the booking view of the console: open a session
// for a showtime, pick seats, hold and release them, and build the
// order.  All routes run behind JWTAuth; a session is only visible to the
// operator who opened it.
type SessionHandler struct {
	Sessions *booking.Registry
	log      *zap.Logger
}

// NewSessionHandler panics when reg is nil.
func NewSessionHandler(reg *booking.Registry, log *zap.Logger) *SessionHandler {
	if reg == nil {
		panic("nil registry passed to NewSessionHandler")
	}
	return &SessionHandler{Sessions: reg, log: logger.OrNop(log).Named("handler")}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
}

// session resolves :sid for the caller.  The bool is false when a response
// was already written.
func (h *SessionHandler) session(c echo.Context) (*booking.Session, bool, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return nil, false, unauthorized(c)
	}
	s, err := h.Sessions.Get(c.Request().Context(), c.Param("sid"), userID)
	if err != nil {
		return nil, false, writeError(c, err)
	}
	return s, true, nil
}

func (h *SessionHandler) state(c echo.Context, s *booking.Session) error {
	return c.JSON(http.StatusOK, sessionView(s.State()))
}

// Open handles POST /v1/showtimes/:id/sessions.  It loads the layout,
// recovers a hold the operator still owns on this showtime and creates
// the order draft.  201 for a new session, 200 when an existing one was
// resumed.
func (h *SessionHandler) Open(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	showtimeID := c.Param("id")
	if showtimeID == "" {
		return badRequest(c, "showtime id is required")
	}
	var req openSessionRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid body")
		}
	}

	s, resumed, err := h.Sessions.Open(c.Request().Context(), userID, showtimeID, req.MovieID)
	if err != nil {
		h.log.Warn("open session failed", zap.String("showtime_id", showtimeID), zap.Error(err))
		return writeError(c, err)
	}
	view := sessionView(s.State())
	view.Resumed = resumed
	status := http.StatusCreated
	if resumed {
		status = http.StatusOK
	}
	return c.JSON(status, view)
}

// Get handles GET /v1/sessions/:sid.  A draft that could not be created
// at open time is retried here.
func (h *SessionHandler) Get(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	if _, err := s.EnsureDraft(c.Request().Context()); err != nil {
		h.log.Warn("order draft still missing", zap.String("session_id", s.ID), zap.Error(err))
	}
	return h.state(c, s)
}

// SelectSeat handles PUT /v1/sessions/:sid/seats/:seatId.
func (h *SessionHandler) SelectSeat(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	if err := s.Controller().Select(c.Param("seatId")); err != nil {
		return writeError(c, err)
	}
	return h.state(c, s)
}

// DeselectSeat handles DELETE /v1/sessions/:sid/seats/:seatId.
func (h *SessionHandler) DeselectSeat(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	if err := s.Controller().Deselect(c.Param("seatId")); err != nil {
		return writeError(c, err)
	}
	return h.state(c, s)
}

// Hold handles POST /v1/sessions/:sid/hold.  ttl_seconds is optional; the
// configured default applies when it is missing or not positive.  A seat
// conflict answers 409 with the unavailable seat ids and leaves the
// selection as it was.
func (h *SessionHandler) Hold(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	var req holdRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid body")
		}
	}
	if err := s.Controller().HoldSelected(c.Request().Context(), req.TTLSeconds); err != nil {
		return writeError(c, err)
	}
	return h.state(c, s)
}

// CancelHold handles DELETE /v1/sessions/:sid/hold.
func (h *SessionHandler) CancelHold(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	if err := s.Controller().CancelHold(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return h.state(c, s)
}

// Resync handles POST /v1/sessions/:sid/resync: the countdown is reseeded
// from the server's expiry.
func (h *SessionHandler) Resync(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	if err := s.Controller().Resync(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return h.state(c, s)
}

// RefreshLayout handles POST /v1/sessions/:sid/layout/refresh.  Selected
// seats that were taken meanwhile are dropped and listed.
func (h *SessionHandler) RefreshLayout(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	dropped, err := s.RefreshLayout(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"dropped": nonNil(dropped), "session": sessionView(s.State())})
}

// SetCombos handles PUT /v1/sessions/:sid/combos.
func (h *SessionHandler) SetCombos(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	var req combosRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := s.SetCombos(req.ComboIDs); err != nil {
		return writeError(c, err)
	}
	return h.state(c, s)
}

// SetMenuItems handles PUT /v1/sessions/:sid/menu-items.  Each line sets
// one item's quantity; quantity 0 removes it.  An unknown item rejects the
// whole request and leaves the order untouched.
func (h *SessionHandler) SetMenuItems(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	var req menuItemsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	lines := make([]booking.MenuLine, 0, len(req.Items))
	for _, line := range req.Items {
		if line.ID == "" {
			return badRequest(c, "menu item id is required")
		}
		lines = append(lines, booking.MenuLine{ID: line.ID, Quantity: line.Quantity})
	}
	if err := s.SetMenuItems(lines...); err != nil {
		return writeError(c, err)
	}
	return h.state(c, s)
}

// SelectEvent handles PUT /v1/sessions/:sid/event.  An empty event_id
// clears the event.
func (h *SessionHandler) SelectEvent(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := s.SelectEvent(req.EventID); err != nil {
		return writeError(c, err)
	}
	return h.state(c, s)
}

// Quote handles GET /v1/sessions/:sid/quote.
func (h *SessionHandler) Quote(c echo.Context) error {
	s, ok, err := h.session(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, quoteView(s.Quote()))
}

// Close handles DELETE /v1/sessions/:sid, the navigate-away path: a live
// hold is cancelled and the session is dropped.
func (h *SessionHandler) Close(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.Sessions.Close(c.Request().Context(), c.Param("sid"), userID); err != nil {
		if !isNotFound(err) {
			h.log.Warn("close session failed", zap.String("session_id", c.Param("sid")), zap.Error(err))
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func isNotFound(err error) bool {
	status, _ := errorStatus(err)
	return status == http.StatusNotFound
}
