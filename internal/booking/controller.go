// Package booking runs the seat-hold state machine of one booking view:
// selection, bulk hold, bulk cancel, the advisory countdown, recovery of
// an existing hold and the single order draft of the session.
package booking

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/countdown"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/queue"
	"github.com/iliyamo/cinema-box-office/internal/selection"
)

// DefaultTTLSeconds is the hold time-to-live used when none is given.
const DefaultTTLSeconds = 600

const (
	WarningExpired        = "hold expired, seats were released"
	WarningReleasedRemote = "hold no longer exists on the server"
)

const tracerName = "github.com/iliyamo/cinema-box-office/internal/booking"

type opKind int

const (
	opHold opKind = iota + 1
	opCancel
)

// pendingOp marks the one backend call a controller may have in flight.
// An op goes stale when the countdown expires or the controller is
// disposed before it returns; its response is then discarded.  A stale op
// still blocks new calls until it returns, so hold and cancel for the
// same seats never overlap.
type pendingOp struct {
	kind  opKind
	stale bool
}

// Identity names the booking view a controller belongs to.
type Identity struct {
	SessionID  string
	UserID     string
	ShowtimeID string
}

// Snapshot is an immutable view of the controller state.
type Snapshot struct {
	Holding       bool
	Loading       bool
	HeldIDs       []string
	Selected      []string
	RemainingSecs int
	TimerState    countdown.State
	HeldAt        time.Time
	ExpiresAt     time.Time
	Warning       string
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

func WithClock(c clock.Clock) ControllerOption {
	return func(ctrl *Controller) { ctrl.clock = c }
}

func WithLogger(l *zap.Logger) ControllerOption {
	return func(ctrl *Controller) { ctrl.log = logger.OrNop(l) }
}

func WithEventSink(s EventSink) ControllerOption {
	return func(ctrl *Controller) {
		if s != nil {
			ctrl.events = s
		}
	}
}

// WithTimerOptions passes options to the countdown, e.g. countdown.Manual()
// in tests.
func WithTimerOptions(opts ...countdown.Option) ControllerOption {
	return func(ctrl *Controller) { ctrl.timerOpts = append(ctrl.timerOpts, opts...) }
}

func WithDefaultTTL(seconds int) ControllerOption {
	return func(ctrl *Controller) {
		if seconds > 0 {
			ctrl.defaultTTL = seconds
		}
	}
}

// Controller orchestrates selection, hold and cancel for one booking view.
// All methods are safe for concurrent use; at most one hold or cancel call
// is in flight at a time.
type Controller struct {
	id         Identity
	holds      backend.HoldAPI
	clock      clock.Clock
	log        *zap.Logger
	events     EventSink
	tracer     trace.Tracer
	timerOpts  []countdown.Option
	defaultTTL int

	mu        sync.Mutex
	sel       *selection.Model
	timer     *countdown.Timer
	holding   bool
	held      []string
	heldAt    time.Time
	expiresAt time.Time
	pending   *pendingOp
	epoch     uint64
	warning   string
	disposed  bool
}

func NewController(id Identity, holds backend.HoldAPI, opts ...ControllerOption) *Controller {
	c := &Controller{
		id:         id,
		holds:      holds,
		clock:      clock.NewRealClock(),
		log:        zap.NewNop(),
		events:     nopSink{},
		tracer:     otel.Tracer(tracerName),
		defaultTTL: DefaultTTLSeconds,
		sel:        selection.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("controller").With(
		zap.String("session_id", id.SessionID),
		zap.String("user_id", id.UserID),
		zap.String("showtime_id", id.ShowtimeID),
	)
	c.timer = countdown.New(append(c.timerOpts, countdown.WithOnExpire(c.onTimerExpired))...)
	return c
}

// Timer exposes the countdown so tests can drive a manual timer.
func (c *Controller) Timer() *countdown.Timer { return c.timer }

// userCtx attaches the session user for "current user" backend calls.
func (c *Controller) userCtx(ctx context.Context) context.Context {
	if _, ok := backend.UserFrom(ctx); ok {
		return ctx
	}
	return backend.WithUser(ctx, c.id.UserID)
}

// LoadLayout replaces the seat layout with fresh showtime data and returns
// selected ids that were dropped because they are no longer selectable.
func (c *Controller) LoadLayout(seats []model.ShowTimeSeat) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := c.sel.Load(seats)
	if c.holding {
		c.sel.MarkStatus(c.held, model.SeatStatusHolding)
	}
	return dropped
}

// CanSelect reports whether id may be selected right now.
func (c *Controller) CanSelect(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending == nil && !c.holding && c.sel.CanSelect(id)
}

func (c *Controller) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutableLocked(); err != nil {
		return err
	}
	return c.sel.Select(id)
}

func (c *Controller) Deselect(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutableLocked(); err != nil {
		return err
	}
	return c.sel.Deselect(id)
}

// Toggle flips id and reports whether it is selected afterwards.
func (c *Controller) Toggle(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutableLocked(); err != nil {
		return false, err
	}
	return c.sel.Toggle(id)
}

func (c *Controller) mutableLocked() error {
	switch {
	case c.disposed:
		return errs.ErrSessionClosed
	case c.pending != nil:
		return errs.ErrBusy
	case c.holding:
		return errs.ErrSelectionFrozen
	}
	return nil
}

// SelectedSeats returns the catalog seats of the selection for pricing.
func (c *Controller) SelectedSeats() []model.Seat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.SelectedSeats()
}

// Layout returns the seats with their last known status.
func (c *Controller) Layout() []model.ShowTimeSeat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Layout()
}

// HoldSelected places one bulk hold on every selected seat.  On success the
// controller enters Holding, freezes the selection and starts the
// countdown.  On failure nothing changes and the error is returned:
// errs.ConflictError when seats were taken, errs.NetworkError when the
// call failed.
func (c *Controller) HoldSelected(ctx context.Context, ttlSeconds int) error {
	if ttlSeconds <= 0 {
		ttlSeconds = c.defaultTTL
	}

	c.mu.Lock()
	switch {
	case c.disposed:
		c.mu.Unlock()
		return errs.ErrSessionClosed
	case c.pending != nil:
		c.mu.Unlock()
		return errs.ErrBusy
	case c.holding:
		c.mu.Unlock()
		return errs.ErrAlreadyHolding
	}
	ids := c.sel.Selected()
	if len(ids) == 0 {
		c.mu.Unlock()
		return errs.ErrEmptySelection
	}
	op := &pendingOp{kind: opHold}
	c.pending = op
	c.warning = ""
	c.mu.Unlock()

	ctx, span := c.tracer.Start(ctx, "booking.hold", trace.WithAttributes(
		attribute.String("showtime_id", c.id.ShowtimeID),
		attribute.Int("seat_count", len(ids)),
		attribute.Int("ttl_seconds", ttlSeconds),
	))
	res, err := c.holds.BulkHold(c.userCtx(ctx), ids, ttlSeconds)
	endSpan(span, err)

	c.mu.Lock()
	c.pending = nil
	if op.stale {
		disposed := c.disposed
		c.mu.Unlock()
		if err == nil {
			c.log.Info("discarding late hold response", zap.Strings("seat_ids", ids))
			if disposed {
				c.releaseDetached(ctx, ids)
			}
		}
		return errs.ErrSessionClosed
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn("hold failed", zap.Int("seat_count", len(ids)), zap.Error(err))
		return err
	}

	now := c.clock.Now()
	held := ids
	if len(res.ShowTimeSeatIDs) > 0 {
		held = append([]string(nil), res.ShowTimeSeatIDs...)
	}
	heldAt := res.HeldAt
	if heldAt.IsZero() {
		heldAt = now
	}
	expiresAt := res.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = heldAt.Add(time.Duration(ttlSeconds) * time.Second)
	}
	secs := ttlSeconds
	if fromServer := model.SecondsUntil(expiresAt, now); fromServer < secs {
		secs = fromServer
	}

	c.holding = true
	c.held = held
	c.heldAt = heldAt
	c.expiresAt = expiresAt
	c.epoch++
	c.sel.Freeze()
	c.sel.MarkStatus(held, model.SeatStatusHolding)
	if secs <= 0 {
		c.expireLocked(WarningExpired)
		c.mu.Unlock()
		c.publish(ctx, queue.HoldExpired, held, expiresAt)
		return nil
	}
	c.timer.Start(secs)
	c.mu.Unlock()

	c.log.Info("seats held", zap.Int("seat_count", len(held)), zap.Time("expires_at", expiresAt))
	c.publish(ctx, queue.HoldPlaced, held, expiresAt)
	return nil
}

// CancelHold releases the held seats with one bulk cancel.  With nothing
// held it returns nil without calling the backend.  On failure the hold
// stays as it was.
func (c *Controller) CancelHold(ctx context.Context) error {
	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return errs.ErrBusy
	}
	if len(c.held) == 0 {
		c.mu.Unlock()
		return nil
	}
	ids := append([]string(nil), c.held...)
	op := &pendingOp{kind: opCancel}
	c.pending = op
	c.mu.Unlock()

	err := c.cancel(ctx, ids)

	c.mu.Lock()
	c.pending = nil
	if op.stale {
		// the countdown expired meanwhile; local state is already clear
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn("cancel failed", zap.Int("seat_count", len(ids)), zap.Error(err))
		return err
	}
	c.clearLocked()
	c.sel.MarkStatus(ids, model.SeatStatusAvailable)
	c.timer.Stop()
	c.mu.Unlock()

	c.log.Info("hold cancelled", zap.Int("seat_count", len(ids)))
	c.publish(ctx, queue.HoldReleased, ids, time.Time{})
	return nil
}

func (c *Controller) cancel(ctx context.Context, ids []string) error {
	ctx, span := c.tracer.Start(ctx, "booking.cancel", trace.WithAttributes(
		attribute.String("showtime_id", c.id.ShowtimeID),
		attribute.Int("seat_count", len(ids)),
	))
	err := c.holds.BulkCancelHold(c.userCtx(ctx), ids)
	endSpan(span, err)
	return err
}

// releaseDetached cancels ids after the controller is gone.  Failures are
// only logged: the server TTL releases the seats anyway.
func (c *Controller) releaseDetached(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(backend.Detach(ctx), 5*time.Second)
	defer cancel()
	if err := c.cancel(ctx, ids); err != nil {
		c.log.Warn("release after dispose failed, server TTL will release", zap.Error(err))
		return
	}
	c.publish(ctx, queue.HoldReleased, ids, time.Time{})
}

// Rehydrate restores a hold found by recovery: the selection becomes the
// held seats, the controller enters Holding and the countdown is seeded
// from the server expiry.
func (c *Controller) Rehydrate(h *RecoveredHold) {
	if h == nil || len(h.ShowTimeSeatIDs) == 0 {
		return
	}
	c.mu.Lock()
	if c.disposed || c.pending != nil {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	c.holding = true
	c.held = append([]string(nil), h.ShowTimeSeatIDs...)
	c.heldAt = h.HeldAt
	c.expiresAt = h.ExpiresAt
	c.epoch++
	c.sel.Replace(c.held)
	c.sel.Freeze()
	c.sel.MarkStatus(c.held, model.SeatStatusHolding)
	secs := c.timer.StartUntil(h.ExpiresAt, now)
	if secs <= 0 {
		c.expireLocked(WarningExpired)
		c.mu.Unlock()
		return
	}
	held := c.held
	c.mu.Unlock()

	c.log.Info("hold recovered", zap.Int("seat_count", len(held)), zap.Int("remaining_secs", secs))
	c.publish(context.Background(), queue.HoldRecovered, held, h.ExpiresAt)
}

// Resync reseeds the countdown from the server's hold info.  When the
// server no longer knows the hold, local state is cleared.
func (c *Controller) Resync(ctx context.Context) error {
	c.mu.Lock()
	if !c.holding || len(c.held) == 0 {
		c.mu.Unlock()
		return nil
	}
	epoch := c.epoch
	first := c.held[0]
	c.mu.Unlock()

	info, err := c.holds.GetHoldInfo(c.userCtx(ctx), first)

	c.mu.Lock()
	if c.epoch != epoch || !c.holding {
		c.mu.Unlock()
		return nil
	}
	if err != nil && !errs.Is(err, errs.ErrNotFound) {
		c.mu.Unlock()
		return err
	}
	now := c.clock.Now()
	if err != nil || (info.UserID != "" && info.UserID != c.id.UserID) {
		ids := c.held
		c.expireLocked(WarningReleasedRemote)
		c.mu.Unlock()
		c.publish(ctx, queue.HoldExpired, ids, time.Time{})
		return nil
	}
	c.expiresAt = info.ExpiresAt
	if !info.HeldAt.IsZero() {
		c.heldAt = info.HeldAt
	}
	if secs := c.timer.StartUntil(info.ExpiresAt, now); secs <= 0 {
		ids := c.held
		c.expireLocked(WarningExpired)
		c.mu.Unlock()
		c.publish(ctx, queue.HoldExpired, ids, info.ExpiresAt)
		return nil
	}
	c.mu.Unlock()
	return nil
}

// Dispose is the navigate-away path: the countdown is stopped for good and
// any hold is released on a best-effort basis.  Further calls fail with
// errs.ErrSessionClosed.  A hold still in flight is released when its
// response arrives.
func (c *Controller) Dispose(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	c.timer.Stop()
	var ids []string
	if c.pending == nil {
		ids = append(ids, c.held...)
	} else {
		c.pending.stale = true
	}
	c.clearLocked()
	c.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	if err := c.cancel(ctx, ids); err != nil {
		c.log.Warn("cancel on dispose failed, server TTL will release", zap.Error(err))
		return err
	}
	c.log.Info("hold released on dispose", zap.Int("seat_count", len(ids)))
	c.publish(ctx, queue.HoldReleased, ids, time.Time{})
	return nil
}

// abandon disposes the controller without cancelling its hold, for a
// duplicate controller whose hold belongs to another live session.
func (c *Controller) abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.timer.Stop()
	if c.pending != nil {
		c.pending.stale = true
	}
	c.clearLocked()
}

// Disposed reports whether Dispose was called.
func (c *Controller) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Holding:    c.holding,
		Loading:    c.pending != nil,
		HeldIDs:    append([]string(nil), c.held...),
		Selected:   c.sel.Selected(),
		TimerState: c.timer.State(),
		HeldAt:     c.heldAt,
		ExpiresAt:  c.expiresAt,
		Warning:    c.warning,
	}
	s.RemainingSecs = c.timer.Remaining()
	if c.holding && !c.expiresAt.IsZero() {
		// the display never shows more than the server grants
		if server := model.SecondsUntil(c.expiresAt, c.clock.Now()); server < s.RemainingSecs {
			s.RemainingSecs = server
		}
		if s.RemainingSecs < 0 {
			s.RemainingSecs = 0
		}
	}
	return s
}

// onTimerExpired is the countdown's expiry signal.  Local state is forced
// back to idle at once; the response of an in-flight cancel is ignored.
func (c *Controller) onTimerExpired() {
	c.mu.Lock()
	if !c.holding || c.timer.State() != countdown.Expired {
		c.mu.Unlock()
		return
	}
	ids, expiresAt := c.held, c.expiresAt
	c.expireLocked(WarningExpired)
	c.mu.Unlock()

	c.log.Info("hold expired", zap.Int("seat_count", len(ids)))
	c.publish(context.Background(), queue.HoldExpired, ids, expiresAt)
}

func (c *Controller) expireLocked(warning string) {
	ids := c.held
	if c.pending != nil {
		c.pending.stale = true
	}
	c.clearLocked()
	c.sel.MarkStatus(ids, model.SeatStatusAvailable)
	c.timer.Stop()
	c.warning = warning
}

func (c *Controller) clearLocked() {
	c.holding = false
	c.held = nil
	c.heldAt = time.Time{}
	c.expiresAt = time.Time{}
	c.epoch++
	c.sel.Clear()
}

func (c *Controller) publish(ctx context.Context, typ queue.EventType, ids []string, expiresAt time.Time) {
	ev := queue.HoldEvent{
		Type:            typ,
		SessionID:       c.id.SessionID,
		UserID:          c.id.UserID,
		ShowtimeID:      c.id.ShowtimeID,
		ShowTimeSeatIDs: ids,
		ExpiresAt:       expiresAt,
		OccurredAt:      c.clock.Now(),
	}
	if err := c.events.Publish(backend.Detach(ctx), ev); err != nil {
		c.log.Debug("hold event not published", zap.String("type", string(typ)), zap.Error(err))
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
