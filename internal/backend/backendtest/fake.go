// Package backendtest provides an in-memory cinema backend for tests.  It
// honours the hold contract (all-or-nothing bulk hold, idempotent cancel,
// per-user ownership) and lets tests inject failures or block calls.
package backendtest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

const (
	OpBulkHold          = "bulkHold"
	OpBulkCancelHold    = "bulkCancelHold"
	OpGetHoldInfo       = "getHoldInfo"
	OpGetAllHeld        = "getAllHeldSeatsByCurrentUser"
	OpGetShowTime       = "getShowTimeDetails"
	OpGetTicketPrices   = "getTicketPrices"
	OpListCombos        = "listCombos"
	OpListMenuItems     = "listMenuItems"
	OpListEvents        = "listEvents"
	OpListDiscounts     = "listDiscounts"
	OpCreateOrderDraft  = "createOrderDraft"
)

// Hook runs before an operation.  A non-nil error is returned to the
// caller instead of performing the operation.  Hooks may block.
type Hook func(ctx context.Context) error

// Fake implements backend.Backend in memory.
type Fake struct {
	mu sync.Mutex

	clock     clock.Clock
	showtimes map[string]*model.Showtime
	seatShow  map[string]string
	status    map[string]model.SeatStatus
	holds     map[string]model.HoldInfo
	hooks     map[string]Hook
	calls     map[string]int
	nextOrder int

	Prices    []model.TicketPrice
	Combos    []model.Combo
	MenuItems []model.MenuItem
	Events    []model.Event
	Discounts []model.EventDiscount
	Orders    []model.OrderDraft
}

var _ backend.Backend = (*Fake)(nil)

func New(clk clock.Clock) *Fake {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Fake{
		clock:     clk,
		showtimes: map[string]*model.Showtime{},
		seatShow:  map[string]string{},
		status:    map[string]model.SeatStatus{},
		holds:     map[string]model.HoldInfo{},
		hooks:     map[string]Hook{},
		calls:     map[string]int{},
	}
}

// AddShowtime registers a showtime and its seats with their statuses.
func (f *Fake) AddShowtime(st model.Showtime) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := st
	cp.Room.Seats = append([]model.ShowTimeSeat(nil), st.Room.Seats...)
	f.showtimes[st.ID] = &cp
	for _, s := range cp.Room.Seats {
		f.seatShow[s.ID] = st.ID
		f.status[s.ID] = s.Status
	}
}

// On installs hook for op, replacing any previous one.  A nil hook clears it.
func (f *Fake) On(op string, hook Hook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hook == nil {
		delete(f.hooks, op)
		return
	}
	f.hooks[op] = hook
}

// FailWith makes every call of op return err.
func (f *Fake) FailWith(op string, err error) {
	f.On(op, func(context.Context) error { return err })
}

// Calls returns how many times op was invoked, hooks included.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// SeatStatus returns the backend status of a show-time seat.
func (f *Fake) SeatStatus(id string) model.SeatStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status[id]
}

// SetSeatStatus overrides a seat status, e.g. to simulate another user
// booking a seat.
func (f *Fake) SetSeatStatus(id string, st model.SeatStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[id] = st
}

// PutHold seeds a hold for userID as if placed earlier.
func (f *Fake) PutHold(userID string, ids []string, heldAt, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.status[id] = model.SeatStatusHolding
		f.holds[id] = model.HoldInfo{ShowTimeSeatID: id, UserID: userID, HeldAt: heldAt, ExpiresAt: expiresAt}
	}
}

// HeldBy returns the ids held by userID, sorted.
func (f *Fake) HeldBy(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id, h := range f.holds {
		if h.UserID == userID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (f *Fake) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	hook := f.hooks[op]
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func currentUser(ctx context.Context) (string, error) {
	u, ok := backend.UserFrom(ctx)
	if !ok {
		return "", errs.New("backendtest: no user in context")
	}
	return u, nil
}

// expireLocked releases holds whose expiry has passed, the way the backend
// does before every hold attempt.
func (f *Fake) expireLocked(now time.Time) {
	for id, h := range f.holds {
		if !h.ExpiresAt.After(now) {
			delete(f.holds, id)
			f.status[id] = model.SeatStatusAvailable
		}
	}
}

func (f *Fake) BulkHold(ctx context.Context, ids []string, ttlSeconds int) (*backend.HoldResult, error) {
	if err := f.enter(ctx, OpBulkHold); err != nil {
		return nil, err
	}
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Now()
	f.expireLocked(now)

	var unavailable []string
	for _, id := range ids {
		st, known := f.status[id]
		if !known || !st.Free() {
			unavailable = append(unavailable, id)
		}
	}
	if len(unavailable) > 0 {
		return nil, errs.Conflict(unavailable...)
	}

	expiresAt := now.Add(time.Duration(ttlSeconds) * time.Second)
	for _, id := range ids {
		f.status[id] = model.SeatStatusHolding
		f.holds[id] = model.HoldInfo{ShowTimeSeatID: id, UserID: user, HeldAt: now, ExpiresAt: expiresAt}
	}
	return &backend.HoldResult{
		ShowTimeSeatIDs: append([]string(nil), ids...),
		HeldAt:          now,
		ExpiresAt:       expiresAt,
	}, nil
}

func (f *Fake) BulkCancelHold(ctx context.Context, ids []string) error {
	if err := f.enter(ctx, OpBulkCancelHold); err != nil {
		return err
	}
	user, err := currentUser(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if h, ok := f.holds[id]; ok && h.UserID == user {
			delete(f.holds, id)
			f.status[id] = model.SeatStatusAvailable
		}
	}
	return nil
}

func (f *Fake) GetHoldInfo(ctx context.Context, id string) (*model.HoldInfo, error) {
	if err := f.enter(ctx, OpGetHoldInfo); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.holds[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &h, nil
}

// GetAllHeldSeatsByCurrentUser returns every hold of the caller, including
// ones past their expiry that have not been swept yet.
func (f *Fake) GetAllHeldSeatsByCurrentUser(ctx context.Context) ([]model.HoldInfo, error) {
	if err := f.enter(ctx, OpGetAllHeld); err != nil {
		return nil, err
	}
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.HoldInfo
	for _, h := range f.holds {
		if h.UserID == user {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShowTimeSeatID < out[j].ShowTimeSeatID })
	return out, nil
}

func (f *Fake) GetShowTimeDetails(ctx context.Context, showtimeID string) (*model.Showtime, error) {
	if err := f.enter(ctx, OpGetShowTime); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.showtimes[showtimeID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *st
	cp.Room.Seats = make([]model.ShowTimeSeat, len(st.Room.Seats))
	for i, s := range st.Room.Seats {
		s.Status = f.status[s.ID]
		cp.Room.Seats[i] = s
	}
	return &cp, nil
}

func (f *Fake) GetTicketPrices(ctx context.Context) ([]model.TicketPrice, error) {
	if err := f.enter(ctx, OpGetTicketPrices); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TicketPrice(nil), f.Prices...), nil
}

func (f *Fake) ListCombos(ctx context.Context, p backend.Page) (backend.PageResult[model.Combo], error) {
	if err := f.enter(ctx, OpListCombos); err != nil {
		return backend.PageResult[model.Combo]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []model.Combo
	for _, c := range f.Combos {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return paginate(active, p), nil
}

func (f *Fake) ListMenuItems(ctx context.Context, p backend.Page) (backend.PageResult[model.MenuItem], error) {
	if err := f.enter(ctx, OpListMenuItems); err != nil {
		return backend.PageResult[model.MenuItem]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []model.MenuItem
	for _, m := range f.MenuItems {
		if m.IsActive {
			active = append(active, m)
		}
	}
	return paginate(active, p), nil
}

func (f *Fake) ListEvents(ctx context.Context, p backend.Page) (backend.PageResult[model.Event], error) {
	if err := f.enter(ctx, OpListEvents); err != nil {
		return backend.PageResult[model.Event]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.Events, p), nil
}

func (f *Fake) ListDiscounts(ctx context.Context, p backend.Page) (backend.PageResult[model.EventDiscount], error) {
	if err := f.enter(ctx, OpListDiscounts); err != nil {
		return backend.PageResult[model.EventDiscount]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []model.EventDiscount
	for _, d := range f.Discounts {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return paginate(active, p), nil
}

func (f *Fake) CreateOrderDraft(ctx context.Context, req backend.OrderDraftRequest) (*model.OrderDraft, error) {
	if err := f.enter(ctx, OpCreateOrderDraft); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextOrder++
	o := model.OrderDraft{
		ID:            "order-" + strconv.Itoa(f.nextOrder),
		UserID:        req.UserID,
		MovieID:       req.MovieID,
		PaymentStatus: req.PaymentStatus,
		TotalPrice:    req.TotalPrice,
		CreatedAt:     f.clock.Now(),
	}
	f.Orders = append(f.Orders, o)
	return &o, nil
}

func paginate[T any](all []T, p backend.Page) backend.PageResult[T] {
	p = p.Normalize()
	res := backend.PageResult[T]{Total: len(all), Page: p.Page, Limit: p.Limit}
	start := p.Offset()
	if start >= len(all) {
		return res
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	res.Items = append([]T(nil), all[start:end]...)
	return res
}
