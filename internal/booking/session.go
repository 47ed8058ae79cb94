package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/catalog"
	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/pricing"
)

// Session is one open booking view: a user booking seats for a showtime.
// It owns the hold controller and the pricing selections (combos, menu
// items, event) of the view.
type Session struct {
	ID         string
	UserID     string
	ShowtimeID string

	ctrl     *Controller
	showtime backend.ShowtimeAPI
	drafts   *DraftCoordinator
	clock    clock.Clock
	log      *zap.Logger
	leave    func()

	mu       sync.Mutex
	token    string
	movieID  string
	formatID string
	dayType  model.DayType
	catalog  *catalog.Catalog
	table    pricing.Table
	combos   []string
	menu     map[string]int
	eventID  string
	draftID  string
	openedAt time.Time
	lastSeen time.Time
	closed   bool
}

// State is what the console renders for a session.
type State struct {
	SessionID  string
	ShowtimeID string
	MovieID    string
	DraftID    string
	Hold       Snapshot
	Layout     []model.ShowTimeSeat
	Combos     []string
	MenuItems  map[string]int
	EventID    string
	Quote      pricing.Breakdown
}

// Controller returns the seat-hold controller of the session.
func (s *Session) Controller() *Controller { return s.ctrl }

// ctx attaches the operator's identity.  Calls made after the request is
// gone (idle sweep, shutdown) reuse the last bearer token seen.
func (s *Session) ctx(ctx context.Context) context.Context {
	ctx = backend.WithUser(ctx, s.UserID)
	if _, ok := backend.TokenFrom(ctx); ok {
		return ctx
	}
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token != "" {
		ctx = backend.WithToken(ctx, token)
	}
	return ctx
}

// rememberToken keeps the newest bearer token of ctx for later
// background calls.
func (s *Session) rememberToken(ctx context.Context) {
	token, ok := backend.TokenFrom(ctx)
	if !ok {
		return
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.clock.Now()
	s.mu.Unlock()
}

// IdleSince returns the time of the last interaction.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) applyShowtime(st *model.Showtime) []string {
	s.mu.Lock()
	if st.MovieID != "" {
		s.movieID = st.MovieID
	}
	s.formatID = st.FormatID
	s.dayType = st.DayType()
	s.mu.Unlock()
	return s.ctrl.LoadLayout(st.Room.Seats)
}

// RefreshLayout re-reads the seat statuses from the backend.  Selected
// seats that were taken meanwhile are dropped and returned.
func (s *Session) RefreshLayout(ctx context.Context) ([]string, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	st, err := s.showtime.GetShowTimeDetails(s.ctx(ctx), s.ShowtimeID)
	if err != nil {
		return nil, err
	}
	dropped := s.applyShowtime(st)
	if len(dropped) > 0 {
		s.log.Info("selection pruned after layout refresh", zap.Strings("seat_ids", dropped))
	}
	return dropped, nil
}

// EnsureDraft returns the session's order draft, creating it if the
// earlier attempt failed.
func (s *Session) EnsureDraft(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.draftID != "" {
		id := s.draftID
		s.mu.Unlock()
		return id, nil
	}
	movieID := s.movieID
	s.mu.Unlock()

	if s.drafts == nil {
		return "", nil
	}
	id, err := s.drafts.Ensure(ctx, DraftKey(s.UserID, movieID), s.UserID, movieID)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.draftID = id
	s.mu.Unlock()
	return id, nil
}

// SetCombos replaces the selected combos.  A combo id may repeat to buy it
// more than once.
func (s *Session) SetCombos(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.ErrSessionClosed
	}
	for _, id := range ids {
		if _, ok := s.catalog.Combo(id); !ok {
			return errs.Wrapf(errs.ErrNotFound, "combo %s", id)
		}
	}
	s.combos = append([]string(nil), ids...)
	return nil
}

// SetMenuItem sets the quantity of a menu item; zero or less removes it.
func (s *Session) SetMenuItem(id string, quantity int) error {
	return s.SetMenuItems(MenuLine{ID: id, Quantity: quantity})
}

// MenuLine sets one menu item's quantity; zero or less removes it.
type MenuLine struct {
	ID       string
	Quantity int
}

// SetMenuItems applies lines in order, or none of them when any names an
// unknown item.
func (s *Session) SetMenuItems(lines ...MenuLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.ErrSessionClosed
	}
	for _, l := range lines {
		if _, ok := s.catalog.MenuItem(l.ID); !ok {
			return errs.Wrapf(errs.ErrNotFound, "menu item %s", l.ID)
		}
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			delete(s.menu, l.ID)
			continue
		}
		s.menu[l.ID] = l.Quantity
	}
	return nil
}

// SelectEvent picks the one event of the order; an empty id clears it.
func (s *Session) SelectEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.ErrSessionClosed
	}
	if id != "" {
		if _, ok := s.catalog.Event(id); !ok {
			return errs.Wrapf(errs.ErrNotFound, "event %s", id)
		}
	}
	s.eventID = id
	return nil
}

// Quote prices the current selections.  Seats without a price are logged
// and listed in the breakdown.
func (s *Session) Quote() pricing.Breakdown {
	seats := s.ctrl.SelectedSeats()

	s.mu.Lock()
	in := pricing.Input{
		FormatID: s.formatID,
		DayType:  s.dayType,
		Seats:    seats,
		At:       s.clock.Now(),
	}
	for _, id := range s.combos {
		if c, ok := s.catalog.Combo(id); ok {
			in.Combos = append(in.Combos, c)
		}
	}
	menuIDs := make([]string, 0, len(s.menu))
	for id := range s.menu {
		menuIDs = append(menuIDs, id)
	}
	sort.Strings(menuIDs)
	for _, id := range menuIDs {
		if item, ok := s.catalog.MenuItem(id); ok {
			in.MenuItems = append(in.MenuItems, model.MenuItemSelection{Item: item, Quantity: s.menu[id]})
		}
	}
	if s.eventID != "" {
		if ev, ok := s.catalog.Event(s.eventID); ok {
			in.Event = &ev
		}
	}
	table := s.table
	s.mu.Unlock()

	b := pricing.Compute(table, in)
	if !b.Complete() {
		s.log.Warn("seats without ticket price, priced at 0", zap.Any("missing", b.Unpriced))
	}
	return b
}

// State assembles the full view of the session.
func (s *Session) State() State {
	snap := s.ctrl.Snapshot()
	layout := s.ctrl.Layout()
	quote := s.Quote()

	s.mu.Lock()
	defer s.mu.Unlock()
	menu := make(map[string]int, len(s.menu))
	for k, v := range s.menu {
		menu[k] = v
	}
	return State{
		SessionID:  s.ID,
		ShowtimeID: s.ShowtimeID,
		MovieID:    s.movieID,
		DraftID:    s.draftID,
		Hold:       snap,
		Layout:     layout,
		Combos:     append([]string(nil), s.combos...),
		MenuItems:  menu,
		EventID:    s.eventID,
		Quote:      quote,
	}
}

func (s *Session) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.ErrSessionClosed
	}
	return nil
}

// Close disposes the session: the hold, if any, is cancelled.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	leave := s.leave
	movieID := s.movieID
	s.mu.Unlock()

	if leave != nil {
		leave()
	}
	if s.drafts != nil {
		// the draft store still holds the order id for a later reopen
		s.drafts.Forget(DraftKey(s.UserID, movieID))
	}
	return s.ctrl.Dispose(s.ctx(ctx))
}
