package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/catalog"
	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/countdown"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/queue"
)

// Presence is joined by every session of a user.  Join returns the leave
// function the session calls when it closes.
type Presence interface {
	Join(group, member string) (leave func())
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Backend   backend.Backend
	Catalog   *catalog.Loader
	Drafts    *DraftCoordinator
	Recovery  *Recovery
	Events    EventSink
	Presence  Presence
	Clock     clock.Clock
	Log       *zap.Logger

	HoldTTLSeconds int
	IdleTimeout    time.Duration
	SweepInterval  time.Duration
	TimerOptions   []countdown.Option
}

type viewKey struct {
	userID     string
	showtimeID string
}

// Registry keeps the live sessions.  Re-opening the same showtime for the
// same user resumes the existing session.  An idle sweeper closes
// sessions nobody touched for IdleTimeout, which releases their holds.
type Registry struct {
	deps Deps
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	byView   map[viewKey]string

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewRegistry(deps Deps) *Registry {
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	deps.Log = logger.OrNop(deps.Log)
	if deps.Events == nil {
		deps.Events = nopSink{}
	}
	if deps.Recovery == nil {
		deps.Recovery = NewRecovery(deps.Backend, deps.Clock, deps.Log)
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.NewLoader(deps.Backend, nil, 0, deps.Log)
	}
	if deps.IdleTimeout <= 0 {
		deps.IdleTimeout = 15 * time.Minute
	}
	if deps.SweepInterval <= 0 {
		deps.SweepInterval = 30 * time.Second
	}
	return &Registry{
		deps:     deps,
		log:      deps.Log.Named("registry"),
		sessions: map[string]*Session{},
		byView:   map[viewKey]string{},
	}
}

// Open enters the booking view of showtimeID for userID: the layout is
// loaded, an existing hold of the user on this showtime is recovered, the
// catalog is loaded and the order draft is ensured.  The second return
// value is true when an existing session was resumed.
func (r *Registry) Open(ctx context.Context, userID, showtimeID, movieID string) (*Session, bool, error) {
	ctx = backend.WithUser(ctx, userID)

	r.mu.Lock()
	if id, ok := r.byView[viewKey{userID, showtimeID}]; ok {
		s := r.sessions[id]
		r.mu.Unlock()
		s.touch()
		s.rememberToken(ctx)
		if _, err := s.RefreshLayout(ctx); err != nil {
			r.log.Warn("layout refresh on resume failed", zap.String("session_id", s.ID), zap.Error(err))
		}
		return s, true, nil
	}
	r.mu.Unlock()

	st, err := r.deps.Backend.GetShowTimeDetails(ctx, showtimeID)
	if err != nil {
		return nil, false, err
	}
	cat, err := r.deps.Catalog.Load(ctx)
	if err != nil {
		return nil, false, err
	}

	id := uuid.NewString()
	log := r.deps.Log.Named("session").With(
		zap.String("session_id", id),
		zap.String("user_id", userID),
		zap.String("showtime_id", showtimeID),
	)
	ctrl := NewController(
		Identity{SessionID: id, UserID: userID, ShowtimeID: showtimeID},
		r.deps.Backend,
		WithClock(r.deps.Clock),
		WithLogger(r.deps.Log),
		WithEventSink(r.deps.Events),
		WithDefaultTTL(r.deps.HoldTTLSeconds),
		WithTimerOptions(r.deps.TimerOptions...),
	)
	now := r.deps.Clock.Now()
	s := &Session{
		ID:         id,
		UserID:     userID,
		ShowtimeID: showtimeID,
		ctrl:       ctrl,
		showtime:   r.deps.Backend,
		drafts:     r.deps.Drafts,
		clock:      r.deps.Clock,
		log:        log,
		movieID:    movieID,
		catalog:    cat,
		table:      cat.Table(),
		menu:       map[string]int{},
		openedAt:   now,
		lastSeen:   now,
	}
	s.rememberToken(ctx)
	s.applyShowtime(st)
	ctrl.Rehydrate(r.deps.Recovery.Recover(ctx, st.SeatIDs()))

	if _, err := s.EnsureDraft(ctx); err != nil {
		log.Warn("order draft not created, will retry", zap.Error(err))
	}

	r.mu.Lock()
	key := viewKey{userID, showtimeID}
	if otherID, ok := r.byView[key]; ok {
		// a concurrent open won; drop ours without touching the shared hold
		other := r.sessions[otherID]
		r.mu.Unlock()
		ctrl.abandon()
		return other, true, nil
	}
	r.sessions[id] = s
	r.byView[key] = id
	r.mu.Unlock()

	if r.deps.Presence != nil {
		s.leave = r.deps.Presence.Join(userID, id)
	}
	log.Info("booking session opened", zap.Bool("recovered_hold", ctrl.Snapshot().Holding))
	return s, false, nil
}

// Get returns the session with id if userID owns it.  The bearer token of
// ctx, if any, replaces the one the session keeps for background calls.
func (r *Registry) Get(ctx context.Context, id, userID string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok || s.UserID != userID {
		return nil, errs.ErrSessionNotFound
	}
	s.touch()
	s.rememberToken(ctx)
	return s, nil
}

// Close is the navigate-away path of a session.
func (r *Registry) Close(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		r.mu.Unlock()
		return errs.ErrSessionNotFound
	}
	r.removeLocked(s)
	r.mu.Unlock()

	return s.Close(ctx)
}

func (r *Registry) removeLocked(s *Session) {
	delete(r.sessions, s.ID)
	key := viewKey{s.UserID, s.ShowtimeID}
	if r.byView[key] == s.ID {
		delete(r.byView, key)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle since before now-IdleTimeout and returns how
// many were closed.
func (r *Registry) Sweep(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-r.deps.IdleTimeout)

	r.mu.Lock()
	var idle []*Session
	for _, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			idle = append(idle, s)
			r.removeLocked(s)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(ctx); err != nil {
			r.log.Warn("closing idle session failed", zap.String("session_id", s.ID), zap.Error(err))
			continue
		}
		r.log.Info("idle session closed", zap.String("session_id", s.ID))
	}
	return len(idle)
}

// Start launches the idle sweeper.
func (r *Registry) Start() {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.wg.Add(1)
	go r.sweepLoop(r.stopCh)
}

func (r *Registry) sweepLoop(stopCh <-chan struct{}) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.deps.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.Sweep(context.Background(), r.deps.Clock.Now())
		}
	}
}

// Stop halts the sweeper and closes every live session.
func (r *Registry) Stop(ctx context.Context) {
	r.runMu.Lock()
	if r.running {
		r.running = false
		close(r.stopCh)
	}
	r.runMu.Unlock()
	r.wg.Wait()

	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
		r.removeLocked(s)
	}
	r.mu.Unlock()
	for _, s := range all {
		_ = s.Close(ctx)
	}
}

// DraftEvents returns a DraftCoordinator.OnCreated callback that publishes
// DRAFT_CREATED events to sink.
func DraftEvents(sink EventSink, clk clock.Clock, log *zap.Logger) func(context.Context, string, string) {
	log = logger.OrNop(log)
	return func(ctx context.Context, userID, orderID string) {
		ev := queue.HoldEvent{Type: queue.DraftCreated, UserID: userID, OrderID: orderID, OccurredAt: clk.Now()}
		if err := sink.Publish(backend.Detach(ctx), ev); err != nil {
			log.Debug("draft event not published", zap.Error(err))
		}
	}
}
