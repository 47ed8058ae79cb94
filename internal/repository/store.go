package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

// Store implements backend.Backend on the MySQL schema.  The acting user
// comes from the context (backend.WithUser).  Database failures surface
// as errs.NetworkError so callers treat both adapters alike.
type Store struct {
	db        *sql.DB
	Showtimes *ShowtimeRepo
	ShowSeats *ShowSeatRepo
	Holds     *SeatHoldRepo
	Orders    *OrderRepo
	Catalog   *CatalogRepo
	clock     clock.Clock
	log       *zap.Logger
}

var _ backend.Backend = (*Store)(nil)

// NewStore wires every repository on db.
func NewStore(db *sql.DB, clk clock.Clock, log *zap.Logger) *Store {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Store{
		db:        db,
		Showtimes: NewShowtimeRepo(db),
		ShowSeats: NewShowSeatRepo(db),
		Holds:     NewSeatHoldRepo(db),
		Orders:    NewOrderRepo(db),
		Catalog:   NewCatalogRepo(db),
		clock:     clk,
		log:       logger.OrNop(log).Named("mysql"),
	}
}

func currentUser(ctx context.Context) (string, error) {
	u, ok := backend.UserFrom(ctx)
	if !ok {
		return "", ErrNoUser
	}
	return u, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// inTx runs fn in a transaction, rolling back unless fn and the commit
// succeed.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// BulkHold holds every seat of ids or none.  Expired holds on the
// requested seats are released first, so a seat whose hold lapsed is
// holdable again.
func (s *Store) BulkHold(ctx context.Context, ids []string, ttlSeconds int) (*backend.HoldResult, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, errs.ErrEmptySelection
	}

	now := s.clock.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(time.Duration(ttlSeconds) * time.Second)
	var conflict error
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		expired, err := s.Holds.ExpireHoldsTx(ctx, tx, unique, now)
		if err != nil {
			return errs.Wrap(err, "expire holds")
		}
		if err := s.ShowSeats.BulkUpdateStatusTx(ctx, tx, expired, model.SeatStatusAvailable); err != nil {
			return errs.Wrap(err, "release expired seats")
		}

		holdable, err := s.ShowSeats.FilterHoldableSeatsTx(ctx, tx, unique)
		if err != nil {
			return errs.Wrap(err, "check seat availability")
		}
		if len(holdable) != len(unique) {
			allowed := make(map[string]struct{}, len(holdable))
			for _, id := range holdable {
				allowed[id] = struct{}{}
			}
			var unavailable []string
			for _, id := range unique {
				if _, ok := allowed[id]; !ok {
					unavailable = append(unavailable, id)
				}
			}
			conflict = errs.Conflict(unavailable...)
			return conflict
		}

		if err := s.Holds.CreateMultipleTx(ctx, tx, GenerateHoldRecords(userID, unique, now, expiresAt)); err != nil {
			return errs.Wrap(err, "create holds")
		}
		if err := s.ShowSeats.BulkUpdateStatusTx(ctx, tx, unique, model.SeatStatusHolding); err != nil {
			return errs.Wrap(err, "mark seats holding")
		}
		return nil
	})
	if conflict != nil {
		return nil, conflict
	}
	if err != nil {
		return nil, errs.Network("bulkHold", err)
	}
	s.log.Debug("seats held", zap.String("user_id", userID), zap.Int("seat_count", len(unique)))
	return &backend.HoldResult{ShowTimeSeatIDs: unique, HeldAt: now, ExpiresAt: expiresAt}, nil
}

// BulkCancelHold releases the caller's holds among ids.  Seats not held by
// the caller are left alone.
func (s *Store) BulkCancelHold(ctx context.Context, ids []string) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		released, err := s.Holds.DeleteByUserTx(ctx, tx, userID, unique)
		if err != nil {
			return errs.Wrap(err, "release holds")
		}
		return s.ShowSeats.BulkUpdateStatusTx(ctx, tx, released, model.SeatStatusAvailable)
	})
	return errs.Network("bulkCancelHold", err)
}

func (s *Store) GetHoldInfo(ctx context.Context, showTimeSeatID string) (*model.HoldInfo, error) {
	h, err := s.Holds.GetBySeat(ctx, showTimeSeatID)
	if errors.Is(err, ErrHoldNotFound) {
		return nil, errs.Wrapf(errs.ErrNotFound, "hold on %s", showTimeSeatID)
	}
	if err != nil {
		return nil, errs.Network("getHoldInfo", err)
	}
	info := h.info()
	return &info, nil
}

func (s *Store) GetAllHeldSeatsByCurrentUser(ctx context.Context) ([]model.HoldInfo, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.Holds.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Network("getAllHeldSeatsByCurrentUser", err)
	}
	out := make([]model.HoldInfo, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.info())
	}
	return out, nil
}

func (s *Store) GetShowTimeDetails(ctx context.Context, showtimeID string) (*model.Showtime, error) {
	st, err := s.Showtimes.GetByID(ctx, showtimeID)
	if errors.Is(err, ErrShowtimeNotFound) {
		return nil, errs.Wrapf(errs.ErrNotFound, "showtime %s", showtimeID)
	}
	if err != nil {
		return nil, errs.Network("getShowTimeDetails", err)
	}
	seats, err := s.ShowSeats.ListByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, errs.Network("getShowTimeDetails", err)
	}
	st.Room.Seats = seats
	return st, nil
}

func (s *Store) GetTicketPrices(ctx context.Context) ([]model.TicketPrice, error) {
	prices, err := s.Catalog.TicketPrices(ctx)
	if err != nil {
		return nil, errs.Network("getTicketPrices", err)
	}
	return prices, nil
}

func pageOf[T any](op string, p backend.Page, read func(limit, offset int) ([]T, int, error)) (backend.PageResult[T], error) {
	p = p.Normalize()
	items, total, err := read(p.Limit, p.Offset())
	if err != nil {
		return backend.PageResult[T]{}, errs.Network(op, err)
	}
	return backend.PageResult[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func (s *Store) ListCombos(ctx context.Context, p backend.Page) (backend.PageResult[model.Combo], error) {
	return pageOf("listCombos", p, func(limit, offset int) ([]model.Combo, int, error) {
		return s.Catalog.Combos(ctx, limit, offset)
	})
}

func (s *Store) ListMenuItems(ctx context.Context, p backend.Page) (backend.PageResult[model.MenuItem], error) {
	return pageOf("listMenuItems", p, func(limit, offset int) ([]model.MenuItem, int, error) {
		return s.Catalog.MenuItems(ctx, limit, offset)
	})
}

func (s *Store) ListEvents(ctx context.Context, p backend.Page) (backend.PageResult[model.Event], error) {
	return pageOf("listEvents", p, func(limit, offset int) ([]model.Event, int, error) {
		return s.Catalog.Events(ctx, limit, offset)
	})
}

func (s *Store) ListDiscounts(ctx context.Context, p backend.Page) (backend.PageResult[model.EventDiscount], error) {
	return pageOf("listDiscounts", p, func(limit, offset int) ([]model.EventDiscount, int, error) {
		return s.Catalog.Discounts(ctx, limit, offset)
	})
}

func (s *Store) CreateOrderDraft(ctx context.Context, req backend.OrderDraftRequest) (*model.OrderDraft, error) {
	o := &model.OrderDraft{
		UserID:        req.UserID,
		MovieID:       req.MovieID,
		PaymentStatus: req.PaymentStatus,
		TotalPrice:    req.TotalPrice,
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = model.PaymentStatusPending
	}
	if err := s.Orders.Create(ctx, o, s.clock.Now()); err != nil {
		return nil, errs.Network("createOrderDraft", err)
	}
	return o, nil
}
