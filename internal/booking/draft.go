package booking

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

// DraftStore records which booking flows already own an order draft, so
// a reload or a second replica does not create another one.
//
// Reserve claims key for creation.  It returns reserved=true when the
// caller now owns creation, or the committed order id when a draft exists.
// reserved=false with an empty id means another caller is creating it.
type DraftStore interface {
	Reserve(ctx context.Context, key string) (orderID string, reserved bool, err error)
	Commit(ctx context.Context, key, orderID string) error
	Release(ctx context.Context, key string) error
}

// DraftKey is the store key of the booking flow of userID for movieID.
func DraftKey(userID, movieID string) string {
	return "draft:" + userID + ":" + movieID
}

// DraftCoordinator creates exactly one PENDING order per booking flow.
type DraftCoordinator struct {
	orders backend.OrderAPI
	store  DraftStore
	log    *zap.Logger

	// OnCreated, when set, is called after a new draft order is created.
	OnCreated func(ctx context.Context, userID, orderID string)

	group  singleflight.Group
	mu     sync.Mutex
	drafts map[string]string
}

func NewDraftCoordinator(orders backend.OrderAPI, store DraftStore, log *zap.Logger) *DraftCoordinator {
	if store == nil {
		store = NewMemoryDraftStore()
	}
	return &DraftCoordinator{
		orders: orders,
		store:  store,
		log:    logger.OrNop(log).Named("draft"),
		drafts: map[string]string{},
	}
}

// Ensure returns the draft order id for key, creating the order on first
// use.  Concurrent callers with the same key share one creation.  A caller
// whose ctx ends stops waiting; the shared creation carries on detached
// and its result is kept for the next call.
func (d *DraftCoordinator) Ensure(ctx context.Context, key, userID, movieID string) (string, error) {
	d.mu.Lock()
	id, ok := d.drafts[key]
	d.mu.Unlock()
	if ok {
		return id, nil
	}

	ch := d.group.DoChan(key, func() (interface{}, error) {
		id, err := d.create(backend.Detach(ctx), key, userID, movieID)
		if err != nil {
			return "", err
		}
		d.mu.Lock()
		d.drafts[key] = id
		d.mu.Unlock()
		return id, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *DraftCoordinator) create(ctx context.Context, key, userID, movieID string) (string, error) {
	existing, reserved, err := d.store.Reserve(ctx, key)
	if err != nil {
		return "", errs.Wrap(err, "reserve order draft")
	}
	if !reserved {
		if existing == "" {
			return "", errs.Wrap(errs.ErrBusy, "order draft is being created")
		}
		return existing, nil
	}

	order, err := d.orders.CreateOrderDraft(backend.WithUser(ctx, userID), backend.OrderDraftRequest{
		UserID:        userID,
		MovieID:       movieID,
		PaymentStatus: model.PaymentStatusPending,
		TotalPrice:    0,
	})
	if err != nil {
		if rerr := d.store.Release(backend.Detach(ctx), key); rerr != nil {
			d.log.Warn("failed to release draft reservation", zap.String("key", key), zap.Error(rerr))
		}
		return "", err
	}
	if err := d.store.Commit(ctx, key, order.ID); err != nil {
		// the order exists; keep using it in-process even if sharing failed
		d.log.Warn("failed to commit draft reservation", zap.String("key", key), zap.Error(err))
	}
	d.log.Info("order draft created", zap.String("order_id", order.ID), zap.String("user_id", userID), zap.String("movie_id", movieID))
	if d.OnCreated != nil {
		d.OnCreated(ctx, userID, order.ID)
	}
	return order.ID, nil
}

// Forget drops the in-process record of key; the shared store keeps its
// own copy until it expires.
func (d *DraftCoordinator) Forget(key string) {
	d.mu.Lock()
	delete(d.drafts, key)
	d.mu.Unlock()
}

// MemoryDraftStore is an in-process DraftStore used when Redis is not
// configured.
type MemoryDraftStore struct {
	mu      sync.Mutex
	entries map[string]string
}

const pendingDraft = "\x00pending"

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{entries: map[string]string{}}
}

func (m *MemoryDraftStore) Reserve(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		m.entries[key] = pendingDraft
		return "", true, nil
	}
	if v == pendingDraft {
		return "", false, nil
	}
	return v, false, nil
}

func (m *MemoryDraftStore) Commit(_ context.Context, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = orderID
	return nil
}

func (m *MemoryDraftStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[key] == pendingDraft {
		delete(m.entries, key)
	}
	return nil
}
