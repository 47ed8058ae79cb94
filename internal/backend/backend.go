//go:generate mockgen -destination=mock/mock_backend.go -package=mock github.com/iliyamo/cinema-box-office/internal/backend HoldAPI,OrderAPI

// Package backend declares the cinema backend operations the booking
// subsystem consumes.  The backend owns seat locking, conflict resolution
// and hold expiry; this service only calls it.  Two adapters exist: rest
// (HTTP API) and repository (direct MySQL).
package backend

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// HoldAPI is the seat hold contract.  BulkHold is all-or-nothing: when any
// seat is not AVAILABLE the whole batch fails with an errs.ConflictError.
// BulkCancelHold is idempotent on already released seats.
type HoldAPI interface {
	BulkHold(ctx context.Context, showTimeSeatIDs []string, ttlSeconds int) (*HoldResult, error)
	BulkCancelHold(ctx context.Context, showTimeSeatIDs []string) error
	GetHoldInfo(ctx context.Context, showTimeSeatID string) (*model.HoldInfo, error)
	GetAllHeldSeatsByCurrentUser(ctx context.Context) ([]model.HoldInfo, error)
}

// HoldResult is the confirmation of a successful bulk hold.
type HoldResult struct {
	ShowTimeSeatIDs []string
	HeldAt          time.Time
	ExpiresAt       time.Time
}

// ShowtimeAPI reads showtime details with the live seat layout.
type ShowtimeAPI interface {
	GetShowTimeDetails(ctx context.Context, showtimeID string) (*model.Showtime, error)
}

// Page requests one page of a paginated read.  Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// Offset converts the page to a row offset.
func (p Page) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Normalize applies defaults: page 1, limit 20, limit capped at 100.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// PageResult is one page of items plus the total count across pages.
type PageResult[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

// HasMore reports whether pages after this one exist.
func (r PageResult[T]) HasMore() bool {
	return r.Page*r.Limit < r.Total && len(r.Items) > 0
}

// CatalogAPI reads pricing inputs.  List calls return active entries only.
type CatalogAPI interface {
	GetTicketPrices(ctx context.Context) ([]model.TicketPrice, error)
	ListCombos(ctx context.Context, p Page) (PageResult[model.Combo], error)
	ListMenuItems(ctx context.Context, p Page) (PageResult[model.MenuItem], error)
	ListEvents(ctx context.Context, p Page) (PageResult[model.Event], error)
	ListDiscounts(ctx context.Context, p Page) (PageResult[model.EventDiscount], error)
}

// OrderDraftRequest is the body of createOrderDraft.
type OrderDraftRequest struct {
	UserID        string
	MovieID       string
	PaymentStatus model.PaymentStatus
	TotalPrice    int64
}

type OrderAPI interface {
	CreateOrderDraft(ctx context.Context, req OrderDraftRequest) (*model.OrderDraft, error)
}

// Backend aggregates every port.
type Backend interface {
	HoldAPI
	ShowtimeAPI
	CatalogAPI
	OrderAPI
}
