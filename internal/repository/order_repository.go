package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// OrderRepo inserts order drafts.  Line items (tickets, combos, menu items)
// are written by checkout, not here.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts a new order and fills in its generated id and creation
// time.
func (r *OrderRepo) Create(ctx context.Context, o *model.OrderDraft, now time.Time) error {
	const q = `INSERT INTO orders (id, user_id, movie_id, payment_status, total_price, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	id := uuid.NewString()
	created := now.UTC()
	if _, err := r.db.ExecContext(ctx, q, id, o.UserID, o.MovieID, string(o.PaymentStatus), o.TotalPrice, created); err != nil {
		return err
	}
	o.ID = id
	o.CreatedAt = created
	return nil
}
