package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// CatalogRepo reads the pricing inputs: ticket prices, combos, menu
// items, events and event discounts.  List methods return active rows
// only, paginated with LIMIT/OFFSET, plus the total count.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// TicketPrices returns the whole price table.
func (r *CatalogRepo) TicketPrices(ctx context.Context) ([]model.TicketPrice, error) {
	const q = `SELECT format_id, seat_type_id, day_type, price FROM ticket_prices`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TicketPrice
	for rows.Next() {
		var p model.TicketPrice
		var day string
		if err := rows.Scan(&p.FormatID, &p.SeatTypeID, &day, &p.Price); err != nil {
			return nil, err
		}
		p.DayType = model.DayType(day)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) count(ctx context.Context, q string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, q).Scan(&n)
	return n, err
}

// Combos returns one page of active combos.
func (r *CatalogRepo) Combos(ctx context.Context, limit, offset int) ([]model.Combo, int, error) {
	total, err := r.count(ctx, `SELECT COUNT(*) FROM combos WHERE is_active = 1`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, total_price, is_active FROM combos WHERE is_active = 1 ORDER BY name, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.Combo
	for rows.Next() {
		var c model.Combo
		if err := rows.Scan(&c.ID, &c.Name, &c.TotalPrice, &c.IsActive); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// MenuItems returns one page of active menu items.
func (r *CatalogRepo) MenuItems(ctx context.Context, limit, offset int) ([]model.MenuItem, int, error) {
	total, err := r.count(ctx, `SELECT COUNT(*) FROM menu_items WHERE is_active = 1`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price, is_active FROM menu_items WHERE is_active = 1 ORDER BY name, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.IsActive); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// Events returns one page of events.  Discounts are read separately.
func (r *CatalogRepo) Events(ctx context.Context, limit, offset int) ([]model.Event, int, error) {
	total, err := r.count(ctx, `SELECT COUNT(*) FROM events`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM events ORDER BY name, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// Discounts returns one page of active event discounts.  NULL bounds map
// to the zero time, which leaves that side of the window open.
func (r *CatalogRepo) Discounts(ctx context.Context, limit, offset int) ([]model.EventDiscount, int, error) {
	total, err := r.count(ctx, `SELECT COUNT(*) FROM event_discounts WHERE is_active = 1`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, percent, is_active, start_date, end_date
         FROM event_discounts WHERE is_active = 1 ORDER BY event_id, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.EventDiscount
	for rows.Next() {
		var d model.EventDiscount
		var start, end sql.NullTime
		if err := rows.Scan(&d.ID, &d.EventID, &d.Percent, &d.IsActive, &start, &end); err != nil {
			return nil, 0, err
		}
		if start.Valid {
			d.StartsAt = start.Time
		}
		if end.Valid {
			d.EndsAt = end.Time
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}
