// This file defines the showtime repository.  A showtime is a scheduled
// screening of a movie in a room; its seats live in show_time_seats.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ShowtimeRepo manages persistence for show_times.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo creates a new ShowtimeRepo bound to the given DB.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *ShowtimeRepo) DB() *sql.DB {
	return r.db
}

// GetByID returns the showtime header and its room, without seats.  When
// no showtime exists ErrShowtimeNotFound is returned.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id string) (*model.Showtime, error) {
	const q = `SELECT sht.id, sht.movie_id, sht.format_id, sht.start_time, rm.id, rm.name
	           FROM show_times sht
	           JOIN rooms rm ON rm.id = sht.room_id
	           WHERE sht.id = ?`
	var st model.Showtime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&st.ID, &st.MovieID, &st.FormatID, &st.StartsAt, &st.Room.ID, &st.Room.Name,
	)
	if err == sql.ErrNoRows {
		return nil, ErrShowtimeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
