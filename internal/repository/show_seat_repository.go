package repository // repository for show-time seat persistence

import (
	"context"      // context for managing deadlines
	"database/sql" // sql provides DB interfaces

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ShowSeatRepo encapsulates database operations for show_time_seats, the
// per-showtime instances of the room's seats.
type ShowSeatRepo struct {
	db *sql.DB
}

// NewShowSeatRepo constructs a ShowSeatRepo given a DB handle.
func NewShowSeatRepo(db *sql.DB) *ShowSeatRepo {
	return &ShowSeatRepo{db: db}
}

// ListByShowtime returns the seat layout of a showtime with live statuses,
// ordered by seat number.
func (r *ShowSeatRepo) ListByShowtime(ctx context.Context, showtimeID string) ([]model.ShowTimeSeat, error) {
	const q = `SELECT sts.id, sts.show_time_id, sts.status_seat,
                      s.id, s.seat_number, s.is_active, st.id, st.name
               FROM show_time_seats sts
               JOIN seats s ON s.id = sts.seat_id
               JOIN seat_types st ON st.id = s.seat_type_id
               WHERE sts.show_time_id = ?
               ORDER BY s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.ShowTimeSeat
	for rows.Next() {
		var ss model.ShowTimeSeat
		var status string
		if err := rows.Scan(
			&ss.ID, &ss.ShowTimeID, &status,
			&ss.Seat.ID, &ss.Seat.SeatNumber, &ss.Seat.IsActive, &ss.Seat.SeatType.ID, &ss.Seat.SeatType.Name,
		); err != nil {
			return nil, err
		}
		ss.Status = model.SeatStatus(status)
		seats = append(seats, ss)
	}
	return seats, rows.Err()
}

// FilterHoldableSeatsTx locks the rows of ids and returns the subset that
// can be held: active seats whose status is AVAILABLE.  Unknown ids are
// simply absent from the result.
func (r *ShowSeatRepo) FilterHoldableSeatsTx(ctx context.Context, tx *sql.Tx, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT sts.id FROM show_time_seats sts
         JOIN seats s ON s.id = sts.seat_id
         WHERE sts.id IN (`+placeholders(len(ids))+`) AND sts.status_seat = 'AVAILABLE' AND s.is_active = 1
         FOR UPDATE`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// BulkUpdateStatusTx sets status on every seat of ids in one statement.
func (r *ShowSeatRepo) BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, ids []string, status model.SeatStatus) error {
	if len(ids) == 0 {
		return nil
	}
	args := append([]interface{}{string(status)}, stringArgs(ids)...)
	_, err := tx.ExecContext(ctx,
		`UPDATE show_time_seats SET status_seat = ? WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	return err
}
