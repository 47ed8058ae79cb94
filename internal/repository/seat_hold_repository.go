package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// SeatHoldRecord mirrors a row of the seat_holds table.  One row exists
// per held show-time seat; the seats of one bulk hold share HeldAt and
// ExpiresAt.
type SeatHoldRecord struct {
	ShowTimeSeatID string    // show_time_seats.id of the held seat
	UserID         string    // owner of the hold
	HeldAt         time.Time // when the hold was placed
	ExpiresAt      time.Time // server-side expiry
}

func (r SeatHoldRecord) info() model.HoldInfo {
	return model.HoldInfo{
		ShowTimeSeatID: r.ShowTimeSeatID,
		UserID:         r.UserID,
		HeldAt:         r.HeldAt,
		ExpiresAt:      r.ExpiresAt,
	}
}

// SeatHoldRepo provides data access to the seat_holds table.  All
// timestamps are stored and compared in UTC.
type SeatHoldRepo struct {
	db *sql.DB
}

// NewSeatHoldRepo returns a new SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []interface{} {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

// ExpireHoldsTx removes the expired holds among ids and returns the
// show-time seat ids whose holds were removed.  A hold is expired when
// expires_at <= now.  Callers set the returned seats back to AVAILABLE in
// the same transaction.
func (r *SeatHoldRepo) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, ids []string, now time.Time) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	args := append(stringArgs(ids), now.UTC())
	rows, err := tx.QueryContext(ctx,
		`SELECT show_time_seat_id FROM seat_holds WHERE show_time_seat_id IN (`+placeholders(len(ids))+`) AND expires_at <= ?`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	expired, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return []string{}, nil
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM seat_holds WHERE show_time_seat_id IN (`+placeholders(len(expired))+`)`,
		stringArgs(expired)...,
	)
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// CreateMultipleTx inserts one seat_holds row per record in a single
// statement.  Passing an empty slice has no effect.
func (r *SeatHoldRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, holds []SeatHoldRecord) error {
	if len(holds) == 0 {
		return nil
	}
	query := `INSERT INTO seat_holds (show_time_seat_id, user_id, held_at, expires_at) VALUES `
	args := make([]interface{}, 0, len(holds)*4)
	for i, h := range holds {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, h.ShowTimeSeatID, h.UserID, h.HeldAt.UTC(), h.ExpiresAt.UTC())
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeleteByUserTx removes the holds of userID among ids and returns the
// seats that were released.  Ids not held by the user are ignored, which
// keeps cancel idempotent.
func (r *SeatHoldRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	args := append([]interface{}{userID}, stringArgs(ids)...)
	rows, err := tx.QueryContext(ctx,
		`SELECT show_time_seat_id FROM seat_holds WHERE user_id = ? AND show_time_seat_id IN (`+placeholders(len(ids))+`) FOR UPDATE`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	released, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	if len(released) == 0 {
		return released, nil
	}
	delArgs := append([]interface{}{userID}, stringArgs(released)...)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM seat_holds WHERE user_id = ? AND show_time_seat_id IN (`+placeholders(len(released))+`)`,
		delArgs...,
	); err != nil {
		return nil, err
	}
	return released, nil
}

// GetBySeat returns the hold on one show-time seat, expired or not.
func (r *SeatHoldRepo) GetBySeat(ctx context.Context, showTimeSeatID string) (*SeatHoldRecord, error) {
	const q = `SELECT show_time_seat_id, user_id, held_at, expires_at FROM seat_holds WHERE show_time_seat_id = ?`
	var h SeatHoldRecord
	err := r.db.QueryRowContext(ctx, q, showTimeSeatID).Scan(&h.ShowTimeSeatID, &h.UserID, &h.HeldAt, &h.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListByUser returns every hold row of userID, including expired rows the
// sweeper has not removed yet.  Callers decide what is stale.
func (r *SeatHoldRepo) ListByUser(ctx context.Context, userID string) ([]SeatHoldRecord, error) {
	const q = `SELECT show_time_seat_id, user_id, held_at, expires_at
               FROM seat_holds
               WHERE user_id = ?
               ORDER BY expires_at, show_time_seat_id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var holds []SeatHoldRecord
	for rows.Next() {
		var h SeatHoldRecord
		if err := rows.Scan(&h.ShowTimeSeatID, &h.UserID, &h.HeldAt, &h.ExpiresAt); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

// GenerateHoldRecords builds the records of one bulk hold: every seat
// shares heldAt and expiresAt.
func GenerateHoldRecords(userID string, ids []string, heldAt, expiresAt time.Time) []SeatHoldRecord {
	holds := make([]SeatHoldRecord, 0, len(ids))
	for _, id := range ids {
		holds = append(holds, SeatHoldRecord{
			ShowTimeSeatID: id,
			UserID:         userID,
			HeldAt:         heldAt,
			ExpiresAt:      expiresAt,
		})
	}
	return holds
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
