package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

var now = time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewStore(db, clock.NewMockClock(now), nil), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func userCtx() context.Context {
	return backend.WithUser(context.Background(), "u1")
}

func TestBulkHold_HoldsAllSeats(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT show_time_seat_id FROM seat_holds WHERE show_time_seat_id IN (?, ?) AND expires_at <= ?")).
		WithArgs("A1", "A2", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"show_time_seat_id"}))
	mock.ExpectQuery(q("SELECT sts.id FROM show_time_seats sts")).
		WithArgs("A1", "A2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("A1").AddRow("A2"))
	mock.ExpectExec(q("INSERT INTO seat_holds (show_time_seat_id, user_id, held_at, expires_at) VALUES (?, ?, ?, ?),(?, ?, ?, ?)")).
		WithArgs("A1", "u1", sqlmock.AnyArg(), sqlmock.AnyArg(), "A2", "u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q("UPDATE show_time_seats SET status_seat = ? WHERE id IN (?, ?)")).
		WithArgs("HOLDING", "A1", "A2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := s.BulkHold(userCtx(), []string{"A1", "A2", "A1"}, 600)

	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, res.ShowTimeSeatIDs)
	assert.True(t, res.HeldAt.Equal(now))
	assert.True(t, res.ExpiresAt.Equal(now.Add(10*time.Minute)))
}

func TestBulkHold_ReleasesExpiredFirst(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT show_time_seat_id FROM seat_holds")).
		WithArgs("A2", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"show_time_seat_id"}).AddRow("A2"))
	mock.ExpectExec(q("DELETE FROM seat_holds WHERE show_time_seat_id IN (?)")).
		WithArgs("A2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE show_time_seats SET status_seat = ?")).
		WithArgs("AVAILABLE", "A2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("SELECT sts.id FROM show_time_seats sts")).
		WithArgs("A2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("A2"))
	mock.ExpectExec(q("INSERT INTO seat_holds")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE show_time_seats SET status_seat = ?")).
		WithArgs("HOLDING", "A2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := s.BulkHold(userCtx(), []string{"A2"}, 60)
	require.NoError(t, err)
}

func TestBulkHold_ConflictRollsBack(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT show_time_seat_id FROM seat_holds")).
		WillReturnRows(sqlmock.NewRows([]string{"show_time_seat_id"}))
	mock.ExpectQuery(q("SELECT sts.id FROM show_time_seats sts")).
		WithArgs("A1", "A2", "A3").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("A1"))
	mock.ExpectRollback()

	_, err := s.BulkHold(userCtx(), []string{"A1", "A2", "A3"}, 600)

	require.ErrorIs(t, err, errs.ErrConflict)
	assert.NotErrorIs(t, err, errs.ErrNetwork)
	var ce *errs.ConflictError
	require.True(t, errs.As(err, &ce))
	assert.Equal(t, []string{"A2", "A3"}, ce.Unavailable)
}

func TestBulkHold_DatabaseErrorIsNetwork(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	_, err := s.BulkHold(userCtx(), []string{"A1"}, 600)

	assert.ErrorIs(t, err, errs.ErrNetwork)
}

func TestBulkHold_RequiresUser(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.BulkHold(context.Background(), []string{"A1"}, 600)

	assert.ErrorIs(t, err, ErrNoUser)
}

func TestBulkCancelHold_ReleasesOwnHoldsOnly(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT show_time_seat_id FROM seat_holds WHERE user_id = ? AND show_time_seat_id IN (?, ?) FOR UPDATE")).
		WithArgs("u1", "A1", "A2").
		WillReturnRows(sqlmock.NewRows([]string{"show_time_seat_id"}).AddRow("A1"))
	mock.ExpectExec(q("DELETE FROM seat_holds WHERE user_id = ? AND show_time_seat_id IN (?)")).
		WithArgs("u1", "A1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE show_time_seats SET status_seat = ?")).
		WithArgs("AVAILABLE", "A1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.BulkCancelHold(userCtx(), []string{"A1", "A2"}))
}

func TestBulkCancelHold_EmptyIsNoop(t *testing.T) {
	s, _ := newStore(t)

	assert.NoError(t, s.BulkCancelHold(userCtx(), nil))
}

func TestGetHoldInfo(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery(q("FROM seat_holds WHERE show_time_seat_id = ?")).
		WithArgs("A1").
		WillReturnRows(sqlmock.NewRows([]string{"show_time_seat_id", "user_id", "held_at", "expires_at"}).
			AddRow("A1", "u1", now, now.Add(time.Minute)))
	mock.ExpectQuery(q("FROM seat_holds WHERE show_time_seat_id = ?")).
		WithArgs("A9").
		WillReturnError(sql.ErrNoRows)

	info, err := s.GetHoldInfo(userCtx(), "A1")
	require.NoError(t, err)
	assert.Equal(t, 60, info.RemainingSeconds(now))

	_, err = s.GetHoldInfo(userCtx(), "A9")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetAllHeldSeatsByCurrentUser(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery(q("WHERE user_id = ?")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"show_time_seat_id", "user_id", "held_at", "expires_at"}).
			AddRow("A1", "u1", now, now.Add(-time.Second)).
			AddRow("A2", "u1", now, now.Add(time.Minute)))

	holds, err := s.GetAllHeldSeatsByCurrentUser(userCtx())

	require.NoError(t, err)
	require.Len(t, holds, 2)
	assert.Equal(t, "A1", holds[0].ShowTimeSeatID)
}

func TestGetShowTimeDetails(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery(q("FROM show_times sht")).
		WithArgs("show-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "movie_id", "format_id", "start_time", "room_id", "room_name"}).
			AddRow("show-1", "m1", "2D", now, "r1", "Hall 1"))
	mock.ExpectQuery(q("FROM show_time_seats sts")).
		WithArgs("show-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "show_time_id", "status_seat", "seat_id", "seat_number", "is_active", "type_id", "type_name"}).
			AddRow("sts-1", "show-1", "AVAILABLE", "s1", "A1", true, "VIP", "Vip").
			AddRow("sts-2", "show-1", "FIXING", "s2", "A2", true, "STANDARD", "Standard"))

	st, err := s.GetShowTimeDetails(userCtx(), "show-1")

	require.NoError(t, err)
	assert.Equal(t, "m1", st.MovieID)
	assert.Equal(t, []string{"sts-1", "sts-2"}, st.SeatIDs())
	assert.Equal(t, model.SeatStatusFixing, st.Room.Seats[1].Status)
	assert.False(t, st.Room.Seats[1].Selectable())
}

func TestGetShowTimeDetails_NotFound(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery(q("FROM show_times sht")).WillReturnError(sql.ErrNoRows)

	_, err := s.GetShowTimeDetails(userCtx(), "nope")

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListCombos_Paginates(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery(q("SELECT COUNT(*) FROM combos WHERE is_active = 1")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(25))
	mock.ExpectQuery(q("FROM combos WHERE is_active = 1 ORDER BY name, id LIMIT ? OFFSET ?")).
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_price", "is_active"}).
			AddRow("c21", "Duo", 90000, true))

	res, err := s.ListCombos(userCtx(), backend.Page{Page: 2})

	require.NoError(t, err)
	assert.Equal(t, 25, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 20, res.Limit)
	assert.False(t, res.HasMore())
	assert.Equal(t, []model.Combo{{ID: "c21", Name: "Duo", TotalPrice: 90000, IsActive: true}}, res.Items)
}

func TestListDiscounts_NullBoundsStayOpen(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery(q("SELECT COUNT(*) FROM event_discounts")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery(q("FROM event_discounts WHERE is_active = 1")).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "percent", "is_active", "start_date", "end_date"}).
			AddRow("d1", "ev1", 15, true, nil, now))

	res, err := s.ListDiscounts(userCtx(), backend.Page{})

	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	d := res.Items[0]
	assert.True(t, d.StartsAt.IsZero())
	assert.True(t, d.ActiveAt(now.Add(-24*time.Hour)))
	assert.False(t, d.ActiveAt(now.Add(time.Second)))
}

func TestCreateOrderDraft(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectExec(q("INSERT INTO orders (id, user_id, movie_id, payment_status, total_price, created_at)")).
		WithArgs(sqlmock.AnyArg(), "u1", "m1", "PENDING", int64(0), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	o, err := s.CreateOrderDraft(userCtx(), backend.OrderDraftRequest{UserID: "u1", MovieID: "m1"})

	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, model.PaymentStatusPending, o.PaymentStatus)
	assert.True(t, o.CreatedAt.Equal(now))
}
