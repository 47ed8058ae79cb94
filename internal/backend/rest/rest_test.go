package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

func writeEnvelope(w http.ResponseWriter, status int, success bool, data any, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": success, "data": data, "message": msg})
}

func newClient(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second, 2, nil, WithBackoff(time.Millisecond)), &calls
}

func TestBulkHold_Success(t *testing.T) {
	expires := time.Date(2026, 3, 4, 18, 10, 0, 0, time.UTC)
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/seat-holds/bulk", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var body holdRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"A1", "A2"}, body.ShowTimeSeatIDs)
		assert.Equal(t, 600, body.TTLSeconds)

		writeEnvelope(w, http.StatusOK, true, map[string]any{
			"show_time_seat_ids": body.ShowTimeSeatIDs,
			"held_at":            expires.Add(-10 * time.Minute),
			"expires_at":         expires,
		}, "")
	})

	ctx := backend.WithToken(context.Background(), "tok-1")
	res, err := c.BulkHold(ctx, []string{"A1", "A2"}, 600)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, res.ShowTimeSeatIDs)
	assert.True(t, res.ExpiresAt.Equal(expires))
}

func TestBulkHold_ConflictIsNotRetried(t *testing.T) {
	c, calls := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, false, map[string]any{"unavailable": []string{"A2"}}, "seat taken")
	})

	_, err := c.BulkHold(context.Background(), []string{"A1", "A2"}, 600)

	require.ErrorIs(t, err, errs.ErrConflict)
	var ce *errs.ConflictError
	require.True(t, errs.As(err, &ce))
	assert.Equal(t, []string{"A2"}, ce.Unavailable)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestBulkCancel_ServerErrorIsNetwork(t *testing.T) {
	c, calls := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, false, nil, "db down")
	})

	err := c.BulkCancelHold(context.Background(), []string{"A1"})

	assert.ErrorIs(t, err, errs.ErrNetwork)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls), "writes are never retried")
}

func TestGet_RetriesTransientFailures(t *testing.T) {
	var n int32
	c, calls := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) < 3 {
			writeEnvelope(w, http.StatusServiceUnavailable, false, nil, "busy")
			return
		}
		writeEnvelope(w, http.StatusOK, true, []map[string]any{
			{"format_id": "F", "seat_type_id": "VIP", "day_type": "WEEKEND", "price": 150000},
		}, "")
	})

	prices, err := c.GetTicketPrices(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []model.TicketPrice{{FormatID: "F", SeatTypeID: "VIP", DayType: model.DayTypeWeekend, Price: 150000}}, prices)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestGet_GivesUpAfterRetries(t *testing.T) {
	c, calls := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadGateway, false, nil, "")
	})

	_, err := c.GetAllHeldSeatsByCurrentUser(context.Background())

	assert.ErrorIs(t, err, errs.ErrNetwork)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestGetHoldInfo_NotFound(t *testing.T) {
	c, calls := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/seat-holds/A9", r.URL.Path)
		writeEnvelope(w, http.StatusNotFound, false, nil, "no hold")
	})

	_, err := c.GetHoldInfo(context.Background(), "A9")

	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestTransportErrorIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, 0, nil)
	_, err := c.BulkHold(context.Background(), []string{"A1"}, 600)

	assert.ErrorIs(t, err, errs.ErrNetwork)
}

func TestGetShowTimeDetails(t *testing.T) {
	start := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/showtimes/show-1", r.URL.Path)
		writeEnvelope(w, http.StatusOK, true, map[string]any{
			"id": "show-1", "movie_id": "m1", "format_id": "IMAX", "start_time": start,
			"room": map[string]any{
				"id": "r1", "name": "Hall 1",
				"seats": []map[string]any{
					{"id": "sts-1", "seat_id": "s1", "seat_number": "A1", "seat_type_id": "VIP", "is_active": true, "status": "HOLDING"},
				},
			},
		}, "")
	})

	st, err := c.GetShowTimeDetails(context.Background(), "show-1")
	require.NoError(t, err)

	assert.Equal(t, model.DayTypeWeekend, st.DayType())
	require.Len(t, st.Room.Seats, 1)
	seat := st.Room.Seats[0]
	assert.Equal(t, "sts-1", seat.ID)
	assert.Equal(t, "show-1", seat.ShowTimeID)
	assert.Equal(t, "VIP", seat.Seat.SeatType.ID)
	assert.Equal(t, model.SeatStatusHolding, seat.Status)
}

func TestListCombos_SendsPaging(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		writeEnvelope(w, http.StatusOK, true, map[string]any{
			"items": []map[string]any{{"id": "c1", "name": "Duo", "total_price": 90000, "is_active": true}},
			"total": 101,
		}, "")
	})

	res, err := c.ListCombos(context.Background(), backend.Page{Page: 2, Limit: 500})
	require.NoError(t, err)

	assert.Equal(t, 101, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 100, res.Limit)
	assert.Equal(t, []model.Combo{{ID: "c1", Name: "Duo", TotalPrice: 90000, IsActive: true}}, res.Items)
}

func TestCreateOrderDraft(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"user_id":"u1","movie_id":"m1","payment_status":"PENDING","total_price":0}`, string(raw))
		writeEnvelope(w, http.StatusCreated, true, map[string]any{"id": "o-7", "user_id": "u1", "movie_id": "m1", "payment_status": "PENDING"}, "")
	})

	o, err := c.CreateOrderDraft(context.Background(), backend.OrderDraftRequest{UserID: "u1", MovieID: "m1", PaymentStatus: model.PaymentStatusPending})
	require.NoError(t, err)
	assert.Equal(t, "o-7", o.ID)
	assert.Equal(t, model.PaymentStatusPending, o.PaymentStatus)
}
