package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-box-office/internal/backend/backendtest"
	"github.com/iliyamo/cinema-box-office/internal/countdown"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/queue"
)

func selectAll(t *testing.T, c *Controller, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, c.Select(id))
	}
}

func TestController_HoldThenCancelRoundTrip(t *testing.T) {
	f := newFixture(t)
	seats := []string{"A1", "A2", "A3"}
	selectAll(t, f.ctrl, seats...)

	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 0))

	snap := f.ctrl.Snapshot()
	assert.True(t, snap.Holding)
	assert.False(t, snap.Loading)
	assert.Equal(t, seats, snap.HeldIDs)
	assert.Equal(t, DefaultTTLSeconds, snap.RemainingSecs)
	assert.Equal(t, countdown.Running, snap.TimerState)
	assert.Equal(t, t0.Add(600*time.Second), snap.ExpiresAt)
	for _, id := range seats {
		assert.Equal(t, model.SeatStatusHolding, f.fake.SeatStatus(id))
	}
	assert.Equal(t, seats, f.fake.HeldBy(testUser))

	require.NoError(t, f.ctrl.CancelHold(context.Background()))

	snap = f.ctrl.Snapshot()
	assert.False(t, snap.Holding)
	assert.Empty(t, snap.HeldIDs)
	assert.Empty(t, snap.Selected)
	assert.Equal(t, countdown.Idle, snap.TimerState)
	for _, id := range seats {
		assert.Equal(t, model.SeatStatusAvailable, f.fake.SeatStatus(id))
	}
	assert.Equal(t, []queue.EventType{queue.HoldPlaced, queue.HoldReleased}, f.sink.types())
	assert.False(t, f.ctrl.Timer().Tick(), "no ticks after cancel")
}

func TestController_ExpiresAfterTTLTicks(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1", "A2", "A3")
	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 600))

	f.tick(599)
	snap := f.ctrl.Snapshot()
	require.True(t, snap.Holding)
	assert.Equal(t, 1, snap.RemainingSecs)

	f.tick(1)
	snap = f.ctrl.Snapshot()
	assert.False(t, snap.Holding)
	assert.Empty(t, snap.HeldIDs)
	assert.Empty(t, snap.Selected)
	assert.Equal(t, 0, snap.RemainingSecs)
	assert.Equal(t, WarningExpired, snap.Warning)
	assert.Equal(t, countdown.Expired, snap.TimerState)
	assert.Equal(t, []queue.EventType{queue.HoldPlaced, queue.HoldExpired}, f.sink.types())

	f.tick(5)
	assert.Len(t, f.sink.types(), 2, "expiry fires once")

	// selection is usable again
	require.NoError(t, f.ctrl.Select("A4"))
}

func TestController_CancelWithoutHoldMakesNoCall(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.CancelHold(context.Background()))
	require.NoError(t, f.ctrl.CancelHold(context.Background()))

	assert.Zero(t, f.fake.Calls(backendtest.OpBulkCancelHold))
	assert.Empty(t, f.sink.types())
}

func TestController_SelectionRules(t *testing.T) {
	f := newFixture(t)
	f.fake.SetSeatStatus("A5", model.SeatStatusBooked)
	st, err := f.fake.GetShowTimeDetails(userCtx(), testShowtime)
	require.NoError(t, err)
	f.ctrl.LoadLayout(st.Room.Seats)

	assert.ErrorIs(t, f.ctrl.Select("A5"), errs.ErrSeatNotSelectable)
	assert.False(t, f.ctrl.CanSelect("A5"))
	assert.ErrorIs(t, f.ctrl.HoldSelected(context.Background(), 0), errs.ErrEmptySelection)

	on, err := f.ctrl.Toggle("A1")
	require.NoError(t, err)
	assert.True(t, on)
	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 0))

	assert.ErrorIs(t, f.ctrl.Select("A2"), errs.ErrSelectionFrozen)
	assert.ErrorIs(t, f.ctrl.Deselect("A1"), errs.ErrSelectionFrozen)
	assert.False(t, f.ctrl.CanSelect("A2"))
	assert.ErrorIs(t, f.ctrl.HoldSelected(context.Background(), 0), errs.ErrAlreadyHolding)
}

func TestController_ConflictRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1", "A2")
	// another console takes A2 after it was selected here
	f.fake.SetSeatStatus("A2", model.SeatStatusHolding)

	err := f.ctrl.HoldSelected(context.Background(), 0)

	require.ErrorIs(t, err, errs.ErrConflict)
	var conflict *errs.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"A2"}, conflict.Unavailable)

	snap := f.ctrl.Snapshot()
	assert.False(t, snap.Holding)
	assert.Equal(t, []string{"A1", "A2"}, snap.Selected)
	assert.Equal(t, model.SeatStatusAvailable, f.fake.SeatStatus("A1"), "no partial hold")
	assert.Empty(t, f.fake.HeldBy(testUser))
	assert.Equal(t, countdown.Idle, snap.TimerState)
}

func TestController_NetworkFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1")
	f.fake.FailWith(backendtest.OpBulkHold, errs.Network("bulkHold", errors.New("i/o timeout")))

	err := f.ctrl.HoldSelected(context.Background(), 0)
	require.ErrorIs(t, err, errs.ErrNetwork)
	snap := f.ctrl.Snapshot()
	assert.False(t, snap.Holding)
	assert.False(t, snap.Loading)
	assert.Equal(t, []string{"A1"}, snap.Selected)

	f.fake.On(backendtest.OpBulkHold, nil)
	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 0))

	f.fake.FailWith(backendtest.OpBulkCancelHold, errs.Network("bulkCancelHold", errors.New("connection reset")))
	require.ErrorIs(t, f.ctrl.CancelHold(context.Background()), errs.ErrNetwork)
	snap = f.ctrl.Snapshot()
	assert.True(t, snap.Holding)
	assert.Equal(t, []string{"A1"}, snap.HeldIDs)
	assert.Equal(t, countdown.Running, snap.TimerState)
}

func TestController_BusyWhileCallInFlight(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1")
	entered, release := blockOn(f.fake, backendtest.OpBulkHold)
	defer release()

	done := make(chan error, 1)
	go func() { done <- f.ctrl.HoldSelected(context.Background(), 0) }()
	<-entered

	assert.True(t, f.ctrl.Snapshot().Loading)
	assert.ErrorIs(t, f.ctrl.Select("A2"), errs.ErrBusy)
	assert.ErrorIs(t, f.ctrl.HoldSelected(context.Background(), 0), errs.ErrBusy)
	assert.ErrorIs(t, f.ctrl.CancelHold(context.Background()), errs.ErrBusy)

	release()
	require.NoError(t, <-done)
	assert.True(t, f.ctrl.Snapshot().Holding)
	assert.Equal(t, 1, f.fake.Calls(backendtest.OpBulkHold))
}

func TestController_ExpiryDuringCancelDiscardsLateResponse(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1", "A2")
	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 3))

	entered, release := blockOn(f.fake, backendtest.OpBulkCancelHold)
	defer release()
	done := make(chan error, 1)
	go func() { done <- f.ctrl.CancelHold(context.Background()) }()
	<-entered

	f.tick(3)
	snap := f.ctrl.Snapshot()
	assert.False(t, snap.Holding, "local state is cleared immediately")
	assert.Empty(t, snap.HeldIDs)
	assert.True(t, snap.Loading, "the stale cancel still blocks new calls")
	assert.ErrorIs(t, f.ctrl.Select("A3"), errs.ErrBusy)

	release()
	require.NoError(t, <-done)
	snap = f.ctrl.Snapshot()
	assert.False(t, snap.Holding)
	assert.False(t, snap.Loading)
	assert.Equal(t, WarningExpired, snap.Warning)
	assert.Equal(t, []queue.EventType{queue.HoldPlaced, queue.HoldExpired}, f.sink.types())
}

func TestController_DisplayNeverExceedsServerExpiry(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1")
	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 600))

	// wall time moves on while the display clock misses ticks
	f.clock.Add(10*time.Second + 500*time.Millisecond)

	snap := f.ctrl.Snapshot()
	assert.Equal(t, 589, snap.RemainingSecs)
	assert.Equal(t, 600, f.ctrl.Timer().Remaining())
}

func TestController_ResyncReseedsFromServer(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1", "A2")
	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 600))

	f.clock.Add(100 * time.Second)
	require.NoError(t, f.ctrl.Resync(context.Background()))

	assert.Equal(t, 500, f.ctrl.Timer().Remaining())
	assert.True(t, f.ctrl.Snapshot().Holding)
}

func TestController_ResyncClearsHoldGoneOnServer(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1")
	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 600))

	// released elsewhere, e.g. by the backend sweeper
	require.NoError(t, f.fake.BulkCancelHold(userCtx(), []string{"A1"}))

	require.NoError(t, f.ctrl.Resync(context.Background()))
	snap := f.ctrl.Snapshot()
	assert.False(t, snap.Holding)
	assert.Equal(t, WarningReleasedRemote, snap.Warning)
}

func TestController_ResyncNetworkErrorKeepsHold(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1")
	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 600))
	f.fake.FailWith(backendtest.OpGetHoldInfo, errs.Network("getHoldInfo", errors.New("timeout")))

	require.ErrorIs(t, f.ctrl.Resync(context.Background()), errs.ErrNetwork)
	assert.True(t, f.ctrl.Snapshot().Holding)
}

func TestController_DisposeReleasesHold(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1", "A2")
	require.NoError(t, f.ctrl.HoldSelected(context.Background(), 0))

	require.NoError(t, f.ctrl.Dispose(context.Background()))
	require.NoError(t, f.ctrl.Dispose(context.Background()))

	assert.Equal(t, model.SeatStatusAvailable, f.fake.SeatStatus("A1"))
	assert.Equal(t, model.SeatStatusAvailable, f.fake.SeatStatus("A2"))
	assert.Equal(t, 1, f.fake.Calls(backendtest.OpBulkCancelHold))
	assert.False(t, f.ctrl.Timer().Tick())
	assert.ErrorIs(t, f.ctrl.Select("A3"), errs.ErrSessionClosed)
	assert.ErrorIs(t, f.ctrl.HoldSelected(context.Background(), 0), errs.ErrSessionClosed)
}

func TestController_DisposeWhileHoldInFlight(t *testing.T) {
	f := newFixture(t)
	selectAll(t, f.ctrl, "A1")
	entered, release := blockOn(f.fake, backendtest.OpBulkHold)

	done := make(chan error, 1)
	go func() { done <- f.ctrl.HoldSelected(context.Background(), 0) }()
	<-entered

	require.NoError(t, f.ctrl.Dispose(context.Background()))
	assert.Zero(t, f.fake.Calls(backendtest.OpBulkCancelHold), "nothing confirmed yet")

	release()
	assert.ErrorIs(t, <-done, errs.ErrSessionClosed)
	assert.Empty(t, f.fake.HeldBy(testUser), "late hold is released")
	assert.False(t, f.ctrl.Snapshot().Holding)
}

func TestController_RehydrateSeedsFromServerExpiry(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Rehydrate(&RecoveredHold{
		ShowTimeSeatIDs: []string{"A2", "A3"},
		HeldAt:          t0.Add(-30 * time.Second),
		ExpiresAt:       t0.Add(90 * time.Second),
	})

	snap := f.ctrl.Snapshot()
	assert.True(t, snap.Holding)
	assert.Equal(t, []string{"A2", "A3"}, snap.Selected)
	assert.Equal(t, []string{"A2", "A3"}, snap.HeldIDs)
	assert.Equal(t, 90, snap.RemainingSecs)
	assert.Equal(t, []queue.EventType{queue.HoldRecovered}, f.sink.types())

	f.ctrl.Rehydrate(nil)
	assert.True(t, f.ctrl.Snapshot().Holding)
}
