package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/backend/backendtest"
	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/countdown"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/queue"
)

const (
	testUser     = "user-1"
	testShowtime = "show-1"
)

var t0 = time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC) // Wednesday

type recordingSink struct {
	mu     sync.Mutex
	events []queue.HoldEvent
}

func (r *recordingSink) Publish(_ context.Context, ev queue.HoldEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func showtime(id string, seatIDs ...string) model.Showtime {
	st := model.Showtime{ID: id, MovieID: "movie-1", FormatID: "F", StartsAt: t0.Add(2 * time.Hour)}
	for i, sid := range seatIDs {
		typ := model.SeatType{ID: "STANDARD"}
		if i%2 == 1 {
			typ = model.SeatType{ID: "VIP"}
		}
		st.Room.Seats = append(st.Room.Seats, model.ShowTimeSeat{
			ID:         sid,
			ShowTimeID: id,
			Seat:       model.Seat{ID: "seat-" + sid, SeatNumber: sid, SeatType: typ, IsActive: true},
			Status:     model.SeatStatusAvailable,
		})
	}
	return st
}

type fixture struct {
	clock *clock.MockClock
	fake  *backendtest.Fake
	sink  *recordingSink
	ctrl  *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewMockClock(t0)
	fake := backendtest.New(clk)
	st := showtime(testShowtime, "A1", "A2", "A3", "A4", "A5")
	fake.AddShowtime(st)
	fake.AddShowtime(showtime("show-2", "B1", "B2"))

	sink := &recordingSink{}
	ctrl := NewController(
		Identity{SessionID: "sess-1", UserID: testUser, ShowtimeID: testShowtime},
		fake,
		WithClock(clk),
		WithEventSink(sink),
		WithTimerOptions(countdown.Manual()),
	)
	ctrl.LoadLayout(st.Room.Seats)
	t.Cleanup(func() { ctrl.Timer().Stop() })
	return &fixture{clock: clk, fake: fake, sink: sink, ctrl: ctrl}
}

// tick advances the mock clock and the manual countdown by n seconds.
func (f *fixture) tick(n int) {
	for i := 0; i < n; i++ {
		f.clock.Add(time.Second)
		f.ctrl.Timer().Tick()
	}
}

func userCtx() context.Context {
	return backend.WithUser(context.Background(), testUser)
}

// blockOn makes op block until the returned release func is called.  The
// entered channel is closed once the call reached the backend.
func blockOn(fake *backendtest.Fake, op string) (entered <-chan struct{}, release func()) {
	in := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	fake.On(op, func(ctx context.Context) error {
		once.Do(func() { close(in) })
		<-gate
		return nil
	})
	var rel sync.Once
	return in, func() { rel.Do(func() { close(gate) }) }
}
