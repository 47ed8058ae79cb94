package booking

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

// RecoveredHold is a live hold of the current user on the current
// showtime, found when the booking view is entered.
type RecoveredHold struct {
	ShowTimeSeatIDs []string
	HeldAt          time.Time
	ExpiresAt       time.Time
	RemainingSecs   int
}

// Recovery reconciles holds the user already owns with the showtime being
// opened.  The server is authoritative: expired holds are left for it to
// sweep, and a failed lookup means "no hold".
type Recovery struct {
	holds  backend.HoldAPI
	clock  clock.Clock
	log    *zap.Logger
	tracer trace.Tracer
}

func NewRecovery(holds backend.HoldAPI, clk clock.Clock, log *zap.Logger) *Recovery {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Recovery{
		holds:  holds,
		clock:  clk,
		log:    logger.OrNop(log).Named("recovery"),
		tracer: otel.Tracer(tracerName),
	}
}

// Recover returns the user's live hold on the seats of layoutIDs, or nil.
// Holds on other showtimes are ignored.  When held seats expire at
// different times the earliest expiry is used so the countdown never
// outlives any of them.
func (r *Recovery) Recover(ctx context.Context, layoutIDs []string) *RecoveredHold {
	ctx, span := r.tracer.Start(ctx, "booking.recover", trace.WithAttributes(
		attribute.Int("layout_size", len(layoutIDs)),
	))
	defer span.End()

	holds, err := r.holds.GetAllHeldSeatsByCurrentUser(ctx)
	if err != nil {
		span.RecordError(err)
		r.log.Warn("hold lookup failed, assuming no existing hold", zap.Error(err))
		return nil
	}

	inLayout := make(map[string]struct{}, len(layoutIDs))
	for _, id := range layoutIDs {
		inLayout[id] = struct{}{}
	}

	now := r.clock.Now()
	var (
		live  []model.HoldInfo
		stale int
	)
	for _, h := range holds {
		if _, ok := inLayout[h.ShowTimeSeatID]; !ok {
			continue
		}
		if h.RemainingSeconds(now) <= 0 {
			stale++
			continue
		}
		live = append(live, h)
	}
	if stale > 0 {
		r.log.Info("ignoring expired holds", zap.Int("seat_count", stale))
	}
	span.SetAttributes(attribute.Int("live_seats", len(live)), attribute.Int("stale_seats", stale))
	if len(live) == 0 {
		return nil
	}

	sort.Slice(live, func(i, j int) bool { return live[i].ShowTimeSeatID < live[j].ShowTimeSeatID })
	rec := &RecoveredHold{ExpiresAt: live[0].ExpiresAt, HeldAt: live[0].HeldAt}
	for _, h := range live {
		rec.ShowTimeSeatIDs = append(rec.ShowTimeSeatIDs, h.ShowTimeSeatID)
		if h.ExpiresAt.Before(rec.ExpiresAt) {
			rec.ExpiresAt = h.ExpiresAt
		}
		if !h.HeldAt.IsZero() && (rec.HeldAt.IsZero() || h.HeldAt.Before(rec.HeldAt)) {
			rec.HeldAt = h.HeldAt
		}
	}
	rec.RemainingSecs = model.SecondsUntil(rec.ExpiresAt, now)
	if rec.RemainingSecs <= 0 {
		return nil
	}
	return rec
}
