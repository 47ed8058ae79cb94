// Package queue carries hold lifecycle events over RabbitMQ: the console
// service publishes them, the hold-audit consumer appends them to a log.
package queue

import (
	"fmt"
	"strings"
	"time"
)

// EventType names a hold lifecycle transition.
type EventType string

const (
	HoldPlaced    EventType = "HOLD_PLACED"
	HoldReleased  EventType = "HOLD_RELEASED"
	HoldExpired   EventType = "HOLD_EXPIRED"
	HoldRecovered EventType = "HOLD_RECOVERED"
	DraftCreated  EventType = "DRAFT_CREATED"
)

// HoldEvent is published whenever a booking session's hold changes.  It
// carries enough for auditing without querying the backend.
type HoldEvent struct {
	Type            EventType `json:"type"`
	SessionID       string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	ShowtimeID      string    `json:"showtime_id"`
	ShowTimeSeatIDs []string  `json:"show_time_seat_ids,omitempty"`
	OrderID         string    `json:"order_id,omitempty"`
	ExpiresAt       time.Time `json:"expires_at,omitzero"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Line renders the event as a single human-friendly audit log line.
func (e HoldEvent) Line() string {
	seats := "[]"
	if len(e.ShowTimeSeatIDs) > 0 {
		seats = fmt.Sprintf("[%s]", strings.Join(e.ShowTimeSeatIDs, ","))
	}
	line := fmt.Sprintf("[%s] %s | session_id=%s | user_id=%s | showtime_id=%s | seats=%s",
		e.OccurredAt.UTC().Format(time.RFC3339), e.Type, e.SessionID, e.UserID, e.ShowtimeID, seats)
	if !e.ExpiresAt.IsZero() {
		line += " | expires_at=" + e.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if e.OrderID != "" {
		line += " | order_id=" + e.OrderID
	}
	return line + "\n"
}
