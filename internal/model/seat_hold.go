package model

import "time"

// Hold is a time-bounded exclusive reservation of one or more show-time
// seats for one user.  It exists only while the seats are HOLDING; the
// server releases it at ExpiresAt regardless of what the client does.
//
// Fields:
//  ShowTimeSeatIDs – seats covered by the hold.
//  UserID          – owner of the hold.
//  HeldAt          – when the hold was placed.
//  ExpiresAt       – authoritative server expiry.
//  TTLSeconds      – requested time-to-live.
type Hold struct {
	ShowTimeSeatIDs []string
	UserID          string
	HeldAt          time.Time
	ExpiresAt       time.Time
	TTLSeconds      int
}

// HoldInfo is the server's view of a single held seat, as returned by the
// hold-info and held-by-current-user calls.
type HoldInfo struct {
	ShowTimeSeatID string
	UserID         string
	HeldAt         time.Time
	ExpiresAt      time.Time
}

// RemainingSeconds returns the whole seconds left before ExpiresAt,
// rounded down so the result never exceeds the server's remaining time.
// Expired holds yield zero or a negative value.
func (h HoldInfo) RemainingSeconds(now time.Time) int {
	return SecondsUntil(h.ExpiresAt, now)
}

// SecondsUntil returns floor(t - now) in seconds.
func SecondsUntil(t, now time.Time) int {
	d := t.Sub(now)
	secs := int(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}
	return secs
}
