package model

import "time"

// Showtime is one scheduled screening of a movie in a room, together with
// the room's seat layout for that screening.
//
// Fields:
//  ID       – show_times.id
//  MovieID  – movie being screened; used to open the order draft.
//  FormatID – projection format (2D, 3D, IMAX); part of the price key.
//  StartsAt – start of the screening; decides the day type.
//  Room     – room and its per-showtime seats.
type Showtime struct {
	ID       string
	MovieID  string
	FormatID string
	StartsAt time.Time
	Room     Room
}

// Room is a screening room with its seat layout for one showtime.
type Room struct {
	ID    string
	Name  string
	Seats []ShowTimeSeat
}

// SeatIDs returns the show-time seat ids of the layout.
func (s *Showtime) SeatIDs() []string {
	ids := make([]string, 0, len(s.Room.Seats))
	for _, seat := range s.Room.Seats {
		ids = append(ids, seat.ID)
	}
	return ids
}

// DayType returns the pricing bucket of the screening: WEEKEND for
// Saturday and Sunday in the showtime's own location, WEEKDAY otherwise.
func (s *Showtime) DayType() DayType {
	return DayTypeOf(s.StartsAt)
}

// DayTypeOf returns the pricing bucket for t.
func DayTypeOf(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return DayTypeWeekend
	default:
		return DayTypeWeekday
	}
}
