package model

// SeatStatus is the per-showtime state of a seat.  A seat has exactly one
// status at a time.  The zero value means the backend reported no status,
// which the booking view treats like AVAILABLE.
type SeatStatus string

const (
	SeatStatusNone      SeatStatus = ""
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusHolding   SeatStatus = "HOLDING"
	SeatStatusBooked    SeatStatus = "BOOKED"
	SeatStatusFixing    SeatStatus = "FIXING"
)

// Free reports whether the status allows a new selection.
func (s SeatStatus) Free() bool {
	return s == SeatStatusNone || s == SeatStatusAvailable
}

// ShowTimeSeat links a seat to a particular showtime and carries its
// live status.  Holds and cancels address seats by this ID, not by the
// catalog seat ID.
//
// Fields:
//  ID         – show_time_seats.id, the id sent to hold/cancel calls.
//  ShowTimeID – the showtime this seat instance belongs to.
//  Seat       – the catalog seat.
//  Status     – AVAILABLE, HOLDING, BOOKED or FIXING.
type ShowTimeSeat struct {
	ID         string     // show_time_seats.id
	ShowTimeID string     // show_time_seats.show_time_id
	Seat       Seat       // show_time_seats.seat_id
	Status     SeatStatus // show_time_seats.status_seat
}

// Selectable reports whether the seat may be added to a selection: the
// seat must be active and its status free.
func (s ShowTimeSeat) Selectable() bool {
	return s.Seat.IsActive && s.Status.Free()
}
