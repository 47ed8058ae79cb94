package model

// SeatType is the pricing class of a seat (STANDARD, VIP, ...). The ID is
// the key used by the ticket price table.
type SeatType struct {
	ID   string // seat_types.id
	Name string // seat_types.name
}

// Seat describes a physical seat in a room.  It is a static catalog
// entity; availability for a given showtime lives on ShowTimeSeat.
//
// Fields:
//  ID         – primary key identifier.
//  SeatNumber – printed label, e.g. "A1".
//  SeatType   – pricing class of the seat.
//  IsActive   – false for seats taken out of service.
type Seat struct {
	ID         string   // seats.id
	SeatNumber string   // seats.seat_number
	SeatType   SeatType // seats.seat_type_id
	IsActive   bool     // seats.is_active
}
