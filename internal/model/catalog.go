package model

import "time"

// DayType is the WEEKDAY/WEEKEND bucket of the ticket price key.
type DayType string

const (
	DayTypeWeekday DayType = "WEEKDAY"
	DayTypeWeekend DayType = "WEEKEND"
)

// TicketPrice is one row of the price table, keyed by the triple
// (format, seat type, day type).  Prices are integer currency units.
type TicketPrice struct {
	FormatID   string
	SeatTypeID string
	DayType    DayType
	Price      int64
}

// Combo is a snack/drink bundle sold with tickets.
type Combo struct {
	ID         string
	Name       string
	TotalPrice int64
	IsActive   bool
}

// MenuItem is a single concession item.
type MenuItem struct {
	ID       string
	Name     string
	Price    int64
	IsActive bool
}

// MenuItemSelection is a menu item with the quantity picked for the order.
type MenuItemSelection struct {
	Item     MenuItem
	Quantity int
}

// Event is a promotional event; at most one can be selected per order and
// it carries at most one discount.
type Event struct {
	ID       string
	Name     string
	Discount *EventDiscount
}

// EventDiscount is a percentage discount valid inside [StartsAt, EndsAt].
// A zero StartsAt or EndsAt leaves that side of the window open.
type EventDiscount struct {
	ID       string
	EventID  string
	Percent  int
	IsActive bool
	StartsAt time.Time
	EndsAt   time.Time
}

// ActiveAt reports whether the discount applies at t.
func (d *EventDiscount) ActiveAt(t time.Time) bool {
	if d == nil || !d.IsActive || d.Percent <= 0 {
		return false
	}
	if !d.StartsAt.IsZero() && t.Before(d.StartsAt) {
		return false
	}
	if !d.EndsAt.IsZero() && t.After(d.EndsAt) {
		return false
	}
	return true
}
