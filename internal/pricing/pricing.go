// Package pricing derives the price breakdown of a booking from the
// current selections.  Everything here is a pure function of its inputs:
// no clock reads, no I/O, amounts in integer currency units.
package pricing

import (
	"sort"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// Key identifies one ticket price: format, seat type and day type.
type Key struct {
	FormatID   string
	SeatTypeID string
	DayType    model.DayType
}

// Table maps price keys to prices.
type Table map[Key]int64

// NewTable indexes the backend's ticket price rows.  A later row with the
// same key replaces an earlier one.
func NewTable(prices []model.TicketPrice) Table {
	t := make(Table, len(prices))
	for _, p := range prices {
		t[Key{FormatID: p.FormatID, SeatTypeID: p.SeatTypeID, DayType: p.DayType}] = p.Price
	}
	return t
}

// Lookup returns the price for k and whether it exists.
func (t Table) Lookup(k Key) (int64, bool) {
	p, ok := t[k]
	return p, ok
}

// Input is everything the breakdown depends on.  At is the instant used
// to evaluate the event discount window.
type Input struct {
	FormatID  string
	DayType   model.DayType
	Seats     []model.Seat
	Combos    []model.Combo
	MenuItems []model.MenuItemSelection
	Event     *model.Event
	At        time.Time
}

// Breakdown is the derived price of a booking.  Unpriced lists the keys
// of selected seats that had no entry in the price table; those seats
// contribute 0 to SeatTotal.
type Breakdown struct {
	SeatTotal       int64
	ComboTotal      int64
	MenuTotal       int64
	Subtotal        int64
	DiscountPercent int
	DiscountAmount  int64
	Total           int64
	Unpriced        []Key
}

// Complete reports whether every selected seat had a price.
func (b Breakdown) Complete() bool { return len(b.Unpriced) == 0 }

// Compute returns the breakdown for in, priced against table.
func Compute(table Table, in Input) Breakdown {
	var b Breakdown

	missing := map[Key]struct{}{}
	for _, seat := range in.Seats {
		k := Key{FormatID: in.FormatID, SeatTypeID: seat.SeatType.ID, DayType: in.DayType}
		price, ok := table.Lookup(k)
		if !ok {
			missing[k] = struct{}{}
			continue
		}
		b.SeatTotal += price
	}
	for _, c := range in.Combos {
		b.ComboTotal += c.TotalPrice
	}
	for _, sel := range in.MenuItems {
		if sel.Quantity <= 0 {
			continue
		}
		b.MenuTotal += sel.Item.Price * int64(sel.Quantity)
	}
	b.Subtotal = b.SeatTotal + b.ComboTotal + b.MenuTotal

	if in.Event != nil && in.Event.Discount.ActiveAt(in.At) {
		b.DiscountPercent = clampPercent(in.Event.Discount.Percent)
		b.DiscountAmount = DiscountAmount(b.Subtotal, b.DiscountPercent)
	}
	b.Total = b.Subtotal - b.DiscountAmount

	if len(missing) > 0 {
		b.Unpriced = make([]Key, 0, len(missing))
		for k := range missing {
			b.Unpriced = append(b.Unpriced, k)
		}
		sort.Slice(b.Unpriced, func(i, j int) bool {
			if b.Unpriced[i].SeatTypeID != b.Unpriced[j].SeatTypeID {
				return b.Unpriced[i].SeatTypeID < b.Unpriced[j].SeatTypeID
			}
			if b.Unpriced[i].FormatID != b.Unpriced[j].FormatID {
				return b.Unpriced[i].FormatID < b.Unpriced[j].FormatID
			}
			return b.Unpriced[i].DayType < b.Unpriced[j].DayType
		})
	}
	return b
}

// DiscountAmount returns round(subtotal * percent / 100), rounding halves
// up.  Non-positive subtotals and percents yield 0.
func DiscountAmount(subtotal int64, percent int) int64 {
	if subtotal <= 0 || percent <= 0 {
		return 0
	}
	return (subtotal*int64(clampPercent(percent)) + 50) / 100
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
