package handler

// dto.go holds the JSON shapes of the console API.  Domain types carry no
// json tags; everything is converted here.

import (
	"sort"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/booking"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/pricing"
)

type openSessionRequest struct {
	MovieID string `json:"movie_id"`
}

type holdRequest struct {
	TTLSeconds int `json:"ttl_seconds"`
}

type combosRequest struct {
	ComboIDs []string `json:"combo_ids"`
}

type menuItemLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type menuItemsRequest struct {
	Items []menuItemLine `json:"items"`
}

type eventRequest struct {
	EventID string `json:"event_id"`
}

type SeatView struct {
	ID         string `json:"id"`
	SeatNumber string `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	Status     string `json:"status"`
	Active     bool   `json:"active"`
	Selected   bool   `json:"selected"`
}

type HoldView struct {
	Holding          bool       `json:"holding"`
	Loading          bool       `json:"loading"`
	HeldIDs          []string   `json:"held_ids"`
	RemainingSeconds int        `json:"remaining_seconds"`
	TimerState       string     `json:"timer_state"`
	HeldAt           *time.Time `json:"held_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Warning          string     `json:"warning,omitempty"`
}

type PriceKeyView struct {
	FormatID   string `json:"format_id"`
	SeatTypeID string `json:"seat_type_id"`
	DayType    string `json:"day_type"`
}

type QuoteView struct {
	SeatTotal       int64          `json:"seat_total"`
	ComboTotal      int64          `json:"combo_total"`
	MenuTotal       int64          `json:"menu_total"`
	Subtotal        int64          `json:"subtotal"`
	DiscountPercent int            `json:"discount_percent"`
	DiscountAmount  int64          `json:"discount_amount"`
	Total           int64          `json:"total"`
	Unpriced        []PriceKeyView `json:"unpriced,omitempty"`
}

// SessionView is the full booking view returned by most session routes.
type SessionView struct {
	SessionID  string         `json:"session_id"`
	ShowtimeID string         `json:"showtime_id"`
	MovieID    string         `json:"movie_id"`
	DraftID    string         `json:"draft_id,omitempty"`
	Resumed    bool           `json:"resumed,omitempty"`
	Hold       HoldView       `json:"hold"`
	Selected   []string       `json:"selected"`
	Seats      []SeatView     `json:"seats"`
	Combos     []string       `json:"combo_ids"`
	MenuItems  []menuItemLine `json:"menu_items"`
	EventID    string         `json:"event_id,omitempty"`
	Quote      QuoteView      `json:"quote"`
}

type pageView[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

type ComboView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"total_price"`
}

type MenuItemView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type EventView struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	DiscountPercent int        `json:"discount_percent,omitempty"`
	StartsAt        *time.Time `json:"discount_starts_at,omitempty"`
	EndsAt          *time.Time `json:"discount_ends_at,omitempty"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func holdView(s booking.Snapshot) HoldView {
	return HoldView{
		Holding:          s.Holding,
		Loading:          s.Loading,
		HeldIDs:          nonNil(s.HeldIDs),
		RemainingSeconds: s.RemainingSecs,
		TimerState:       s.TimerState.String(),
		HeldAt:           timePtr(s.HeldAt),
		ExpiresAt:        timePtr(s.ExpiresAt),
		Warning:          s.Warning,
	}
}

func quoteView(b pricing.Breakdown) QuoteView {
	q := QuoteView{
		SeatTotal:       b.SeatTotal,
		ComboTotal:      b.ComboTotal,
		MenuTotal:       b.MenuTotal,
		Subtotal:        b.Subtotal,
		DiscountPercent: b.DiscountPercent,
		DiscountAmount:  b.DiscountAmount,
		Total:           b.Total,
	}
	for _, k := range b.Unpriced {
		q.Unpriced = append(q.Unpriced, PriceKeyView{FormatID: k.FormatID, SeatTypeID: k.SeatTypeID, DayType: string(k.DayType)})
	}
	return q
}

func sessionView(st booking.State) SessionView {
	selected := make(map[string]bool, len(st.Hold.Selected))
	for _, id := range st.Hold.Selected {
		selected[id] = true
	}
	seats := make([]SeatView, 0, len(st.Layout))
	for _, s := range st.Layout {
		status := s.Status
		if status == model.SeatStatusNone {
			status = model.SeatStatusAvailable
		}
		seats = append(seats, SeatView{
			ID:         s.ID,
			SeatNumber: s.Seat.SeatNumber,
			SeatType:   s.Seat.SeatType.ID,
			Status:     string(status),
			Active:     s.Seat.IsActive,
			Selected:   selected[s.ID],
		})
	}
	menu := make([]menuItemLine, 0, len(st.MenuItems))
	for id, q := range st.MenuItems {
		menu = append(menu, menuItemLine{ID: id, Quantity: q})
	}
	sort.Slice(menu, func(i, j int) bool { return menu[i].ID < menu[j].ID })

	return SessionView{
		SessionID:  st.SessionID,
		ShowtimeID: st.ShowtimeID,
		MovieID:    st.MovieID,
		DraftID:    st.DraftID,
		Hold:       holdView(st.Hold),
		Selected:   nonNil(st.Hold.Selected),
		Seats:      seats,
		Combos:     nonNil(st.Combos),
		MenuItems:  menu,
		EventID:    st.EventID,
		Quote:      quoteView(st.Quote),
	}
}

func toPage[T, V any](res backend.PageResult[T], conv func(T) V) pageView[V] {
	items := make([]V, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, conv(it))
	}
	return pageView[V]{Items: items, Total: res.Total, Page: res.Page, Limit: res.Limit, HasMore: res.HasMore()}
}

func comboView(c model.Combo) ComboView {
	return ComboView{ID: c.ID, Name: c.Name, Price: c.TotalPrice}
}

func menuItemView(m model.MenuItem) MenuItemView {
	return MenuItemView{ID: m.ID, Name: m.Name, Price: m.Price}
}

func eventView(e model.Event) EventView {
	v := EventView{ID: e.ID, Name: e.Name}
	if d := e.Discount; d != nil && d.IsActive {
		v.DiscountPercent = d.Percent
		v.StartsAt = timePtr(d.StartsAt)
		v.EndsAt = timePtr(d.EndsAt)
	}
	return v
}
