package rest

import (
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

type holdRequest struct {
	ShowTimeSeatIDs []string `json:"show_time_seat_ids"`
	TTLSeconds      int      `json:"ttl_seconds,omitempty"`
}

type holdResponse struct {
	ShowTimeSeatIDs []string  `json:"show_time_seat_ids"`
	HeldAt          time.Time `json:"held_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

type holdInfoDTO struct {
	ShowTimeSeatID string    `json:"show_time_seat_id"`
	UserID         string    `json:"user_id"`
	HeldAt         time.Time `json:"held_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func (d holdInfoDTO) model() model.HoldInfo {
	return model.HoldInfo{ShowTimeSeatID: d.ShowTimeSeatID, UserID: d.UserID, HeldAt: d.HeldAt, ExpiresAt: d.ExpiresAt}
}

type seatDTO struct {
	ID           string `json:"id"`
	SeatID       string `json:"seat_id"`
	SeatNumber   string `json:"seat_number"`
	SeatTypeID   string `json:"seat_type_id"`
	SeatTypeName string `json:"seat_type_name"`
	IsActive     bool   `json:"is_active"`
	Status       string `json:"status"`
}

type showtimeDTO struct {
	ID       string    `json:"id"`
	MovieID  string    `json:"movie_id"`
	FormatID string    `json:"format_id"`
	StartsAt time.Time `json:"start_time"`
	Room     struct {
		ID    string    `json:"id"`
		Name  string    `json:"name"`
		Seats []seatDTO `json:"seats"`
	} `json:"room"`
}

func (d showtimeDTO) model() *model.Showtime {
	st := &model.Showtime{
		ID:       d.ID,
		MovieID:  d.MovieID,
		FormatID: d.FormatID,
		StartsAt: d.StartsAt,
		Room:     model.Room{ID: d.Room.ID, Name: d.Room.Name},
	}
	st.Room.Seats = make([]model.ShowTimeSeat, 0, len(d.Room.Seats))
	for _, s := range d.Room.Seats {
		st.Room.Seats = append(st.Room.Seats, model.ShowTimeSeat{
			ID:         s.ID,
			ShowTimeID: d.ID,
			Seat: model.Seat{
				ID:         s.SeatID,
				SeatNumber: s.SeatNumber,
				SeatType:   model.SeatType{ID: s.SeatTypeID, Name: s.SeatTypeName},
				IsActive:   s.IsActive,
			},
			Status: model.SeatStatus(s.Status),
		})
	}
	return st
}

type ticketPriceDTO struct {
	FormatID   string `json:"format_id"`
	SeatTypeID string `json:"seat_type_id"`
	DayType    string `json:"day_type"`
	Price      int64  `json:"price"`
}

type comboDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TotalPrice int64  `json:"total_price"`
	IsActive   bool   `json:"is_active"`
}

type menuItemDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	IsActive bool   `json:"is_active"`
}

type eventDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type discountDTO struct {
	ID       string    `json:"id"`
	EventID  string    `json:"event_id"`
	Percent  int       `json:"percent"`
	IsActive bool      `json:"is_active"`
	StartsAt time.Time `json:"start_date"`
	EndsAt   time.Time `json:"end_date"`
}

type pageDTO[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type orderRequest struct {
	UserID        string `json:"user_id"`
	MovieID       string `json:"movie_id"`
	PaymentStatus string `json:"payment_status"`
	TotalPrice    int64  `json:"total_price"`
}

type orderDTO struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	MovieID       string    `json:"movie_id"`
	PaymentStatus string    `json:"payment_status"`
	TotalPrice    int64     `json:"total_price"`
	CreatedAt     time.Time `json:"created_at"`
}
