package rest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

func (c *Client) BulkHold(ctx context.Context, ids []string, ttlSeconds int) (*backend.HoldResult, error) {
	var out holdResponse
	err := c.send(ctx, "bulkHold", http.MethodPost, "/api/v1/seat-holds/bulk", holdRequest{ShowTimeSeatIDs: ids, TTLSeconds: ttlSeconds}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.ShowTimeSeatIDs) == 0 {
		out.ShowTimeSeatIDs = append([]string(nil), ids...)
	}
	return &backend.HoldResult{ShowTimeSeatIDs: out.ShowTimeSeatIDs, HeldAt: out.HeldAt, ExpiresAt: out.ExpiresAt}, nil
}

func (c *Client) BulkCancelHold(ctx context.Context, ids []string) error {
	return c.send(ctx, "bulkCancelHold", http.MethodPost, "/api/v1/seat-holds/bulk-cancel", holdRequest{ShowTimeSeatIDs: ids}, nil)
}

func (c *Client) GetHoldInfo(ctx context.Context, showTimeSeatID string) (*model.HoldInfo, error) {
	var out holdInfoDTO
	if err := c.get(ctx, "getHoldInfo", "/api/v1/seat-holds/"+url.PathEscape(showTimeSeatID), nil, &out); err != nil {
		return nil, err
	}
	info := out.model()
	return &info, nil
}

func (c *Client) GetAllHeldSeatsByCurrentUser(ctx context.Context) ([]model.HoldInfo, error) {
	var out []holdInfoDTO
	if err := c.get(ctx, "getAllHeldSeatsByCurrentUser", "/api/v1/seat-holds/me", nil, &out); err != nil {
		return nil, err
	}
	holds := make([]model.HoldInfo, 0, len(out))
	for _, d := range out {
		holds = append(holds, d.model())
	}
	return holds, nil
}

func (c *Client) GetShowTimeDetails(ctx context.Context, showtimeID string) (*model.Showtime, error) {
	var out showtimeDTO
	if err := c.get(ctx, "getShowTimeDetails", "/api/v1/showtimes/"+url.PathEscape(showtimeID), nil, &out); err != nil {
		return nil, err
	}
	return out.model(), nil
}

func (c *Client) GetTicketPrices(ctx context.Context) ([]model.TicketPrice, error) {
	var out []ticketPriceDTO
	if err := c.get(ctx, "getTicketPrices", "/api/v1/ticket-prices", nil, &out); err != nil {
		return nil, err
	}
	prices := make([]model.TicketPrice, 0, len(out))
	for _, d := range out {
		prices = append(prices, model.TicketPrice{
			FormatID:   d.FormatID,
			SeatTypeID: d.SeatTypeID,
			DayType:    model.DayType(d.DayType),
			Price:      d.Price,
		})
	}
	return prices, nil
}

func pageQuery(p backend.Page) url.Values {
	p = p.Normalize()
	return url.Values{
		"page":  {strconv.Itoa(p.Page)},
		"limit": {strconv.Itoa(p.Limit)},
	}
}

// listPage reads one page from path and converts its items with conv.
func listPage[D, M any](ctx context.Context, c *Client, op, path string, p backend.Page, conv func(D) M) (backend.PageResult[M], error) {
	p = p.Normalize()
	var out pageDTO[D]
	if err := c.get(ctx, op, path, pageQuery(p), &out); err != nil {
		return backend.PageResult[M]{}, err
	}
	res := backend.PageResult[M]{Total: out.Total, Page: out.Page, Limit: out.Limit}
	if res.Page == 0 {
		res.Page = p.Page
	}
	if res.Limit == 0 {
		res.Limit = p.Limit
	}
	res.Items = make([]M, 0, len(out.Items))
	for _, d := range out.Items {
		res.Items = append(res.Items, conv(d))
	}
	return res, nil
}

func (c *Client) ListCombos(ctx context.Context, p backend.Page) (backend.PageResult[model.Combo], error) {
	return listPage(ctx, c, "listCombos", "/api/v1/combos", p, func(d comboDTO) model.Combo {
		return model.Combo{ID: d.ID, Name: d.Name, TotalPrice: d.TotalPrice, IsActive: d.IsActive}
	})
}

func (c *Client) ListMenuItems(ctx context.Context, p backend.Page) (backend.PageResult[model.MenuItem], error) {
	return listPage(ctx, c, "listMenuItems", "/api/v1/menu-items", p, func(d menuItemDTO) model.MenuItem {
		return model.MenuItem{ID: d.ID, Name: d.Name, Price: d.Price, IsActive: d.IsActive}
	})
}

func (c *Client) ListEvents(ctx context.Context, p backend.Page) (backend.PageResult[model.Event], error) {
	return listPage(ctx, c, "listEvents", "/api/v1/events", p, func(d eventDTO) model.Event {
		return model.Event{ID: d.ID, Name: d.Name}
	})
}

func (c *Client) ListDiscounts(ctx context.Context, p backend.Page) (backend.PageResult[model.EventDiscount], error) {
	return listPage(ctx, c, "listDiscounts", "/api/v1/event-discounts", p, func(d discountDTO) model.EventDiscount {
		return model.EventDiscount{
			ID:       d.ID,
			EventID:  d.EventID,
			Percent:  d.Percent,
			IsActive: d.IsActive,
			StartsAt: d.StartsAt,
			EndsAt:   d.EndsAt,
		}
	})
}

func (c *Client) CreateOrderDraft(ctx context.Context, req backend.OrderDraftRequest) (*model.OrderDraft, error) {
	var out orderDTO
	err := c.send(ctx, "createOrderDraft", http.MethodPost, "/api/v1/orders", orderRequest{
		UserID:        req.UserID,
		MovieID:       req.MovieID,
		PaymentStatus: string(req.PaymentStatus),
		TotalPrice:    req.TotalPrice,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &model.OrderDraft{
		ID:            out.ID,
		UserID:        out.UserID,
		MovieID:       out.MovieID,
		PaymentStatus: model.PaymentStatus(out.PaymentStatus),
		TotalPrice:    out.TotalPrice,
		CreatedAt:     out.CreatedAt,
	}, nil
}
