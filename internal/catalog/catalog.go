// Package catalog loads the read-only pricing inputs of a booking session:
// the ticket price table plus active combos, menu items and events with
// their discounts.  Reads go through an optional Redis cache.  Seat
// layouts are not catalog data and are never cached.
package catalog

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/pricing"
)

// Catalog is a consistent snapshot of the pricing inputs.
type Catalog struct {
	Prices    []model.TicketPrice
	Combos    []model.Combo
	MenuItems []model.MenuItem
	Events    []model.Event
}

// Table indexes the ticket prices.
func (c *Catalog) Table() pricing.Table { return pricing.NewTable(c.Prices) }

func (c *Catalog) Combo(id string) (model.Combo, bool) {
	for _, x := range c.Combos {
		if x.ID == id {
			return x, true
		}
	}
	return model.Combo{}, false
}

func (c *Catalog) MenuItem(id string) (model.MenuItem, bool) {
	for _, x := range c.MenuItems {
		if x.ID == id {
			return x, true
		}
	}
	return model.MenuItem{}, false
}

func (c *Catalog) Event(id string) (model.Event, bool) {
	for _, x := range c.Events {
		if x.ID == id {
			return x, true
		}
	}
	return model.Event{}, false
}

// Loader reads the catalog from the backend, page by page.
type Loader struct {
	api      backend.CatalogAPI
	cache    *Cache
	pageSize int
	log      *zap.Logger
}

func NewLoader(api backend.CatalogAPI, cache *Cache, pageSize int, log *zap.Logger) *Loader {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Loader{api: api, cache: cache, pageSize: pageSize, log: logger.OrNop(log).Named("catalog")}
}

const snapshotKey = "snapshot"

// Load returns the full catalog, from cache when possible.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	var cached Catalog
	if hit, err := l.cache.Get(ctx, snapshotKey, &cached); err != nil {
		l.log.Warn("catalog cache read failed", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	prices, err := l.api.GetTicketPrices(ctx)
	if err != nil {
		return nil, err
	}
	combos, err := allPages(ctx, l.pageSize, l.api.ListCombos)
	if err != nil {
		return nil, err
	}
	items, err := allPages(ctx, l.pageSize, l.api.ListMenuItems)
	if err != nil {
		return nil, err
	}
	events, err := allPages(ctx, l.pageSize, l.api.ListEvents)
	if err != nil {
		return nil, err
	}
	discounts, err := allPages(ctx, l.pageSize, l.api.ListDiscounts)
	if err != nil {
		return nil, err
	}

	cat := &Catalog{
		Prices:    prices,
		Combos:    combos,
		MenuItems: items,
		Events:    attachDiscounts(events, discounts),
	}
	if err := l.cache.Set(ctx, snapshotKey, cat); err != nil {
		l.log.Warn("catalog cache write failed", zap.Error(err))
	}
	return cat, nil
}

// Combos returns one page of active combos for the console listing.
func (l *Loader) Combos(ctx context.Context, p backend.Page) (backend.PageResult[model.Combo], error) {
	return cachedPage(ctx, l, "combos", p, l.api.ListCombos)
}

func (l *Loader) MenuItems(ctx context.Context, p backend.Page) (backend.PageResult[model.MenuItem], error) {
	return cachedPage(ctx, l, "menu-items", p, l.api.ListMenuItems)
}

func (l *Loader) Events(ctx context.Context, p backend.Page) (backend.PageResult[model.Event], error) {
	return cachedPage(ctx, l, "events", p, l.api.ListEvents)
}

type lister[T any] func(context.Context, backend.Page) (backend.PageResult[T], error)

func cachedPage[T any](ctx context.Context, l *Loader, name string, p backend.Page, list lister[T]) (backend.PageResult[T], error) {
	p = p.Normalize()
	key := name + ":" + strconv.Itoa(p.Page) + ":" + strconv.Itoa(p.Limit)

	var res backend.PageResult[T]
	if hit, err := l.cache.Get(ctx, key, &res); err == nil && hit {
		return res, nil
	}
	res, err := list(ctx, p)
	if err != nil {
		return backend.PageResult[T]{}, err
	}
	if err := l.cache.Set(ctx, key, res); err != nil {
		l.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

// allPages drains a paginated read.
func allPages[T any](ctx context.Context, size int, list lister[T]) ([]T, error) {
	var out []T
	p := backend.Page{Page: 1, Limit: size}
	for {
		res, err := list(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if len(res.Items) == 0 || len(out) >= res.Total {
			return out, nil
		}
		p.Page++
	}
}

// attachDiscounts gives each event its discount.  An event carries at most
// one; when the backend lists several, the first active one wins.
func attachDiscounts(events []model.Event, discounts []model.EventDiscount) []model.Event {
	byEvent := map[string]model.EventDiscount{}
	for _, d := range discounts {
		prev, seen := byEvent[d.EventID]
		if !seen || (!prev.IsActive && d.IsActive) {
			byEvent[d.EventID] = d
		}
	}
	out := make([]model.Event, len(events))
	for i, e := range events {
		if e.Discount == nil {
			if d, ok := byEvent[e.ID]; ok {
				d := d
				e.Discount = &d
			}
		}
		out[i] = e
	}
	return out
}
