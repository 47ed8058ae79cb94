package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/backend/backendtest"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/pricing"
)

func seededFake() *backendtest.Fake {
	f := backendtest.New(nil)
	f.Prices = []model.TicketPrice{
		{FormatID: "2D", SeatTypeID: "STANDARD", DayType: model.DayTypeWeekday, Price: 80000},
	}
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
		f.Combos = append(f.Combos, model.Combo{ID: id, TotalPrice: 10000, IsActive: true})
	}
	f.Combos = append(f.Combos, model.Combo{ID: "old", TotalPrice: 1, IsActive: false})
	f.MenuItems = []model.MenuItem{{ID: "m1", Price: 20000, IsActive: true}}
	f.Events = []model.Event{{ID: "e1", Name: "Students"}, {ID: "e2", Name: "Seniors"}}
	f.Discounts = []model.EventDiscount{
		{ID: "d1", EventID: "e1", Percent: 10, IsActive: true},
		{ID: "d9", EventID: "e1", Percent: 50, IsActive: true},
	}
	return f
}

func TestLoader_LoadDrainsPages(t *testing.T) {
	f := seededFake()
	l := NewLoader(f, nil, 2, nil)

	cat, err := l.Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, cat.Combos, 5, "inactive combos are filtered by the backend")
	assert.Equal(t, 3, f.Calls(backendtest.OpListCombos))
	assert.Len(t, cat.MenuItems, 1)

	e1, ok := cat.Event("e1")
	require.True(t, ok)
	require.NotNil(t, e1.Discount)
	assert.Equal(t, "d1", e1.Discount.ID)

	e2, ok := cat.Event("e2")
	require.True(t, ok)
	assert.Nil(t, e2.Discount)

	price, ok := cat.Table().Lookup(pricing.Key{FormatID: "2D", SeatTypeID: "STANDARD", DayType: model.DayTypeWeekday})
	assert.True(t, ok)
	assert.Equal(t, int64(80000), price)
}

func TestLoader_LoadPropagatesErrors(t *testing.T) {
	f := seededFake()
	boom := errors.New("backend down")
	f.FailWith(backendtest.OpListEvents, boom)

	_, err := NewLoader(f, nil, 10, nil).Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestLoader_CombosPage(t *testing.T) {
	l := NewLoader(seededFake(), NewCache(nil, 0, ""), 10, nil)

	res, err := l.Combos(context.Background(), backend.Page{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "c3", res.Items[0].ID)
	assert.True(t, res.HasMore())
}

func TestCatalogLookups(t *testing.T) {
	cat := &Catalog{
		Combos:    []model.Combo{{ID: "c1"}},
		MenuItems: []model.MenuItem{{ID: "m1"}},
	}
	_, ok := cat.Combo("c1")
	assert.True(t, ok)
	_, ok = cat.Combo("c2")
	assert.False(t, ok)
	_, ok = cat.MenuItem("m1")
	assert.True(t, ok)
	_, ok = cat.Event("e1")
	assert.False(t, ok)
}

func TestNilCacheIsInert(t *testing.T) {
	var c *Cache
	var dst []int
	hit, err := c.Get(context.Background(), "k", &dst)
	assert.False(t, hit)
	assert.NoError(t, err)
	assert.NoError(t, c.Set(context.Background(), "k", []int{1}))
}
