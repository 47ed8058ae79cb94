package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/catalog"
)

// CatalogHandler lists the concessions and events an operator can add to
// an order.  Reads go through the catalog loader and its Redis cache.
type CatalogHandler struct {
	Catalog *catalog.Loader
}

func NewCatalogHandler(l *catalog.Loader) *CatalogHandler {
	if l == nil {
		panic("nil catalog loader passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalog: l}
}

// pageParams reads ?page=&limit=.  Missing values fall back to the
// defaults of backend.Page.
func pageParams(c echo.Context) (backend.Page, bool) {
	var p backend.Page
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, false
		}
		p.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, false
		}
		p.Limit = n
	}
	return p.Normalize(), true
}

// Combos handles GET /v1/catalog/combos.
func (h *CatalogHandler) Combos(c echo.Context) error {
	p, ok := pageParams(c)
	if !ok {
		return badRequest(c, "invalid page or limit")
	}
	res, err := h.Catalog.Combos(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(res, comboView))
}

// MenuItems handles GET /v1/catalog/menu-items.
func (h *CatalogHandler) MenuItems(c echo.Context) error {
	p, ok := pageParams(c)
	if !ok {
		return badRequest(c, "invalid page or limit")
	}
	res, err := h.Catalog.MenuItems(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(res, menuItemView))
}

// Events handles GET /v1/catalog/events.  Discounts are not attached on
// this listing; they are resolved when an event is priced.
func (h *CatalogHandler) Events(c echo.Context) error {
	p, ok := pageParams(c)
	if !ok {
		return badRequest(c, "invalid page or limit")
	}
	res, err := h.Catalog.Events(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(res, eventView))
}
