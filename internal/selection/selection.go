// Package selection tracks which seats of a showtime layout can be picked
// and which are picked.  The set is client-local: nothing here is sent to
// the backend until a hold is requested.
package selection

import (
	"sort"

	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

// Model holds the seat layout and the current SelectionSet.  It is not
// safe for concurrent use; the booking controller serialises access.
type Model struct {
	seats    map[string]model.ShowTimeSeat
	order    []string
	selected map[string]struct{}
	frozen   bool
}

func New() *Model {
	return &Model{
		seats:    map[string]model.ShowTimeSeat{},
		selected: map[string]struct{}{},
	}
}

// Load replaces the layout with fresh backend data.  Selected seats that
// are no longer selectable are dropped unless the model is frozen, in
// which case the held seats legitimately show as HOLDING.  It returns the
// ids that were dropped.
func (m *Model) Load(layout []model.ShowTimeSeat) []string {
	m.seats = make(map[string]model.ShowTimeSeat, len(layout))
	m.order = m.order[:0]
	for _, s := range layout {
		if _, dup := m.seats[s.ID]; !dup {
			m.order = append(m.order, s.ID)
		}
		m.seats[s.ID] = s
	}
	if m.frozen {
		return nil
	}
	var dropped []string
	for id := range m.selected {
		if s, ok := m.seats[id]; !ok || !s.Selectable() {
			delete(m.selected, id)
			dropped = append(dropped, id)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// Seat returns the layout entry for id.
func (m *Model) Seat(id string) (model.ShowTimeSeat, bool) {
	s, ok := m.seats[id]
	return s, ok
}

// Layout returns the seats in layout order.
func (m *Model) Layout() []model.ShowTimeSeat {
	out := make([]model.ShowTimeSeat, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.seats[id])
	}
	return out
}

// CanSelect reports whether id may join the selection: the seat is in the
// layout, active, free, and the selection is not frozen.
func (m *Model) CanSelect(id string) bool {
	if m.frozen {
		return false
	}
	s, ok := m.seats[id]
	return ok && s.Selectable()
}

func (m *Model) Select(id string) error {
	if m.frozen {
		return errs.ErrSelectionFrozen
	}
	if !m.CanSelect(id) {
		return errs.Wrapf(errs.ErrSeatNotSelectable, "seat %s", id)
	}
	m.selected[id] = struct{}{}
	return nil
}

// Deselect removes id.  Removing a seat that is not selected is a no-op.
func (m *Model) Deselect(id string) error {
	if m.frozen {
		return errs.ErrSelectionFrozen
	}
	delete(m.selected, id)
	return nil
}

// Toggle flips the membership of id and reports whether it is now selected.
func (m *Model) Toggle(id string) (bool, error) {
	if m.IsSelected(id) {
		return false, m.Deselect(id)
	}
	if err := m.Select(id); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Model) IsSelected(id string) bool {
	_, ok := m.selected[id]
	return ok
}

// Selected returns the selected ids in layout order.  Ids unknown to the
// layout (a rehydrated hold before the layout arrived) come last, sorted.
func (m *Model) Selected() []string {
	out := make([]string, 0, len(m.selected))
	for _, id := range m.order {
		if _, ok := m.selected[id]; ok {
			out = append(out, id)
		}
	}
	if len(out) == len(m.selected) {
		return out
	}
	var extra []string
	for id := range m.selected {
		if _, ok := m.seats[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// SelectedSeats returns the catalog seats of the selection, used for
// pricing.  Ids missing from the layout are skipped.
func (m *Model) SelectedSeats() []model.Seat {
	ids := m.Selected()
	out := make([]model.Seat, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.seats[id]; ok {
			out = append(out, s.Seat)
		}
	}
	return out
}

func (m *Model) Len() int { return len(m.selected) }

// Freeze makes the selection immutable; used while a hold is active.
func (m *Model) Freeze() { m.frozen = true }

func (m *Model) Frozen() bool { return m.frozen }

// Replace sets the selection to ids without selectability checks.  It is
// used to rehydrate a confirmed server hold, whose seats show as HOLDING.
func (m *Model) Replace(ids []string) {
	m.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m.selected[id] = struct{}{}
	}
}

// Clear empties the selection and unfreezes it.
func (m *Model) Clear() {
	m.selected = map[string]struct{}{}
	m.frozen = false
}

// MarkStatus sets the local echo of a seat status after a confirmed
// server response.
func (m *Model) MarkStatus(ids []string, status model.SeatStatus) {
	for _, id := range ids {
		if s, ok := m.seats[id]; ok {
			s.Status = status
			m.seats[id] = s
		}
	}
}
