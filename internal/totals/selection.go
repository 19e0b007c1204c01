package totals

import (
	"encoding/json"
	"sort"
)

// Selection is an immutable set of line-item ids. Every method that changes
// membership returns a new Selection and leaves the receiver untouched. The
// zero value is the empty selection.
type Selection struct {
	ids map[string]struct{}
}

func NewSelection(ids ...string) Selection {
	if len(ids) == 0 {
		return Selection{}
	}
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		m[id] = struct{}{}
	}
	return Selection{ids: m}
}

func (s Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s Selection) Len() int { return len(s.ids) }

// IDs returns the members in lexical order.
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s Selection) Equal(o Selection) bool {
	if s.Len() != o.Len() {
		return false
	}
	for id := range s.ids {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

// Toggle adds id when absent and removes it when present.
func (s Selection) Toggle(id string) Selection {
	if id == "" {
		return s.clone()
	}
	next := s.clone()
	if next.Has(id) {
		delete(next.ids, id)
		return next
	}
	if next.ids == nil {
		next.ids = make(map[string]struct{}, 1)
	}
	next.ids[id] = struct{}{}
	return next
}

// Without evicts id, used when a line item is removed from the cart.
func (s Selection) Without(id string) Selection {
	next := s.clone()
	delete(next.ids, id)
	return next
}

// Retain drops every id that does not belong to one of items.
func (s Selection) Retain(items []LineItem) Selection {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s.Has(it.ID) {
			out = append(out, it.ID)
		}
	}
	return NewSelection(out...)
}

func (s Selection) clone() Selection {
	if s.ids == nil {
		return Selection{}
	}
	m := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		m[id] = struct{}{}
	}
	return Selection{ids: m}
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *Selection) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewSelection(ids...)
	return nil
}

// SelectAll returns a selection holding every item id.
func SelectAll(items []LineItem) Selection {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return NewSelection(ids...)
}

// ToggleAll backs the "select all" checkbox: when every item is already
// selected it clears the selection, otherwise it selects everything.
func ToggleAll(items []LineItem, sel Selection) Selection {
	if allSelected(items, sel) {
		return Selection{}
	}
	return SelectAll(items)
}

type SelectionState string

const (
	SelectionAll  SelectionState = "all"
	SelectionNone SelectionState = "none"
	SelectionSome SelectionState = "some"
)

// StateOf drives the three-state select-all control (checked, unchecked,
// indeterminate).
func StateOf(items []LineItem, sel Selection) SelectionState {
	selected := countSelected(items, sel)
	switch {
	case len(items) > 0 && selected == len(items):
		return SelectionAll
	case selected == 0:
		return SelectionNone
	default:
		return SelectionSome
	}
}

func allSelected(items []LineItem, sel Selection) bool {
	return countSelected(items, sel) == len(items) && sel.Len() == len(items)
}

func countSelected(items []LineItem, sel Selection) int {
	n := 0
	for _, it := range items {
		if sel.Has(it.ID) {
			n++
		}
	}
	return n
}
