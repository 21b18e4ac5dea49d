// Package filters implements the search and filter panel of the product listing. The panel
// owns no search logic: it reports the visitor's choices to caller-supplied callbacks.
package filters

import (
	"sort"
	"strings"
)

// Option is one selectable value of a group.
type Option struct {
	ID    string
	Label string
	Value string
}

// Group is a named set of options. Multiple groups are multi-select; others single-select.
type Group struct {
	ID       string
	Label    string
	Options  []Option
	Multiple bool
}

func (g Group) has(value string) bool {
	for _, o := range g.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// DefaultGroups are the storefront's filter groups.
var DefaultGroups = []Group{
	{
		ID:    "category",
		Label: "Category",
		Options: []Option{
			{ID: "sneakers", Label: "Sneakers", Value: "sneakers"},
			{ID: "running", Label: "Running", Value: "running"},
			{ID: "basketball", Label: "Basketball", Value: "basketball"},
			{ID: "casual", Label: "Casual", Value: "casual"},
		},
	},
	{
		ID:    "price",
		Label: "Price Range",
		Options: []Option{
			{ID: "under-50", Label: "Under $50", Value: "under-50"},
			{ID: "50-100", Label: "$50 - $100", Value: "50-100"},
			{ID: "100-200", Label: "$100 - $200", Value: "100-200"},
			{ID: "over-200", Label: "Over $200", Value: "over-200"},
		},
	},
	{
		ID:    "brand",
		Label: "Brand",
		Options: []Option{
			{ID: "nike", Label: "Nike", Value: "nike"},
			{ID: "adidas", Label: "Adidas", Value: "adidas"},
			{ID: "puma", Label: "Puma", Value: "puma"},
			{ID: "reebok", Label: "Reebok", Value: "reebok"},
		},
		Multiple: true,
	},
}

// Selection maps a group id to its selected values. Groups with no selection are absent.
type Selection map[string][]string

func (s Selection) clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Count is the total number of selected values.
func (s Selection) Count() int {
	n := 0
	for _, v := range s {
		n += len(v)
	}
	return n
}

// GroupIDs returns the ids with a selection, sorted.
func (s Selection) GroupIDs() []string {
	ids := make([]string, 0, len(s))
	for k := range s {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}

// Callbacks connect the panel to the catalog search collaborator.
type Callbacks struct {
	OnFilterChange func(Selection)
	OnSearch       func(query string)
}

// State is the open/closed state of the filter dropdown.
type State int

const (
	Closed State = iota
	Open
)

// Snapshot is the serialisable state of a panel.
type Snapshot struct {
	Query    string
	Open     bool
	Expanded []string
	Active   Selection
}

// Panel is the filter panel state machine.
type Panel struct {
	groups    []Group
	callbacks Callbacks

	query    string
	state    State
	expanded []string
	active   Selection
}

// NewPanel returns a closed panel with nothing selected.
func NewPanel(groups []Group, cb Callbacks) *Panel {
	return &Panel{groups: groups, callbacks: cb, active: Selection{}}
}

// Restore rebuilds a panel from snapshot, dropping unknown groups and values.
func Restore(groups []Group, snap Snapshot, cb Callbacks) *Panel {
	p := NewPanel(groups, cb)
	p.query = snap.Query
	if snap.Open {
		p.state = Open
	}
	for _, id := range snap.Expanded {
		if _, ok := p.group(id); ok && !p.IsExpanded(id) {
			p.expanded = append(p.expanded, id)
		}
	}
	for _, id := range snap.Active.GroupIDs() {
		g, ok := p.group(id)
		if !ok {
			continue
		}
		for _, v := range snap.Active[id] {
			if !g.has(v) || p.IsSelected(id, v) {
				continue
			}
			if !g.Multiple && len(p.active[id]) > 0 {
				break
			}
			p.active[id] = append(p.active[id], v)
		}
	}
	return p
}

// Snapshot captures the panel state.
func (p *Panel) Snapshot() Snapshot {
	return Snapshot{
		Query:    p.query,
		Open:     p.state == Open,
		Expanded: append([]string(nil), p.expanded...),
		Active:   p.active.clone(),
	}
}

func (p *Panel) Groups() []Group { return p.groups }

func (p *Panel) group(id string) (Group, bool) {
	for _, g := range p.groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

func (p *Panel) Query() string { return p.query }

// SetQuery records typed text. It never triggers a search.
func (p *Panel) SetQuery(q string) { p.query = q }

// Search reports the trimmed query to OnSearch, if it is non-empty.
func (p *Panel) Search() bool {
	q := strings.TrimSpace(p.query)
	if q == "" || p.callbacks.OnSearch == nil {
		return false
	}
	p.callbacks.OnSearch(q)
	return true
}

// Toggle flips value in group. In a multi-select group membership toggles; in a single-select
// group the value becomes the selection or, if it already was, the group is cleared.
func (p *Panel) Toggle(groupID, value string) bool {
	g, ok := p.group(groupID)
	if !ok || !g.has(value) {
		return false
	}
	current := p.active[groupID]
	var next []string
	if g.Multiple {
		if contains(current, value) {
			next = without(current, value)
		} else {
			next = append(append([]string(nil), current...), value)
		}
	} else if !contains(current, value) {
		next = []string{value}
	}
	if len(next) == 0 {
		delete(p.active, groupID)
	} else {
		p.active[groupID] = next
	}
	return true
}

// IsSelected reports whether value is selected in group.
func (p *Panel) IsSelected(groupID, value string) bool {
	return contains(p.active[groupID], value)
}

// Active returns a copy of the current selection.
func (p *Panel) Active() Selection { return p.active.clone() }

// ActiveCount is the number of selected values across groups.
func (p *Panel) ActiveCount() int { return p.active.Count() }

// Apply hands the selection to OnFilterChange and closes the panel.
func (p *Panel) Apply() {
	if p.callbacks.OnFilterChange != nil {
		p.callbacks.OnFilterChange(p.active.clone())
	}
	p.state = Closed
}

// ClearAll drops every selection and reports the empty selection.
func (p *Panel) ClearAll() {
	p.active = Selection{}
	if p.callbacks.OnFilterChange != nil {
		p.callbacks.OnFilterChange(Selection{})
	}
}

// ToggleExpanded shows or hides the options of a group.
func (p *Panel) ToggleExpanded(groupID string) {
	if _, ok := p.group(groupID); !ok {
		return
	}
	if p.IsExpanded(groupID) {
		p.expanded = without(p.expanded, groupID)
		return
	}
	p.expanded = append(p.expanded, groupID)
}

func (p *Panel) IsExpanded(groupID string) bool { return contains(p.expanded, groupID) }

func (p *Panel) State() State { return p.state }

func (p *Panel) IsOpen() bool { return p.state == Open }

func (p *Panel) Open() { p.state = Open }

func (p *Panel) Close() { p.state = Closed }

// ToggleOpen flips the dropdown, as the filter button does.
func (p *Panel) ToggleOpen() {
	if p.state == Open {
		p.state = Closed
		return
	}
	p.state = Open
}

// ClickOutside closes an open panel.
func (p *Panel) ClickOutside() { p.Close() }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
