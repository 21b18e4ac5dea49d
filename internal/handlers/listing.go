package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Rahdeg/alt-commmerce/internal/filters"
	mw "github.com/Rahdeg/alt-commmerce/internal/middleware"
)

// Products renders the product grid with the search and filter panel. Panel state may be
// carried in the query string.
func (h *Handlers) Products(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	panel := filters.Restore(h.groups, filters.ParseForm(r.URL.Query()), h.callbacks(ctx))
	sess := mw.GetSession(ctx)

	listing := &ListingPage{Panel: buildPanelView(panel, "")}
	for _, p := range h.catalog.Grid() {
		listing.Cards = append(listing.Cards, buildCard(p, sess))
	}

	page := h.basePage(r, "All Sneakers")
	page.Listing = listing
	h.render(w, r, http.StatusOK, "page_products", page)
}

// Search hands the trimmed query to the search collaborator. Empty queries do nothing.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	h.panelAction(w, r, func(p *filters.Panel) string {
		if !p.Search() {
			return ""
		}
		return fmt.Sprintf("Showing results for %q", strings.TrimSpace(p.Query()))
	})
}

// ApplyFilters hands the selection to the filter collaborator and closes the panel.
func (h *Handlers) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	h.panelAction(w, r, func(p *filters.Panel) string {
		n := p.ActiveCount()
		p.Apply()
		if n == 0 {
			return "Showing all products"
		}
		if n == 1 {
			return "1 filter applied"
		}
		return fmt.Sprintf("%d filters applied", n)
	})
}

// ToggleFilter flips one option of a group.
func (h *Handlers) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	h.panelAction(w, r, func(p *filters.Panel) string {
		p.Toggle(r.PostFormValue("group"), r.PostFormValue("value"))
		return ""
	})
}

// ClearFilters drops every selection.
func (h *Handlers) ClearFilters(w http.ResponseWriter, r *http.Request) {
	h.panelAction(w, r, func(p *filters.Panel) string {
		p.ClearAll()
		return ""
	})
}

// ExpandFilter shows or hides a group's options.
func (h *Handlers) ExpandFilter(w http.ResponseWriter, r *http.Request) {
	h.panelAction(w, r, func(p *filters.Panel) string {
		p.ToggleExpanded(r.PostFormValue("group"))
		return ""
	})
}

// OpenFilters opens, closes or toggles the filter dropdown.
func (h *Handlers) OpenFilters(w http.ResponseWriter, r *http.Request) {
	h.panelAction(w, r, func(p *filters.Panel) string {
		switch r.PostFormValue("event") {
		case "open":
			p.Open()
		case "close":
			p.Close()
		case "outside":
			p.ClickOutside()
		default:
			p.ToggleOpen()
		}
		return ""
	})
}

// panelAction restores the panel from the posted form, applies fn and re-renders the panel
// with the status message fn returns.
func (h *Handlers) panelAction(w http.ResponseWriter, r *http.Request, fn func(*filters.Panel) string) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	panel := filters.Restore(h.groups, filters.ParseForm(r.PostForm), h.callbacks(r.Context()))
	message := fn(panel)
	h.render(w, r, http.StatusOK, "filter_panel", buildPanelView(panel, message))
}

// callbacks binds the panel callbacks to the request context.
func (h *Handlers) callbacks(ctx context.Context) filters.Callbacks {
	return filters.Callbacks{
		OnFilterChange: func(sel filters.Selection) { h.onFilterChange(ctx, sel) },
		OnSearch:       func(q string) { h.onSearch(ctx, q) },
	}
}
