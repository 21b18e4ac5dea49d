package handlers

import (
	"net/http"
	"sort"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
	"github.com/Rahdeg/alt-commmerce/internal/catalog"
	"github.com/Rahdeg/alt-commmerce/internal/filters"
	"github.com/Rahdeg/alt-commmerce/internal/format"
	"github.com/Rahdeg/alt-commmerce/internal/gallery"
	mw "github.com/Rahdeg/alt-commmerce/internal/middleware"
	"github.com/Rahdeg/alt-commmerce/internal/nav"
	"github.com/Rahdeg/alt-commmerce/internal/product"
)

// PageData is the view model of every full page using the shared layout.
type PageData struct {
	Title     string
	Path      string
	CSRFToken string

	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	Header      HeaderView

	// Optional per-page payloads
	Product *ProductPage
	Listing *ListingPage
	Error   *ErrorView
}

// HeaderView carries the header's cart and menu overlays.
type HeaderView struct {
	Dropdown CartView
	Mobile   CartView
	Menu     MenuView
}

// BadgeView is the item count shown on the cart icon.
type BadgeView struct {
	Count  int
	Hidden bool
}

// CartLine is one rendered line item.
type CartLine struct {
	ID           string
	Name         string
	Image        string
	UnitPrice    string
	LineTotal    string
	Quantity     int
	CanDecrement bool
	Dec          int
	Inc          int
}

// CartView renders the cart in the desktop dropdown or the mobile sheet.
type CartView struct {
	Lines      []CartLine
	TotalItems int
	TotalPrice string
	Empty      bool
	Open       bool
	Badge      BadgeView
}

// MenuView is the mobile navigation drawer.
type MenuView struct {
	Open bool
	Nav  []nav.RenderedItem
}

// ProductPage is the payload of the product detail page.
type ProductPage struct {
	Gallery gallery.View
	Detail  product.Detail
}

// ListingPage is the payload of the product grid page.
type ListingPage struct {
	Panel PanelView
	Cards []CardView
}

// CardView is one product card of the grid.
type CardView struct {
	ID            string
	Name          string
	Image         string
	Price         string
	OriginalPrice string
	Discount      string
	Stars         []bool
	Rating        float64
	ReviewCount   int
	Wishlisted    bool
}

// PanelView renders the search and filter panel.
type PanelView struct {
	Query       string
	Open        bool
	ActiveCount int
	Groups      []GroupView
	Hidden      []Field
	Message     string
}

// GroupView is one filter group of the panel.
type GroupView struct {
	ID       string
	Label    string
	Multiple bool
	Expanded bool
	Options  []OptionView
}

// OptionView is one selectable filter value.
type OptionView struct {
	Label    string
	Value    string
	Selected bool
}

// Field is a hidden form input carrying panel state between requests.
type Field struct {
	Name  string
	Value string
}

// ErrorView is rendered by the error fragment.
type ErrorView struct {
	Status  int
	Message string
}

func buildCartView(c cart.Cart, open bool) CartView {
	lines := make([]CartLine, 0, len(c))
	for _, it := range c {
		lines = append(lines, CartLine{
			ID:           it.ID,
			Name:         it.Name,
			Image:        it.Image,
			UnitPrice:    format.Price(it.Price),
			LineTotal:    format.Money(it.Subtotal(), format.DefaultCurrency),
			Quantity:     it.Quantity,
			CanDecrement: it.Quantity > 1,
			Dec:          it.Quantity - 1,
			Inc:          it.Quantity + 1,
		})
	}
	total := c.TotalItems()
	return CartView{
		Lines:      lines,
		TotalItems: total,
		TotalPrice: format.Money(c.Total(), format.DefaultCurrency),
		Empty:      c.IsEmpty(),
		Open:       open,
		Badge:      BadgeView{Count: total, Hidden: total == 0},
	}
}

func buildCard(p catalog.Product, sess *mw.SessionData) CardView {
	card := CardView{
		ID:          p.ID,
		Name:        p.Name,
		Image:       p.Image,
		Price:       format.Price(p.Price),
		Discount:    format.Discount(p.Discount),
		Stars:       format.Stars(p.Rating),
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Wishlisted:  sess.IsWishlisted(p.ID),
	}
	if p.HasDiscount() {
		card.OriginalPrice = format.Price(p.OriginalPrice)
	}
	return card
}

func buildPanelView(p *filters.Panel, message string) PanelView {
	view := PanelView{
		Query:       p.Query(),
		Open:        p.IsOpen(),
		ActiveCount: p.ActiveCount(),
		Message:     message,
	}
	for _, g := range p.Groups() {
		gv := GroupView{ID: g.ID, Label: g.Label, Multiple: g.Multiple, Expanded: p.IsExpanded(g.ID)}
		for _, o := range g.Options {
			gv.Options = append(gv.Options, OptionView{Label: o.Label, Value: o.Value, Selected: p.IsSelected(g.ID, o.Value)})
		}
		view.Groups = append(view.Groups, gv)
	}

	values := p.Snapshot().Values()
	values.Del(filters.FieldQuery)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range values[name] {
			view.Hidden = append(view.Hidden, Field{Name: name, Value: v})
		}
	}
	return view
}

// basePage fills the layout fields shared by every page.
func (h *Handlers) basePage(r *http.Request, title string) PageData {
	ctx := r.Context()
	c := h.store(r).Load(ctx)
	items := nav.Build(nav.DefaultActive)
	return PageData{
		Title:       title,
		Path:        r.URL.Path,
		CSRFToken:   mw.CSRFTokenFromContext(ctx),
		Nav:         items,
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path),
		Header: HeaderView{
			Dropdown: buildCartView(c, false),
			Mobile:   buildCartView(c, false),
			Menu:     MenuView{Nav: items},
		},
	}
}
