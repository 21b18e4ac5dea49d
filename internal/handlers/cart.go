package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
	mw "github.com/Rahdeg/alt-commmerce/internal/middleware"
	"github.com/Rahdeg/alt-commmerce/internal/nav"
	"github.com/Rahdeg/alt-commmerce/internal/product"
)

// Cart views a mutation re-renders.
const (
	viewDropdown = "dropdown"
	viewMobile   = "mobile"

	sourceStepper = "stepper"
)

// AddItem adds a catalog product to the cart. Stepper submissions re-render the product
// form with the stepper reset; quick adds answer 204.
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	id := strings.TrimSpace(r.PostFormValue("id"))
	p, ok := h.catalog.Product(id)
	if id == "" || !ok {
		h.renderError(w, r, http.StatusNotFound, "Product not found.")
		return
	}
	qty := product.ParseQuantity(r.PostFormValue("quantity"))
	ctx := r.Context()
	store := h.store(r)

	if r.PostFormValue("source") == sourceStepper {
		sel := product.Restore(p.LineItem(), qty)
		submitted := sel.CanSubmit()
		if err := sel.Submit(ctx, store); err != nil {
			h.cartFailure(w, r, err)
			return
		}
		if submitted {
			mw.Trigger(w, EventCartUpdated)
		}
		h.render(w, r, http.StatusOK, "product_form", product.NewDetail(p, sel))
		return
	}

	if err := cart.AddItem(ctx, store, p.LineItem(), qty); err != nil {
		h.cartFailure(w, r, err)
		return
	}
	if !mw.IsHTMXRequest(ctx) {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}
	mw.Trigger(w, EventCartUpdated)
	w.WriteHeader(http.StatusNoContent)
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
func (h *Handlers) SetQuantity(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Quantity must be a whole number.")
		return
	}
	if err := cart.SetQuantity(r.Context(), h.store(r), chi.URLParam(r, "id"), qty); err != nil {
		h.cartFailure(w, r, err)
		return
	}
	mw.Trigger(w, EventCartUpdated)
	h.renderCartFragment(w, r)
}

// RemoveItem deletes a line from the cart. Unknown ids are not an error.
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	if err := cart.RemoveItem(r.Context(), h.store(r), chi.URLParam(r, "id")); err != nil {
		h.cartFailure(w, r, err)
		return
	}
	mw.Trigger(w, EventCartUpdated)
	h.renderCartFragment(w, r)
}

// renderCartFragment re-renders the cart view named by the posted view field.
func (h *Handlers) renderCartFragment(w http.ResponseWriter, r *http.Request) {
	open := nav.ParseDisclosure(r.PostFormValue("state")).IsOpen()
	view := buildCartView(h.store(r).Load(r.Context()), open)
	if r.PostFormValue("view") == viewMobile {
		h.render(w, r, http.StatusOK, "cart_mobile", view)
		return
	}
	h.render(w, r, http.StatusOK, "cart_dropdown", view)
}

// CartDropdown renders the desktop cart dropdown after applying an optional open/close event.
func (h *Handlers) CartDropdown(w http.ResponseWriter, r *http.Request) {
	h.renderDisclosure(w, r, "cart_dropdown")
}

// CartMobile renders the mobile cart sheet after applying an optional open/close event.
func (h *Handlers) CartMobile(w http.ResponseWriter, r *http.Request) {
	h.renderDisclosure(w, r, "cart_mobile")
}

func (h *Handlers) renderDisclosure(w http.ResponseWriter, r *http.Request, name string) {
	q := r.URL.Query()
	d := nav.ParseDisclosure(q.Get("state"))
	d.Apply(q.Get("event"))
	h.render(w, r, http.StatusOK, name, buildCartView(h.store(r).Load(r.Context()), d.IsOpen()))
}

// CartBadge renders the header item count.
func (h *Handlers) CartBadge(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "cart_badge", buildCartView(h.store(r).Load(r.Context()), false).Badge)
}

// Menu renders the mobile navigation drawer.
func (h *Handlers) Menu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d := nav.ParseDisclosure(q.Get("state"))
	d.Apply(q.Get("event"))
	h.render(w, r, http.StatusOK, "mobile_menu", MenuView{Open: d.IsOpen(), Nav: nav.Build(nav.DefaultActive)})
}

// Wishlist toggles a product on the session wishlist and re-renders its button.
func (h *Handlers) Wishlist(w http.ResponseWriter, r *http.Request) {
	p, ok := h.catalog.Product(chi.URLParam(r, "id"))
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Product not found.")
		return
	}
	sess := mw.GetSession(r.Context())
	sess.ToggleWishlist(p.ID)
	h.render(w, r, http.StatusOK, "wishlist_button", buildCard(p, sess))
}
