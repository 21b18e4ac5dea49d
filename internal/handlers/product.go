package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Rahdeg/alt-commmerce/internal/catalog"
	"github.com/Rahdeg/alt-commmerce/internal/gallery"
	"github.com/Rahdeg/alt-commmerce/internal/product"
)

// Gallery actions accepted by GET /gallery.
const (
	actionNext     = "next"
	actionPrev     = "prev"
	actionSelect   = "select"
	actionOpen     = "open"
	actionClose    = "close"
	actionOutside  = "outside"
	actionKey      = "key"
	actionLBSelect = "lbselect"
)

// ProductPage renders the featured product with its gallery and a fresh stepper.
func (h *Handlers) ProductPage(w http.ResponseWriter, r *http.Request) {
	p := h.catalog.Featured()
	carousel := gallery.NewCarousel(len(p.Images))

	page := h.basePage(r, p.Name)
	page.Product = &ProductPage{
		Gallery: gallery.Render(p.Images, p.Thumbnails, carousel, gallery.RestoreLightbox(gallery.Closed, &carousel)),
		Detail:  product.NewDetail(p, product.NewSelector(p.LineItem())),
	}
	h.render(w, r, http.StatusOK, "page_product", page)
}

// Gallery applies one carousel or lightbox event and re-renders the gallery fragment. The
// lightbox navigates the page index, so closing it leaves the page on the last viewed image.
func (h *Handlers) Gallery(w http.ResponseWriter, r *http.Request) {
	p := h.catalog.Featured()
	q := r.URL.Query()
	n := len(p.Images)

	carousel := gallery.At(n, atoi(q.Get("index")))
	lb := gallery.RestoreLightbox(gallery.ParseState(q.Get("lb")), &carousel)

	switch strings.TrimSpace(q.Get("action")) {
	case actionNext:
		carousel.Next()
	case actionPrev:
		carousel.Prev()
	case actionSelect:
		carousel.Select(atoi(q.Get("to")))
	case actionOpen:
		lb.Open()
	case actionClose:
		lb.Close()
	case actionOutside:
		lb.ClickOutside()
	case actionKey:
		lb.Key(q.Get("key"))
	case actionLBSelect:
		lb.Select(atoi(q.Get("to")))
	}

	h.render(w, r, http.StatusOK, "gallery", gallery.Render(p.Images, p.Thumbnails, carousel, lb))
}

// Quantity steps the product form's quantity up or down and re-renders the form.
func (h *Handlers) Quantity(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	p, ok := h.formProduct(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Product not found.")
		return
	}
	sel := product.Restore(p.LineItem(), product.ParseQuantity(r.PostFormValue("quantity")))
	sel.Apply(r.PostFormValue("op"))
	h.render(w, r, http.StatusOK, "product_form", product.NewDetail(p, sel))
}

// formProduct resolves the posted product id, defaulting to the featured product.
func (h *Handlers) formProduct(r *http.Request) (catalog.Product, bool) {
	id := strings.TrimSpace(r.PostFormValue("id"))
	if id == "" {
		return h.catalog.Featured(), true
	}
	return h.catalog.Product(id)
}

func atoi(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
