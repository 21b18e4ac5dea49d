// Package handlers serves the storefront's pages, htmx fragments, live cart stream and JSON
// cart API. Every cart operation resolves the visitor's store from the session.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
	"github.com/Rahdeg/alt-commmerce/internal/catalog"
	"github.com/Rahdeg/alt-commmerce/internal/filters"
	"github.com/Rahdeg/alt-commmerce/internal/gallery"
	mw "github.com/Rahdeg/alt-commmerce/internal/middleware"
	"github.com/Rahdeg/alt-commmerce/internal/platform/requestctx"
	"github.com/Rahdeg/alt-commmerce/internal/views"
)

// EventCartUpdated is the client-side event fired after every cart mutation.
const EventCartUpdated = "cart-updated"

const (
	defaultHeartbeat = 25 * time.Second
	anonymousVisitor = "anonymous"
)

// Dependencies wires the handlers to their collaborators.
type Dependencies struct {
	Carts      *cart.Manager
	Catalog    *catalog.Catalog
	Views      *views.Renderer
	Thumbnails *gallery.Thumbnailer

	// FilterGroups defaults to filters.DefaultGroups.
	FilterGroups []filters.Group
	// OnFilterChange and OnSearch receive the panel's confirmed choices. When nil the choice
	// is only logged; the storefront has no search backend.
	OnFilterChange func(ctx context.Context, selection filters.Selection)
	OnSearch       func(ctx context.Context, query string)

	// Heartbeat is the comment interval of the cart event stream.
	Heartbeat time.Duration
}

// Handlers holds the HTTP handlers of the storefront.
type Handlers struct {
	carts          *cart.Manager
	catalog        *catalog.Catalog
	views          *views.Renderer
	thumbs         *gallery.Thumbnailer
	groups         []filters.Group
	onFilterChange func(context.Context, filters.Selection)
	onSearch       func(context.Context, string)
	heartbeat      time.Duration

	closing   chan struct{}
	closeOnce sync.Once
}

// New validates deps and returns the handler set.
func New(deps Dependencies) (*Handlers, error) {
	switch {
	case deps.Carts == nil:
		return nil, errors.New("handlers: cart manager is required")
	case deps.Catalog == nil:
		return nil, errors.New("handlers: catalog is required")
	case deps.Views == nil:
		return nil, errors.New("handlers: views are required")
	}
	h := &Handlers{
		carts:          deps.Carts,
		catalog:        deps.Catalog,
		views:          deps.Views,
		thumbs:         deps.Thumbnails,
		groups:         deps.FilterGroups,
		onFilterChange: deps.OnFilterChange,
		onSearch:       deps.OnSearch,
		heartbeat:      deps.Heartbeat,
		closing:        make(chan struct{}),
	}
	if len(h.groups) == 0 {
		h.groups = filters.DefaultGroups
	}
	if h.onFilterChange == nil {
		h.onFilterChange = func(ctx context.Context, sel filters.Selection) {
			requestctx.Logger(ctx).Info("filters.applied", zap.Any("selection", sel), zap.Int("count", sel.Count()))
		}
	}
	if h.onSearch == nil {
		h.onSearch = func(ctx context.Context, query string) {
			requestctx.Logger(ctx).Info("filters.search", zap.String("query", query))
		}
	}
	if h.heartbeat <= 0 {
		h.heartbeat = defaultHeartbeat
	}
	return h, nil
}

// CloseStreams ends every open cart event stream and makes new ones return at once. The
// server calls it on shutdown, which does not cancel request contexts itself.
func (h *Handlers) CloseStreams() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// store returns the cart of the requesting visitor.
func (h *Handlers) store(r *http.Request) *cart.KeyedStore {
	visitor := strings.TrimSpace(requestctx.Visitor(r.Context()))
	if visitor == "" {
		visitor = anonymousVisitor
	}
	return h.carts.For(visitor)
}

// render writes a full page or fragment, logging template failures.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.views.HTML(w, status, name, data); err != nil {
		requestctx.Logger(r.Context()).Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// renderError answers htmx requests with an error fragment, which htmx does not swap for
// error statuses, and full-page requests with the error page.
func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	view := ErrorView{Status: status, Message: message}
	if mw.IsHTMXRequest(r.Context()) {
		h.render(w, r, status, "error_fragment", view)
		return
	}
	page := h.basePage(r, http.StatusText(status))
	page.Error = &view
	h.render(w, r, status, "page_error", page)
}

// cartFailure maps a cart mutation error to a response.
func (h *Handlers) cartFailure(w http.ResponseWriter, r *http.Request, err error) {
	logger := requestctx.Logger(r.Context())
	switch {
	case errors.Is(err, cart.ErrInvalidItem):
		logger.Warn("cart.invalid_item", zap.Error(err))
		h.renderError(w, r, http.StatusBadRequest, "That item cannot be added to the cart.")
	default:
		logger.Error("cart.update_failed", zap.Error(err))
		h.renderError(w, r, http.StatusServiceUnavailable, "Your cart could not be updated. Please try again.")
	}
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
