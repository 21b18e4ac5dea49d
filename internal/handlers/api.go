package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
	"github.com/Rahdeg/alt-commmerce/internal/format"
	"github.com/Rahdeg/alt-commmerce/internal/platform/httpx"
	"github.com/Rahdeg/alt-commmerce/internal/platform/requestctx"
)

const maxAPIBody = 16 << 10

// CartResponse is the JSON representation of a cart.
type CartResponse struct {
	Items          cart.Cart `json:"items"`
	TotalItems     int       `json:"totalItems"`
	TotalPrice     float64   `json:"totalPrice"`
	FormattedTotal string    `json:"formattedTotal"`
}

type addItemRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func newCartResponse(c cart.Cart) CartResponse {
	if c == nil {
		c = cart.Cart{}
	}
	return CartResponse{
		Items:          c,
		TotalItems:     c.TotalItems(),
		TotalPrice:     c.TotalPrice(),
		FormattedTotal: format.Money(c.Total(), format.DefaultCurrency),
	}
}

// APICart returns the visitor's cart with its totals.
func (h *Handlers) APICart(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, newCartResponse(h.store(r).Load(r.Context())))
}

// APIAddItem adds quantity units of a catalog product. A quantity of zero or less is a no-op.
func (h *Handlers) APIAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, ok := h.catalog.Product(req.ID)
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("unknown_product", "product not found", http.StatusNotFound))
		return
	}
	store := h.store(r)
	if err := cart.AddItem(r.Context(), store, p.LineItem(), req.Quantity); err != nil {
		h.apiFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newCartResponse(store.Load(r.Context())))
}

// APISetQuantity replaces a line's quantity; zero or less removes it.
func (h *Handlers) APISetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_quantity", "quantity is required", http.StatusBadRequest))
		return
	}
	store := h.store(r)
	if err := cart.SetQuantity(r.Context(), store, chi.URLParam(r, "id"), *req.Quantity); err != nil {
		h.apiFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newCartResponse(store.Load(r.Context())))
}

// APIRemoveItem deletes a line. Unknown ids are not an error.
func (h *Handlers) APIRemoveItem(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	if err := cart.RemoveItem(r.Context(), store, chi.URLParam(r, "id")); err != nil {
		h.apiFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newCartResponse(store.Load(r.Context())))
}

func (h *Handlers) apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errors.Is(err, cart.ErrInvalidItem) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_item", "item cannot be added", http.StatusBadRequest))
		return
	}
	requestctx.Logger(ctx).Error("cart.update_failed", zap.Error(err))
	httpx.WriteError(ctx, w, httpx.NewError("storage_unavailable", "cart storage unavailable", http.StatusServiceUnavailable))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		httpx.WriteError(r.Context(), w, httpx.NewError("unsupported_media_type", "expected application/json", http.StatusUnsupportedMediaType))
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_json", "request body is not valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}
