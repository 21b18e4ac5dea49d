package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Rahdeg/alt-commmerce/internal/platform/requestctx"
)

// CartEvents streams a cart-updated server-sent event whenever the visitor's cart changes,
// from this tab, another tab or another instance. The stream ends with the request or when
// CloseStreams is called.
func (h *Handlers) CartEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestctx.Logger(ctx)
	rc := http.NewResponseController(w)

	changed := make(chan struct{}, 1)
	cancel := h.store(r).Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()

	// streams outlive the server's write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(frame string) bool {
		if _, err := fmt.Fprint(w, frame); err != nil {
			return false
		}
		if err := rc.Flush(); err != nil {
			logger.Warn("cart.events_flush_failed", zap.Error(err))
			return false
		}
		return true
	}
	if !send(": connected\n\n") {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.closing:
			return
		case <-changed:
			if !send("event: " + EventCartUpdated + "\ndata: " + EventCartUpdated + "\n\n") {
				return
			}
		case <-ticker.C:
			if !send(": ping\n\n") {
				return
			}
		}
	}
}
