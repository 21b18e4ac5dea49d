package httpserver

import (
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Rahdeg/alt-commmerce/internal/handlers"
	custommw "github.com/Rahdeg/alt-commmerce/internal/middleware"
	"github.com/Rahdeg/alt-commmerce/internal/platform/observability"
)

const (
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	defaultRequestTimeout = 15 * time.Second
)

// Config holds runtime options for the storefront HTTP server.
type Config struct {
	Address  string
	Handlers *handlers.Handlers
	Logger   *zap.Logger
	// Static is served under /assets/.
	Static fs.FS

	Session custommw.SessionConfig
	CSRF    custommw.CSRFConfig

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// New constructs the HTTP server with its middleware stack and routes.
func New(cfg Config) (*http.Server, error) {
	if cfg.Handlers == nil {
		return nil, errors.New("httpserver: handlers are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.TraceMiddleware)
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.RecoveryMiddleware)

	h := cfg.Handlers
	router.Get("/healthz", h.Healthz)
	router.Get("/assets/tokens.css", h.Tokens)
	if cfg.Static != nil {
		router.Handle("/assets/*", http.StripPrefix("/assets/", custommw.AssetsWithCache(cfg.Static)))
	}
	router.Get("/images/*", h.Image)

	router.Group(func(r chi.Router) {
		r.Use(custommw.Session(cfg.Session))
		r.Use(observability.RequestLoggerMiddleware)
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.CSRF(cfg.CSRF))

		// long-lived; must stay outside the request timeout
		r.Get("/cart/events", h.CartEvents)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(durationOr(cfg.RequestTimeout, defaultRequestTimeout)))
			mountRoutes(r, h)
		})
	})

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, defaultReadTimeout),
		WriteTimeout: durationOr(cfg.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:  durationOr(cfg.IdleTimeout, defaultIdleTimeout),
	}
	// Shutdown waits for active connections; event streams would hold it until its deadline.
	srv.RegisterOnShutdown(h.CloseStreams)
	return srv, nil
}

func mountRoutes(r chi.Router, h *handlers.Handlers) {
	r.Get("/", h.ProductPage)
	r.Get("/gallery", h.Gallery)
	r.Post("/product/quantity", h.Quantity)

	r.Get("/products", h.Products)
	r.Post("/products/search", h.Search)
	r.Post("/products/filters", h.ApplyFilters)
	r.Post("/products/filters/toggle", h.ToggleFilter)
	r.Post("/products/filters/clear", h.ClearFilters)
	r.Post("/products/filters/expand", h.ExpandFilter)
	r.Post("/products/filters/open", h.OpenFilters)

	r.Get("/header/menu", h.Menu)
	r.Post("/wishlist/{id}", h.Wishlist)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/dropdown", h.CartDropdown)
		r.Get("/mobile", h.CartMobile)
		r.Get("/badge", h.CartBadge)
		r.Post("/items", h.AddItem)
		r.Post("/items/{id}/quantity", h.SetQuantity)
		r.Post("/items/{id}/remove", h.RemoveItem)
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.APICart)
		r.Post("/items", h.APIAddItem)
		r.Patch("/items/{id}", h.APISetQuantity)
		r.Delete("/items/{id}", h.APIRemoveItem)
	})
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
