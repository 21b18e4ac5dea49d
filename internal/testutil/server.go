package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
	"github.com/Rahdeg/alt-commmerce/internal/catalog"
	"github.com/Rahdeg/alt-commmerce/internal/filters"
	"github.com/Rahdeg/alt-commmerce/internal/gallery"
	"github.com/Rahdeg/alt-commmerce/internal/handlers"
	"github.com/Rahdeg/alt-commmerce/internal/httpserver"
	"github.com/Rahdeg/alt-commmerce/internal/middleware"
	"github.com/Rahdeg/alt-commmerce/internal/storage"
	"github.com/Rahdeg/alt-commmerce/internal/views"
	"github.com/Rahdeg/alt-commmerce/public"
)

// CSRFCookie and CSRFHeader are the names used by test servers.
const (
	CSRFCookie = "csrf_token"
	CSRFHeader = "X-CSRF-Token"
)

// Server bundles a running storefront with its collaborators for assertions.
type Server struct {
	*httptest.Server
	Storage storage.Storage
	Carts   *cart.Manager

	// HTTP is the configured server; its Shutdown behaves as in production.
	HTTP *http.Server
}

type serverOptions struct {
	storage        storage.Storage
	logger         *zap.Logger
	onFilterChange func(context.Context, filters.Selection)
	onSearch       func(context.Context, string)
	heartbeat      time.Duration
}

// ServerOption customises the server constructed by NewServer.
type ServerOption func(*serverOptions)

// WithStorage replaces the in-memory cart storage.
func WithStorage(s storage.Storage) ServerOption {
	return func(o *serverOptions) { o.storage = s }
}

// WithLogger routes server logs to logger.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = logger }
}

// WithFilterCallbacks captures the filter panel's confirmed choices.
func WithFilterCallbacks(onChange func(context.Context, filters.Selection), onSearch func(context.Context, string)) ServerOption {
	return func(o *serverOptions) {
		o.onFilterChange = onChange
		o.onSearch = onSearch
	}
}

// WithHeartbeat sets the cart event stream heartbeat.
func WithHeartbeat(d time.Duration) ServerOption {
	return func(o *serverOptions) { o.heartbeat = d }
}

// NewServer constructs an httptest server running the storefront HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *Server {
	t.Helper()

	o := serverOptions{storage: storage.NewMemory(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	carts, err := cart.NewManager(cart.Dependencies{Storage: o.storage, Broker: cart.NewBroker(o.logger), Logger: o.logger})
	if err != nil {
		t.Fatalf("cart manager: %v", err)
	}
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	renderer, err := views.New(views.Options{})
	if err != nil {
		t.Fatalf("views: %v", err)
	}
	static, err := public.StaticFS()
	if err != nil {
		t.Fatalf("static: %v", err)
	}
	h, err := handlers.New(handlers.Dependencies{
		Carts:          carts,
		Catalog:        cat,
		Views:          renderer,
		Thumbnails:     gallery.NewThumbnailer(static, 0, 0),
		OnFilterChange: o.onFilterChange,
		OnSearch:       o.onSearch,
		Heartbeat:      o.heartbeat,
	})
	if err != nil {
		t.Fatalf("handlers: %v", err)
	}

	srv, err := httpserver.New(httpserver.Config{
		Address:  ":0",
		Handlers: h,
		Logger:   o.logger,
		Static:   static,
		Session:  middleware.SessionConfig{SigningKey: []byte("test-signing-key-0123456789abcdef")},
		CSRF:     middleware.CSRFConfig{CookieName: CSRFCookie, HeaderName: CSRFHeader},
	})
	if err != nil {
		t.Fatalf("httpserver: %v", err)
	}
	ts := httptest.NewUnstartedServer(srv.Handler)
	ts.Config = srv
	ts.Start()
	t.Cleanup(ts.Close)
	return &Server{Server: ts, Storage: o.storage, Carts: carts, HTTP: srv}
}

// Client is a cookie-carrying browser stand-in that echoes the CSRF token.
type Client struct {
	t    testing.TB
	base string
	http *http.Client
}

// NewClient returns a client with its own session; it loads the product page once to obtain
// the session and CSRF cookies.
func NewClient(t testing.TB, srv *Server) *Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	c := &Client{
		t:    t,
		base: srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	resp, _ := c.Get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("warm-up GET /: status %d", resp.StatusCode)
	}
	return c
}

// Cookie returns the value of the named cookie for the server, or "".
func (c *Client) Cookie(name string) string {
	u, err := url.Parse(c.base)
	if err != nil {
		c.t.Fatalf("parse base url: %v", err)
	}
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Get issues a GET and returns the response with its body read.
func (c *Client) Get(path string) (*http.Response, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	return c.Do(req)
}

// PostForm issues an htmx form POST carrying the CSRF header.
func (c *Client) PostForm(path string, form url.Values) (*http.Response, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return c.Do(req)
}

// JSON issues an API request with a JSON body carrying the CSRF header.
func (c *Client) JSON(method, path, body string) (*http.Response, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.Do(req)
}

// Do sends req with the CSRF header set and reads the whole body.
func (c *Client) Do(req *http.Request) (*http.Response, []byte) {
	c.t.Helper()
	if token := c.Cookie(CSRFCookie); token != "" && req.Header.Get(CSRFHeader) == "" {
		req.Header.Set(CSRFHeader, token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return resp, body
}

// Stream opens a long-lived GET without reading the body; the caller closes it.
func (c *Client) Stream(ctx context.Context, path string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("stream %s: %v", path, err)
	}
	return resp
}
