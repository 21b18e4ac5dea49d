package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahdeg/alt-commmerce/internal/platform/requestctx"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionIssuesVisitorID(t *testing.T) {
	var visitor string
	handler := Session(SessionConfig{SigningKey: testKey})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitor = requestctx.Visitor(r.Context())
		assert.Equal(t, visitor, GetSession(r.Context()).ID)
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := ulid.ParseStrict(visitor)
	require.NoError(t, err)

	cookie := cookieNamed(rr, defaultSessionCookie)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// The signed cookie resolves to the same visitor.
	var again string
	handler = Session(SessionConfig{SigningKey: testKey})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		again = requestctx.Visitor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, visitor, again)
	assert.Nil(t, cookieNamed(rr, defaultSessionCookie), "unchanged session is not rewritten")
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	var visitor string
	handler := Session(SessionConfig{SigningKey: testKey})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitor = requestctx.Visitor(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	first := visitor
	cookie := cookieNamed(rr, defaultSessionCookie)
	require.NotNil(t, cookie)

	signed := Session(SessionConfig{SigningKey: []byte("another-key")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitor = requestctx.Visitor(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	signed.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, first, visitor)
}

func TestSessionWishlist(t *testing.T) {
	s := &SessionData{}
	assert.True(t, s.ToggleWishlist("3"))
	assert.True(t, s.IsWishlisted("3"))
	assert.True(t, s.ToggleWishlist("5"))
	assert.False(t, s.ToggleWishlist("3"))
	assert.Equal(t, []string{"5"}, s.Wishlist)
	assert.False(t, s.ToggleWishlist(" "))
	assert.True(t, s.dirty)
}

func TestCSRFDoubleSubmit(t *testing.T) {
	handler := CSRF(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CSRFTokenFromContext(r.Context())))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := cookieNamed(rr, "csrf_token")
	require.NotNil(t, cookie)
	assert.Equal(t, cookie.Value, rr.Body.String())

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), `"csrf_invalid"`)
	})

	t.Run("header token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
		req.AddCookie(cookie)
		req.Header.Set("X-CSRF-Token", cookie.Value)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("form token", func(t *testing.T) {
		form := url.Values{CSRFFormField: {cookie.Value}}
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestHTMXAndTrigger(t *testing.T) {
	var info HTMXInfo
	handler := HTMX()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info = HTMXInfoFromContext(r.Context())
		Trigger(w, "cart-updated")
		Trigger(w, "cart-updated", "wishlist-updated")
	}))
	req := httptest.NewRequest(http.MethodGet, "/cart/badge", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", "cart-badge")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.True(t, info.IsHTMX)
	assert.Equal(t, "cart-badge", info.Target)
	assert.Equal(t, "cart-updated, wishlist-updated", rr.Header().Get("HX-Trigger"))
	assert.Equal(t, "HX-Request", rr.Header().Get("Vary"))
}

func TestAssetsWithCache(t *testing.T) {
	fsys := fstest.MapFS{"css/site.css": {Data: []byte("body{}")}}
	handler := http.StripPrefix("/assets", AssetsWithCache(fsys))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/assets/css/site.css", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "body{}", rr.Body.String())
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/assets/css/site.css", nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotModified, rr.Code)
}
