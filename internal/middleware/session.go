package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Rahdeg/alt-commmerce/internal/platform/requestctx"
)

const (
	defaultSessionCookie = "STOREFRONT_SESSION"
	defaultSessionMaxAge = 30 * 24 * time.Hour
	maxWishlist          = 64
)

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	CookieName string
	SigningKey []byte
	Secure     bool
	MaxAge     time.Duration
}

// SessionData is the visitor state carried in the signed cookie. The ID doubles as the
// visitor id that keys the cart.
type SessionData struct {
	ID        string    `json:"id"`
	Wishlist  []string  `json:"wl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	dirty bool
}

// MarkDirty flags the session for writing at end of request.
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// IsWishlisted reports whether product id is on the wishlist.
func (s *SessionData) IsWishlisted(id string) bool {
	for _, v := range s.Wishlist {
		if v == id {
			return true
		}
	}
	return false
}

// ToggleWishlist flips id on the wishlist and returns the new state.
func (s *SessionData) ToggleWishlist(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	defer s.MarkDirty()
	for i, v := range s.Wishlist {
		if v == id {
			s.Wishlist = append(s.Wishlist[:i:i], s.Wishlist[i+1:]...)
			return false
		}
	}
	if len(s.Wishlist) >= maxWishlist {
		s.Wishlist = s.Wishlist[1:]
	}
	s.Wishlist = append(s.Wishlist, id)
	return true
}

// NewSigningKey returns a random process-local key for development use.
func NewSigningKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return []byte("insecure-dev-key-please-set-STOREFRONT_SESSION_SIGNING_KEY")
	}
	return key
}

// Session loads or initialises the session, stores it in the request context and records
// the visitor id for downstream handlers and logs.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	name := cfg.CookieName
	if name == "" {
		name = defaultSessionCookie
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}
	key := cfg.SigningKey
	if len(key) == 0 {
		key = NewSigningKey()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sd, fromCookie := readSessionCookie(r, name, key)
			if sd.ID == "" {
				now := time.Now().UTC()
				sd = &SessionData{ID: ulid.Make().String(), CreatedAt: now, UpdatedAt: now, dirty: true}
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, sd)
			ctx = requestctx.WithVisitor(ctx, sd.ID)

			write := func(w http.ResponseWriter) {
				if sd.dirty || !fromCookie {
					writeSessionCookie(w, r, name, key, cfg.Secure, maxAge, sd)
				}
			}
			hw := &hookWriter{ResponseWriter: w, before: write}
			next.ServeHTTP(hw, r.WithContext(ctx))
			if !hw.wrote {
				write(w)
			}
		})
	}
}

// GetSession returns the session of the request, or an empty one outside the middleware.
func GetSession(ctx context.Context) *SessionData {
	if sd, ok := ctx.Value(ctxKeySession).(*SessionData); ok && sd != nil {
		return sd
	}
	return &SessionData{}
}

func readSessionCookie(r *http.Request, name string, key []byte) (*SessionData, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	payloadPart, sigPart, ok := strings.Cut(c.Value, ".")
	if !ok {
		return &SessionData{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return &SessionData{}, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return &SessionData{}, false
	}
	if !hmac.Equal(sig, sign(key, payload)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil {
		return &SessionData{}, false
	}
	if _, err := ulid.ParseStrict(sd.ID); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func writeSessionCookie(w http.ResponseWriter, r *http.Request, name string, key []byte, secure bool, maxAge time.Duration, sd *SessionData) {
	b, _ := json.Marshal(sd)
	val := base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(sign(key, b))
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func sign(key, payload []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return mac.Sum(nil)
}

// hookWriter runs before once, just ahead of the first header write.
type hookWriter struct {
	http.ResponseWriter
	before func(http.ResponseWriter)
	wrote  bool
}

func (w *hookWriter) fire() {
	if w.wrote {
		return
	}
	w.wrote = true
	if w.before != nil {
		w.before(w.ResponseWriter)
	}
}

func (w *hookWriter) WriteHeader(code int) {
	w.fire()
	w.ResponseWriter.WriteHeader(code)
}

func (w *hookWriter) Write(b []byte) (int, error) {
	w.fire()
	return w.ResponseWriter.Write(b)
}

func (w *hookWriter) Flush() {
	w.fire()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *hookWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
