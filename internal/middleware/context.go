package middleware

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeySession ctxKey = "session"
	ctxKeyCSRF    ctxKey = "csrf.token"
	ctxKeyHTMX    ctxKey = "htmx.info"
)
