package observability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeRouteStripsControlCharacters(t *testing.T) {
	assert.Equal(t, "/cart/items", SanitizeRoute("/cart/\x00items\n"))
	assert.Equal(t, "/", SanitizeRoute(""))
}

func TestSanitizeRouteCapsLength(t *testing.T) {
	got := SanitizeRoute("/" + strings.Repeat("a", 400))
	assert.Len(t, got, 180)
}

func TestSanitizeVisitorID(t *testing.T) {
	assert.Equal(t, "", SanitizeVisitorID(""))
	assert.Len(t, SanitizeVisitorID(strings.Repeat("v", 64)), 32)
}
