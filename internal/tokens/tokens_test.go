package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	v, ok := Lookup("--orange-primary")
	require.True(t, ok)
	assert.Equal(t, "hsl(26, 100%, 55%)", v)

	v, ok = Lookup("--black-75")
	require.True(t, ok)
	assert.Equal(t, "hsl(0, 0%, 0%, 0.75)", v)

	v, ok = Lookup("--font-size-6xl")
	require.True(t, ok)
	assert.Equal(t, "60px", v)

	_, ok = Lookup("--missing")
	assert.False(t, ok)
}

func TestStylesheet(t *testing.T) {
	css, etag := Stylesheet()
	assert.True(t, strings.HasPrefix(css, ":root {\n"))
	assert.Contains(t, css, "  --blue-light-grayish: hsl(223, 64%, 98%);\n")
	assert.Contains(t, css, "  --line-height-relaxed: 1.75;\n")
	assert.True(t, strings.HasSuffix(css, "}\n"))

	again, tag := Stylesheet()
	assert.Equal(t, css, again)
	assert.Equal(t, etag, tag)
	assert.True(t, strings.HasPrefix(etag, `"`))
}
