// Package tokens holds the design tokens of the storefront and renders them as CSS custom
// properties.
package tokens

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
)

// Var is one CSS custom property.
type Var struct {
	Name  string
	Value string
}

// Colors are the palette properties, in declaration order.
var Colors = []Var{
	{"--orange-primary", "hsl(26, 100%, 55%)"},
	{"--orange-pale", "hsl(25, 100%, 94%)"},
	{"--blue-very-dark", "hsl(220, 13%, 13%)"},
	{"--blue-dark-grayish", "hsl(219, 9%, 45%)"},
	{"--blue-grayish", "hsl(220, 14%, 75%)"},
	{"--blue-light-grayish", "hsl(223, 64%, 98%)"},
	{"--white", "hsl(0, 0%, 100%)"},
	{"--black", "hsl(0, 0%, 0%)"},
	{"--black-75", "hsl(0, 0%, 0%, 0.75)"},
}

// Typography covers font family, weights, sizes, line heights and letter spacing.
// Kumbh Sans ships 400 and 700 only.
var Typography = []Var{
	{"--font-family-sans", "'Kumbh Sans', system-ui, sans-serif"},
	{"--font-family-mono", "'Kumbh Sans', monospace"},
	{"--font-weight-normal", "400"},
	{"--font-weight-bold", "700"},
	{"--font-size-base", "16px"},
	{"--font-size-xs", "12px"},
	{"--font-size-sm", "14px"},
	{"--font-size-md", "16px"},
	{"--font-size-lg", "18px"},
	{"--font-size-xl", "20px"},
	{"--font-size-2xl", "24px"},
	{"--font-size-3xl", "30px"},
	{"--font-size-4xl", "36px"},
	{"--font-size-5xl", "48px"},
	{"--font-size-6xl", "60px"},
	{"--line-height-tight", "1.25"},
	{"--line-height-normal", "1.5"},
	{"--line-height-relaxed", "1.75"},
	{"--letter-spacing-tight", "-0.025em"},
	{"--letter-spacing-normal", "0em"},
	{"--letter-spacing-wide", "0.025em"},
}

// Lookup returns the value of a token by property name.
func Lookup(name string) (string, bool) {
	for _, set := range [][]Var{Colors, Typography} {
		for _, v := range set {
			if v.Name == name {
				return v.Value, true
			}
		}
	}
	return "", false
}

var (
	stylesheetOnce sync.Once
	stylesheet     string
	stylesheetTag  string
)

// Stylesheet renders every token inside a :root rule, with a strong ETag for caching.
func Stylesheet() (css, etag string) {
	stylesheetOnce.Do(func() {
		var b strings.Builder
		b.WriteString(":root {\n")
		for _, set := range [][]Var{Colors, Typography} {
			for _, v := range set {
				fmt.Fprintf(&b, "  %s: %s;\n", v.Name, v.Value)
			}
		}
		b.WriteString("}\n")
		stylesheet = b.String()
		stylesheetTag = fmt.Sprintf(`"%x"`, sha256.Sum256([]byte(stylesheet)))
	})
	return stylesheet, stylesheetTag
}
