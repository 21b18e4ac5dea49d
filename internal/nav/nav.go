package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Label string
	Href  string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href   string
	Label  string
	Active bool
}

// Crumb represents a breadcrumb entry.
type Crumb struct {
	Href   string
	Label  string
	Active bool
}

// DefaultActive is the section highlighted on the product page.
const DefaultActive = "Women"

// Main is the primary navigation definition.
var Main = []Item{
	{Label: "Collections", Href: "#"},
	{Label: "Men", Href: "#"},
	{Label: "Women", Href: "#"},
	{Label: "About", Href: "#"},
	{Label: "Contact", Href: "#"},
}

// Build renders navigation items with the given section marked active. An unknown or empty
// section falls back to DefaultActive.
func Build(current string) []RenderedItem {
	current = strings.TrimSpace(current)
	if !known(current) {
		current = DefaultActive
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:   it.Href,
			Label:  it.Label,
			Active: strings.EqualFold(it.Label, current),
		})
	}
	return items
}

func known(label string) bool {
	for _, it := range Main {
		if strings.EqualFold(it.Label, label) {
			return true
		}
	}
	return false
}

// Breadcrumbs builds breadcrumb entries from the current path.
// Rules:
// - Always start with Home
// - Each further segment gets a prettified label
func Breadcrumbs(currentPath string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", Label: "Home", Active: currentPath == "/"}}
	clean := path.Clean(currentPath)
	if clean == "/" || clean == "." {
		return crumbs
	}

	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	href := ""
	for i, seg := range parts {
		href += "/" + seg
		crumbs = append(crumbs, Crumb{
			Href:   href,
			Label:  titleFromSegment(seg),
			Active: i == len(parts)-1,
		})
	}
	return crumbs
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
