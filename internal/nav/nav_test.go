package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMarksActiveSection(t *testing.T) {
	items := Build("")
	require.Len(t, items, 5)
	var active []string
	for _, it := range items {
		if it.Active {
			active = append(active, it.Label)
		}
	}
	assert.Equal(t, []string{"Women"}, active)

	items = Build("about")
	assert.True(t, items[3].Active)
	assert.False(t, items[2].Active)

	items = Build("Unknown")
	assert.True(t, items[2].Active)
}

func TestBreadcrumbs(t *testing.T) {
	crumbs := Breadcrumbs("/")
	require.Len(t, crumbs, 1)
	assert.True(t, crumbs[0].Active)

	crumbs = Breadcrumbs("/products/high-top_sneakers")
	require.Len(t, crumbs, 3)
	assert.Equal(t, Crumb{Href: "/", Label: "Home"}, crumbs[0])
	assert.Equal(t, Crumb{Href: "/products", Label: "Products"}, crumbs[1])
	assert.Equal(t, Crumb{Href: "/products/high-top_sneakers", Label: "High top sneakers", Active: true}, crumbs[2])
}

func TestDisclosure(t *testing.T) {
	d := ParseDisclosure("closed")
	assert.False(t, d.IsOpen())
	d.Apply("toggle")
	assert.True(t, d.IsOpen())
	d.Apply("bogus")
	assert.True(t, d.IsOpen())
	d.Apply("outside")
	assert.False(t, d.IsOpen())
	d.Apply("open")
	assert.Equal(t, "open", d.String())
	assert.True(t, ParseDisclosure("true").IsOpen())
}
