package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogFeaturedProduct(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	p := c.Featured()
	assert.Equal(t, "fall-limited-sneakers", p.ID)
	assert.Equal(t, "Fall Limited Edition Sneakers", p.Name)
	assert.Equal(t, "Sneaker Company", p.Brand)
	assert.Equal(t, 125.0, p.Price)
	assert.Equal(t, 250.0, p.OriginalPrice)
	assert.Equal(t, 50, p.Discount)
	assert.True(t, p.HasDiscount())
	assert.Len(t, p.Images, 4)
	assert.Len(t, p.Thumbnails, 4)
	assert.Contains(t, string(p.DescriptionHTML), "<p>These low-profile sneakers")

	li := p.LineItem()
	assert.Equal(t, "fall-limited-sneakers", li.ID)
	assert.Equal(t, "/images/image-product-1-thumbnail.png", li.Image)
	assert.Zero(t, li.Quantity)
}

func TestDefaultCatalogGrid(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	grid := c.Grid()
	require.Len(t, grid, 6)
	prices := make([]float64, 0, len(grid))
	for _, p := range grid {
		prices = append(prices, p.Price)
	}
	assert.Equal(t, []float64{125, 89.99, 199.99, 149.99, 69.99, 179.99}, prices)

	p, ok := c.Product("3")
	require.True(t, ok)
	assert.Equal(t, "Premium Leather Sneakers", p.Name)
	assert.Equal(t, 20, p.Discount)

	p, ok = c.Product("2")
	require.True(t, ok)
	assert.False(t, p.HasDiscount())

	_, ok = c.Product("nope")
	assert.False(t, ok)

	grid[0].Name = "mutated"
	assert.NotEqual(t, "mutated", c.Grid()[0].Name)
}

func TestParseRejectsInvalidData(t *testing.T) {
	cases := map[string]string{
		"missing featured": "featured: x\nproducts: []\n",
		"duplicate id": `
featured: a
products:
  - {id: a, name: A, price: 1, images: [/a.jpg]}
  - {id: a, name: B, price: 1}
`,
		"negative price": `
featured: a
products:
  - {id: a, name: A, price: -1, images: [/a.jpg]}
`,
		"no images": `
featured: a
products:
  - {id: a, name: A, price: 1}
`,
		"thumbnail mismatch": `
featured: a
products:
  - {id: a, name: A, price: 1, images: [/a.jpg, /b.jpg], thumbnails: [/a-t.jpg]}
`,
		"unknown field": `
featured: a
colour: red
products:
  - {id: a, name: A, price: 1, images: [/a.jpg]}
`,
		"bad rating": `
featured: a
products:
  - {id: a, name: A, price: 1, images: [/a.jpg]}
grid:
  - {id: g, name: G, price: 1, rating: 7}
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(data))
			require.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
featured: boot
products:
  - id: boot
    name: Winter Boot
    price: 80
    images: [/images/boot.jpg]
`), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Winter Boot", c.Featured().Name)
	assert.Empty(t, c.Grid())

	c, err = LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "fall-limited-sneakers", c.Featured().ID)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRenderDescriptionSanitises(t *testing.T) {
	html := string(RenderDescription("**Bold** <script>alert(1)</script> [link](https://example.com)"))
	assert.Contains(t, html, "<strong>Bold</strong>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `rel="nofollow"`)
	assert.Empty(t, RenderDescription("   "))
}
