// Package catalog supplies the product data rendered by the storefront: the featured product
// shown on the detail page and the sample products of the grid.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
)

//go:embed catalog.yaml
var embedded []byte

// ErrInvalidCatalog is returned when catalog data fails validation.
var ErrInvalidCatalog = errors.New("catalog: invalid data")

// Product is the shape consumed by the rendering components.
type Product struct {
	ID              string
	Brand           string
	Name            string
	Price           float64
	OriginalPrice   float64 // zero when not discounted
	Discount        int     // percent, zero when not discounted
	Rating          float64
	ReviewCount     int
	Image           string
	Images          []string
	Thumbnails      []string
	Description     string
	DescriptionHTML template.HTML
}

// HasDiscount reports whether a struck-through original price should be shown.
func (p Product) HasDiscount() bool {
	return p.OriginalPrice > p.Price
}

// LineItem returns the cart identity of the product.
func (p Product) LineItem() cart.LineItem {
	return cart.LineItem{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}

// Catalog is an immutable set of products.
type Catalog struct {
	featured Product
	grid     []Product
	byID     map[string]Product
}

type fileProduct struct {
	ID            string   `yaml:"id"`
	Brand         string   `yaml:"brand"`
	Name          string   `yaml:"name"`
	Price         float64  `yaml:"price"`
	OriginalPrice float64  `yaml:"original_price"`
	Discount      int      `yaml:"discount"`
	Rating        float64  `yaml:"rating"`
	ReviewCount   int      `yaml:"review_count"`
	Image         string   `yaml:"image"`
	Images        []string `yaml:"images"`
	Thumbnails    []string `yaml:"thumbnails"`
	Description   string   `yaml:"description"`
}

type file struct {
	Featured string        `yaml:"featured"`
	Products []fileProduct `yaml:"products"`
	Grid     []fileProduct `yaml:"grid"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(embedded))
}

// LoadFile reads a catalog from path; an empty path selects the embedded catalog.
func LoadFile(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates YAML catalog data.
func Parse(r io.Reader) (*Catalog, error) {
	var raw file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{byID: make(map[string]Product)}
	for _, fp := range raw.Products {
		p, err := fp.product()
		if err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %q", ErrInvalidCatalog, p.ID)
		}
		c.byID[p.ID] = p
	}
	featured, ok := c.byID[strings.TrimSpace(raw.Featured)]
	if !ok {
		return nil, fmt.Errorf("%w: featured product %q not found", ErrInvalidCatalog, raw.Featured)
	}
	if len(featured.Images) == 0 {
		return nil, fmt.Errorf("%w: featured product needs images", ErrInvalidCatalog)
	}
	if len(featured.Thumbnails) != 0 && len(featured.Thumbnails) != len(featured.Images) {
		return nil, fmt.Errorf("%w: featured product has %d images but %d thumbnails", ErrInvalidCatalog, len(featured.Images), len(featured.Thumbnails))
	}
	c.featured = featured

	seen := make(map[string]struct{}, len(raw.Grid))
	for _, fp := range raw.Grid {
		p, err := fp.product()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate grid id %q", ErrInvalidCatalog, p.ID)
		}
		seen[p.ID] = struct{}{}
		if _, clash := c.byID[p.ID]; !clash {
			c.byID[p.ID] = p
		}
		c.grid = append(c.grid, p)
	}
	return c, nil
}

func (fp fileProduct) product() (Product, error) {
	id := strings.TrimSpace(fp.ID)
	if id == "" {
		return Product{}, fmt.Errorf("%w: product without id", ErrInvalidCatalog)
	}
	if strings.TrimSpace(fp.Name) == "" {
		return Product{}, fmt.Errorf("%w: product %q without name", ErrInvalidCatalog, id)
	}
	if fp.Price < 0 || fp.OriginalPrice < 0 {
		return Product{}, fmt.Errorf("%w: product %q has a negative price", ErrInvalidCatalog, id)
	}
	if fp.Rating < 0 || fp.Rating > 5 {
		return Product{}, fmt.Errorf("%w: product %q rating %.1f out of range", ErrInvalidCatalog, id, fp.Rating)
	}
	desc := strings.TrimSpace(fp.Description)
	return Product{
		ID:              id,
		Brand:           strings.TrimSpace(fp.Brand),
		Name:            strings.TrimSpace(fp.Name),
		Price:           fp.Price,
		OriginalPrice:   fp.OriginalPrice,
		Discount:        fp.Discount,
		Rating:          fp.Rating,
		ReviewCount:     fp.ReviewCount,
		Image:           strings.TrimSpace(fp.Image),
		Images:          append([]string(nil), fp.Images...),
		Thumbnails:      append([]string(nil), fp.Thumbnails...),
		Description:     desc,
		DescriptionHTML: RenderDescription(desc),
	}, nil
}

// Featured returns the product shown on the detail page.
func (c *Catalog) Featured() Product { return c.featured }

// Grid returns the products listed on the grid page, in catalog order.
func (c *Catalog) Grid() []Product {
	out := make([]Product, len(c.grid))
	copy(out, c.grid)
	return out
}

// Product looks up a product by id across the featured set and the grid.
func (c *Catalog) Product(id string) (Product, bool) {
	p, ok := c.byID[strings.TrimSpace(id)]
	return p, ok
}
