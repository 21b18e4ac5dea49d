package product

import (
	"html/template"

	"github.com/Rahdeg/alt-commmerce/internal/catalog"
	"github.com/Rahdeg/alt-commmerce/internal/format"
)

// Detail is the view model of the product information panel.
type Detail struct {
	ID            string
	Brand         string
	Name          string
	Description   template.HTML
	Price         string
	OriginalPrice string
	Discount      string
	Quantity      int
	CanDecrement  bool
	CanSubmit     bool
}

// NewDetail renders p with the stepper state of sel.
func NewDetail(p catalog.Product, sel *Selector) Detail {
	d := Detail{
		ID:           p.ID,
		Brand:        p.Brand,
		Name:         p.Name,
		Description:  p.DescriptionHTML,
		Price:        format.Price(p.Price),
		Discount:     format.Discount(p.Discount),
		Quantity:     sel.Quantity(),
		CanDecrement: sel.CanDecrement(),
		CanSubmit:    sel.CanSubmit(),
	}
	if p.HasDiscount() {
		d.OriginalPrice = format.Price(p.OriginalPrice)
	}
	return d
}
