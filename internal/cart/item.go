package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidItem is returned when a line item has no id or a negative price.
var ErrInvalidItem = errors.New("cart: invalid line item")

// LineItem is one product entry in the cart with an aggregated quantity.
type LineItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
}

// Subtotal returns price × quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(li.Price).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) validate() error {
	if strings.TrimSpace(li.ID) == "" || li.Price < 0 {
		return ErrInvalidItem
	}
	return nil
}

// Cart is an ordered sequence of line items, unique by ID, each with quantity >= 1.
// Methods never modify the receiver; mutations return a new Cart.
type Cart []LineItem

// TotalItems is the sum of quantities.
func (c Cart) TotalItems() int {
	total := 0
	for _, li := range c {
		total += li.Quantity
	}
	return total
}

// TotalPrice is the sum of price × quantity.
func (c Cart) TotalPrice() float64 {
	f, _ := c.Total().Float64()
	return f
}

// Total is TotalPrice as an exact decimal, for display.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range c {
		total = total.Add(li.Subtotal())
	}
	return total
}

// Index returns the position of id, or -1.
func (c Cart) Index(id string) int {
	for i, li := range c {
		if li.ID == id {
			return i
		}
	}
	return -1
}

// Item returns the line item for id.
func (c Cart) Item(id string) (LineItem, bool) {
	if i := c.Index(id); i >= 0 {
		return c[i], true
	}
	return LineItem{}, false
}

// IsEmpty reports whether the cart has no entries.
func (c Cart) IsEmpty() bool { return len(c) == 0 }

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Add increments the quantity of an existing entry or appends a new one. qty <= 0 is a no-op.
// The item's own Quantity field is ignored.
func (c Cart) Add(item LineItem, qty int) (Cart, bool) {
	if qty <= 0 || item.validate() != nil {
		return c, false
	}
	out := c.clone()
	if i := out.Index(item.ID); i >= 0 {
		out[i].Quantity += qty
		return out, true
	}
	item.Quantity = qty
	return append(out, item), true
}

// Remove deletes the entry for id. Unknown ids are a no-op.
func (c Cart) Remove(id string) (Cart, bool) {
	i := c.Index(id)
	if i < 0 {
		return c, false
	}
	out := make(Cart, 0, len(c)-1)
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...), true
}

// SetQuantity replaces the quantity of id in place; qty <= 0 removes the entry.
func (c Cart) SetQuantity(id string, qty int) (Cart, bool) {
	if qty <= 0 {
		return c.Remove(id)
	}
	i := c.Index(id)
	if i < 0 || c[i].Quantity == qty {
		return c, false
	}
	out := c.clone()
	out[i].Quantity = qty
	return out, true
}

// normalise drops entries that break the cart invariants and merges duplicate ids into the
// first occurrence. The bool reports whether anything changed.
func normalise(c Cart) (Cart, bool) {
	out := make(Cart, 0, len(c))
	changed := false
	for _, li := range c {
		if li.validate() != nil || li.Quantity <= 0 {
			changed = true
			continue
		}
		if i := out.Index(li.ID); i >= 0 {
			out[i].Quantity += li.Quantity
			changed = true
			continue
		}
		out = append(out, li)
	}
	return out, changed
}
