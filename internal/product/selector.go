// Package product holds the state behind the product detail panel: the quantity stepper and
// the view model of the featured product.
package product

import (
	"context"
	"strconv"
	"strings"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
)

// Stepper operations accepted from forms.
const (
	OpIncrement = "inc"
	OpDecrement = "dec"
)

// Selector is a non-negative quantity stepper bound to one product. It starts at 0, has no
// upper bound, and floors at 0.
type Selector struct {
	item     cart.LineItem
	quantity int
}

// NewSelector returns a stepper at 0 for item.
func NewSelector(item cart.LineItem) *Selector {
	return &Selector{item: item}
}

// Restore rebuilds a stepper at quantity, as posted back by a form. Negative values clamp to 0.
func Restore(item cart.LineItem, quantity int) *Selector {
	s := NewSelector(item)
	if quantity > 0 {
		s.quantity = quantity
	}
	return s
}

// ParseQuantity reads a stepper value from form input; anything unparsable is 0.
func ParseQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *Selector) Quantity() int { return s.quantity }

func (s *Selector) Item() cart.LineItem { return s.item }

func (s *Selector) Increment() { s.quantity++ }

// Decrement lowers the quantity by one; at 0 it is a no-op.
func (s *Selector) Decrement() {
	if s.quantity > 0 {
		s.quantity--
	}
}

// Apply runs a stepper operation by name. Unknown operations are ignored.
func (s *Selector) Apply(op string) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case OpIncrement:
		s.Increment()
	case OpDecrement:
		s.Decrement()
	}
}

// CanSubmit reports whether "Add to cart" is enabled.
func (s *Selector) CanSubmit() bool { return s.quantity > 0 }

// CanDecrement reports whether the minus control is enabled.
func (s *Selector) CanDecrement() bool { return s.quantity > 0 }

// Submit adds the current quantity of the bound product to store and resets the stepper to 0.
// At 0 nothing happens. On error the quantity is kept so the visitor can retry.
func (s *Selector) Submit(ctx context.Context, store cart.Store) error {
	if !s.CanSubmit() {
		return nil
	}
	if err := cart.AddItem(ctx, store, s.item, s.quantity); err != nil {
		return err
	}
	s.quantity = 0
	return nil
}
