package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt wraps failures to parse a persisted cart.
var ErrCorrupt = errors.New("cart: corrupt persisted state")

// Encode serialises c as a JSON array. An empty cart encodes as [] rather than null.
//
// The format carries no schema version; see DESIGN.md.
func Encode(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("cart: encode: %w", err)
	}
	return data, nil
}

// Decode parses a persisted cart. Empty input and JSON null decode to an empty cart.
// Entries that break the invariants are dropped or merged.
func Decode(data []byte) (Cart, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Cart{}, nil
	}
	var items []LineItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	c, _ := normalise(Cart(items))
	return c, nil
}
