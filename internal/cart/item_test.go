package cart

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sneakers = LineItem{ID: "x", Name: "Sneakers", Price: 125, Image: "/images/x.jpg"}

func TestCartAddMergesQuantities(t *testing.T) {
	c, changed := Cart{}.Add(sneakers, 2)
	require.True(t, changed)
	c, changed = c.Add(sneakers, 3)
	require.True(t, changed)

	require.Len(t, c, 1)
	assert.Equal(t, "x", c[0].ID)
	assert.Equal(t, 5, c[0].Quantity)
}

func TestCartAddIgnoresNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		c, changed := Cart{}.Add(sneakers, qty)
		assert.False(t, changed)
		assert.Empty(t, c)
	}
}

func TestCartAddDoesNotMutateReceiver(t *testing.T) {
	orig := Cart{{ID: "x", Price: 1, Quantity: 1}}
	next, _ := orig.Add(LineItem{ID: "x", Price: 1}, 4)
	assert.Equal(t, 1, orig[0].Quantity)
	assert.Equal(t, 5, next[0].Quantity)
}

func TestCartSetQuantityZeroEqualsRemove(t *testing.T) {
	base := Cart{
		{ID: "a", Price: 1, Quantity: 1},
		{ID: "x", Price: 2, Quantity: 4},
		{ID: "b", Price: 3, Quantity: 2},
	}
	removed, _ := base.Remove("x")
	zeroed, _ := base.SetQuantity("x", 0)
	negative, _ := base.SetQuantity("x", -3)

	assert.Equal(t, removed, zeroed)
	assert.Equal(t, removed, negative)
	assert.Equal(t, Cart{{ID: "a", Price: 1, Quantity: 1}, {ID: "b", Price: 3, Quantity: 2}}, removed)
}

func TestCartSetQuantityKeepsPosition(t *testing.T) {
	base := Cart{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 1}, {ID: "c", Quantity: 1}}
	next, changed := base.SetQuantity("b", 7)
	require.True(t, changed)
	assert.Equal(t, []string{"a", "b", "c"}, ids(next))
	assert.Equal(t, 7, next[1].Quantity)

	_, changed = next.SetQuantity("b", 7)
	assert.False(t, changed, "same quantity is not a change")
}

func TestCartUnknownIDIsNoop(t *testing.T) {
	base := Cart{{ID: "a", Quantity: 1}}
	next, changed := base.Remove("missing")
	assert.False(t, changed)
	assert.Equal(t, base, next)

	next, changed = base.SetQuantity("missing", 3)
	assert.False(t, changed)
	assert.Equal(t, base, next)
}

func TestCartTotals(t *testing.T) {
	c := Cart{
		{ID: "a", Price: 0.1, Quantity: 3},
		{ID: "b", Price: 125, Quantity: 2},
		{ID: "c", Price: 89.99, Quantity: 1},
	}
	assert.Equal(t, 6, c.TotalItems())
	assert.Equal(t, 340.29, c.TotalPrice())
	assert.Equal(t, "340.29", c.Total().StringFixed(2))

	assert.Zero(t, Cart{}.TotalItems())
	assert.Zero(t, Cart{}.TotalPrice())
}

func TestCartInvariantsHoldForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	catalog := []LineItem{
		{ID: "a", Price: 10},
		{ID: "b", Price: 2.5},
		{ID: "c", Price: 99.99},
	}
	c := Cart{}
	for step := 0; step < 2000; step++ {
		item := catalog[rng.Intn(len(catalog))]
		qty := rng.Intn(7) - 3
		switch rng.Intn(3) {
		case 0:
			c, _ = c.Add(item, qty)
		case 1:
			c, _ = c.Remove(item.ID)
		case 2:
			c, _ = c.SetQuantity(item.ID, qty)
		}

		seen := map[string]bool{}
		sum := 0
		for _, li := range c {
			require.False(t, seen[li.ID], "duplicate id %q at step %d", li.ID, step)
			require.Greater(t, li.Quantity, 0, "step %d", step)
			seen[li.ID] = true
			sum += li.Quantity
		}
		require.Equal(t, sum, c.TotalItems())
	}
}

func TestNormaliseDropsAndMerges(t *testing.T) {
	got, changed := normalise(Cart{
		{ID: "a", Price: 1, Quantity: 1},
		{ID: "", Price: 1, Quantity: 1},
		{ID: "b", Price: 1, Quantity: 0},
		{ID: "a", Price: 1, Quantity: 2},
		{ID: "c", Price: -1, Quantity: 1},
	})
	assert.True(t, changed)
	assert.Equal(t, Cart{{ID: "a", Price: 1, Quantity: 3}}, got)
}

func TestDecode(t *testing.T) {
	cases := map[string]struct {
		in      string
		want    Cart
		corrupt bool
	}{
		"empty":     {in: "", want: Cart{}},
		"null":      {in: "null", want: Cart{}},
		"array":     {in: `[{"id":"a","name":"A","price":10,"quantity":1,"image":"/a.jpg"}]`, want: Cart{{ID: "a", Name: "A", Price: 10, Quantity: 1, Image: "/a.jpg"}}},
		"garbage":   {in: "{not json", corrupt: true},
		"object":    {in: `{"id":"a"}`, corrupt: true},
		"wrongtype": {in: `[{"id":"a","quantity":"two"}]`, corrupt: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Decode([]byte(tc.in))
			if tc.corrupt {
				require.ErrorIs(t, err, ErrCorrupt)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeEmptyCart(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = Encode(Cart{{ID: "a", Name: "A", Price: 10, Quantity: 3, Image: "/a.jpg"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","name":"A","price":10,"quantity":3,"image":"/a.jpg"}]`, string(data))
}

func ids(c Cart) []string {
	out := make([]string, 0, len(c))
	for _, li := range c {
		out = append(out, li.ID)
	}
	return out
}
