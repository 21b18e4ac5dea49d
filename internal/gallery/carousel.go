// Package gallery models the product image carousel and its lightbox as explicit state
// values, and derives thumbnails from full-size images.
package gallery

// Carousel is a position over a fixed number of images. Navigation wraps in both directions.
type Carousel struct {
	index int
	n     int
}

// NewCarousel starts at index 0 over n images.
func NewCarousel(n int) Carousel {
	if n < 0 {
		n = 0
	}
	return Carousel{n: n}
}

// At returns a carousel positioned at index; out-of-range positions reset to 0.
func At(n, index int) Carousel {
	c := NewCarousel(n)
	c.Select(index)
	return c
}

func (c Carousel) Index() int { return c.index }

func (c Carousel) Len() int { return c.n }

func (c *Carousel) Next() {
	if c.n == 0 {
		return
	}
	c.index = (c.index + 1) % c.n
}

func (c *Carousel) Prev() {
	if c.n == 0 {
		return
	}
	c.index = (c.index - 1 + c.n) % c.n
}

// Select jumps to i, as a thumbnail click does. Out-of-range indexes are ignored.
func (c *Carousel) Select(i int) bool {
	if i < 0 || i >= c.n {
		return false
	}
	c.index = i
	return true
}
