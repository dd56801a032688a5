package catalog

import "github.com/xenking/storefront/internal/domain/product"

// Direction selects a carousel step.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// ParseDirection maps the route segment used by the card controls.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "next":
		return Forward, true
	case "prev":
		return Backward, true
	default:
		return 0, false
	}
}

// Carousel tracks which image each product card is showing, keyed by product
// ID. Cards are independent of each other.
type Carousel struct {
	pos map[int]int
}

// NewCarousel returns a carousel with every card on its first image.
func NewCarousel() *Carousel {
	return &Carousel{pos: make(map[int]int)}
}

// Index returns the current image index for p.
func (c *Carousel) Index(p product.Product) int {
	i := c.pos[p.ID]
	if i >= len(p.Images) {
		return 0
	}
	return i
}

// Image returns the image currently shown for p, falling back to the
// thumbnail when the product has no images.
func (c *Carousel) Image(p product.Product) string {
	if len(p.Images) == 0 {
		return p.Thumbnail
	}
	return p.Images[c.Index(p)]
}

// Step moves p's card one image in dir, wrapping at both ends, and returns
// the new index. Products with fewer than two images are left untouched.
func (c *Carousel) Step(p product.Product, dir Direction) int {
	n := len(p.Images)
	if n < 2 {
		return c.Index(p)
	}
	next := (c.Index(p) + int(dir) + n) % n
	c.pos[p.ID] = next
	return next
}
