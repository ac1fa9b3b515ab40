package cart

import (
	"strconv"
	"strings"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
)

// Product is the snapshot of a catalog entry taken when it is added to the
// cart. Prices are not re-read from the catalog afterwards.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (l Line) Total() float64 {
	return domain.FromMinorUnits(domain.ToMinorUnits(l.Product.Price) * int64(l.Quantity))
}

// Cart maps product id to a line, keeping insertion order for display.
type Cart struct {
	lines map[string]*Line
	order []string
}

func New() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// Add puts quantity units of p in the cart, merging with an existing line.
func (c *Cart) Add(p Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	if line, ok := c.lines[p.ID]; ok {
		line.Quantity += quantity
		return
	}

	c.lines[p.ID] = &Line{Product: p, Quantity: quantity}
	c.order = append(c.order, p.ID)
}

// SetQuantity clamps to at least one. It reports false for unknown products.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	line, ok := c.lines[productID]
	if !ok {
		return false
	}
	if quantity < 1 {
		quantity = 1
	}
	line.Quantity = quantity
	return true
}

// CommitQuantityInput applies raw text from a quantity field when it loses
// focus. Non-numeric input leaves the previous quantity in place. The
// resulting quantity is returned.
func (c *Cart) CommitQuantityInput(productID, raw string) int {
	line, ok := c.lines[productID]
	if !ok {
		return 0
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return line.Quantity
	}

	c.SetQuantity(productID, quantity)
	return line.Quantity
}

func (c *Cart) Remove(productID string) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)

	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		lines = append(lines, *c.lines[id])
	}
	return lines
}

func (c *Cart) Quantity(productID string) int {
	if line, ok := c.lines[productID]; ok {
		return line.Quantity
	}
	return 0
}

func (c *Cart) Count() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Total sums the line totals in minor units.
func (c *Cart) Total() float64 {
	var cents int64
	for _, line := range c.lines {
		cents += domain.ToMinorUnits(line.Total())
	}
	return domain.FromMinorUnits(cents)
}

func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
	c.order = nil
}

// Items converts the cart into checkout line items.
func (c *Cart) Items() []domain.CheckoutItem {
	items := make([]domain.CheckoutItem, 0, len(c.order))
	for _, line := range c.Lines() {
		items = append(items, domain.CheckoutItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Quantity:  line.Quantity,
			Price:     line.Product.Price,
		})
	}
	return items
}
