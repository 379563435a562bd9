package services

import (
	"context"
	"fmt"

	"food-storefront/models"
)

type CartItem struct {
	ID       string        `json:"_id"`
	Type     string        `json:"_type"`
	Name     string        `json:"name"`
	Price    float64       `json:"price"`
	Image    *models.Image `json:"image,omitempty"`
	Quantity int           `json:"quantity"`
	// SelectedExtras has one slot per unit; slot i holds the extras of unit i+1.
	SelectedExtras [][]models.Extra `json:"selectedExtras"`
}

// Cart accumulates what a shopper picked before checkout.
type Cart struct {
	Items []CartItem `json:"items"`
}

func (c *Cart) find(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add puts one more unit of p in the cart.
func (c *Cart) Add(p models.Product) {
	if i := c.find(p.ID); i >= 0 {
		c.SetQuantity(p.ID, c.Items[i].Quantity+1)
		return
	}
	c.Items = append(c.Items, CartItem{
		ID:             p.ID,
		Type:           p.Type,
		Name:           p.Name,
		Price:          p.Price,
		Image:          p.Image,
		Quantity:       1,
		SelectedExtras: [][]models.Extra{{}},
	})
}

func (c *Cart) Remove(id string) {
	if i := c.find(id); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// SetQuantity never goes below one. Extras slots follow the quantity: new
// units start empty, removed units lose their extras, the rest keep theirs.
func (c *Cart) SetQuantity(id string, qty int) bool {
	i := c.find(id)
	if i < 0 {
		return false
	}
	if qty < 1 {
		qty = 1
	}
	item := &c.Items[i]
	slots := item.SelectedExtras
	if len(slots) > qty {
		slots = slots[:qty]
	}
	for len(slots) < qty {
		slots = append(slots, []models.Extra{})
	}
	item.SelectedExtras = slots
	item.Quantity = qty
	return true
}

// ToggleExtra adds extra to unit unitIndex (1-based) of the item, or removes
// it if that unit already has it.
func (c *Cart) ToggleExtra(id string, unitIndex int, extra models.Extra) error {
	i := c.find(id)
	if i < 0 {
		return ErrCartItemNotFound
	}
	item := &c.Items[i]
	if unitIndex < 1 || unitIndex > item.Quantity {
		return invalid("unitIndex", fmt.Sprintf("Unit %d does not exist for %s", unitIndex, item.Name))
	}
	for len(item.SelectedExtras) < item.Quantity {
		item.SelectedExtras = append(item.SelectedExtras, []models.Extra{})
	}
	unit := item.SelectedExtras[unitIndex-1]
	for j, e := range unit {
		if e.ID == extra.ID {
			item.SelectedExtras[unitIndex-1] = append(unit[:j:j], unit[j+1:]...)
			return nil
		}
	}
	item.SelectedExtras[unitIndex-1] = append(unit, extra)
	return nil
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

func (c *Cart) ItemQuantity(id string) int {
	if i := c.find(id); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// TotalItems is the sum of quantities.
func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Total is unit price times quantity plus every selected extra once; extras
// are already per unit so they are not multiplied again.
func (c *Cart) Total() float64 {
	var sum float64
	for _, it := range c.Items {
		sum += it.Price * float64(it.Quantity)
		for _, unit := range it.SelectedExtras {
			for _, e := range unit {
				sum += e.Price
			}
		}
	}
	return sum
}

// CheckoutItems converts the cart into the checkout payload shape.
func (c *Cart) CheckoutItems() []CheckoutItem {
	items := make([]CheckoutItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CheckoutItem{
			ID:             it.ID,
			Type:           it.Type,
			Name:           it.Name,
			Price:          it.Price,
			Quantity:       it.Quantity,
			SelectedExtras: it.SelectedExtras,
		})
	}
	return items
}

// CartStore keeps carts between visits, keyed by the id stored in the shopper's session.
type CartStore interface {
	GetCart(ctx context.Context, cartID string) (*Cart, error)
	SaveCart(ctx context.Context, cartID string, cart *Cart) error
	DeleteCart(ctx context.Context, cartID string) error
}
