package models

import (
	"fmt"
	"time"
)

const (
	UnknownCustomerName = "Unknown Customer"
	UnknownItemName     = "Unknown Item"
)

// CustomerInfo is a snapshot taken at order time; it is not linked to any account.
type CustomerInfo struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// ExtraSelection is one extra applied to one unit (1-based QuantityIndex) of a line item.
type ExtraSelection struct {
	ExtraID       string  `json:"extra"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	QuantityIndex int     `json:"quantityIndex"`
}

// LineItem keeps the name and price the customer saw, regardless of later catalog edits.
type LineItem struct {
	Key             string           `json:"_key"`
	ProductID       string           `json:"product"`
	ProductType     string           `json:"productType"`
	Quantity        int              `json:"quantity"`
	PriceAtPurchase float64          `json:"priceAtPurchase"`
	NameAtPurchase  string           `json:"nameAtPurchase"`
	SelectedExtras  []ExtraSelection `json:"selectedExtras"`
}

// Subtotal is unit price times quantity plus every selected extra.
func (li LineItem) Subtotal() float64 {
	sum := li.PriceAtPurchase * float64(li.Quantity)
	for _, e := range li.SelectedExtras {
		sum += e.Price
	}
	return sum
}

type Order struct {
	ID             string       `json:"_id"`
	OrderNumber    string       `json:"orderNumber"`
	Customer       CustomerInfo `json:"customer"`
	Items          []LineItem   `json:"items"`
	Status         string       `json:"status"`
	PaymentMethod  string       `json:"paymentMethod"`
	PaymentStatus  string       `json:"paymentStatus"`
	TotalAmount    float64      `json:"totalAmount"`
	Notes          string       `json:"notes,omitempty"`
	OrderDate      time.Time    `json:"orderDate"`
	EstimatedReady *time.Time   `json:"estimatedReady,omitempty"`
	PaymentProof   string       `json:"paymentProof,omitempty"`
}

// ItemsTotal recomputes the order total from its line items.
func (o *Order) ItemsTotal() float64 {
	var sum float64
	for _, li := range o.Items {
		sum += li.Subtotal()
	}
	return sum
}

// Normalize fills placeholders for data that went missing in the store so
// readers never fail on a half-written document.
func (o *Order) Normalize() {
	if o.OrderNumber == "" {
		id := o.ID
		if len(id) > 5 {
			id = id[:5]
		}
		o.OrderNumber = fmt.Sprintf("UNKNOWN-%s", id)
	}
	if o.Customer.Name == "" {
		o.Customer.Name = UnknownCustomerName
	}
	if o.Customer.Phone == "" {
		o.Customer.Phone = "N/A"
	}
	for i := range o.Items {
		if o.Items[i].Quantity < 1 {
			o.Items[i].Quantity = 1
		}
		if o.Items[i].NameAtPurchase == "" {
			o.Items[i].NameAtPurchase = UnknownItemName
		}
		if o.Items[i].SelectedExtras == nil {
			o.Items[i].SelectedExtras = []ExtraSelection{}
		}
	}
	if o.Items == nil {
		o.Items = []LineItem{}
	}
	if o.Status == "" {
		o.Status = "received"
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = "cash"
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = "pending"
	}
}

// StatusChange is one row of the order status audit log.
type StatusChange struct {
	OrderID   string    `json:"orderId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
}

// DailyStats summarizes one calendar day of orders.
type DailyStats struct {
	OrdersCount    int     `json:"ordersCount"`
	CompletedCount int     `json:"completedCount"`
	CancelledCount int     `json:"cancelledCount"`
	Revenue        float64 `json:"revenue"`
}
