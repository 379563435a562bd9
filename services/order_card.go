package services

import (
	"fmt"
	"strings"

	"food-storefront/models"
)

// OrderCardButton is one inline button (text + callback_data).
type OrderCardButton struct {
	Text         string
	CallbackData string
}

// OrderCardContent is the text and optional inline keyboard for an order card.
type OrderCardContent struct {
	Text    string
	Buttons [][]OrderCardButton
}

// StatusCallbackData encodes a board move for an inline button.
func StatusCallbackData(orderID, status string) string {
	return "order_status:" + orderID + ":" + status
}

// ParseStatusCallbackData is the inverse of StatusCallbackData.
func ParseStatusCallbackData(data string) (orderID, status string, ok bool) {
	rest, found := strings.CutPrefix(data, "order_status:")
	if !found {
		return "", "", false
	}
	i := strings.LastIndex(rest, ":")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

func actionLabel(next string) string {
	switch next {
	case OrderStatusPreparing:
		return "👨‍🍳 Start preparing"
	case OrderStatusReady:
		return "✅ Mark ready"
	case OrderStatusCompleted:
		return "📦 Picked up"
	}
	return StatusLabel(next)
}

// BuildAdminCard returns the card text and the single forward-step button.
// Finished orders get no buttons.
func BuildAdminCard(o *models.Order) OrderCardContent {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 Order %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "👤 %s (%s)\n", o.Customer.Name, o.Customer.Phone)
	if o.Customer.WhatsApp != "" {
		fmt.Fprintf(&b, "💬 WhatsApp: %s\n", o.Customer.WhatsApp)
	}
	b.WriteString("\n")
	for _, li := range o.Items {
		fmt.Fprintf(&b, "• %d × %s  R%.2f\n", li.Quantity, li.NameAtPurchase, li.PriceAtPurchase)
		for _, e := range li.SelectedExtras {
			fmt.Fprintf(&b, "   + %s (unit %d)  R%.2f\n", e.Name, e.QuantityIndex, e.Price)
		}
	}
	fmt.Fprintf(&b, "\n💵 Total: R%.2f\n", o.TotalAmount)
	fmt.Fprintf(&b, "💳 Payment: %s (%s)", o.PaymentMethod, o.PaymentStatus)
	if o.PaymentProof != "" {
		b.WriteString(" · proof attached")
	}
	fmt.Fprintf(&b, "\n📍 Status: %s", StatusLabel(o.Status))
	if o.Notes != "" {
		fmt.Fprintf(&b, "\n📝 %s", o.Notes)
	}

	var buttons [][]OrderCardButton
	if next, ok := NextStatus(o.Status); ok {
		buttons = [][]OrderCardButton{
			{{Text: actionLabel(next), CallbackData: StatusCallbackData(o.ID, next)}},
		}
	}
	return OrderCardContent{Text: b.String(), Buttons: buttons}
}
