package models

import "time"

// CustomerSummary folds every completed order placed with one phone number.
type CustomerSummary struct {
	ID              string     `json:"_id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email,omitempty"`
	WhatsApp        string     `json:"whatsapp,omitempty"`
	CompletedOrders int        `json:"completedOrders"`
	TotalSpent      float64    `json:"totalSpent"`
	LastOrderDate   *time.Time `json:"lastOrderDate,omitempty"`
}

type RevenueReport struct {
	Month        int     `json:"month,omitempty"`
	Year         int     `json:"year,omitempty"`
	OrdersCount  int     `json:"ordersCount"`
	TotalRevenue float64 `json:"totalRevenue"`
	Orders       []Order `json:"orders"`
}
