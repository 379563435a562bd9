package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"food-storefront/models"
)

// Customer sort fields accepted by SortCustomers.
const (
	SortByName            = "name"
	SortByCompletedOrders = "completedOrders"
	SortByTotalSpent      = "totalSpent"
	SortByLastOrderDate   = "lastOrderDate"
)

// AggregateCustomers folds completed orders into one summary per customer
// phone number, in order of first appearance. Orders without a phone are skipped.
func AggregateCustomers(orders []models.Order) []models.CustomerSummary {
	index := make(map[string]int)
	var out []models.CustomerSummary
	for _, o := range orders {
		if o.Status != OrderStatusCompleted {
			continue
		}
		phone := NormalizePhone(o.Customer.Phone)
		if phone == "" {
			continue
		}
		i, ok := index[phone]
		if !ok {
			name := strings.TrimSpace(o.Customer.Name)
			if name == "" {
				name = models.UnknownCustomerName
			}
			out = append(out, models.CustomerSummary{
				ID:       phone,
				Name:     name,
				Phone:    phone,
				Email:    o.Customer.Email,
				WhatsApp: o.Customer.WhatsApp,
			})
			i = len(out) - 1
			index[phone] = i
		}
		c := &out[i]
		c.CompletedOrders++
		c.TotalSpent += o.TotalAmount
		if !o.OrderDate.IsZero() && (c.LastOrderDate == nil || o.OrderDate.After(*c.LastOrderDate)) {
			d := o.OrderDate
			c.LastOrderDate = &d
		}
		if c.Email == "" {
			c.Email = o.Customer.Email
		}
		if c.WhatsApp == "" {
			c.WhatsApp = o.Customer.WhatsApp
		}
	}
	if out == nil {
		out = []models.CustomerSummary{}
	}
	return out
}

// SortCustomers sorts in place by one of the SortBy fields.
func SortCustomers(list []models.CustomerSummary, field string, desc bool) error {
	var less func(a, b models.CustomerSummary) bool
	switch field {
	case SortByName, "":
		less = func(a, b models.CustomerSummary) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case SortByCompletedOrders:
		less = func(a, b models.CustomerSummary) bool { return a.CompletedOrders < b.CompletedOrders }
	case SortByTotalSpent:
		less = func(a, b models.CustomerSummary) bool { return a.TotalSpent < b.TotalSpent }
	case SortByLastOrderDate:
		less = func(a, b models.CustomerSummary) bool {
			if a.LastOrderDate == nil || b.LastOrderDate == nil {
				return a.LastOrderDate == nil && b.LastOrderDate != nil
			}
			return a.LastOrderDate.Before(*b.LastOrderDate)
		}
	default:
		return invalid("sort", fmt.Sprintf("Unknown sort field %q", field))
	}
	sort.SliceStable(list, func(i, j int) bool {
		if desc {
			return less(list[j], list[i])
		}
		return less(list[i], list[j])
	})
	return nil
}

// RevenueForPeriod sums completed orders whose date falls in month/year
// (in loc). Zero month or year matches any.
func RevenueForPeriod(orders []models.Order, month, year int, loc *time.Location) (models.RevenueReport, error) {
	if month < 0 || month > 12 {
		return models.RevenueReport{}, invalid("month", "Month must be between 1 and 12")
	}
	if loc == nil {
		loc = time.Local
	}
	report := models.RevenueReport{Month: month, Year: year, Orders: []models.Order{}}
	for _, o := range orders {
		if o.Status != OrderStatusCompleted {
			continue
		}
		d := o.OrderDate.In(loc)
		if month != 0 && int(d.Month()) != month {
			continue
		}
		if year != 0 && d.Year() != year {
			continue
		}
		report.Orders = append(report.Orders, o)
		report.OrdersCount++
		report.TotalRevenue += o.TotalAmount
	}
	return report, nil
}

type StatsStore interface {
	GetDailyStats(ctx context.Context, start, end time.Time) (*models.DailyStats, error)
}

// DailyStatsFor summarizes the calendar day containing day, in day's location.
func DailyStatsFor(ctx context.Context, store StatsStore, day time.Time) (*models.DailyStats, error) {
	start, end := DayBounds(day)
	return store.GetDailyStats(ctx, start, end)
}
