package services

import (
	"context"
	"testing"
	"time"

	"food-storefront/models"
)

func orderFor(phone, name, status string, total float64, at time.Time) models.Order {
	return models.Order{
		ID:          phone + at.Format("150405"),
		Customer:    models.CustomerInfo{Name: name, Phone: phone},
		Status:      status,
		TotalAmount: total,
		OrderDate:   at,
	}
}

func TestAggregateCustomers(t *testing.T) {
	d1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	orders := []models.Order{
		orderFor("76123456", "Thandi", OrderStatusCompleted, 50, d1),
		orderFor("76 123 456", "Thandi", OrderStatusCompleted, 30, d2),
		orderFor("76123456", "Thandi", OrderStatusCancelled, 100, d2),
		orderFor("78000000", "", OrderStatusCompleted, 20, d1),
		orderFor("79000000", "Sipho", OrderStatusReceived, 40, d1),
	}
	got := AggregateCustomers(orders)
	if len(got) != 2 {
		t.Fatalf("got %d customers, want 2: %+v", len(got), got)
	}
	thandi := got[0]
	if thandi.CompletedOrders != 2 || thandi.TotalSpent != 80 {
		t.Errorf("Thandi = %d orders / %v spent, want 2 / 80", thandi.CompletedOrders, thandi.TotalSpent)
	}
	if thandi.LastOrderDate == nil || !thandi.LastOrderDate.Equal(d2) {
		t.Errorf("LastOrderDate = %v, want %v", thandi.LastOrderDate, d2)
	}
	if got[1].Name != models.UnknownCustomerName {
		t.Errorf("nameless customer = %q, want %q", got[1].Name, models.UnknownCustomerName)
	}
	if empty := AggregateCustomers(nil); empty == nil || len(empty) != 0 {
		t.Errorf("AggregateCustomers(nil) = %v, want empty slice", empty)
	}
}

func TestSortCustomers(t *testing.T) {
	early := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 1, 0)
	list := []models.CustomerSummary{
		{Name: "bongani", TotalSpent: 10, CompletedOrders: 3, LastOrderDate: &late},
		{Name: "Ayanda", TotalSpent: 99, CompletedOrders: 1},
		{Name: "Cebo", TotalSpent: 50, CompletedOrders: 2, LastOrderDate: &early},
	}
	tests := []struct {
		field string
		desc  bool
		first string
	}{
		{SortByName, false, "Ayanda"},
		{SortByTotalSpent, true, "Ayanda"},
		{SortByCompletedOrders, true, "bongani"},
		{SortByLastOrderDate, false, "Ayanda"},
		{SortByLastOrderDate, true, "bongani"},
	}
	for _, tt := range tests {
		if err := SortCustomers(list, tt.field, tt.desc); err != nil {
			t.Fatalf("SortCustomers(%s): %v", tt.field, err)
		}
		if list[0].Name != tt.first {
			t.Errorf("SortCustomers(%s, desc=%v) first = %s, want %s", tt.field, tt.desc, list[0].Name, tt.first)
		}
	}
	if err := SortCustomers(list, "age", false); err == nil {
		t.Error("expected error for unknown sort field")
	}
}

func TestRevenueForPeriod(t *testing.T) {
	loc := time.FixedZone("SAST", 2*60*60)
	orders := []models.Order{
		orderFor("76123456", "A", OrderStatusCompleted, 100, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)),
		orderFor("76123456", "A", OrderStatusCompleted, 50, time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC)), // March 1 in SAST
		orderFor("76123456", "A", OrderStatusCancelled, 70, time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)),
		orderFor("76123456", "A", OrderStatusCompleted, 25, time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)),
	}
	r, err := RevenueForPeriod(orders, 3, 2025, loc)
	if err != nil {
		t.Fatal(err)
	}
	if r.OrdersCount != 2 || r.TotalRevenue != 150 {
		t.Errorf("March 2025 = %d orders / %v, want 2 / 150", r.OrdersCount, r.TotalRevenue)
	}
	all, _ := RevenueForPeriod(orders, 0, 0, loc)
	if all.OrdersCount != 3 || all.TotalRevenue != 175 {
		t.Errorf("all time = %d orders / %v, want 3 / 175", all.OrdersCount, all.TotalRevenue)
	}
	if _, err := RevenueForPeriod(orders, 13, 2025, loc); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestDailyStatsFor(t *testing.T) {
	store := NewMemoryStore()
	day := time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC)
	store.PutOrder(orderFor("76123456", "A", OrderStatusCompleted, 40, day))
	store.PutOrder(orderFor("76123457", "B", OrderStatusCancelled, 30, day.Add(time.Hour)))
	store.PutOrder(orderFor("76123458", "C", OrderStatusReceived, 20, day.Add(2*time.Hour)))
	store.PutOrder(orderFor("76123459", "D", OrderStatusCompleted, 99, day.AddDate(0, 0, 1)))

	st, err := DailyStatsFor(context.Background(), store, day)
	if err != nil {
		t.Fatal(err)
	}
	want := models.DailyStats{OrdersCount: 3, CompletedCount: 1, CancelledCount: 1, Revenue: 40}
	if *st != want {
		t.Errorf("stats = %+v, want %+v", *st, want)
	}
}
