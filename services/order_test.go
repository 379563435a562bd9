package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"food-storefront/models"

	"github.com/rs/zerolog"
)

func TestValidStatusTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusReceived, OrderStatusPreparing, true},
		{OrderStatusReceived, OrderStatusReady, false},
		{OrderStatusReceived, OrderStatusCompleted, false},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusPreparing, OrderStatusReceived, false},
		{OrderStatusReady, OrderStatusCompleted, true},
		{OrderStatusReady, OrderStatusPreparing, false},
		{OrderStatusReceived, OrderStatusCancelled, true},
		{OrderStatusPreparing, OrderStatusCancelled, true},
		{OrderStatusReady, OrderStatusCancelled, true},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusReceived, false},
		{OrderStatusCompleted, OrderStatusReceived, false},
		{"", OrderStatusReceived, false},
		{OrderStatusReceived, "", false},
		{OrderStatusReceived, "delivered", false},
	}
	for _, tt := range tests {
		got := ValidStatusTransition(tt.from, tt.to)
		if got != tt.want {
			t.Errorf("ValidStatusTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from   string
		want   string
		wantOK bool
	}{
		{OrderStatusReceived, OrderStatusPreparing, true},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusReady, OrderStatusCompleted, true},
		{OrderStatusCompleted, "", false},
		{OrderStatusCancelled, "", false},
	}
	for _, tt := range tests {
		got, ok := NextStatus(tt.from)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NextStatus(%q) = %q, %v; want %q, %v", tt.from, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCustomerMessageForOrderStatus(t *testing.T) {
	o := &models.Order{OrderNumber: "250301-007", TotalAmount: 75}
	m := CustomerMessageForOrderStatus(o, OrderStatusReady)
	if !strings.Contains(m, "250301-007") || !strings.Contains(m, "75.00") {
		t.Errorf("message should contain order number and total: %s", m)
	}
	if CustomerMessageForOrderStatus(o, "unknown") != "" {
		t.Error("expected empty message for unknown status")
	}
}

type recordingNotifier struct {
	created []string
	changed []string
}

func (r *recordingNotifier) OrderCreated(_ context.Context, o *models.Order) {
	r.created = append(r.created, o.OrderNumber)
}

func (r *recordingNotifier) OrderStatusChanged(_ context.Context, o *models.Order, from string) {
	r.changed = append(r.changed, from+">"+o.Status)
}

func sampleOrder(id, number, status string, at time.Time) models.Order {
	return models.Order{
		ID:          id,
		OrderNumber: number,
		Customer:    models.CustomerInfo{Name: "Thandi", Phone: "76123456", Email: "t@example.com"},
		Items: []models.LineItem{{
			Key: "k1", ProductID: "meal-1", ProductType: models.ProductTypeMeal, Quantity: 2,
			PriceAtPurchase: 40, NameAtPurchase: "Kota",
			SelectedExtras: []models.ExtraSelection{{ExtraID: "x1", Name: "Cheese", Price: 5, QuantityIndex: 1}},
		}},
		Status:        status,
		PaymentMethod: PaymentMethodCash,
		PaymentStatus: PaymentStatusPending,
		TotalAmount:   85,
		OrderDate:     at,
	}
}

func TestTransitionChangesOnlyStatusOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	before := sampleOrder("o1", "250301-001", OrderStatusReady, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	store.PutOrder(before)
	rec := &recordingNotifier{}
	svc := NewOrderService(store, rec, zerolog.Nop())

	o, changed, err := svc.Transition(ctx, "o1", OrderStatusCompleted, "admin")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if !changed || o.Status != OrderStatusCompleted {
		t.Fatalf("changed = %v, status = %q", changed, o.Status)
	}

	stored, _ := store.GetOrder(ctx, "o1")
	want := before
	want.Status = OrderStatusCompleted
	if !reflect.DeepEqual(*stored, want) {
		t.Errorf("stored order = %+v, want only status changed: %+v", *stored, want)
	}

	_, changed, err = svc.Transition(ctx, "o1", OrderStatusCompleted, "admin")
	if err != nil || changed {
		t.Errorf("repeat transition: changed = %v, err = %v; want no-op", changed, err)
	}
	history, _ := store.StatusHistory(ctx, "o1")
	if len(history) != 1 {
		t.Errorf("status log has %d rows, want 1", len(history))
	}
	if len(rec.changed) != 1 || rec.changed[0] != "ready>completed" {
		t.Errorf("notifications = %v", rec.changed)
	}
}

func TestTransitionRejectsInvalidMoves(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.PutOrder(sampleOrder("o1", "250301-001", OrderStatusCompleted, time.Now()))
	svc := NewOrderService(store, nil, zerolog.Nop())

	if _, _, err := svc.Transition(ctx, "o1", OrderStatusCancelled, "admin"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel completed: err = %v, want ErrInvalidTransition", err)
	}
	if _, _, err := svc.Transition(ctx, "missing", OrderStatusPreparing, "admin"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("missing order: err = %v, want ErrOrderNotFound", err)
	}
	var verr *ValidationError
	if _, _, err := svc.Transition(ctx, "o1", "shipped", "admin"); !errors.As(err, &verr) {
		t.Errorf("unknown status: err = %v, want ValidationError", err)
	}
}

type staleStore struct {
	*MemoryStore
}

func (s staleStore) UpdateOrderStatus(context.Context, string, string, string, string) error {
	return ErrStaleStatus
}

func TestTransitionStaleStatus(t *testing.T) {
	store := NewMemoryStore()
	store.PutOrder(sampleOrder("o1", "250301-001", OrderStatusReceived, time.Now()))
	rec := &recordingNotifier{}
	svc := NewOrderService(staleStore{store}, rec, zerolog.Nop())

	_, changed, err := svc.Transition(context.Background(), "o1", OrderStatusPreparing, "admin")
	if !errors.Is(err, ErrStaleStatus) || changed {
		t.Errorf("changed = %v, err = %v; want ErrStaleStatus", changed, err)
	}
	if len(rec.changed) != 0 {
		t.Errorf("stale update should not notify, got %v", rec.changed)
	}
}

func TestAdvanceAndCancel(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.PutOrder(sampleOrder("o1", "250301-001", OrderStatusReceived, time.Now()))
	store.PutOrder(sampleOrder("o2", "250301-002", OrderStatusPreparing, time.Now()))
	svc := NewOrderService(store, nil, zerolog.Nop())

	o, _, err := svc.Advance(ctx, "o1", "bot")
	if err != nil || o.Status != OrderStatusPreparing {
		t.Fatalf("Advance: status = %v, err = %v", o, err)
	}
	o, _, err = svc.Cancel(ctx, "o2", "admin")
	if err != nil || o.Status != OrderStatusCancelled {
		t.Fatalf("Cancel: status = %v, err = %v", o, err)
	}
	if _, _, err := svc.Advance(ctx, "o2", "bot"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Advance cancelled: err = %v, want ErrInvalidTransition", err)
	}
}

func TestSearchByPhone(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	day := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.PutOrder(sampleOrder("o1", "250301-001", OrderStatusCompleted, day))
	store.PutOrder(sampleOrder("o2", "250301-002", OrderStatusReceived, day.Add(time.Hour)))
	other := sampleOrder("o3", "250301-003", OrderStatusReceived, day)
	other.Customer.Phone = "78999999"
	store.PutOrder(other)
	svc := NewOrderService(store, nil, zerolog.Nop())

	orders, err := svc.SearchByPhone(ctx, " 76 12 34 56 ")
	if err != nil {
		t.Fatalf("SearchByPhone: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "o2" || orders[1].ID != "o1" {
		t.Errorf("got %d orders %v, want o2 then o1", len(orders), orders)
	}

	var verr *ValidationError
	if _, err := svc.SearchByPhone(ctx, "   "); !errors.As(err, &verr) || verr.Message != "Phone number is required." {
		t.Errorf("blank phone: err = %v", err)
	}
}

func TestListNormalizesMissingFields(t *testing.T) {
	store := NewMemoryStore()
	store.PutOrder(models.Order{ID: "abcdef123", Items: []models.LineItem{{Quantity: 0}}, OrderDate: time.Now()})
	svc := NewOrderService(store, nil, zerolog.Nop())

	orders, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	o := orders[0]
	if o.OrderNumber != "UNKNOWN-abcde" || o.Customer.Name != models.UnknownCustomerName {
		t.Errorf("placeholders not applied: %+v", o)
	}
	if o.Items[0].NameAtPurchase != models.UnknownItemName || o.Items[0].Quantity != 1 {
		t.Errorf("item placeholders not applied: %+v", o.Items[0])
	}
	if o.Status != OrderStatusReceived {
		t.Errorf("status = %q, want received", o.Status)
	}
}
