package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"food-storefront/models"

	"github.com/rs/zerolog"
)

const (
	OrderStatusReceived  = "received"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentMethodEWallet = "ewallet"
	PaymentMethodMomo    = "momo"
	PaymentMethodCash    = "cash"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// BoardStatuses lists the board columns in display order.
var BoardStatuses = []string{
	OrderStatusReceived,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

var nextStatus = map[string]string{
	OrderStatusReceived:  OrderStatusPreparing,
	OrderStatusPreparing: OrderStatusReady,
	OrderStatusReady:     OrderStatusCompleted,
}

func IsValidStatus(s string) bool {
	switch s {
	case OrderStatusReceived, OrderStatusPreparing, OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminalStatus reports whether no transition leaves s.
func IsTerminalStatus(s string) bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// NextStatus returns the single forward step from s.
func NextStatus(s string) (string, bool) {
	next, ok := nextStatus[s]
	return next, ok
}

// ValidStatusTransition allows one step forward, or cancellation of an order
// that is not finished yet. There is no way back.
func ValidStatusTransition(from, to string) bool {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return false
	}
	if to == OrderStatusCancelled {
		return !IsTerminalStatus(from)
	}
	return nextStatus[from] == to
}

// StatusLabel is the human title used on the board and in notifications.
func StatusLabel(status string) string {
	switch status {
	case OrderStatusReceived:
		return "Received"
	case OrderStatusPreparing:
		return "Preparing"
	case OrderStatusReady:
		return "Ready for Pickup"
	case OrderStatusCompleted:
		return "Completed"
	case OrderStatusCancelled:
		return "Cancelled"
	default:
		return status
	}
}

// CustomerMessageForOrderStatus is the short text sent to a customer when their order moves.
func CustomerMessageForOrderStatus(o *models.Order, status string) string {
	switch status {
	case OrderStatusReceived:
		return fmt.Sprintf("We received your order %s (R%.2f).", o.OrderNumber, o.TotalAmount)
	case OrderStatusPreparing:
		return fmt.Sprintf("Your order %s (R%.2f) is being prepared.", o.OrderNumber, o.TotalAmount)
	case OrderStatusReady:
		return fmt.Sprintf("Your order %s (R%.2f) is ready for pickup.", o.OrderNumber, o.TotalAmount)
	case OrderStatusCompleted:
		return fmt.Sprintf("Your order %s is completed. Thank you!", o.OrderNumber)
	case OrderStatusCancelled:
		return fmt.Sprintf("Your order %s was cancelled. Please contact us if this is unexpected.", o.OrderNumber)
	default:
		return ""
	}
}

// NormalizePhone strips all whitespace.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}

// OrderFilter narrows ListOrders; zero values mean no filter.
type OrderFilter struct {
	Status      string
	Phone       string
	NewestFirst bool
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error)
	// UpdateOrderStatus changes only the status field, and only while it still equals from.
	UpdateOrderStatus(ctx context.Context, id, from, to, changedBy string) error
}

// OrderNotifier receives order lifecycle events. Implementations are best
// effort: they log their own failures and never block the caller's result.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, o *models.Order)
	OrderStatusChanged(ctx context.Context, o *models.Order, from string)
}

// Notifiers fans events out to every notifier in order.
type Notifiers []OrderNotifier

func (n Notifiers) OrderCreated(ctx context.Context, o *models.Order) {
	for _, x := range n {
		if x != nil {
			x.OrderCreated(ctx, o)
		}
	}
}

func (n Notifiers) OrderStatusChanged(ctx context.Context, o *models.Order, from string) {
	for _, x := range n {
		if x != nil {
			x.OrderStatusChanged(ctx, o, from)
		}
	}
}

type OrderService struct {
	store    OrderStore
	notifier OrderNotifier
	log      zerolog.Logger
}

func NewOrderService(store OrderStore, notifier OrderNotifier, log zerolog.Logger) *OrderService {
	if notifier == nil {
		notifier = Notifiers(nil)
	}
	return &OrderService{store: store, notifier: notifier, log: log}
}

// SetNotifier replaces the notifier; used when a notifier itself needs the service.
func (s *OrderService) SetNotifier(n OrderNotifier) {
	s.notifier = n
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Normalize()
	return o, nil
}

// List returns orders oldest first, as the board shows them.
func (s *OrderService) List(ctx context.Context, status string) ([]models.Order, error) {
	if status != "" && !IsValidStatus(status) {
		return nil, invalid("status", "Invalid status provided")
	}
	orders, err := s.store.ListOrders(ctx, OrderFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	for i := range orders {
		orders[i].Normalize()
	}
	return orders, nil
}

// SearchByPhone returns a customer's orders, newest first.
func (s *OrderService) SearchByPhone(ctx context.Context, rawPhone string) ([]models.Order, error) {
	phone := NormalizePhone(rawPhone)
	if phone == "" {
		return nil, invalid("phoneNumber", "Phone number is required.")
	}
	orders, err := s.store.ListOrders(ctx, OrderFilter{Phone: phone, NewestFirst: true})
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	for i := range orders {
		orders[i].Normalize()
	}
	return orders, nil
}

// Transition moves an order to the given status. It returns the updated
// order and whether anything changed; asking for the current status is a no-op.
func (s *OrderService) Transition(ctx context.Context, id, to, changedBy string) (*models.Order, bool, error) {
	if !IsValidStatus(to) {
		return nil, false, invalid("status", "Invalid status provided")
	}
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	o.Normalize()
	from := o.Status
	if from == to {
		return o, false, nil
	}
	if !ValidStatusTransition(from, to) {
		return o, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if err := s.store.UpdateOrderStatus(ctx, id, from, to, changedBy); err != nil {
		return o, false, err
	}
	o.Status = to
	s.log.Info().Str("order_id", id).Str("order_number", o.OrderNumber).
		Str("from", from).Str("to", to).Str("by", changedBy).Msg("order status changed")
	s.notifier.OrderStatusChanged(ctx, o, from)
	return o, true, nil
}

// Advance moves an order one step forward.
func (s *OrderService) Advance(ctx context.Context, id, changedBy string) (*models.Order, bool, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	next, ok := NextStatus(o.Status)
	if !ok {
		return o, false, fmt.Errorf("%w: %s is final", ErrInvalidTransition, o.Status)
	}
	return s.Transition(ctx, id, next, changedBy)
}

// Cancel is an explicit admin action, separate from the forward flow of the board.
func (s *OrderService) Cancel(ctx context.Context, id, changedBy string) (*models.Order, bool, error) {
	return s.Transition(ctx, id, OrderStatusCancelled, changedBy)
}

// estimatedReady returns now plus the prep time, or nil when no prep time is configured.
func estimatedReady(now time.Time, prepMinutes int) *time.Time {
	if prepMinutes <= 0 {
		return nil
	}
	t := now.Add(time.Duration(prepMinutes) * time.Minute)
	return &t
}
