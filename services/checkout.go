package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"food-storefront/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var phonePattern = regexp.MustCompile(`^(76|78|79)\d{6}$`)

// ValidPhone reports whether phone (whitespace already stripped) is a local mobile number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// NormalizePaymentMethod accepts the wire values and the labels older
// storefront builds sent ("eWallet", "MoMo"). Unknown methods map to "".
func NormalizePaymentMethod(m string) string {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case PaymentMethodEWallet:
		return PaymentMethodEWallet
	case PaymentMethodMomo:
		return PaymentMethodMomo
	case PaymentMethodCash:
		return PaymentMethodCash
	}
	return ""
}

// RequiresProof reports whether the method is paid out of band and needs evidence.
func RequiresProof(method string) bool {
	return method == PaymentMethodEWallet || method == PaymentMethodMomo
}

type CheckoutItem struct {
	ID             string           `json:"_id"`
	Type           string           `json:"_type"`
	Name           string           `json:"name"`
	Price          float64          `json:"price"`
	Quantity       int              `json:"quantity"`
	SelectedExtras [][]models.Extra `json:"selectedExtras,omitempty"`
}

// CheckoutRequest is the JSON order payload the storefront submits.
type CheckoutRequest struct {
	CartItems           []CheckoutItem `json:"cartItems"`
	Total               float64        `json:"total"`
	PaymentMethod       string         `json:"paymentMethod"`
	CustomerPhoneNumber string         `json:"customerPhoneNumber"`
	CustomerName        string         `json:"customerName"`
	CustomerEmail       string         `json:"customerEmail"`
	WhatsAppNumber      string         `json:"whatsappNumber"`
	Notes               string         `json:"notes"`
}

type CheckoutResult struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// Validate runs the checks in the order the customer sees them and stops at
// the first failure. Nothing has been written when it returns an error.
func (r *CheckoutRequest) Validate(proof *ProofFile) error {
	if len(r.CartItems) == 0 {
		return invalid("cartItems", "Your cart is empty.")
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return invalid("paymentMethod", "Please select a payment method.")
	}
	method := NormalizePaymentMethod(r.PaymentMethod)
	if method == "" {
		return invalid("paymentMethod", "Unsupported payment method.")
	}
	if RequiresProof(method) && (proof == nil || len(proof.Data) == 0) {
		return invalid("paymentProof", "Please upload proof of payment for eWallet or MoMo payments.")
	}
	phone := NormalizePhone(r.CustomerPhoneNumber)
	if phone == "" {
		return invalid("customerPhoneNumber", "Please enter your phone number.")
	}
	if !ValidPhone(phone) {
		return invalid("customerPhoneNumber", "Please enter a valid phone number (8 digits starting with 76, 78 or 79).")
	}
	for _, it := range r.CartItems {
		if it.ID == "" {
			return invalid("cartItems", "A cart item is missing its product reference.")
		}
		if it.Quantity < 1 {
			return invalid("cartItems", fmt.Sprintf("Quantity for %s must be at least 1.", it.Name))
		}
		if it.Price < 0 {
			return invalid("cartItems", fmt.Sprintf("Price for %s is invalid.", it.Name))
		}
	}
	if proof != nil && len(proof.Data) > 0 {
		if err := ValidateProof(proof); err != nil {
			return err
		}
	}
	return nil
}

// FlattenExtras turns per-unit extras slots into tagged selections. Slots
// past the item's quantity are ignored.
func FlattenExtras(slots [][]models.Extra, quantity int) []models.ExtraSelection {
	out := []models.ExtraSelection{}
	for i, unit := range slots {
		if i >= quantity {
			break
		}
		for _, e := range unit {
			out = append(out, models.ExtraSelection{
				ExtraID:       e.ID,
				Name:          e.Name,
				Price:         e.Price,
				QuantityIndex: i + 1,
			})
		}
	}
	return out
}

// BuildLineItems snapshots the submitted cart into order line items.
func BuildLineItems(items []CheckoutItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for i, it := range items {
		key := it.ID
		if key == "" {
			key = fmt.Sprintf("item-%d", i)
		}
		typ := it.Type
		if typ != models.ProductTypeCombo {
			typ = models.ProductTypeMeal
		}
		name := it.Name
		if name == "" {
			name = models.UnknownItemName
		}
		out = append(out, models.LineItem{
			Key:             key,
			ProductID:       it.ID,
			ProductType:     typ,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.Price,
			NameAtPurchase:  name,
			SelectedExtras:  FlattenExtras(it.SelectedExtras, it.Quantity),
		})
	}
	return out
}

// ReconcileTotal recomputes the total from the line items and rejects a
// client total that is off by more than tolerance.
func ReconcileTotal(items []models.LineItem, clientTotal, tolerance float64) (float64, error) {
	var computed float64
	for _, li := range items {
		computed += li.Subtotal()
	}
	computed = math.Round(computed*100) / 100
	if math.Abs(computed-clientTotal) > tolerance {
		return computed, &ValidationError{
			Field:   "total",
			Message: fmt.Sprintf("Order total R%.2f does not match your items (R%.2f). Please refresh your cart.", clientTotal, computed),
			Err:     ErrTotalMismatch,
		}
	}
	return computed, nil
}

// SettingsStore reads the shop's singleton settings documents.
type SettingsStore interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, s models.Settings) error
}

// PaymentMethodEnabled checks the method against the payment settings.
func PaymentMethodEnabled(p models.PaymentSettings, method string) bool {
	switch method {
	case PaymentMethodCash:
		return p.EnableCash
	case PaymentMethodEWallet:
		return p.EnableEWallet
	case PaymentMethodMomo:
		return p.EnableMomo
	}
	return false
}

type CheckoutService struct {
	orders    OrderStore
	assets    AssetStore
	numbers   *OrderNumberAllocator
	settings  SettingsStore
	notifier  OrderNotifier
	tolerance float64
	now       func() time.Time
	log       zerolog.Logger
}

type CheckoutDeps struct {
	Orders    OrderStore
	Assets    AssetStore
	Numbers   *OrderNumberAllocator
	Settings  SettingsStore
	Notifier  OrderNotifier
	Tolerance float64
	Now       func() time.Time
	Log       zerolog.Logger
}

func NewCheckoutService(d CheckoutDeps) *CheckoutService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Notifier == nil {
		d.Notifier = Notifiers(nil)
	}
	return &CheckoutService{
		orders:    d.Orders,
		assets:    d.Assets,
		numbers:   d.Numbers,
		settings:  d.Settings,
		notifier:  d.Notifier,
		tolerance: d.Tolerance,
		now:       d.Now,
		log:       d.Log,
	}
}

// Checkout validates the request, stores the payment proof, allocates an
// order number and creates the order. If creation fails the stored proof is
// deleted again.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest, proof *ProofFile) (*CheckoutResult, error) {
	if err := req.Validate(proof); err != nil {
		return nil, err
	}
	method := NormalizePaymentMethod(req.PaymentMethod)
	items := BuildLineItems(req.CartItems)
	total, err := ReconcileTotal(items, req.Total, s.tolerance)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !PaymentMethodEnabled(settings.Payment, method) {
		return nil, &ValidationError{Field: "paymentMethod", Message: "This payment method is currently not accepted.", Err: ErrPaymentMethodDisabled}
	}

	var proofRef string
	if proof != nil && len(proof.Data) > 0 {
		proofRef, err = s.assets.SaveAsset(ctx, proof.Asset())
		if err != nil {
			return nil, fmt.Errorf("store payment proof: %w", err)
		}
	}

	now := s.now()
	phone := NormalizePhone(req.CustomerPhoneNumber)
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = phone
	}
	order := &models.Order{
		ID: uuid.NewString(),
		Customer: models.CustomerInfo{
			Name:     name,
			Phone:    phone,
			Email:    strings.TrimSpace(req.CustomerEmail),
			WhatsApp: NormalizePhone(req.WhatsAppNumber),
		},
		Items:          items,
		Status:         OrderStatusReceived,
		PaymentMethod:  method,
		PaymentStatus:  PaymentStatusPending,
		TotalAmount:    total,
		Notes:          strings.TrimSpace(req.Notes),
		OrderDate:      now,
		EstimatedReady: estimatedReady(now, settings.Pickup.PrepTimeMinutes),
		PaymentProof:   proofRef,
	}

	if err := s.create(ctx, order); err != nil {
		if proofRef != "" {
			if delErr := s.assets.DeleteAsset(ctx, proofRef); delErr != nil {
				s.log.Error().Err(delErr).Str("asset", proofRef).Msg("remove orphaned payment proof")
			}
		}
		return nil, err
	}

	s.log.Info().Str("order_id", order.ID).Str("order_number", order.OrderNumber).
		Str("payment_method", method).Float64("total", total).Msg("order created")
	s.notifier.OrderCreated(ctx, order)

	return &CheckoutResult{Success: true, OrderID: order.ID, OrderNumber: order.OrderNumber}, nil
}

// create allocates a number and inserts the order, retrying when another
// checkout won the same number.
func (s *CheckoutService) create(ctx context.Context, order *models.Order) error {
	var lastErr error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		number, err := s.numbers.Allocate(ctx, order.OrderDate)
		if err != nil {
			return fmt.Errorf("allocate order number: %w", err)
		}
		order.OrderNumber = number
		err = s.orders.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateOrderNumber) {
			return fmt.Errorf("create order: %w", err)
		}
		s.log.Warn().Str("order_number", number).Int("attempt", attempt).Msg("order number taken, retrying")
		lastErr = err
	}
	return fmt.Errorf("create order: %w", lastErr)
}
