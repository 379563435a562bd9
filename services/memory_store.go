package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"food-storefront/models"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It backs STORE=memory and
// the tests; all data is lost on restart.
type MemoryStore struct {
	mu sync.Mutex

	orders     map[string]models.Order
	statusLog  []models.StatusChange
	meals      []models.Meal
	combos     []models.Combo
	categories []models.Category
	extras     []models.Extra
	assets     map[string]Asset
	carts      map[string][]byte
	settings   models.Settings
	admins     map[string]models.AdminUser
	throttle   map[string]*throttleEntry
	pointers   map[string][2]int64
	nextAdmin  int64

	// FailCreate, when set, is returned by CreateOrder.
	FailCreate error
}

type throttleEntry struct {
	failCount     int
	cooldownUntil time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]models.Order),
		assets:   make(map[string]Asset),
		carts:    make(map[string][]byte),
		settings: models.DefaultSettings(),
		admins:   make(map[string]models.AdminUser),
		throttle: make(map[string]*throttleEntry),
		pointers: make(map[string][2]int64),
	}
}

// SeedCatalog replaces the catalog.
func (m *MemoryStore) SeedCatalog(meals []models.Meal, combos []models.Combo, categories []models.Category, extras []models.Extra) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meals, m.combos, m.categories, m.extras = meals, combos, categories, extras
}

func cloneOrder(o models.Order) models.Order {
	items := make([]models.LineItem, len(o.Items))
	for i, li := range o.Items {
		li.SelectedExtras = append([]models.ExtraSelection(nil), li.SelectedExtras...)
		items[i] = li
	}
	o.Items = items
	return o
}

func (m *MemoryStore) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return m.FailCreate
	}
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return ErrDuplicateOrderNumber
		}
	}
	m.orders[o.ID] = cloneOrder(*o)
	return nil
}

// PutOrder stores o as is, bypassing order number checks.
func (m *MemoryStore) PutOrder(o models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = cloneOrder(o)
}

func (m *MemoryStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (m *MemoryStore) ListOrders(_ context.Context, f OrderFilter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Phone != "" && o.Customer.Phone != f.Phone {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderNumber < out[j].OrderNumber
		}
		if f.NewestFirst {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].OrderDate.Before(out[j].OrderDate)
	})
	return out, nil
}

func (m *MemoryStore) UpdateOrderStatus(_ context.Context, id, from, to, changedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != from {
		return ErrStaleStatus
	}
	o.Status = to
	m.orders[id] = o
	m.statusLog = append(m.statusLog, models.StatusChange{
		OrderID: id, From: from, To: to, ChangedBy: changedBy, ChangedAt: time.Now(),
	})
	return nil
}

func (m *MemoryStore) StatusHistory(_ context.Context, orderID string) ([]models.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StatusChange{}
	for _, c := range m.statusLog {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) CountOrdersBetween(_ context.Context, start, end time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.orders {
		if !o.OrderDate.Before(start) && !o.OrderDate.After(end) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) GetDailyStats(_ context.Context, start, end time.Time) (*models.DailyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st models.DailyStats
	for _, o := range m.orders {
		if o.OrderDate.Before(start) || o.OrderDate.After(end) {
			continue
		}
		st.OrdersCount++
		switch o.Status {
		case OrderStatusCompleted:
			st.CompletedCount++
			st.Revenue += o.TotalAmount
		case OrderStatusCancelled:
			st.CancelledCount++
		}
	}
	return &st, nil
}

func (m *MemoryStore) ListMeals(_ context.Context, f CatalogFilter) ([]models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Meal{}
	for _, meal := range m.meals {
		if f.AvailableOnly && !meal.IsAvailable {
			continue
		}
		if f.CategoryID != "" && (meal.Category == nil || meal.Category.ID != f.CategoryID) {
			continue
		}
		out = append(out, meal)
	}
	return out, nil
}

func (m *MemoryStore) ListCombos(_ context.Context, availableOnly bool) ([]models.Combo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Combo{}
	for _, c := range m.combos {
		if availableOnly && !c.IsAvailable {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MemoryStore) ListCategories(context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Category{}, m.categories...), nil
}

func (m *MemoryStore) ListExtras(_ context.Context, availableOnly bool) ([]models.Extra, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Extra{}
	for _, e := range m.extras {
		if availableOnly && !e.IsAvailable {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, meal := range m.meals {
		if meal.ID == id {
			return &models.Product{ID: meal.ID, Type: models.ProductTypeMeal, Name: meal.Name, Price: meal.Price, Image: meal.Image}, nil
		}
	}
	for _, c := range m.combos {
		if c.ID == id {
			return &models.Product{ID: c.ID, Type: models.ProductTypeCombo, Name: c.Name, Price: c.Price, Image: c.Image}, nil
		}
	}
	return nil, ErrProductNotFound
}

func (m *MemoryStore) SaveMeal(_ context.Context, meal models.Meal) error {
	if err := ValidateMeal(meal); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.meals {
		if m.meals[i].ID == meal.ID {
			m.meals[i] = meal
			return nil
		}
	}
	m.meals = append(m.meals, meal)
	return nil
}

func (m *MemoryStore) SetMealAvailability(_ context.Context, id string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.meals {
		if m.meals[i].ID == id {
			m.meals[i].IsAvailable = available
			return nil
		}
	}
	return ErrProductNotFound
}

func (m *MemoryStore) ReferencedProductIDs(context.Context) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool)
	for _, o := range m.orders {
		for _, li := range o.Items {
			out[li.ProductID] = true
		}
	}
	for _, c := range m.combos {
		for _, id := range c.MealIDs {
			out[id] = true
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteMeals(_ context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.meals[:0]
	n := 0
	for _, meal := range m.meals {
		if drop[meal.ID] {
			n++
			continue
		}
		kept = append(kept, meal)
	}
	m.meals = kept
	return n, nil
}

func (m *MemoryStore) SaveAsset(_ context.Context, a Asset) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.Ref = assetRef(uuid.NewString(), a.ContentType)
	a.CreatedAt = time.Now()
	m.assets[a.Ref] = a
	return a.Ref, nil
}

func (m *MemoryStore) GetAsset(_ context.Context, ref string) (*Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[ref]
	if !ok {
		return nil, ErrAssetNotFound
	}
	return &a, nil
}

func (m *MemoryStore) DeleteAsset(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assets, ref)
	return nil
}

// AssetCount is the number of stored assets.
func (m *MemoryStore) AssetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assets)
}

// Carts are stored encoded so callers never share slices with the store.
func (m *MemoryStore) GetCart(_ context.Context, cartID string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &Cart{Items: []CartItem{}}
	if data, ok := m.carts[cartID]; ok {
		if err := json.Unmarshal(data, c); err != nil || c.Items == nil {
			return &Cart{Items: []CartItem{}}, nil
		}
	}
	return c, nil
}

func (m *MemoryStore) SaveCart(_ context.Context, cartID string, cart *Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cartID] = data
	return nil
}

func (m *MemoryStore) DeleteCart(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, cartID)
	return nil
}

func (m *MemoryStore) GetSettings(context.Context) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *MemoryStore) SaveSettings(_ context.Context, s models.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

func (m *MemoryStore) GetAdminUser(_ context.Context, username string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.admins[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryStore) CreateAdminUser(_ context.Context, username, passwordHash, salt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.admins[username]
	if !ok {
		m.nextAdmin++
		u = models.AdminUser{ID: m.nextAdmin, Username: username}
	}
	u.PasswordHash, u.Salt = passwordHash, salt
	m.admins[username] = u
	return nil
}

func (m *MemoryStore) LoginWaitSeconds(_ context.Context, username string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.throttle[username]
	if !ok || !time.Now().Before(e.cooldownUntil) {
		return 0, nil
	}
	return int(time.Until(e.cooldownUntil).Seconds()) + 1, nil
}

func (m *MemoryStore) RecordLoginFailed(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.throttle[username]
	if !ok {
		e = &throttleEntry{}
		m.throttle[username] = e
	}
	e.failCount++
	e.cooldownUntil = time.Now().Add(time.Duration(CooldownSecondsForFailCount(e.failCount)) * time.Second)
	return nil
}

func (m *MemoryStore) RecordLoginSuccess(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.throttle, username)
	return nil
}

func (m *MemoryStore) GetOrderMessagePointer(_ context.Context, orderID, audience string) (int64, int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pointers[orderID+"|"+audience]
	if !ok {
		return 0, 0, false, nil
	}
	return p[0], int(p[1]), true, nil
}

func (m *MemoryStore) UpsertOrderMessagePointer(_ context.Context, orderID, audience string, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointers[orderID+"|"+audience] = [2]int64{chatID, int64(messageID)}
	return nil
}
