package services

import (
	"context"

	"food-storefront/models"
)

// Store is everything the storefront persists. PgStore is the production
// implementation; MemoryStore serves tests and single-process demos.
type Store interface {
	OrderStore
	OrderCounter
	StatsStore
	CatalogStore
	CatalogAdmin
	MealMaintenance
	AssetStore
	CartStore
	SettingsStore
	AdminStore
	LoginThrottle
	MessagePointerStore
	StatusHistory(ctx context.Context, orderID string) ([]models.StatusChange, error)
}

var (
	_ Store = (*PgStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
