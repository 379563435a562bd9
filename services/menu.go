package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"food-storefront/models"
)

// CatalogFilter narrows the menu; empty CategoryID means every category.
type CatalogFilter struct {
	AvailableOnly bool
	CategoryID    string
}

type CatalogStore interface {
	ListMeals(ctx context.Context, f CatalogFilter) ([]models.Meal, error)
	ListCombos(ctx context.Context, availableOnly bool) ([]models.Combo, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListExtras(ctx context.Context, availableOnly bool) ([]models.Extra, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// LoadMenu reads everything the storefront needs for one page.
func LoadMenu(ctx context.Context, store CatalogStore, f CatalogFilter) (models.Menu, error) {
	menu := models.Menu{
		Meals:      []models.Meal{},
		Combos:     []models.Combo{},
		Categories: []models.Category{},
		Extras:     []models.Extra{},
	}
	meals, err := store.ListMeals(ctx, f)
	if err != nil {
		return menu, fmt.Errorf("list meals: %w", err)
	}
	combos, err := store.ListCombos(ctx, f.AvailableOnly)
	if err != nil {
		return menu, fmt.Errorf("list combos: %w", err)
	}
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return menu, fmt.Errorf("list categories: %w", err)
	}
	extras, err := store.ListExtras(ctx, f.AvailableOnly)
	if err != nil {
		return menu, fmt.Errorf("list extras: %w", err)
	}
	if meals != nil {
		menu.Meals = meals
	}
	if combos != nil {
		menu.Combos = combos
	}
	if categories != nil {
		menu.Categories = categories
	}
	if extras != nil {
		menu.Extras = extras
	}
	return menu, nil
}

// FindExtra looks an extra up by id in a catalog listing.
func FindExtra(extras []models.Extra, id string) (models.Extra, bool) {
	for _, e := range extras {
		if e.ID == id {
			return e, true
		}
	}
	return models.Extra{}, false
}

func ValidateMeal(m models.Meal) error {
	if strings.TrimSpace(m.Name) == "" {
		return invalid("name", "Meal name is required")
	}
	if m.Price <= 0 {
		return invalid("price", "Price must be positive")
	}
	if m.Category != nil && m.Category.ID == "" {
		return invalid("category", "Category reference is empty")
	}
	return nil
}

// DuplicateMeals picks, for every meal name used more than once, the ids to
// delete. A referenced copy (from an order or a combo) is kept in preference
// to an unreferenced one; referenced duplicates beyond the kept one are left alone.
func DuplicateMeals(meals []models.Meal, referenced map[string]bool) []string {
	byName := make(map[string][]string)
	var names []string
	for _, m := range meals {
		if _, seen := byName[m.Name]; !seen {
			names = append(names, m.Name)
		}
		byName[m.Name] = append(byName[m.Name], m.ID)
	}
	var remove []string
	for _, name := range names {
		ids := byName[name]
		if len(ids) < 2 {
			continue
		}
		sort.SliceStable(ids, func(i, j int) bool {
			return referenced[ids[i]] && !referenced[ids[j]]
		})
		for _, id := range ids[1:] {
			if !referenced[id] {
				remove = append(remove, id)
			}
		}
	}
	return remove
}

// MealMaintenance is what the duplicate cleanup needs from the catalog.
type MealMaintenance interface {
	ListMeals(ctx context.Context, f CatalogFilter) ([]models.Meal, error)
	ReferencedProductIDs(ctx context.Context) (map[string]bool, error)
	DeleteMeals(ctx context.Context, ids []string) (int, error)
}

// CleanupDuplicateMeals finds duplicate meals and, when apply is set, deletes them.
func CleanupDuplicateMeals(ctx context.Context, store MealMaintenance, apply bool) (ids []string, deleted int, err error) {
	meals, err := store.ListMeals(ctx, CatalogFilter{})
	if err != nil {
		return nil, 0, fmt.Errorf("list meals: %w", err)
	}
	refs, err := store.ReferencedProductIDs(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("find referenced meals: %w", err)
	}
	ids = DuplicateMeals(meals, refs)
	if !apply || len(ids) == 0 {
		return ids, 0, nil
	}
	deleted, err = store.DeleteMeals(ctx, ids)
	if err != nil {
		return ids, 0, fmt.Errorf("delete meals: %w", err)
	}
	return ids, deleted, nil
}

// ValidateCombo requires a name, a positive price and at least two meals.
func ValidateCombo(c models.Combo) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "Combo name is required")
	}
	if c.Price <= 0 {
		return invalid("price", "Price must be positive")
	}
	if len(c.MealIDs) < 2 {
		return invalid("meals", "A combo needs at least two meals")
	}
	return nil
}

// CatalogAdmin edits the catalog from the dashboard.
type CatalogAdmin interface {
	SaveMeal(ctx context.Context, m models.Meal) error
	SetMealAvailability(ctx context.Context, id string, available bool) error
}
