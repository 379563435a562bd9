package services

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"food-storefront/models"
)

func TestDuplicateMeals(t *testing.T) {
	meals := []models.Meal{
		{ID: "a1", Name: "Kota"},
		{ID: "a2", Name: "Kota"},
		{ID: "a3", Name: "Kota"},
		{ID: "b1", Name: "Wors Roll"},
		{ID: "c1", Name: "Chips"},
		{ID: "c2", Name: "Chips"},
	}
	got := DuplicateMeals(meals, map[string]bool{"a2": true, "c1": true, "c2": true})
	sort.Strings(got)
	want := []string{"a1", "a3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DuplicateMeals = %v, want %v", got, want)
	}

	got = DuplicateMeals(meals[:3], nil)
	if !reflect.DeepEqual(got, []string{"a2", "a3"}) {
		t.Errorf("unreferenced duplicates = %v, want first kept", got)
	}
}

func TestCleanupDuplicateMeals(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SeedCatalog([]models.Meal{
		{ID: "a1", Name: "Kota", Price: 40},
		{ID: "a2", Name: "Kota", Price: 40},
	}, []models.Combo{{ID: "combo", Name: "Duo", Price: 70, MealIDs: []string{"a2", "x"}}}, nil, nil)

	ids, deleted, err := CleanupDuplicateMeals(ctx, store, false)
	if err != nil || deleted != 0 || !reflect.DeepEqual(ids, []string{"a1"}) {
		t.Fatalf("dry run = %v, %d, %v", ids, deleted, err)
	}
	_, deleted, err = CleanupDuplicateMeals(ctx, store, true)
	if err != nil || deleted != 1 {
		t.Fatalf("apply deleted %d, err %v", deleted, err)
	}
	meals, _ := store.ListMeals(ctx, CatalogFilter{})
	if len(meals) != 1 || meals[0].ID != "a2" {
		t.Errorf("remaining meals = %v", meals)
	}
}

func TestLoadMenuFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	lunch := &models.Category{ID: "cat-lunch", Title: "Lunch", Slug: "lunch"}
	store.SeedCatalog([]models.Meal{
		{ID: "m1", Name: "Kota", Price: 40, Category: lunch, IsAvailable: true},
		{ID: "m2", Name: "Pap", Price: 20, IsAvailable: true},
		{ID: "m3", Name: "Stew", Price: 60, Category: lunch},
	}, nil, []models.Category{*lunch}, []models.Extra{chips})

	menu, err := LoadMenu(ctx, store, CatalogFilter{AvailableOnly: true, CategoryID: "cat-lunch"})
	if err != nil {
		t.Fatal(err)
	}
	if len(menu.Meals) != 1 || menu.Meals[0].ID != "m1" {
		t.Errorf("meals = %v", menu.Meals)
	}
	if menu.Combos == nil || len(menu.Categories) != 1 {
		t.Errorf("combos = %v, categories = %v", menu.Combos, menu.Categories)
	}
	if _, ok := FindExtra(menu.Extras, chips.ID); ok {
		t.Error("unavailable extra should be filtered out")
	}
}

func TestValidateMealAndCombo(t *testing.T) {
	if err := ValidateMeal(models.Meal{Name: "Kota", Price: 40}); err != nil {
		t.Errorf("valid meal: %v", err)
	}
	if err := ValidateMeal(models.Meal{Name: "Kota"}); err == nil {
		t.Error("expected error for zero price")
	}
	if err := ValidateCombo(models.Combo{Name: "Duo", Price: 70, MealIDs: []string{"a"}}); err == nil {
		t.Error("expected error for single-meal combo")
	}
	if err := ValidateCombo(models.Combo{Name: "Duo", Price: 70, MealIDs: []string{"a", "b"}}); err != nil {
		t.Errorf("valid combo: %v", err)
	}
}

func TestSetMealAvailability(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.SaveMeal(ctx, models.Meal{ID: "m1", Name: "Kota", Price: 40, IsAvailable: true}); err != nil {
		t.Fatal(err)
	}
	if err := store.SetMealAvailability(ctx, "m1", false); err != nil {
		t.Fatal(err)
	}
	meals, _ := store.ListMeals(ctx, CatalogFilter{AvailableOnly: true})
	if len(meals) != 0 {
		t.Errorf("unavailable meal still listed: %v", meals)
	}
	if err := store.SetMealAvailability(ctx, "nope", true); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}
