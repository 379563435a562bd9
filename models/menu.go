package models

// Product types a line item can reference.
const (
	ProductTypeMeal  = "meal"
	ProductTypeCombo = "combo"
)

type Category struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Image is a stored asset reference with its public URL resolved.
type Image struct {
	AssetRef string `json:"_ref,omitempty"`
	URL      string `json:"url,omitempty"`
}

type Meal struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Image       *Image    `json:"image,omitempty"`
	Category    *Category `json:"category,omitempty"`
	IsAvailable bool      `json:"isAvailable"`
}

// Combo bundles at least two meals for one price.
type Combo struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Image       *Image   `json:"image,omitempty"`
	MealIDs     []string `json:"meals"`
	IsAvailable bool     `json:"isAvailable"`
}

type Extra struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"isAvailable"`
}

// Product is the part of a meal or combo a cart needs.
type Product struct {
	ID    string  `json:"_id"`
	Type  string  `json:"_type"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image *Image  `json:"image,omitempty"`
}

// Menu is everything the storefront shows on one page.
type Menu struct {
	Meals      []Meal     `json:"meals"`
	Combos     []Combo    `json:"combos"`
	Categories []Category `json:"categories"`
	Extras     []Extra    `json:"extras"`
}
