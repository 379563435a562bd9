package services

import (
	"context"
	"errors"

	"food-storefront/models"

	"github.com/jackc/pgx/v5"
)

func imageFrom(ref, url *string) *models.Image {
	if (ref == nil || *ref == "") && (url == nil || *url == "") {
		return nil
	}
	img := &models.Image{}
	if ref != nil {
		img.AssetRef = *ref
	}
	if url != nil {
		img.URL = *url
	}
	return img
}

func (s *PgStore) ListMeals(ctx context.Context, f CatalogFilter) ([]models.Meal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.name, m.description, m.price::float8, m.image_ref, m.image_url, m.is_available,
			c.id, c.title, c.slug
		FROM meals m
		LEFT JOIN categories c ON c.id = m.category_id
		WHERE (NOT $1 OR m.is_available) AND ($2 = '' OR m.category_id = $2)
		ORDER BY m.name, m.id`,
		f.AvailableOnly, f.CategoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Meal{}
	for rows.Next() {
		var m models.Meal
		var ref, url, catID, catTitle, catSlug *string
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &ref, &url, &m.IsAvailable,
			&catID, &catTitle, &catSlug); err != nil {
			return nil, err
		}
		m.Image = imageFrom(ref, url)
		if catID != nil {
			m.Category = &models.Category{ID: *catID}
			if catTitle != nil {
				m.Category.Title = *catTitle
			}
			if catSlug != nil {
				m.Category.Slug = *catSlug
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PgStore) ListCombos(ctx context.Context, availableOnly bool) ([]models.Combo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.description, c.price::float8, c.image_ref, c.image_url, c.is_available,
			COALESCE(array_agg(cm.meal_id ORDER BY cm.position) FILTER (WHERE cm.meal_id IS NOT NULL), '{}')
		FROM combos c
		LEFT JOIN combo_meals cm ON cm.combo_id = c.id
		WHERE (NOT $1 OR c.is_available)
		GROUP BY c.id
		ORDER BY c.name, c.id`,
		availableOnly,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Combo{}
	for rows.Next() {
		var c models.Combo
		var ref, url *string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &ref, &url, &c.IsAvailable, &c.MealIDs); err != nil {
			return nil, err
		}
		c.Image = imageFrom(ref, url)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PgStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, slug FROM categories ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PgStore) ListExtras(ctx context.Context, availableOnly bool) ([]models.Extra, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, price::float8, is_available FROM extras
		WHERE (NOT $1 OR is_available) ORDER BY name`,
		availableOnly,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Extra{}
	for rows.Next() {
		var e models.Extra
		if err := rows.Scan(&e.ID, &e.Name, &e.Price, &e.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetProduct resolves an id against meals first, then combos.
func (s *PgStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	var ref, url *string
	err := s.pool.QueryRow(ctx, `
		SELECT id, 'meal', name, price::float8, image_ref, image_url FROM meals WHERE id = $1
		UNION ALL
		SELECT id, 'combo', name, price::float8, image_ref, image_url FROM combos WHERE id = $1
		LIMIT 1`,
		id,
	).Scan(&p.ID, &p.Type, &p.Name, &p.Price, &ref, &url)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Image = imageFrom(ref, url)
	return &p, nil
}

// SaveMeal inserts or updates a meal.
func (s *PgStore) SaveMeal(ctx context.Context, m models.Meal) error {
	if err := ValidateMeal(m); err != nil {
		return err
	}
	var ref, url, catID *string
	if m.Image != nil {
		ref, url = &m.Image.AssetRef, &m.Image.URL
	}
	if m.Category != nil {
		catID = &m.Category.ID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO meals (id, name, description, price, image_ref, image_url, category_id, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			image_ref = EXCLUDED.image_ref,
			image_url = EXCLUDED.image_url,
			category_id = EXCLUDED.category_id,
			is_available = EXCLUDED.is_available`,
		m.ID, m.Name, m.Description, m.Price, ref, url, catID, m.IsAvailable,
	)
	return err
}

func (s *PgStore) SetMealAvailability(ctx context.Context, id string, available bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE meals SET is_available = $1 WHERE id = $2`, available, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ReferencedProductIDs returns ids used by any order line item or combo.
func (s *PgStore) ReferencedProductIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT item->>'product' FROM orders, jsonb_array_elements(items) AS item
		WHERE item->>'product' IS NOT NULL
		UNION
		SELECT DISTINCT meal_id FROM combo_meals`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (s *PgStore) DeleteMeals(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM meals WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
