package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"food-storefront/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *PgStore) SaveAsset(ctx context.Context, a Asset) (string, error) {
	ref := assetRef(uuid.NewString(), a.ContentType)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO assets (ref, filename, content_type, data) VALUES ($1, $2, $3, $4)`,
		ref, a.Filename, a.ContentType, a.Data,
	)
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (s *PgStore) GetAsset(ctx context.Context, ref string) (*Asset, error) {
	var a Asset
	err := s.pool.QueryRow(ctx, `
		SELECT ref, filename, content_type, data, created_at FROM assets WHERE ref = $1`, ref,
	).Scan(&a.Ref, &a.Filename, &a.ContentType, &a.Data, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PgStore) DeleteAsset(ctx context.Context, ref string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM assets WHERE ref = $1`, ref)
	return err
}

func (s *PgStore) GetCart(ctx context.Context, cartID string) (*Cart, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM carts WHERE id = $1`, cartID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Cart{Items: []CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		// A cart that no longer decodes is dropped rather than blocking the shopper.
		return &Cart{Items: []CartItem{}}, nil
	}
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	return &c, nil
}

func (s *PgStore) SaveCart(ctx context.Context, cartID string, cart *Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO carts (id, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		cartID, data,
	)
	return err
}

func (s *PgStore) DeleteCart(ctx context.Context, cartID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}

const (
	settingsKeyShop    = "settings"
	settingsKeyPayment = "paymentSettings"
	settingsKeyPickup  = "pickupSettings"
)

// GetSettings returns the stored documents layered over DefaultSettings.
func (s *PgStore) GetSettings(ctx context.Context) (models.Settings, error) {
	out := models.DefaultSettings()
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings WHERE key = ANY($1)`,
		[]string{settingsKeyShop, settingsKeyPayment, settingsKeyPickup})
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return out, err
		}
		var target any
		switch key {
		case settingsKeyShop:
			target = &out.Shop
		case settingsKeyPayment:
			target = &out.Payment
		case settingsKeyPickup:
			target = &out.Pickup
		default:
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return out, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return out, rows.Err()
}

func (s *PgStore) SaveSettings(ctx context.Context, st models.Settings) error {
	docs := map[string]any{
		settingsKeyShop:    st.Shop,
		settingsKeyPayment: st.Payment,
		settingsKeyPickup:  st.Pickup,
	}
	batch := &pgx.Batch{}
	for key, doc := range docs {
		value, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		batch.Queue(`
			INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			key, value)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

func (s *PgStore) GetAdminUser(ctx context.Context, username string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, salt FROM admin_users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateAdminUser inserts a user or replaces the credentials of an existing one.
func (s *PgStore) CreateAdminUser(ctx context.Context, username, passwordHash, salt string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_users (username, password_hash, salt) VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash, salt = EXCLUDED.salt`,
		username, passwordHash, salt,
	)
	return err
}

func (s *PgStore) LoginWaitSeconds(ctx context.Context, username string) (int, error) {
	var cooldownUntil *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT cooldown_until FROM login_throttle WHERE username = $1`, username,
	).Scan(&cooldownUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if cooldownUntil == nil || !time.Now().Before(*cooldownUntil) {
		return 0, nil
	}
	return int(time.Until(*cooldownUntil).Seconds()) + 1, nil
}

func (s *PgStore) RecordLoginFailed(ctx context.Context, username string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO login_throttle (username, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, 1, now(), now() + (LEAST(30, POWER(2, 1)::int) || ' seconds')::interval, now())
		ON CONFLICT (username) DO UPDATE SET
			fail_count = login_throttle.fail_count + 1,
			last_failed_at = now(),
			cooldown_until = now() + (LEAST(30, POWER(2, login_throttle.fail_count + 1)::int) || ' seconds')::interval,
			updated_at = now()`,
		username,
	)
	return err
}

func (s *PgStore) RecordLoginSuccess(ctx context.Context, username string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO login_throttle (username, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, 0, NULL, NULL, now())
		ON CONFLICT (username) DO UPDATE SET
			fail_count = 0,
			last_failed_at = NULL,
			cooldown_until = NULL,
			updated_at = now()`,
		username,
	)
	return err
}
