package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"food-storefront/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements the storefront stores on Postgres.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}

const orderColumns = `id, order_number, customer_name, customer_phone, customer_email, customer_whatsapp,
	items, status, payment_method, payment_status, total_amount::float8, notes, order_date,
	estimated_ready, COALESCE(payment_proof, '')`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var items []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Email,
		&o.Customer.WhatsApp, &items, &o.Status, &o.PaymentMethod, &o.PaymentStatus, &o.TotalAmount,
		&o.Notes, &o.OrderDate, &o.EstimatedReady, &o.PaymentProof)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
		}
	}
	return &o, nil
}

func (s *PgStore) CreateOrder(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	var proof *string
	if o.PaymentProof != "" {
		proof = &o.PaymentProof
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, customer_name, customer_phone, customer_email, customer_whatsapp,
			items, status, payment_method, payment_status, total_amount, notes, order_date,
			estimated_ready, payment_proof
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.OrderNumber, o.Customer.Name, o.Customer.Phone, o.Customer.Email, o.Customer.WhatsApp,
		items, o.Status, o.PaymentMethod, o.PaymentStatus, o.TotalAmount, o.Notes, o.OrderDate,
		o.EstimatedReady, proof,
	)
	if isUniqueViolation(err, "orders_order_number_key") {
		return ErrDuplicateOrderNumber
	}
	return err
}

func (s *PgStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (s *PgStore) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE ($1 = '' OR status = $1) AND ($2 = '' OR customer_phone = $2)`
	if f.NewestFirst {
		q += ` ORDER BY order_date DESC`
	} else {
		q += ` ORDER BY order_date ASC`
	}
	rows, err := s.pool.Query(ctx, q, f.Status, f.Phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateOrderStatus writes the new status and an audit row in one
// transaction. Zero affected rows means the order is gone or was moved by
// someone else since it was read.
func (s *PgStore) UpdateOrderStatus(ctx context.Context, id, from, to, changedBy string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrStaleStatus
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, from_status, to_status, changed_by)
		VALUES ($1, $2, $3, $4)`,
		id, from, to, changedBy,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgStore) CountOrdersBetween(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)::int FROM orders WHERE order_date >= $1 AND order_date <= $2`,
		start, end,
	).Scan(&n)
	return n, err
}

// StatusHistory returns the audit log of one order, oldest first.
func (s *PgStore) StatusHistory(ctx context.Context, orderID string) ([]models.StatusChange, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id, from_status, to_status, changed_by, changed_at
		FROM order_status_log WHERE order_id = $1 ORDER BY changed_at, id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.StatusChange{}
	for rows.Next() {
		var c models.StatusChange
		if err := rows.Scan(&c.OrderID, &c.From, &c.To, &c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetDailyStats summarizes orders placed in [start, end].
func (s *PgStore) GetDailyStats(ctx context.Context, start, end time.Time) (*models.DailyStats, error) {
	var st models.DailyStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COUNT(*) FILTER (WHERE status = 'completed')::int,
			COUNT(*) FILTER (WHERE status = 'cancelled')::int,
			COALESCE(SUM(total_amount) FILTER (WHERE status = 'completed'), 0)::float8
		FROM orders
		WHERE order_date >= $1 AND order_date <= $2`,
		start, end,
	).Scan(&st.OrdersCount, &st.CompletedCount, &st.CancelledCount, &st.Revenue)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
