package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// AudienceAdmin is the shop's admin chat.
const AudienceAdmin = "admin"

// MessagePointerStore remembers which chat message shows an order's card,
// so status changes edit the card instead of posting a new one.
type MessagePointerStore interface {
	// GetOrderMessagePointer returns ok=false if no card was posted yet.
	GetOrderMessagePointer(ctx context.Context, orderID, audience string) (chatID int64, messageID int, ok bool, err error)
	UpsertOrderMessagePointer(ctx context.Context, orderID, audience string, chatID int64, messageID int) error
}

func (s *PgStore) GetOrderMessagePointer(ctx context.Context, orderID, audience string) (chatID int64, messageID int, ok bool, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT chat_id, message_id FROM order_message_pointers WHERE order_id = $1 AND audience = $2`,
		orderID, audience,
	).Scan(&chatID, &messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	return chatID, messageID, true, nil
}

func (s *PgStore) UpsertOrderMessagePointer(ctx context.Context, orderID, audience string, chatID int64, messageID int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO order_message_pointers (order_id, audience, chat_id, message_id, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (order_id, audience) DO UPDATE SET chat_id = EXCLUDED.chat_id, message_id = EXCLUDED.message_id, updated_at = now()`,
		orderID, audience, chatID, messageID,
	)
	return err
}
