package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"food-storefront/models"
	"food-storefront/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type telegram interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// AdminBot posts a card for every new order to the shop's admin chat and
// lets staff move orders along the board with the card's button.
type AdminBot struct {
	api      *tgbotapi.BotAPI
	tg       telegram
	chatID   int64
	orders   *services.OrderService
	pointers services.MessagePointerStore
	stats    services.StatsStore
	loc      *time.Location
	log      zerolog.Logger

	// board mirrors the open orders shown as cards; button presses move
	// orders on it and a rejected move puts the card back.
	board      *services.Board
	orderLocks sync.Map // map[orderID]*sync.Mutex
}

type Deps struct {
	Orders   *services.OrderService
	Pointers services.MessagePointerStore
	Stats    services.StatsStore
	Location *time.Location
	Log      zerolog.Logger
}

func New(token string, adminChatID int64, d Deps) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b := newAdminBot(api, adminChatID, d)
	b.api = api
	return b, nil
}

func newAdminBot(tg telegram, adminChatID int64, d Deps) *AdminBot {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &AdminBot{
		tg:       tg,
		chatID:   adminChatID,
		orders:   d.Orders,
		pointers: d.Pointers,
		stats:    d.Stats,
		loc:      loc,
		log:      d.Log,
		board:    services.NewBoard(nil, d.Orders),
	}
}

// cardMarkup converts card buttons to an inline keyboard.
func cardMarkup(c services.OrderCardContent) *tgbotapi.InlineKeyboardMarkup {
	if len(c.Buttons) == 0 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, row := range c.Buttons {
		var btns []tgbotapi.InlineKeyboardButton
		for _, btn := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.CallbackData))
		}
		rows = append(rows, btns)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func (b *AdminBot) lockOrder(orderID string) func() {
	v, _ := b.orderLocks.LoadOrStore(orderID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (b *AdminBot) sendCard(ctx context.Context, chatID int64, o *models.Order, content services.OrderCardContent) {
	msg := tgbotapi.NewMessage(chatID, content.Text)
	if kb := cardMarkup(content); kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := b.tg.Send(msg)
	if err != nil {
		b.log.Error().Err(err).Str("order_id", o.ID).Msg("send order card")
		return
	}
	if err := b.pointers.UpsertOrderMessagePointer(ctx, o.ID, services.AudienceAdmin, chatID, sent.MessageID); err != nil {
		b.log.Error().Err(err).Str("order_id", o.ID).Msg("save order card pointer")
	}
}

// renderCard edits the order's existing card, or posts a new one if there
// is none or the old message is gone.
func (b *AdminBot) renderCard(ctx context.Context, o *models.Order) {
	unlock := b.lockOrder(o.ID)
	defer unlock()

	content := services.BuildAdminCard(o)
	chatID, messageID, ok, err := b.pointers.GetOrderMessagePointer(ctx, o.ID, services.AudienceAdmin)
	if err != nil {
		b.log.Error().Err(err).Str("order_id", o.ID).Msg("get order card pointer")
		return
	}
	if !ok {
		b.sendCard(ctx, b.chatID, o, content)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, content.Text)
	if kb := cardMarkup(content); kb != nil {
		edit.ReplyMarkup = kb
	} else {
		edit.ReplyMarkup = &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	}
	if _, err := b.tg.Send(edit); err != nil {
		errStr := err.Error()
		switch {
		case strings.Contains(errStr, "not modified"):
		case strings.Contains(errStr, "not found"):
			b.sendCard(ctx, chatID, o, content)
		default:
			b.log.Error().Err(err).Str("order_id", o.ID).Msg("edit order card")
		}
	}
}

func (b *AdminBot) OrderCreated(ctx context.Context, o *models.Order) {
	b.board.Add(*o)
	b.renderCard(ctx, o)
}

// OrderStatusChanged redraws the card; finished orders leave the board.
func (b *AdminBot) OrderStatusChanged(ctx context.Context, o *models.Order, _ string) {
	b.board.Add(*o)
	b.renderCard(ctx, o)
	if services.IsTerminalStatus(o.Status) {
		b.board.Remove(o.ID)
	}
}

func (b *AdminBot) answer(callbackID, text string) {
	if _, err := b.tg.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Warn().Err(err).Msg("answer callback")
	}
}

func (b *AdminBot) send(chatID int64, text string) {
	if _, err := b.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}

func changedBy(u *tgbotapi.User) string {
	if u == nil {
		return "telegram"
	}
	if u.UserName != "" {
		return "telegram:" + u.UserName
	}
	return fmt.Sprintf("telegram:%d", u.ID)
}

// handleOrderStatusCallback applies a card button press through the board.
// On success OrderStatusChanged redraws the card; a rejected move is
// reverted on the board and the card is redrawn from it.
func (b *AdminBot) handleOrderStatusCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil || cq.Message.Chat.ID != b.chatID {
		b.answer(cq.ID, "Unauthorized.")
		return
	}
	orderID, status, ok := services.ParseStatusCallbackData(cq.Data)
	if !ok {
		b.answer(cq.ID, "Invalid callback.")
		return
	}
	if _, onBoard := b.board.Get(orderID); !onBoard {
		o, err := b.orders.Get(ctx, orderID)
		if err != nil {
			b.answer(cq.ID, "Order not found.")
			return
		}
		b.board.Add(*o)
	}

	if err := b.board.Move(ctx, orderID, status, changedBy(cq.From)); err != nil {
		b.log.Warn().Err(err).Str("order_id", orderID).Str("status", status).Msg("board move rejected")
		b.answer(cq.ID, "Could not update: "+err.Error())
		if errors.Is(err, services.ErrStaleStatus) {
			if current, gerr := b.orders.Get(ctx, orderID); gerr == nil {
				b.board.Add(*current)
			}
		}
		if reverted, ok := b.board.Get(orderID); ok {
			b.renderCard(ctx, &reverted)
		}
		return
	}
	b.answer(cq.ID, "✅ "+services.StatusLabel(status))
}

func (b *AdminBot) handleBoard(ctx context.Context, chatID int64) {
	list, err := b.orders.List(ctx, "")
	if err != nil {
		b.send(chatID, "Board failed: "+err.Error())
		return
	}
	counts := services.NewBoard(list, b.orders).Counts()
	var sb strings.Builder
	sb.WriteString("📋 Order board\n")
	for _, s := range services.BoardStatuses {
		fmt.Fprintf(&sb, "\n%s: %d", services.StatusLabel(s), counts[s])
	}
	b.send(chatID, sb.String())
}

// handleStats reports a day's totals. Usage: /stats [YYYY-MM-DD]
func (b *AdminBot) handleStats(ctx context.Context, chatID int64, text string) {
	day := time.Now().In(b.loc)
	date := day.Format("2006-01-02")
	if parts := strings.Fields(text); len(parts) > 1 {
		d, err := time.ParseInLocation("2006-01-02", parts[1], b.loc)
		if err != nil {
			b.send(chatID, "Usage: /stats [YYYY-MM-DD]")
			return
		}
		day, date = d, parts[1]
	}

	stats, err := services.DailyStatsFor(ctx, b.stats, day)
	if err != nil {
		b.send(chatID, "Stats failed: "+err.Error())
		return
	}
	b.send(chatID, fmt.Sprintf(
		"📊 Stats (%s)\n\nOrders: %d\nCompleted: %d\nCancelled: %d\nRevenue: R%.2f",
		date, stats.OrdersCount, stats.CompletedCount, stats.CancelledCount, stats.Revenue,
	))
}

func (b *AdminBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		if strings.HasPrefix(cq.Data, "order_status:") {
			b.handleOrderStatusCallback(ctx, cq)
		}
		return
	}
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Chat.ID != b.chatID {
		return
	}
	text := strings.TrimSpace(msg.Text)
	switch {
	case text == "/board":
		b.handleBoard(ctx, msg.Chat.ID)
	case strings.HasPrefix(text, "/stats"):
		b.handleStats(ctx, msg.Chat.ID, text)
	}
}

func (b *AdminBot) setBotCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "board", Description: "Orders per status"},
		tgbotapi.BotCommand{Command: "stats", Description: "Today's orders and revenue"},
	)
	_, err := b.tg.Request(cfg)
	return err
}

// Run polls for updates until ctx is cancelled.
func (b *AdminBot) Run(ctx context.Context) error {
	if err := b.setBotCommands(); err != nil {
		b.log.Warn().Err(err).Msg("set bot commands")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.log.Info().Str("bot", b.api.Self.UserName).Msg("admin bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

var _ services.OrderNotifier = (*AdminBot)(nil)
