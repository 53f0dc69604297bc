package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"SidraStore/internal/bot/messages"
	"SidraStore/internal/bot/moderation"
	"SidraStore/internal/core/ports"
)

// init
func init() {
	moderation.RegisterCommand(NewOrdersHandler)
}

// ordersHandler lists the latest finalized orders.
type ordersHandler struct {
	log    zerolog.Logger
	orders ports.OrderRepository
	bot    ports.BotClientPort
}

// NewOrdersHandler
func NewOrdersHandler(deps *moderation.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return &ordersHandler{
		log:    baseLogger.With().Str("component", "orders_handler").Logger(),
		orders: deps.Orders,
		bot:    deps.BotClient,
	}
}

func (h *ordersHandler) Command() string {
	return "orders"
}

func (h *ordersHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	orders, err := h.orders.ListRecent(ctx, 10)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list recent orders")
		return h.send(ctx, update.ChatID, "Error: could not load orders.")
	}

	if len(orders) == 0 {
		return h.send(ctx, update.ChatID, "No orders yet.")
	}

	var lines []string
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("• #%d %s — %s (%s)", o.ID, o.CustomerName, o.Total, o.Status))
	}
	text := fmt.Sprintf("🛒 Recent orders (%d)\n\n%s", len(orders), strings.Join(lines, "\n"))
	return h.send(ctx, update.ChatID, text)
}

func (h *ordersHandler) send(ctx context.Context, chatID int64, text string) error {
	_, err := h.bot.SendMessage(ctx, messages.NewBuilder(chatID).WithText(text).Build())
	return err
}
