package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"SidraStore/internal/bot/messages"
	"SidraStore/internal/bot/moderation"
	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

// init
func init() {
	moderation.RegisterCommand(NewPendingHandler)
}

// pendingHandler lists checkouts that still have a gated step awaiting
// review.
type pendingHandler struct {
	log     zerolog.Logger
	records ports.CheckoutRecordRepository
	bot     ports.BotClientPort
}

// NewPendingHandler
func NewPendingHandler(deps *moderation.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return &pendingHandler{
		log:     baseLogger.With().Str("component", "pending_handler").Logger(),
		records: deps.Records,
		bot:     deps.BotClient,
	}
}

func (h *pendingHandler) Command() string {
	return "pending"
}

func (h *pendingHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	stored, err := h.records.ListRecent(ctx, 25)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list checkout records")
		return h.send(ctx, update.ChatID, "Error: could not load pending checkouts.")
	}

	var lines []string
	for _, rec := range stored {
		for _, step := range domain.GatedSteps {
			key := step.RecordKey()
			if rec.Record.Approval(key) == domain.ApprovalPending {
				lines = append(lines, fmt.Sprintf("• %s — %s", rec.VisitorID, key))
			}
		}
	}

	if len(lines) == 0 {
		return h.send(ctx, update.ChatID, "No checkouts awaiting review.")
	}
	text := fmt.Sprintf("⏳ Pending reviews (%d)\n\n%s", len(lines), strings.Join(lines, "\n"))
	return h.send(ctx, update.ChatID, text)
}

func (h *pendingHandler) send(ctx context.Context, chatID int64, text string) error {
	_, err := h.bot.SendMessage(ctx, messages.NewBuilder(chatID).WithText(text).Build())
	return err
}
