package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"SidraStore/internal/bot/moderation"
	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

// init
func init() {
	moderation.RegisterCallback(NewReviewHandler)
}

// reviewHandler applies a moderator's approve/reject decision to the
// visitor's checkout record. The session listening on that record picks
// the change up and advances (or re-prompts) the shopper.
type reviewHandler struct {
	log   zerolog.Logger
	store ports.DocumentStore
	bot   ports.BotClientPort
}

// NewReviewHandler
func NewReviewHandler(deps *moderation.Deps, baseLogger *zerolog.Logger) ports.CallbackHandler {
	return &reviewHandler{
		log:   baseLogger.With().Str("component", "review_handler").Logger(),
		store: deps.Store,
		bot:   deps.BotClient,
	}
}

func (h *reviewHandler) Prefix() string {
	return "review_"
}

func (h *reviewHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	// 1. Answer the callback to stop the spinner
	h.bot.AnswerCallbackQuery(ctx, ports.AnswerCallbackParams{
		CallbackQueryID: update.CallbackQueryID,
	})

	// 2. Parse the callback data: review_<action>_<visitorID>_<stepKey>.
	// Visitor ids use hyphens, so splitting on underscores is safe.
	parts := strings.SplitN(*update.CallbackData, "_", 4)
	if len(parts) != 4 {
		h.log.Error().Str("data", *update.CallbackData).Msg("Invalid callback data format")
		return nil
	}
	action, visitorID, stepKey := parts[1], parts[2], parts[3]

	log := h.log.With().Str("visitor_id", visitorID).Str("step", stepKey).Str("action", action).Logger()

	var status domain.ApprovalStatus
	switch action {
	case "approve":
		status = domain.ApprovalApproved
	case "reject":
		status = domain.ApprovalRejected
	default:
		log.Error().Msg("Unknown review action")
		return nil
	}

	// 3. Write the decision into the checkout record
	patch := map[string]any{stepKey + "Approved": string(status)}
	if err := h.store.WriteMerge(ctx, visitorID, patch); err != nil {
		log.Error().Err(err).Msg("Failed to write review decision")
		return h.editMessage(ctx, update, "Error: could not record the decision.")
	}

	log.Info().Msg("Review decision recorded")

	decision := "✅ Approved"
	if status == domain.ApprovalRejected {
		decision = "❌ Rejected"
	}
	return h.editMessage(ctx, update, fmt.Sprintf("%s\n\nVisitor: %s\nStep: %s", decision, visitorID, stepKey))
}

// editMessage replaces the review card with the decision and removes
// the buttons.
func (h *reviewHandler) editMessage(ctx context.Context, update *ports.BotUpdate, text string) error {
	msg := ports.EditMessageParams{
		ChatID:      update.ChatID,
		MessageID:   update.MessageID,
		Text:        text,
		ReplyMarkup: nil, // Remove buttons
	}
	return h.bot.EditMessageText(ctx, msg)
}
