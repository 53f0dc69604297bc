package moderation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"SidraStore/internal/bot/messages"
	"SidraStore/internal/core/ports"
)

// Notifier turns checkout events into moderator messages. Each gated
// submission becomes a review card with Approve / Reject buttons whose
// callback data round-trips the visitor id and step key.
type Notifier struct {
	log       zerolog.Logger
	botClient ports.BotClientPort
	chatID    int64
}

// NewNotifier creates a notifier targeting the moderator chat.
func NewNotifier(botClient ports.BotClientPort, chatID int64, baseLogger *zerolog.Logger) *Notifier {
	return &Notifier{
		log:       baseLogger.With().Str("component", "moderation_notifier").Logger(),
		botClient: botClient,
		chatID:    chatID,
	}
}

// Start subscribes the notifier to the checkout topics.
func (n *Notifier) Start(bus ports.EventBus) {
	bus.Subscribe(ports.TopicStepSubmitted, n.handleStepSubmitted)
	bus.Subscribe(ports.TopicOrderPlaced, n.handleOrderPlaced)
	n.log.Info().Msg("Moderation notifier subscribed")
}

func (n *Notifier) handleStepSubmitted(ctx context.Context, event ports.Event) error {
	data, ok := event.Data.(ports.StepSubmittedEvent)
	if !ok {
		n.log.Error().Str("topic", event.Topic).Msg("Unexpected event payload type")
		return nil
	}

	text := fmt.Sprintf(
		"🔔 Review needed\n\nVisitor: %s\nStep: %s\nSubmitted: %s",
		data.VisitorID, data.StepKey, data.Summary,
	)
	params := messages.NewBuilder(n.chatID).
		WithText(text).
		WithInlineButtons([][]ports.Button{
			{
				{Text: "✅ Approve", Data: fmt.Sprintf("review_approve_%s_%s", data.VisitorID, data.StepKey)},
				{Text: "❌ Reject", Data: fmt.Sprintf("review_reject_%s_%s", data.VisitorID, data.StepKey)},
			},
		}).
		Build()

	if _, err := n.botClient.SendMessage(ctx, params); err != nil {
		n.log.Error().Err(err).Str("visitor_id", data.VisitorID).Msg("Failed to send review card")
		return err
	}
	return nil
}

func (n *Notifier) handleOrderPlaced(ctx context.Context, event ports.Event) error {
	data, ok := event.Data.(ports.OrderPlacedEvent)
	if !ok {
		n.log.Error().Str("topic", event.Topic).Msg("Unexpected event payload type")
		return nil
	}

	text := fmt.Sprintf(
		"🛒 Order placed\n\nOrder: %s\nVisitor: %s\nTotal: %.2f",
		data.OrderID, data.VisitorID, data.Total,
	)
	params := messages.NewBuilder(n.chatID).WithText(text).Build()
	if _, err := n.botClient.SendMessage(ctx, params); err != nil {
		n.log.Error().Err(err).Str("order_id", data.OrderID).Msg("Failed to send order notification")
		return err
	}
	return nil
}
