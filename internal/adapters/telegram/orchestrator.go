package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"SidraStore/internal/bot/moderation"
	// Handlers self-register into the moderation registry via init.
	_ "SidraStore/internal/bot/moderation/handlers"
	"SidraStore/internal/core/ports"
	"SidraStore/internal/shared/config"
)

// Orchestrator assembles and runs the moderation bot.
type Orchestrator struct {
	cfg        *config.Config
	store      ports.DocumentStore
	records    ports.CheckoutRecordRepository
	orders     ports.OrderRepository
	bus        ports.EventBus
	baseLogger *zerolog.Logger
}

// NewOrchestrator creates a new bot orchestrator.
func NewOrchestrator(
	cfg *config.Config,
	store ports.DocumentStore,
	records ports.CheckoutRecordRepository,
	orders ports.OrderRepository,
	bus ports.EventBus,
	baseLogger *zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		records:    records,
		orders:     orders,
		bus:        bus,
		baseLogger: baseLogger,
	}
}

// Start wires the moderation bot and blocks until the context is
// cancelled. Returns immediately when no bot token is configured.
func (o *Orchestrator) Start(ctx context.Context) error {
	log := o.baseLogger.With().Str("bot", "moderation").Logger()

	if o.cfg.Bot.Token == "" {
		log.Warn().Msg("No bot token configured, moderation bot disabled")
		return nil
	}

	// 1. Create API
	api, err := tgbotapi.NewBotAPI(o.cfg.Bot.Token)
	if err != nil {
		return err
	}
	api.Debug = o.cfg.AppEnv == "dev"
	log.Info().Str("username", api.Self.UserName).Msg("Bot API connected")

	// 2. Create Client (Adapter)
	client := NewClient(api, &log)

	// 3. Create Router
	router := NewRouter(client, o.cfg.Bot.ModeratorChatID, &log)

	// 4. Register Handlers
	deps := &moderation.Deps{
		Cfg:       o.cfg,
		Store:     o.store,
		Records:   o.records,
		Orders:    o.orders,
		BotClient: client,
		Bus:       o.bus,
	}
	moderation.RegisterAllHandlers(router, deps, &log)

	// 5. Subscribe the notifier to checkout events
	notifier := moderation.NewNotifier(client, o.cfg.Bot.ModeratorChatID, &log)
	notifier.Start(o.bus)

	// 6. Set Menu
	client.SetMenuCommands(ctx, o.cfg.Bot.ModeratorChatID)

	// 7. Create and Start Server
	server := NewBotServer(api, router, &o.cfg.Bot.Connection, &log)
	return server.Start(ctx)
}
