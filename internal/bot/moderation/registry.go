// Package moderation implements the review side of checkout: a Telegram
// bot that shows moderators each gated-step submission and writes their
// approve/reject decision back into the checkout record.
package moderation

import (
	"github.com/rs/zerolog"

	"SidraStore/internal/core/ports"
	"SidraStore/internal/shared/config"
)

// Deps bundles everything a moderation handler may need.
type Deps struct {
	Cfg       *config.Config
	Store     ports.DocumentStore
	Records   ports.CheckoutRecordRepository
	Orders    ports.OrderRepository
	BotClient ports.BotClientPort
	Bus       ports.EventBus
}

// HandlerRegistry is the router surface the registry binds handlers to.
type HandlerRegistry interface {
	RegisterCommandHandler(handler ports.CommandHandler)
	RegisterCallbackHandler(handler ports.CallbackHandler)
}

// Define constructor types for moderation handlers
type CommandHandlerConstructor func(deps *Deps, baseLogger *zerolog.Logger) ports.CommandHandler

type CallbackHandlerConstructor func(deps *Deps, baseLogger *zerolog.Logger) ports.CallbackHandler

var (
	commandRegistry  []CommandHandlerConstructor
	callbackRegistry []CallbackHandlerConstructor
)

// RegisterCommand
func RegisterCommand(constructor CommandHandlerConstructor) {
	commandRegistry = append(commandRegistry, constructor)
}

// RegisterCallback
func RegisterCallback(constructor CallbackHandlerConstructor) {
	callbackRegistry = append(callbackRegistry, constructor)
}

// RegisterAllHandlers instantiates every registered handler and binds it
// to the router.
func RegisterAllHandlers(router HandlerRegistry, deps *Deps, baseLogger *zerolog.Logger) {
	log := baseLogger.With().Str("component", "moderation_registry").Logger()

	for _, constructor := range commandRegistry {
		handler := constructor(deps, baseLogger)
		router.RegisterCommandHandler(handler)
	}
	for _, constructor := range callbackRegistry {
		handler := constructor(deps, baseLogger)
		router.RegisterCallbackHandler(handler)
	}
	log.Info().
		Int("commands", len(commandRegistry)).
		Int("callbacks", len(callbackRegistry)).
		Msg("All moderation handlers registered")
}
