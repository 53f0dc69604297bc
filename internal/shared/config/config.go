package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv         string
	DatabaseURL    string
	HTTPAddr       string
	BinAPIKey      string
	EncryptionKey  string
	LocalStorePath string
	Bot            BotConfig
}

// BotConfig configures the moderation bot.
type BotConfig struct {
	Token           string
	ModeratorChatID int64
	Connection      BotConnectionConfig
}

// BotConnectionConfig selects how the bot receives updates.
type BotConnectionConfig struct {
	Mode    string // "polling" or "webhook"
	Polling PollingConfig
	Webhook WebhookConfig
}

// PollingConfig configures long-polling mode.
type PollingConfig struct {
	Timeout        int // long-poll timeout in seconds
	WorkerPoolSize int
}

// WebhookConfig configures webhook mode.
type WebhookConfig struct {
	URL        string
	ListenPort int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {

	// 1. Load .env file into the process environment. Missing file is
	// fine in prod; any other error we want to know about.
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// 2. Explicitly bind viper keys to env var names.
	bindings := map[string]string{
		"app.env":            "APP_ENV",
		"database.url":       "DATABASE_URL",
		"http.addr":          "HTTP_ADDR",
		"bin.api_key":        "BIN_API_KEY",
		"encryption.key":     "ENCRYPTION_KEY",
		"local_store.path":   "LOCAL_STORE_PATH",
		"bot.token":          "BOT_TOKEN",
		"bot.moderator_chat": "MODERATOR_CHAT_ID",
		"bot.mode":           "BOT_MODE",
		"bot.poll_timeout":   "BOT_POLL_TIMEOUT",
		"bot.workers":        "BOT_WORKERS",
		"bot.webhook_url":    "BOT_WEBHOOK_URL",
		"bot.webhook_port":   "BOT_WEBHOOK_PORT",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	// 3. Set defaults
	viper.SetDefault("app.env", "dev")
	viper.SetDefault("http.addr", ":5000")
	viper.SetDefault("bot.mode", "polling")
	viper.SetDefault("bot.poll_timeout", 60)
	viper.SetDefault("bot.workers", 4)
	viper.SetDefault("bot.webhook_port", 8443)
	viper.SetDefault("local_store.path", "data/localstore.json")

	// 4. Get values directly from viper
	cfg := Config{
		AppEnv:         viper.GetString("app.env"),
		DatabaseURL:    viper.GetString("database.url"),
		HTTPAddr:       viper.GetString("http.addr"),
		BinAPIKey:      viper.GetString("bin.api_key"),
		EncryptionKey:  viper.GetString("encryption.key"),
		LocalStorePath: viper.GetString("local_store.path"),
		Bot: BotConfig{
			Token:           viper.GetString("bot.token"),
			ModeratorChatID: viper.GetInt64("bot.moderator_chat"),
			Connection: BotConnectionConfig{
				Mode: viper.GetString("bot.mode"),
				Polling: PollingConfig{
					Timeout:        viper.GetInt("bot.poll_timeout"),
					WorkerPoolSize: viper.GetInt("bot.workers"),
				},
				Webhook: WebhookConfig{
					URL:        viper.GetString("bot.webhook_url"),
					ListenPort: viper.GetInt("bot.webhook_port"),
				},
			},
		},
	}

	// 5. Validation
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set in environment or .env file")
	}
	if cfg.Bot.Token != "" && cfg.Bot.ModeratorChatID == 0 {
		return nil, errors.New("MODERATOR_CHAT_ID must be set when BOT_TOKEN is set")
	}
	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) != 64 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes), but got %d chars", len(cfg.EncryptionKey))
	}

	return &cfg, nil
}
