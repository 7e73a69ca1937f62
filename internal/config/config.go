package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StorageConfig selects where snapshots live. DatabaseURL wins over DataDir.
type StorageConfig struct {
	DataDir     string
	DatabaseURL string
}

type BotConfig struct {
	Storage             StorageConfig
	DiscordToken        string
	OwnerID             string
	Addr                string
	Prefix              string
	SpinChannelID       string
	GambleChannelID     string
	MarketBannedRole    string
	GamblePromptTimeout time.Duration
	CreditSeller        bool
	LogLevel            slog.Level
}

type CtlConfig struct {
	Storage StorageConfig
	OwnerID string
}

// loadDotEnv reads .env if present; real environment variables win.
func loadDotEnv() {
	_ = godotenv.Load()
}

func LoadBotFromEnv() (BotConfig, error) {
	loadDotEnv()

	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("CREDITBOT_ADDR", ":8080")
	}

	cfg := BotConfig{
		Storage:             loadStorage(),
		DiscordToken:        strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		OwnerID:             strings.TrimSpace(os.Getenv("CREDITBOT_OWNER_ID")),
		Addr:                addr,
		Prefix:              envDefault("CREDITBOT_PREFIX", "!"),
		SpinChannelID:       strings.TrimSpace(os.Getenv("CREDITBOT_SPIN_CHANNEL_ID")),
		GambleChannelID:     strings.TrimSpace(os.Getenv("CREDITBOT_GAMBLE_CHANNEL_ID")),
		MarketBannedRole:    envDefault("CREDITBOT_MARKET_BANNED_ROLE", "Market Banned"),
		GamblePromptTimeout: envDurationDefault("CREDITBOT_GAMBLE_PROMPT_TIMEOUT", 30*time.Second),
		CreditSeller:        envBoolDefault("CREDITBOT_CREDIT_SELLER", false),
		LogLevel:            envLevelDefault("LOG_LEVEL", slog.LevelInfo),
	}
	if cfg.DiscordToken == "" {
		return cfg, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.OwnerID == "" {
		return cfg, fmt.Errorf("CREDITBOT_OWNER_ID is required")
	}
	return cfg, nil
}

func LoadCtlFromEnv() CtlConfig {
	loadDotEnv()
	return CtlConfig{
		Storage: loadStorage(),
		OwnerID: strings.TrimSpace(os.Getenv("CREDITBOT_OWNER_ID")),
	}
}

func loadStorage() StorageConfig {
	return StorageConfig{
		DataDir:     envDefault("CREDITBOT_DATA_DIR", "data"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envLevelDefault(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return level
}
