package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	LookbackSeconds   int64         `env:"NOTIFIER_LOOKBACK_SECONDS" envDefault:"3600"`
	MaxPages          int           `env:"NOTIFIER_MAX_PAGES" envDefault:"10"`
	HttpClientTimeout time.Duration `env:"NOTIFIER_HTTP_CLIENT_TIMEOUT" envDefault:"30s"`
	OpenSeaAPIURL     string        `env:"OPENSEA_API_URL" envDefault:"https://api.opensea.io"`
	OpenSeaAPIToken   string        `env:"OPENSEA_API_TOKEN"`
	CollectionSlug    string        `env:"COLLECTION_SLUG,required"`
	ContractAddress   string        `env:"CONTRACT_ADDRESS"`
	DiscordBotToken   string        `env:"DISCORD_BOT_TOKEN"`
	DiscordChannelID  string        `env:"DISCORD_CHANNEL_ID"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly  bool          `env:"LOG_HUMAN_FRIENDLY" envDefault:"false"`
}

// New loads all configuration from environment variables
func New() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	return cfg
}
