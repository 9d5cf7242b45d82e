package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	RPCURL               string        `env:"SCANNER_RPC_URL" envDefault:"https://rpc.flashbots.net"`
	ContractAddress      string        `env:"SCANNER_CONTRACT_ADDRESS" envDefault:"0xa9a57f7d2A54C1E172a7dC546fEE6e03afdD28E2"`
	LookbackSeconds      int64         `env:"SCANNER_LOOKBACK_SECONDS" envDefault:"3600"`
	BlockInterval        time.Duration `env:"SCANNER_BLOCK_INTERVAL" envDefault:"10s"`
	MaxEnumeration       int           `env:"SCANNER_MAX_ENUMERATION" envDefault:"10000"`
	LogRange             uint64        `env:"SCANNER_LOG_RANGE" envDefault:"2000"`
	RPCRate              float64       `env:"SCANNER_RPC_RATE" envDefault:"10"`
	RPCBurst             int           `env:"SCANNER_RPC_BURST" envDefault:"5"`
	RPCTimeout           time.Duration `env:"SCANNER_RPC_TIMEOUT" envDefault:"30s"`
	TallyPolicy          string        `env:"SCANNER_TALLY_POLICY" envDefault:"cumulative"`
	ResolveAllTimestamps bool          `env:"SCANNER_RESOLVE_ALL_TIMESTAMPS" envDefault:"false"`
	PollInterval         time.Duration `env:"SCANNER_POLL_INTERVAL" envDefault:"0s"`
	DatabaseURL          string        `env:"SCANNER_DATABASE_URL"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly     bool          `env:"LOG_HUMAN_FRIENDLY" envDefault:"false"`
}

// New loads all configuration from environment variables
func New() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	return cfg
}
