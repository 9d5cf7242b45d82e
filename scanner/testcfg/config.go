package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for scanner acceptance tests.
// Windows are short so a public endpoint answers quickly.
type Config struct {
	RPCURL          string        `env:"SCANNER_TEST_RPC_URL" envDefault:"https://rpc.flashbots.net"`
	ContractAddress string        `env:"SCANNER_TEST_CONTRACT_ADDRESS" envDefault:"0xa9a57f7d2A54C1E172a7dC546fEE6e03afdD28E2"`
	LookbackSeconds int64         `env:"SCANNER_TEST_LOOKBACK_SECONDS" envDefault:"600"`
	BlockInterval   time.Duration `env:"SCANNER_TEST_BLOCK_INTERVAL" envDefault:"10s"`
	MaxEnumeration  int           `env:"SCANNER_TEST_MAX_ENUMERATION" envDefault:"200"`
	RPCRate         float64       `env:"SCANNER_TEST_RPC_RATE" envDefault:"5"`
	RPCTimeout      time.Duration `env:"SCANNER_TEST_RPC_TIMEOUT" envDefault:"30s"`
	ScanTimeout     time.Duration `env:"SCANNER_TEST_SCAN_TIMEOUT" envDefault:"2m"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
