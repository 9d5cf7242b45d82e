package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/screwyprof/sortition/pkg/chain"
)

// Sentinel errors for failure cases
var (
	ErrUpstreamUnavailable    = errors.New("upstream unavailable")
	ErrMalformedResponse      = errors.New("malformed response")
	ErrEndOfEnumeration       = errors.New("end of enumeration")
	ErrEnumerationCapExceeded = fmt.Errorf("%w: enumeration cap exceeded", ErrMalformedResponse)
	ErrInvalidWindow          = errors.New("invalid time window")
	ErrInvalidTallyPolicy     = errors.New("invalid tally policy")
	ErrArchiveFailed          = errors.New("archive failed")
)

// Default configuration values
const (
	// DefaultBlockInterval is deliberately shorter than the real 12-16s average
	// so the estimated block span always covers the lookback window.
	DefaultBlockInterval  = 10 * time.Second
	DefaultMaxEnumeration = 10000
)

// ChainReader is the read-only chain capability the scanner depends on
// -----------------------------------------------------------------------
type ChainReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FetchLogs(ctx context.Context, event string, from, to uint64) ([]chain.Log, error)
	BlockTimestamp(ctx context.Context, ref chain.BlockRef) (uint64, error)
	Call(ctx context.Context, at *big.Int, method string, args ...any) ([]any, error)
}

// Archive stores completed scans. It is write only: scans never read it back.
type Archive interface {
	SaveScan(ctx context.Context, result Result) (int64, error)
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// Event represents a service lifecycle event
// ------------------------------------------
type Event any

type ScanStarted struct {
	StartedAt       time.Time
	LookbackSeconds int64
}

type ScanCompleted struct {
	Result    Result
	Duration  time.Duration
	ArchiveID int64 // 0 when no archive is configured or saving failed
}

type ScanFailed struct {
	Err error
}

type ArchiveFailed struct {
	Err error
}

type PollingStarted struct {
	Interval time.Duration
}

type PollingShutdown struct {
	Reason error // Why shutdown occurred (ctx.Err())
}

// classify maps a chain read failure onto the scanner taxonomy.
// A revert means the node answered, so it counts as a malformed response.
func classify(step string, err error) error {
	if errors.Is(err, chain.ErrABI) || errors.Is(err, chain.ErrNotInABI) || errors.Is(err, chain.ErrExecutionReverted) {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, step, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, step, err)
}
