package scanner

import (
	"fmt"
	"math"
	"math/bits"
	"time"
)

// TimeWindow is the wall clock range a scan covers: [Now - LookbackSeconds, Now]
type TimeWindow struct {
	LookbackSeconds int64
	Now             time.Time
}

// NewTimeWindow returns a window ending at now
func NewTimeWindow(lookbackSeconds int64, now time.Time) (TimeWindow, error) {
	if lookbackSeconds <= 0 {
		return TimeWindow{}, fmt.Errorf("%w: lookback must be positive, got %d", ErrInvalidWindow, lookbackSeconds)
	}
	return TimeWindow{LookbackSeconds: lookbackSeconds, Now: now}, nil
}

// Since is the unix timestamp of the window start
func (w TimeWindow) Since() int64 {
	return w.Now.Unix() - w.LookbackSeconds
}

// ApproxBlockSpan estimates how many blocks cover lookbackSeconds when blocks
// arrive every blockInterval. With an interval shorter than the chain's real
// average the span overestimates, so the fetched range contains the window.
func ApproxBlockSpan(lookbackSeconds int64, blockInterval time.Duration) uint64 {
	if lookbackSeconds <= 0 {
		return 0
	}
	if blockInterval <= 0 {
		blockInterval = DefaultBlockInterval
	}
	// lookbackSeconds in nanoseconds does not fit an int64 past ~292 years
	hi, lo := bits.Mul64(uint64(lookbackSeconds), uint64(time.Second))
	if hi >= uint64(blockInterval) {
		return math.MaxUint64
	}
	span, _ := bits.Div64(hi, lo, uint64(blockInterval))
	return span
}

// blockRange returns [latest - span, latest], clamped at genesis
func blockRange(latest, span uint64) (uint64, uint64) {
	if span > latest {
		return 0, latest
	}
	return latest - span, latest
}
