package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/sortition/pkg/chain"
	"github.com/screwyprof/sortition/pkg/clock"
	"github.com/screwyprof/sortition/scanner"
)

// since is the window start used by most scenarios: now - lookback
const (
	lookback = int64(6000)
	since    = int64(1_700_000_000)
)

var now = time.Unix(since+lookback, 0).UTC()

// TestApproxBlockSpan tests the block range estimate
func TestApproxBlockSpan(t *testing.T) {
	t.Parallel()

	t.Run("it never estimates fewer blocks than a slower chain produces", func(t *testing.T) {
		t.Parallel()

		lookbacks := []int64{
			1, 9, 10, 59, 600, 3599, 3600, 6000, 86_400, 604_800,
			9_223_372_037, 9_300_000_000, 20_000_000_000, math.MaxInt64,
		}
		for _, lb := range lookbacks {
			pessimistic := scanner.ApproxBlockSpan(lb, scanner.DefaultBlockInterval)
			for actual := scanner.DefaultBlockInterval; actual <= 20*time.Second; actual += 250 * time.Millisecond {
				assert.GreaterOrEqual(t, pessimistic, scanner.ApproxBlockSpan(lb, actual),
					"lookback %ds: span at %v must cover span at %v", lb, scanner.DefaultBlockInterval, actual)
			}
		}
	})

	t.Run("it floors the lookback over the interval", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint64(600), scanner.ApproxBlockSpan(6000, 10*time.Second))
		assert.Equal(t, uint64(1), scanner.ApproxBlockSpan(19, 10*time.Second))
		assert.Equal(t, uint64(0), scanner.ApproxBlockSpan(9, 10*time.Second))
	})

	t.Run("it does not overflow on very long lookbacks", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint64(2_000_000_000), scanner.ApproxBlockSpan(20_000_000_000, 10*time.Second))
		assert.Equal(t, uint64(930_000_000), scanner.ApproxBlockSpan(9_300_000_000, 10*time.Second))
		assert.Equal(t, uint64(math.MaxInt64/10), scanner.ApproxBlockSpan(math.MaxInt64, 10*time.Second))
	})

	t.Run("it saturates when the span exceeds the block number range", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint64(math.MaxUint64), scanner.ApproxBlockSpan(math.MaxInt64, time.Nanosecond))
	})

	t.Run("it falls back to the default interval", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint64(10), scanner.ApproxBlockSpan(100, 0))
	})

	t.Run("it returns no blocks for a non-positive lookback", func(t *testing.T) {
		t.Parallel()

		assert.Zero(t, scanner.ApproxBlockSpan(0, 10*time.Second))
		assert.Zero(t, scanner.ApproxBlockSpan(-5, 10*time.Second))
	})
}

// TestTimeWindow tests window construction
func TestTimeWindow(t *testing.T) {
	t.Parallel()

	t.Run("it starts lookback seconds before now", func(t *testing.T) {
		t.Parallel()

		w, err := scanner.NewTimeWindow(lookback, now)

		require.NoError(t, err)
		assert.Equal(t, since, w.Since())
	})

	t.Run("it rejects a non-positive lookback", func(t *testing.T) {
		t.Parallel()

		_, err := scanner.NewTimeWindow(0, now)

		assert.ErrorIs(t, err, scanner.ErrInvalidWindow)
	})
}

// TestTrimBefore tests the exact left-trim to the window start
func TestTrimBefore(t *testing.T) {
	t.Parallel()

	t.Run("it keeps the boundary and everything after it", func(t *testing.T) {
		t.Parallel()

		// Arrange
		events := eventsAtTimestamps(5, 9, 9, 15, 20)
		resolver, _ := resolverFromBlockNumber()

		// Act
		trimmed, err := scanner.TrimBefore(t.Context(), events, 9, resolver)

		// Assert
		require.NoError(t, err)
		assertBlocks(t, trimmed, 9, 9, 15, 20)
		assert.Equal(t, uint64(9), trimmed[0].BlockTimestamp, "the boundary should carry its resolved timestamp")
		assert.Zero(t, trimmed[1].BlockTimestamp, "events after the boundary should stay unresolved")
	})

	t.Run("it resolves timestamps only for the inspected prefix", func(t *testing.T) {
		t.Parallel()

		// Arrange
		events := eventsAtTimestamps(5, 9, 9, 15, 20)
		resolver, calls := resolverFromBlockNumber()

		// Act
		_, err := scanner.TrimBefore(t.Context(), events, 9, resolver)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, *calls, "only the dropped event and the boundary should be resolved")
	})

	t.Run("it is idempotent", func(t *testing.T) {
		t.Parallel()

		// Arrange
		resolver, calls := resolverFromBlockNumber()
		once, err := scanner.TrimBefore(t.Context(), eventsAtTimestamps(5, 9, 9, 15, 20), 9, resolver)
		require.NoError(t, err)
		callsAfterFirstTrim := *calls

		// Act
		twice, err := scanner.TrimBefore(t.Context(), once, 9, resolver)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, once, twice)
		assert.Equal(t, callsAfterFirstTrim, *calls, "second trim should not resolve anything")
	})

	t.Run("it drops every event older than the window", func(t *testing.T) {
		t.Parallel()

		// Arrange
		resolver, _ := resolverFromBlockNumber()

		// Act
		trimmed, err := scanner.TrimBefore(t.Context(), eventsAtTimestamps(1, 2, 3), 9, resolver)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, trimmed)
	})

	t.Run("it accepts an empty sequence", func(t *testing.T) {
		t.Parallel()

		// Arrange
		resolver, calls := resolverFromBlockNumber()

		// Act
		trimmed, err := scanner.TrimBefore(t.Context(), nil, 9, resolver)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, trimmed)
		assert.Zero(t, *calls)
	})

	t.Run("it stops on a resolver failure", func(t *testing.T) {
		t.Parallel()

		// Arrange
		boom := errors.New("header unavailable")
		resolver := func(context.Context, scanner.NominationEvent) (uint64, error) { return 0, boom }

		// Act
		trimmed, err := scanner.TrimBefore(t.Context(), eventsAtTimestamps(5, 9), 9, resolver)

		// Assert
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, trimmed)
	})
}

// TestTokenCursor tests index based enumeration
func TestTokenCursor(t *testing.T) {
	t.Parallel()

	t.Run("it yields nothing when the first index reverts", func(t *testing.T) {
		t.Parallel()

		// Arrange
		cur := scanner.NewTokenCursor(chainWithTokens(), nil, 10)

		// Act
		ids := drain(t, cur)

		// Assert
		assert.Empty(t, ids)
		assert.NoError(t, cur.Err())
	})

	t.Run("it walks indices in order until the accessor reverts", func(t *testing.T) {
		t.Parallel()

		// Arrange
		cur := scanner.NewTokenCursor(chainWithTokens(7, 3, 11), nil, 10)

		// Act
		ids := drain(t, cur)

		// Assert
		assert.Equal(t, []string{"7", "3", "11"}, ids)
		assert.Equal(t, 3, cur.Index())
		assert.NoError(t, cur.Err())
	})

	t.Run("it ends cleanly when the array is exactly as long as the cap", func(t *testing.T) {
		t.Parallel()

		// Arrange
		cur := scanner.NewTokenCursor(chainWithTokens(1, 2, 3), nil, 3)

		// Act
		ids := drain(t, cur)

		// Assert
		assert.Len(t, ids, 3)
		assert.NoError(t, cur.Err())
	})

	t.Run("it reports a runaway accessor as malformed", func(t *testing.T) {
		t.Parallel()

		// Arrange
		cur := scanner.NewTokenCursor(chainWithTokens(1, 2, 3, 4, 5), nil, 3)

		// Act
		ids := drain(t, cur)

		// Assert
		assert.Len(t, ids, 3)
		assert.ErrorIs(t, cur.Err(), scanner.ErrEnumerationCapExceeded)
		assert.ErrorIs(t, cur.Err(), scanner.ErrMalformedResponse)
	})

	t.Run("it propagates failures other than a revert", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainWithTokens(1, 2, 3)
		fc.tokenErrAt = 1
		cur := scanner.NewTokenCursor(fc, nil, 10)

		// Act
		ids := drain(t, cur)

		// Assert
		assert.Equal(t, []string{"1"}, ids)
		assert.ErrorIs(t, cur.Err(), scanner.ErrUpstreamUnavailable)
		assert.NotErrorIs(t, cur.Err(), scanner.ErrEndOfEnumeration)
	})

	t.Run("it propagates a revert other than an out of bounds read", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainWithTokens(1, 2, 3)
		fc.tokenErrAt = 1
		fc.tokenRevert = true
		cur := scanner.NewTokenCursor(fc, nil, 10)

		// Act
		ids := drain(t, cur)

		// Assert
		assert.Equal(t, []string{"1"}, ids)
		assert.ErrorIs(t, cur.Err(), scanner.ErrMalformedResponse)
		assert.NotErrorIs(t, cur.Err(), scanner.ErrEndOfEnumeration)
	})
}

// TestScan tests the complete scan over a mocked chain
func TestScan(t *testing.T) {
	t.Parallel()

	t.Run("it returns exactly the events inside the window in order", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.addNomination(450, since-12, "0x00000000000000000000000000000000000000a1", 5)
		fc.addNomination(500, since, "0x00000000000000000000000000000000000000a2", 7)
		fc.addNomination(700, since+100, "0x00000000000000000000000000000000000000a3", 9)
		sc := scannerAt(fc)

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(400), result.FromBlock, "span 600 below head 1000")
		assert.Equal(t, uint64(1000), result.ToBlock)
		assert.Equal(t, [2]uint64{400, 1000}, fc.fetchedRange)
		require.Len(t, result.Events, 2)
		assert.Equal(t, uint64(500), result.Events[0].BlockNumber)
		assert.Equal(t, uint64(since), result.Events[0].BlockTimestamp, "boundary event is kept")
		assert.Equal(t, uint64(700), result.Events[1].BlockNumber)
	})

	t.Run("it reads the term for reporting", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.termExpiresAt = since + 86_400
		sc := scannerAt(fc)

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, since+86_400, result.Term.ExpiresAt)
	})

	t.Run("it treats an empty window as a valid result", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.addNomination(450, since-1, "0x00000000000000000000000000000000000000a1", 5)
		sc := scannerAt(fc)

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, result.Events)
		assert.Empty(t, result.Nominators)
	})

	t.Run("it clamps the range at genesis on a young chain", func(t *testing.T) {
		t.Parallel()

		// Arrange
		sc := scannerAt(chainAtHead(100))

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(0), result.FromBlock)
		assert.Equal(t, uint64(100), result.ToBlock)
	})

	t.Run("it aborts with no events when the log fetch fails", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.addNomination(500, since, "0x00000000000000000000000000000000000000a2", 7)
		fc.logsErr = fmt.Errorf("%w: connection reset", chain.ErrRPC)
		sc := scannerAt(fc)

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		assert.ErrorIs(t, err, scanner.ErrUpstreamUnavailable)
		assert.Nil(t, result.Events)
		assert.Nil(t, result.Entities)
	})

	t.Run("it aborts when the term cannot be read", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.termErr = fmt.Errorf("%w: timeout", chain.ErrRPC)
		sc := scannerAt(fc)

		// Act
		_, err := sc.Scan(t.Context(), lookback)

		// Assert
		assert.ErrorIs(t, err, scanner.ErrUpstreamUnavailable)
	})

	t.Run("it aborts when a timestamp needed by the trim cannot be read", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.addNomination(450, since-12, "0x00000000000000000000000000000000000000a1", 5)
		fc.timestampErr = fmt.Errorf("%w: header", chain.ErrRPC)
		sc := scannerAt(fc)

		// Act
		_, err := sc.Scan(t.Context(), lookback)

		// Assert
		assert.ErrorIs(t, err, scanner.ErrUpstreamUnavailable)
	})

	t.Run("it reports a log with an unexpected shape as malformed", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.addNomination(500, since, "0x00000000000000000000000000000000000000a2", 7)
		fc.logs[0].Fields[chain.FieldPixels] = "seven"
		sc := scannerAt(fc)

		// Act
		_, err := sc.Scan(t.Context(), lookback)

		// Assert
		assert.ErrorIs(t, err, scanner.ErrMalformedResponse)
	})

	t.Run("it rejects a non-positive lookback", func(t *testing.T) {
		t.Parallel()

		// Arrange
		sc := scannerAt(chainAtHead(1000))

		// Act
		_, err := sc.Scan(t.Context(), 0)

		// Assert
		assert.ErrorIs(t, err, scanner.ErrInvalidWindow)
	})

	t.Run("it resolves every kept timestamp on request, once per block", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.addNomination(500, since, "0x00000000000000000000000000000000000000a1", 1)
		fc.addNomination(600, since+10, "0x00000000000000000000000000000000000000a2", 2)
		fc.addNomination(600, since+10, "0x00000000000000000000000000000000000000a3", 3)
		sc := scannerAt(fc, scanner.WithResolveAllTimestamps(true))

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		assertTimestamps(t, result.Events, uint64(since), uint64(since+10), uint64(since+10))
		assert.Equal(t, 2, fc.timestampCalls, "block 600 should be read once")
	})

	t.Run("it leaves kept timestamps unresolved by default", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.addNomination(500, since, "0x00000000000000000000000000000000000000a1", 1)
		fc.addNomination(600, since+10, "0x00000000000000000000000000000000000000a2", 2)
		sc := scannerAt(fc)

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		require.Len(t, result.Events, 2)
		assert.Zero(t, result.Events[1].BlockTimestamp)
		assert.Equal(t, 1, fc.timestampCalls)
	})
}

// TestScanEntities tests entity enumeration and resolution inside a scan
func TestScanEntities(t *testing.T) {
	t.Parallel()

	t.Run("it returns no entities when nothing is nominated", func(t *testing.T) {
		t.Parallel()

		// Arrange
		sc := scannerAt(chainAtHead(1000))

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, result.Entities)
		assert.NoError(t, result.Incomplete)
	})

	t.Run("it resolves every nominated token", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000, 10, 20)
		sc := scannerAt(fc)

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, map[string]scanner.NominatedEntity{
			"10": entity(10),
			"20": entity(20),
		}, result.Entities)
	})

	t.Run("it keeps one entry for a token listed twice", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000, 10, 20, 10)
		sc := scannerAt(fc)

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		assert.Len(t, result.Entities, 2)
		assert.Equal(t, 2, result.Discovered)
		assert.Equal(t, 2, fc.resolutionsOf(10), "token 10 should be resolved once (two reads)")
	})

	t.Run("it keeps entities resolved before a failure", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000, 1, 2, 3, 4, 5)
		fc.addNomination(500, since, "0x00000000000000000000000000000000000000a1", 1)
		fc.termExpiresAt = since + 60
		fc.failResolveOf = 3
		sc := scannerAt(fc)

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err, "a resolution failure is not fatal")
		assert.ErrorIs(t, result.Incomplete, scanner.ErrUpstreamUnavailable)
		assert.Equal(t, map[string]scanner.NominatedEntity{
			"1": entity(1),
			"2": entity(2),
		}, result.Entities)
		assert.Equal(t, 5, result.Discovered)
		assert.Len(t, result.Events, 1)
		assert.Equal(t, since+60, result.Term.ExpiresAt)
	})

	t.Run("it aborts when enumeration fails for a reason other than the end", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000, 1, 2, 3)
		fc.tokenErrAt = 2
		sc := scannerAt(fc)

		// Act
		_, err := sc.Scan(t.Context(), lookback)

		// Assert
		assert.ErrorIs(t, err, scanner.ErrUpstreamUnavailable)
	})

	t.Run("it aborts when the enumeration cap is exceeded", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000, 1, 2, 3, 4)
		sc := scannerAt(fc, scanner.WithMaxEnumeration(2))

		// Act
		_, err := sc.Scan(t.Context(), lookback)

		// Assert
		assert.ErrorIs(t, err, scanner.ErrMalformedResponse)
	})

	t.Run("it pins token reads to the head block of the scan", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000, 1, 2)
		sc := scannerAt(fc)

		// Act
		_, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		require.NotEmpty(t, fc.pinnedAt)
		for _, at := range fc.pinnedAt {
			assert.Equal(t, big.NewInt(1000), at)
		}
	})

	t.Run("it tallies nominators with the configured policy", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fc := chainAtHead(1000)
		fc.addNomination(500, since, "0x00000000000000000000000000000000000000a1", 4)
		fc.addNomination(600, since+1, "0x00000000000000000000000000000000000000a1", 6)
		sc := scannerAt(fc, scanner.WithTallyPolicy(scanner.TallyLatest))

		// Act
		result, err := sc.Scan(t.Context(), lookback)

		// Assert
		require.NoError(t, err)
		require.Len(t, result.Nominators, 1)
		assert.Equal(t, int64(6), result.Nominators[0].Pixels)
		assert.Equal(t, 2, result.Nominators[0].Nominations)
	})
}

// TestTally tests per nominator aggregation
func TestTally(t *testing.T) {
	t.Parallel()

	events := []scanner.NominationEvent{
		{Nominator: "0xA", Pixels: 3},
		{Nominator: "0xB", Pixels: 1},
		{Nominator: "0xA", Pixels: 5},
	}

	t.Run("it sums pixels under the cumulative policy", func(t *testing.T) {
		t.Parallel()

		tallies := scanner.Tally(events, scanner.TallyCumulative)

		assert.Equal(t, []scanner.NominatorTally{
			{Nominator: "0xA", Nominations: 2, Pixels: 8},
			{Nominator: "0xB", Nominations: 1, Pixels: 1},
		}, tallies)
	})

	t.Run("it keeps the last nomination under the latest policy", func(t *testing.T) {
		t.Parallel()

		tallies := scanner.Tally(events, scanner.TallyLatest)

		assert.Equal(t, []scanner.NominatorTally{
			{Nominator: "0xA", Nominations: 2, Pixels: 5},
			{Nominator: "0xB", Nominations: 1, Pixels: 1},
		}, tallies)
	})

	t.Run("it parses policy names", func(t *testing.T) {
		t.Parallel()

		p, err := scanner.ParseTallyPolicy(" Latest ")
		require.NoError(t, err)
		assert.Equal(t, scanner.TallyLatest, p)

		_, err = scanner.ParseTallyPolicy("median")
		assert.ErrorIs(t, err, scanner.ErrInvalidTallyPolicy)
	})
}

// Test data helpers

func eventsAtTimestamps(timestamps ...uint64) []scanner.NominationEvent {
	events := make([]scanner.NominationEvent, len(timestamps))
	for i, ts := range timestamps {
		// block number doubles as the timestamp for resolverFromBlockNumber
		events[i] = scanner.NominationEvent{BlockNumber: ts, LogIndex: uint(i)}
	}
	return events
}

func resolverFromBlockNumber() (scanner.TimestampResolver, *int) {
	calls := 0
	return func(_ context.Context, ev scanner.NominationEvent) (uint64, error) {
		calls++
		return ev.BlockNumber, nil
	}, &calls
}

func entity(tokenID int64) scanner.NominatedEntity {
	return scanner.NominatedEntity{
		TokenID:          fmt.Sprint(tokenID),
		NominatedTokenID: fmt.Sprint(tokenID + 1000),
		PixelCount:       tokenID * 10,
	}
}

func chainWithTokens(tokens ...int64) *fakeChain {
	return &fakeChain{tokens: tokens, tokenErrAt: -1, timestamps: map[uint64]uint64{}}
}

func chainAtHead(head uint64, tokens ...int64) *fakeChain {
	fc := chainWithTokens(tokens...)
	fc.head = head
	fc.termExpiresAt = since + 3600
	return fc
}

func scannerAt(fc *fakeChain, opts ...scanner.ScanOption) *scanner.Scanner {
	opts = append([]scanner.ScanOption{
		scanner.WithScanClock(clock.NewFixed(now)),
		scanner.WithBlockInterval(10 * time.Second),
	}, opts...)
	return scanner.New(fc, opts...)
}

// Domain-specific assertions

func drain(t *testing.T, cur *scanner.TokenCursor) []string {
	t.Helper()
	var ids []string
	for cur.Next(t.Context()) {
		ids = append(ids, cur.TokenID().String())
	}
	return ids
}

// assertBlocks compares block numbers, which stand in for timestamps in eventsAtTimestamps
func assertBlocks(t *testing.T, events []scanner.NominationEvent, expected ...uint64) {
	t.Helper()
	got := make([]uint64, len(events))
	for i, ev := range events {
		got[i] = ev.BlockNumber
	}
	assert.Equal(t, expected, got, "unexpected event blocks")
}

func assertTimestamps(t *testing.T, events []scanner.NominationEvent, expected ...uint64) {
	t.Helper()
	got := make([]uint64, len(events))
	for i, ev := range events {
		got[i] = ev.BlockTimestamp
	}
	assert.Equal(t, expected, got, "unexpected event timestamps")
}

// Mock implementations

// fakeChain implements scanner.ChainReader over in-memory contract state
type fakeChain struct {
	mu sync.Mutex

	head          uint64
	logs          []chain.Log
	logsErr       error
	timestamps    map[uint64]uint64
	timestampErr  error
	termExpiresAt int64
	termErr       error
	tokens        []int64
	tokenErrAt    int
	tokenRevert   bool
	failResolveOf int64

	fetchedRange   [2]uint64
	timestampCalls int
	pinnedAt       []*big.Int
	resolutions    map[int64]int
}

func (f *fakeChain) addNomination(block uint64, ts int64, nominator string, pixels int64) {
	f.timestamps[block] = uint64(ts)
	f.logs = append(f.logs, chain.Log{
		BlockNumber: block,
		BlockHash:   common.BigToHash(new(big.Int).SetUint64(block)),
		TxHash:      common.BigToHash(big.NewInt(int64(len(f.logs) + 1))),
		Index:       uint(len(f.logs)),
		Fields: map[string]any{
			chain.FieldTermNumber: big.NewInt(1),
			chain.FieldNominator:  common.HexToAddress(nominator),
			chain.FieldPixels:     big.NewInt(pixels),
		},
	})
}

func (f *fakeChain) resolutionsOf(tokenID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolutions[tokenID]
}

func (f *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeChain) FetchLogs(_ context.Context, _ string, from, to uint64) ([]chain.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchedRange = [2]uint64{from, to}
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	var out []chain.Log
	for _, lg := range f.logs {
		if lg.BlockNumber >= from && lg.BlockNumber <= to {
			out = append(out, lg)
		}
	}
	return out, nil
}

func (f *fakeChain) BlockTimestamp(_ context.Context, ref chain.BlockRef) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timestampCalls++
	if f.timestampErr != nil {
		return 0, f.timestampErr
	}
	ts, ok := f.timestamps[ref.Number]
	if !ok {
		return 0, fmt.Errorf("%w: %w", chain.ErrRPC, chain.ErrBlockNotFound)
	}
	return ts, nil
}

func (f *fakeChain) Call(_ context.Context, at *big.Int, method string, args ...any) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch method {
	case chain.MethodTermExpiresAt:
		if f.termErr != nil {
			return nil, f.termErr
		}
		return []any{big.NewInt(f.termExpiresAt)}, nil

	case chain.MethodNominatedTokens:
		f.pinnedAt = append(f.pinnedAt, at)
		idx := int(args[0].(*big.Int).Int64())
		if idx == f.tokenErrAt {
			if f.tokenRevert {
				return nil, fmt.Errorf("%w: Unauthorized()", chain.ErrExecutionReverted)
			}
			return nil, fmt.Errorf("%w: 502 bad gateway", chain.ErrRPC)
		}
		if idx >= len(f.tokens) {
			return nil, fmt.Errorf("%w: %w: panic 0x32", chain.ErrExecutionReverted, chain.ErrIndexOutOfRange)
		}
		return []any{big.NewInt(f.tokens[idx])}, nil

	case chain.MethodNominations, chain.MethodNominationPixels:
		f.pinnedAt = append(f.pinnedAt, at)
		id := args[0].(*big.Int).Int64()
		if f.resolutions == nil {
			f.resolutions = map[int64]int{}
		}
		f.resolutions[id]++
		if id == f.failResolveOf {
			return nil, fmt.Errorf("%w: 429 too many requests", chain.ErrRPC)
		}
		if method == chain.MethodNominations {
			return []any{big.NewInt(id + 1000)}, nil
		}
		return []any{big.NewInt(id * 10)}, nil
	}

	return nil, fmt.Errorf("%w: %s", chain.ErrNotInABI, method)
}
