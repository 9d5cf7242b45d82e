package scanner

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/screwyprof/sortition/pkg/chain"
	"github.com/screwyprof/sortition/pkg/clock"
)

// ScanOption configures the Scanner
// ------------------------------------------------
type ScanOption func(*Scanner)

// WithBlockInterval sets the pessimistic block interval used to size the block range
func WithBlockInterval(d time.Duration) ScanOption {
	return func(s *Scanner) {
		if d > 0 {
			s.blockInterval = d
		}
	}
}

// WithMaxEnumeration caps how many token indices a scan walks
func WithMaxEnumeration(n int) ScanOption {
	return func(s *Scanner) {
		if n > 0 {
			s.maxEnumeration = n
		}
	}
}

// WithTallyPolicy sets how repeated nominations are combined
func WithTallyPolicy(p TallyPolicy) ScanOption {
	return func(s *Scanner) { s.policy = p }
}

// WithResolveAllTimestamps resolves the block timestamp of every kept event,
// not only those inspected by the trim
func WithResolveAllTimestamps(enabled bool) ScanOption {
	return func(s *Scanner) { s.resolveAll = enabled }
}

// WithScanClock injects the clock that anchors Scan windows
func WithScanClock(c Clock) ScanOption {
	return func(s *Scanner) { s.clock = c }
}

// Scanner reconstructs the nomination activity of a recent time window
// ---------------------------------------------------------------------
type Scanner struct {
	reader         ChainReader
	clock          Clock
	blockInterval  time.Duration
	maxEnumeration int
	policy         TallyPolicy
	resolveAll     bool
}

// New constructs a Scanner.
// By default, it assumes 10s blocks, walks at most 10000 tokens and tallies cumulatively.
func New(reader ChainReader, opts ...ScanOption) *Scanner {
	s := &Scanner{
		reader:         reader,
		clock:          clock.SystemClock{},
		blockInterval:  DefaultBlockInterval,
		maxEnumeration: DefaultMaxEnumeration,
		policy:         TallyCumulative,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan covers the lookbackSeconds leading up to now
func (s *Scanner) Scan(ctx context.Context, lookbackSeconds int64) (Result, error) {
	window, err := NewTimeWindow(lookbackSeconds, s.clock.Now())
	if err != nil {
		return Result{}, err
	}
	return s.ScanWindow(ctx, window)
}

// ScanWindow reads the term, the nominations emitted inside window and the
// currently nominated tokens.
//
// Failures reading the term, the head block, the logs or the timestamps
// needed by the trim abort the scan, as do enumeration failures other than
// the end of the token array. A failure while resolving a token keeps the
// tokens resolved before it and is reported in Result.Incomplete.
func (s *Scanner) ScanWindow(ctx context.Context, window TimeWindow) (Result, error) {
	if window.LookbackSeconds <= 0 {
		return Result{}, fmt.Errorf("%w: lookback must be positive, got %d", ErrInvalidWindow, window.LookbackSeconds)
	}

	term, err := s.readTerm(ctx)
	if err != nil {
		return Result{}, err
	}

	latest, err := s.reader.LatestBlockNumber(ctx)
	if err != nil {
		return Result{}, classify("latest block", err)
	}
	from, to := blockRange(latest, ApproxBlockSpan(window.LookbackSeconds, s.blockInterval))

	events, err := s.fetchEvents(ctx, from, to)
	if err != nil {
		return Result{}, err
	}

	resolve := s.cachedResolver()
	events, err = TrimBefore(ctx, events, window.Since(), resolve)
	if err != nil {
		return Result{}, err
	}
	if s.resolveAll {
		if err := resolveTimestamps(ctx, events, resolve); err != nil {
			return Result{}, err
		}
	}

	// token reads are pinned to the head the logs were fetched up to
	at := new(big.Int).SetUint64(to)
	ids, err := collectTokenIDs(ctx, NewTokenCursor(s.reader, at, s.maxEnumeration))
	if err != nil {
		return Result{}, err
	}

	entities, incomplete := s.resolveEntities(ctx, at, ids)

	return Result{
		Window:     window,
		Term:       term,
		FromBlock:  from,
		ToBlock:    to,
		Events:     events,
		Entities:   entities,
		Discovered: len(ids),
		Nominators: Tally(events, s.policy),
		Incomplete: incomplete,
	}, nil
}

func (s *Scanner) readTerm(ctx context.Context) (Term, error) {
	values, err := s.reader.Call(ctx, nil, chain.MethodTermExpiresAt)
	if err != nil {
		return Term{}, classify(chain.MethodTermExpiresAt, err)
	}
	expiresAt, err := int64Result(chain.MethodTermExpiresAt, values)
	if err != nil {
		return Term{}, err
	}
	return Term{ExpiresAt: expiresAt}, nil
}

func (s *Scanner) fetchEvents(ctx context.Context, from, to uint64) ([]NominationEvent, error) {
	logs, err := s.reader.FetchLogs(ctx, chain.EventNominated, from, to)
	if err != nil {
		return nil, classify(fmt.Sprintf("fetch logs %d-%d", from, to), err)
	}

	events := make([]NominationEvent, 0, len(logs))
	for _, lg := range logs {
		ev, err := toNominationEvent(lg)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// cachedResolver resolves block timestamps, reading each block at most once per scan
func (s *Scanner) cachedResolver() TimestampResolver {
	byHash := make(map[common.Hash]uint64)
	return func(ctx context.Context, ev NominationEvent) (uint64, error) {
		if ts, ok := byHash[ev.BlockHash]; ok && ev.BlockHash != (common.Hash{}) {
			return ts, nil
		}
		ts, err := s.reader.BlockTimestamp(ctx, ev.BlockRef())
		if err != nil {
			return 0, classify(fmt.Sprintf("block timestamp %d", ev.BlockNumber), err)
		}
		byHash[ev.BlockHash] = ts
		return ts, nil
	}
}

func resolveTimestamps(ctx context.Context, events []NominationEvent, resolve TimestampResolver) error {
	for i := range events {
		if events[i].BlockTimestamp != 0 {
			continue
		}
		ts, err := resolve(ctx, events[i])
		if err != nil {
			return err
		}
		events[i].BlockTimestamp = ts
	}
	return nil
}

// resolveEntities reads the nomination details of every token, stopping at the first failure
func (s *Scanner) resolveEntities(ctx context.Context, at *big.Int, ids []*big.Int) (map[string]NominatedEntity, error) {
	entities := make(map[string]NominatedEntity, len(ids))
	for _, id := range ids {
		entity, err := s.resolveEntity(ctx, at, id)
		if err != nil {
			return entities, err
		}
		entities[entity.TokenID] = entity
	}
	return entities, nil
}

func (s *Scanner) resolveEntity(ctx context.Context, at *big.Int, id *big.Int) (NominatedEntity, error) {
	values, err := s.reader.Call(ctx, at, chain.MethodNominations, id)
	if err != nil {
		return NominatedEntity{}, classify(fmt.Sprintf("%s(%s)", chain.MethodNominations, id), err)
	}
	nominated, err := uintResult(chain.MethodNominations, values)
	if err != nil {
		return NominatedEntity{}, err
	}

	values, err = s.reader.Call(ctx, at, chain.MethodNominationPixels, id)
	if err != nil {
		return NominatedEntity{}, classify(fmt.Sprintf("%s(%s)", chain.MethodNominationPixels, id), err)
	}
	pixels, err := int64Result(chain.MethodNominationPixels, values)
	if err != nil {
		return NominatedEntity{}, err
	}

	return NominatedEntity{
		TokenID:          id.String(),
		NominatedTokenID: nominated.String(),
		PixelCount:       pixels,
	}, nil
}
