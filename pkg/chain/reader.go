// Package chain reads the sortition contract through an EVM JSON-RPC endpoint
package chain

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"slices"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// DefaultMaxLogRange is the widest block range sent in a single eth_getLogs request
const DefaultMaxLogRange = uint64(2000)

// Backend is the subset of ethclient.Client used by the Reader
type Backend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Log is a decoded contract event
type Log struct {
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	Index       uint
	Fields      map[string]any
}

// BlockRef addresses a block by hash, or by number when the hash is zero
type BlockRef struct {
	Hash   common.Hash
	Number uint64
}

// Option configures the Reader
type Option func(*Reader)

// WithRateLimit caps the request rate sent to the backend; r <= 0 disables the cap
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(rd *Reader) {
		if r <= 0 {
			r = rate.Inf
		}
		rd.limiter = rate.NewLimiter(r, max(burst, 1))
	}
}

// WithMaxLogRange sets the widest block range per eth_getLogs request
func WithMaxLogRange(n uint64) Option {
	return func(rd *Reader) {
		if n > 0 {
			rd.maxLogRange = n
		}
	}
}

// Reader is a read-only view of one contract
type Reader struct {
	backend     Backend
	address     common.Address
	contract    abi.ABI
	limiter     *rate.Limiter
	maxLogRange uint64
}

// NewReader builds a Reader for the sortition contract at address
func NewReader(backend Backend, address common.Address, opts ...Option) (*Reader, error) {
	parsed, err := ParseSortitionABI()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrABI, err)
	}
	r := &Reader{
		backend:     backend,
		address:     address,
		contract:    parsed,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		maxLogRange: DefaultMaxLogRange,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dial connects to an EVM JSON-RPC endpoint over the given HTTP client
func Dial(ctx context.Context, url string, httpClient *http.Client) (*ethclient.Client, error) {
	c, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrRPC, url, err)
	}
	return ethclient.NewClient(c), nil
}

// LatestBlockNumber returns the head block number
func (r *Reader) LatestBlockNumber(ctx context.Context) (uint64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	n, err := r.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: block number: %w", ErrRPC, err)
	}
	return n, nil
}

// BlockTimestamp returns the unix timestamp of the referenced block
func (r *Reader) BlockTimestamp(ctx context.Context, ref BlockRef) (uint64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var (
		header *types.Header
		err    error
	)
	if ref.Hash != (common.Hash{}) {
		header, err = r.backend.HeaderByHash(ctx, ref.Hash)
	} else {
		header, err = r.backend.HeaderByNumber(ctx, new(big.Int).SetUint64(ref.Number))
	}
	if errors.Is(err, ethereum.NotFound) || (err == nil && header == nil) {
		return 0, fmt.Errorf("%w: %w: %s/%d", ErrRPC, ErrBlockNotFound, ref.Hash.Hex(), ref.Number)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: header: %w", ErrRPC, err)
	}
	return header.Time, nil
}

// FetchLogs returns the decoded logs of event emitted by the contract in [from, to],
// ordered by block number and log index
func (r *Reader) FetchLogs(ctx context.Context, event string, from, to uint64) ([]Log, error) {
	ev, ok := r.contract.Events[event]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", ErrNotInABI, event)
	}
	if from > to {
		return nil, nil
	}

	var raw []types.Log
	for start := from; ; start += r.maxLogRange {
		end := min(start+r.maxLogRange-1, to)
		if end < start { // overflow
			end = to
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		logs, err := r.backend.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Addresses: []common.Address{r.address},
			Topics:    [][]common.Hash{{ev.ID}},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: logs %d-%d: %w", ErrRPC, start, end, err)
		}
		raw = append(raw, logs...)

		if end >= to {
			break
		}
	}

	slices.SortStableFunc(raw, func(a, b types.Log) int {
		if c := cmp.Compare(a.BlockNumber, b.BlockNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	decoded := make([]Log, 0, len(raw))
	for _, lg := range raw {
		if lg.Removed {
			continue
		}
		fields, err := decodeEvent(ev, lg)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, Log{
			BlockNumber: lg.BlockNumber,
			BlockHash:   lg.BlockHash,
			TxHash:      lg.TxHash,
			Index:       lg.Index,
			Fields:      fields,
		})
	}
	return decoded, nil
}

// Call runs a read-only contract method at the given block (nil for latest)
// and returns its decoded outputs
func (r *Reader) Call(ctx context.Context, at *big.Int, method string, args ...any) ([]any, error) {
	if _, ok := r.contract.Methods[method]; !ok {
		return nil, fmt.Errorf("%w: method %s", ErrNotInABI, method)
	}

	input, err := r.contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %w", ErrABI, method, err)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	output, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &r.address, Data: input}, at)
	if err != nil {
		if isRevert(err) && isIndexOutOfRange(err) {
			return nil, fmt.Errorf("%w: %w: %s: %w", ErrExecutionReverted, ErrIndexOutOfRange, method, err)
		}
		if isRevert(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrExecutionReverted, method, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrRPC, method, err)
	}

	values, err := r.contract.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %w", ErrABI, method, err)
	}
	return values, nil
}

// decodeEvent unpacks both the data section and the indexed topics of lg
func decodeEvent(ev abi.Event, lg types.Log) (map[string]any, error) {
	fields := make(map[string]any, len(ev.Inputs))
	if err := ev.Inputs.UnpackIntoMap(fields, lg.Data); err != nil {
		return nil, fmt.Errorf("%w: unpack %s data at %d/%d: %w", ErrABI, ev.Name, lg.BlockNumber, lg.Index, err)
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(lg.Topics) < len(indexed)+1 {
		return nil, fmt.Errorf("%w: %s at %d/%d has %d topics", ErrABI, ev.Name, lg.BlockNumber, lg.Index, len(lg.Topics))
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, lg.Topics[1:len(indexed)+1]); err != nil {
		return nil, fmt.Errorf("%w: parse %s topics at %d/%d: %w", ErrABI, ev.Name, lg.BlockNumber, lg.Index, err)
	}
	return fields, nil
}
