package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/screwyprof/sortition/pkg/chain"
)

// TokenCursor walks the contract's nominated token array by index.
//
// The contract exposes no length, only an accessor that reverts with an
// out of bounds panic past the last index; that revert ends the walk. Any
// other failure, other reverts included, is kept in Err.
// A cursor is single use; build a new one for every scan.
//
//	cur := NewTokenCursor(reader, block, DefaultMaxEnumeration)
//	for cur.Next(ctx) {
//		id := cur.TokenID()
//	}
//	if err := cur.Err(); err != nil { ... }
type TokenCursor struct {
	reader ChainReader
	at     *big.Int
	max    int
	index  int
	token  *big.Int
	err    error
	done   bool
}

// NewTokenCursor returns a cursor reading at block at (nil for latest) that
// gives up after max indices
func NewTokenCursor(reader ChainReader, at *big.Int, max int) *TokenCursor {
	if max <= 0 {
		max = DefaultMaxEnumeration
	}
	return &TokenCursor{reader: reader, at: at, max: max}
}

// Next advances to the next index and reports whether a token was read
func (c *TokenCursor) Next(ctx context.Context) bool {
	if c.done {
		return false
	}

	if c.index >= c.max {
		// one probe past the cap tells a clean end from a runaway accessor
		c.done = true
		_, err := c.read(ctx, c.index)
		switch {
		case errors.Is(err, ErrEndOfEnumeration):
		case err != nil:
			c.err = err
		default:
			c.err = fmt.Errorf("%w: more than %d tokens", ErrEnumerationCapExceeded, c.max)
		}
		return false
	}

	token, err := c.read(ctx, c.index)
	if err != nil {
		c.done = true
		if !errors.Is(err, ErrEndOfEnumeration) {
			c.err = err
		}
		return false
	}

	c.token = token
	c.index++
	return true
}

// TokenID is the token read by the last successful Next
func (c *TokenCursor) TokenID() *big.Int {
	return c.token
}

// Index is the number of tokens read so far
func (c *TokenCursor) Index() int {
	return c.index
}

// Err returns the failure that stopped the cursor, nil after a clean end
func (c *TokenCursor) Err() error {
	return c.err
}

func (c *TokenCursor) read(ctx context.Context, index int) (*big.Int, error) {
	values, err := c.reader.Call(ctx, c.at, chain.MethodNominatedTokens, big.NewInt(int64(index)))
	if errors.Is(err, chain.ErrIndexOutOfRange) {
		return nil, fmt.Errorf("%w: index %d: %w", ErrEndOfEnumeration, index, err)
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("%s(%d)", chain.MethodNominatedTokens, index), err)
	}
	return uintResult(chain.MethodNominatedTokens, values)
}

// collectTokenIDs drains cur into the unique token IDs in discovery order
func collectTokenIDs(ctx context.Context, cur *TokenCursor) ([]*big.Int, error) {
	seen := make(map[string]struct{})
	var ids []*big.Int
	for cur.Next(ctx) {
		id := cur.TokenID()
		key := id.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ids = append(ids, id)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
