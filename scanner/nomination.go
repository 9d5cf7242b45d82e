package scanner

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/screwyprof/sortition/pkg/chain"
)

// NominationEvent is one Nominated log inside the scanned range.
// BlockTimestamp is zero until resolved.
type NominationEvent struct {
	TermNumber     int64
	Nominator      string
	Pixels         int64
	BlockNumber    uint64
	BlockHash      common.Hash
	TxHash         common.Hash
	LogIndex       uint
	BlockTimestamp uint64
}

// BlockRef addresses the block the event was emitted in
func (e NominationEvent) BlockRef() chain.BlockRef {
	return chain.BlockRef{Hash: e.BlockHash, Number: e.BlockNumber}
}

// NominatedEntity is a token nominated for the current term
type NominatedEntity struct {
	TokenID          string
	NominatedTokenID string
	PixelCount       int64
}

// Term is the current sortition term
type Term struct {
	ExpiresAt int64
}

// Result is everything one scan produced
type Result struct {
	Window     TimeWindow
	Term       Term
	FromBlock  uint64
	ToBlock    uint64
	Events     []NominationEvent
	Entities   map[string]NominatedEntity
	Discovered int
	Nominators []NominatorTally
	// Incomplete is set when entity resolution stopped early;
	// Entities then holds only the tokens resolved before the failure.
	Incomplete error
}

// toNominationEvent converts a decoded Nominated log
func toNominationEvent(lg chain.Log) (NominationEvent, error) {
	term, err := int64Field(lg, chain.FieldTermNumber)
	if err != nil {
		return NominationEvent{}, err
	}
	pixels, err := int64Field(lg, chain.FieldPixels)
	if err != nil {
		return NominationEvent{}, err
	}
	nominator, ok := lg.Fields[chain.FieldNominator].(common.Address)
	if !ok {
		return NominationEvent{}, fmt.Errorf("%w: %s at %d/%d is %T",
			ErrMalformedResponse, chain.FieldNominator, lg.BlockNumber, lg.Index, lg.Fields[chain.FieldNominator])
	}

	return NominationEvent{
		TermNumber:  term,
		Nominator:   nominator.Hex(),
		Pixels:      pixels,
		BlockNumber: lg.BlockNumber,
		BlockHash:   lg.BlockHash,
		TxHash:      lg.TxHash,
		LogIndex:    lg.Index,
	}, nil
}

func int64Field(lg chain.Log, name string) (int64, error) {
	v, ok := lg.Fields[name].(*big.Int)
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s at %d/%d is %T", ErrMalformedResponse, name, lg.BlockNumber, lg.Index, lg.Fields[name])
	}
	if v.Sign() < 0 || !v.IsInt64() {
		return 0, fmt.Errorf("%w: %s at %d/%d out of range: %s", ErrMalformedResponse, name, lg.BlockNumber, lg.Index, v)
	}
	return v.Int64(), nil
}

// uintResult extracts the single uint256 return value of a contract call
func uintResult(method string, values []any) (*big.Int, error) {
	if len(values) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d values", ErrMalformedResponse, method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s returned %T", ErrMalformedResponse, method, values[0])
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s returned negative %s", ErrMalformedResponse, method, v)
	}
	return v, nil
}

// int64Result is uintResult narrowed to values that fit an int64
func int64Result(method string, values []any) (int64, error) {
	v, err := uintResult(method, values)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("%w: %s returned %s, want int64", ErrMalformedResponse, method, v)
	}
	return v.Int64(), nil
}
