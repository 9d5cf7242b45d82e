package sortition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for nomination criteria construction
var (
	ErrInvalidNominator = errors.New("invalid nominator")
	ErrInvalidPerPage   = errors.New("invalid per_page")
)

// NominationsFinder defines the interface for querying archived nominations
type NominationsFinder interface {
	FindNominations(ctx context.Context, criteria NominationsCriteria) (*NominationsPage, error)
}

// Nomination is one archived Nominated event
type Nomination struct {
	TxHash         string
	LogIndex       int64
	BlockNumber    int64
	BlockHash      string
	BlockTimestamp *time.Time // nil when the scan never resolved it
	TermNumber     int64
	Nominator      string
	Pixels         int64
}

// Nominator is a checksummed account address. The zero value means no filter.
type Nominator string

// ParseNominator accepts a hex address with or without the 0x prefix
func ParseNominator(s string) (Nominator, error) {
	if s == "" {
		return "", nil
	}
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%q is not a hex address", s)
	}
	return Nominator(common.HexToAddress(s).Hex()), nil
}

func (n Nominator) String() string { return string(n) }

// NominationsCriteria specifies criteria for querying nominations
type NominationsCriteria struct {
	Nominator Nominator
	Page      Page
	Size      PerPage
}

// ItemsPerPage returns the number of items requested per page
func (c NominationsCriteria) ItemsPerPage() uint64 {
	return c.Size.Uint64()
}

// ItemsToSkip returns the number of items to skip for pagination
func (c NominationsCriteria) ItemsToSkip() uint64 {
	return (c.Page.Uint64() - 1) * c.Size.Uint64()
}

// NewNominationsCriteria validates raw request values. Zero page and per_page take defaults.
func NewNominationsCriteria(nominator string, page, perPage uint64) (NominationsCriteria, error) {
	n, err := ParseNominator(nominator)
	if err != nil {
		return NominationsCriteria{}, fmt.Errorf("%w: %w", ErrInvalidNominator, err)
	}

	pp, err := ParsePerPageFromUint64(perPage)
	if err != nil {
		return NominationsCriteria{}, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
	}

	return NominationsCriteria{
		Nominator: n,
		Page:      ParsePageFromUint64(page),
		Size:      pp,
	}, nil
}
