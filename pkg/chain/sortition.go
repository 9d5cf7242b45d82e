package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultSortitionAddress is the mainnet sortition contract
const DefaultSortitionAddress = "0xa9a57f7d2A54C1E172a7dC546fEE6e03afdD28E2"

// Sortition contract entries read by the scanner
const (
	EventNominated         = "Nominated"
	MethodTermExpiresAt    = "termExpiresAt"
	MethodNominatedTokens  = "nominatedTokens"
	MethodNominations      = "nominations"
	MethodNominationPixels = "nominationPixels"
)

// Nominated event field names as declared in the ABI
const (
	FieldTermNumber = "termNumber"
	FieldNominator  = "nominator"
	FieldPixels     = "pixels"
)

// SortitionABI is the read-only subset of the sortition contract interface.
// nominatedTokens is the public array getter; it reverts past the last index.
const SortitionABI = `[
	{"anonymous":false,"name":"Nominated","type":"event","inputs":[
		{"indexed":true,"name":"termNumber","type":"uint256"},
		{"indexed":false,"name":"nominator","type":"address"},
		{"indexed":false,"name":"pixels","type":"uint256"}]},
	{"name":"termExpiresAt","type":"function","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint256"}]},
	{"name":"nominatedTokens","type":"function","stateMutability":"view",
		"inputs":[{"name":"index","type":"uint256"}],
		"outputs":[{"name":"","type":"uint256"}]},
	{"name":"nominations","type":"function","stateMutability":"view",
		"inputs":[{"name":"tokenId","type":"uint256"}],
		"outputs":[{"name":"","type":"uint256"}]},
	{"name":"nominationPixels","type":"function","stateMutability":"view",
		"inputs":[{"name":"tokenId","type":"uint256"}],
		"outputs":[{"name":"","type":"uint256"}]}
]`

// ParseSortitionABI parses SortitionABI
func ParseSortitionABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(SortitionABI))
}

// ParseAddress validates a hex contract address
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}
