package chain

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Sentinel errors for chain reads
var (
	ErrRPC               = errors.New("rpc request failed")
	ErrExecutionReverted = errors.New("execution reverted")
	ErrIndexOutOfRange   = errors.New("array index out of range")
	ErrABI               = errors.New("abi codec failed")
	ErrNotInABI          = errors.New("entry not in contract abi")
	ErrInvalidAddress    = errors.New("invalid hex address")
	ErrBlockNotFound     = errors.New("block not found")
)

// revertMarkers are the messages nodes attach to a failed eth_call
var revertMarkers = []string{
	"execution reverted",
	"invalid opcode",
	"vm execution error",
}

// panicOutOfBounds is the revert data of Panic(0x32), raised by
// Solidity >=0.8 on an out of bounds array read
var panicOutOfBounds = hexutil.MustDecode("0x4e487b71" +
	"0000000000000000000000000000000000000000000000000000000000000032")

// isRevert reports whether err is the node rejecting the call itself
// rather than the transport failing.
func isRevert(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range revertMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// isIndexOutOfRange reports whether a reverted call failed on an array bound.
// Older compilers hit an invalid opcode instead of a panic and attach no data.
func isIndexOutOfRange(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			if raw, decodeErr := hexutil.Decode(data); decodeErr == nil {
				return bytes.Equal(raw, panicOutOfBounds)
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid opcode") ||
		strings.Contains(msg, "out-of-bounds access")
}
