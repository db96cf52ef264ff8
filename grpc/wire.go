package slotgrpc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Transport-specific wrapper types for RPC methods whose interface
// signatures don't map to a single request/response struct.
// These are used only for gRPC serialization boundaries.

// HeightRequest is the (empty) request for Ledger.CurrentHeight.
type HeightRequest struct{}

// HeightResponse wraps the return value of Ledger.CurrentHeight.
type HeightResponse struct {
	Height uint64 `cramberry:"1"`
}

// CommitmentRequest wraps the parameter for Ledger.Commitment.
type CommitmentRequest struct {
	Owner common.Address `cramberry:"1"`
}

// PlayFeeRequest is the (empty) request for Ledger.PlayFee.
type PlayFeeRequest struct{}

// PlayFeeResponse wraps the return value of Ledger.PlayFee.
// The fee travels as big-endian 32 bytes.
type PlayFeeResponse struct {
	Fee [32]byte `cramberry:"1"`
}

// FeeValue returns the fee as a uint256.
func (r PlayFeeResponse) FeeValue() *uint256.Int {
	return new(uint256.Int).SetBytes32(r.Fee[:])
}

// SetFee stores a uint256 fee.
func (r *PlayFeeResponse) SetFee(fee *uint256.Int) {
	r.Fee = fee.Bytes32()
}

// PoolSizeRequest is the (empty) request for Ledger.PoolSize.
type PoolSizeRequest struct{}

// PoolSizeResponse wraps the return value of Ledger.PoolSize.
type PoolSizeResponse struct {
	Size uint64 `cramberry:"1"`
}

// CollectionRequest is the (empty) request for Ledger.Collection.
type CollectionRequest struct{}

// CollectionResponse wraps the return value of Ledger.Collection.
type CollectionResponse struct {
	Address common.Address `cramberry:"1"`
}

// WaitTxRequest wraps the parameter for Ledger.AwaitConfirmation.
type WaitTxRequest struct {
	Hash common.Hash `cramberry:"1"`
}

// WatchHeadsRequest is the (empty) request opening the head stream.
type WatchHeadsRequest struct{}

// HeadEvent is one message on the WatchHeads stream.
type HeadEvent struct {
	Height uint64 `cramberry:"1"`
}
