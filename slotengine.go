// Package slotengine implements the commit-reveal session engine behind
// the swap-for-random-NFT game: one authoritative state machine per
// player, derived from the on-chain commitment record, the local secret
// cache, and any transaction currently in flight.
//
// The package defines the boundary interfaces ([Ledger], [SessionStore],
// [Approver]) and the error taxonomy. The engine itself lives in the
// engine subpackage; transports and stores are pluggable.
package slotengine

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/dominohunter/slotengine/types"
)

// Ledger is the read/write boundary to the external ledger. It is the
// only source of truth for commitment state; everything the engine
// caches locally is advisory.
//
// Implementations must be safe for concurrent use. All methods honor
// context cancellation.
type Ledger interface {
	// CurrentHeight returns the latest mined block height.
	CurrentHeight(ctx context.Context) (uint64, error)

	// Commitment returns the active commitment record for an owner.
	// A commitment with CommitBlock == 0 means "no active commitment";
	// this is a valid result, not an error.
	Commitment(ctx context.Context, owner common.Address) (types.Commitment, error)

	// PlayFee returns the fee the contract currently charges per commit.
	PlayFee(ctx context.Context) (*uint256.Int, error)

	// PoolSize returns the number of assets available in the swap pool.
	PoolSize(ctx context.Context) (uint64, error)

	// Collection returns the address of the NFT collection the pool
	// draws from.
	Collection(ctx context.Context) (common.Address, error)

	// Simulate dry-runs a call against current state without mutating
	// anything. A revert is reported in the result, not as a Go error;
	// the error return covers transport failures only.
	//
	// Simulate is free and must be called before Submit so the precise
	// revert reason is recovered while no gas is at stake.
	Simulate(ctx context.Context, call types.Call) (types.SimResult, error)

	// Submit signs and broadcasts a call. Callers must only submit
	// calls that passed Simulate.
	Submit(ctx context.Context, call types.Call) (types.PendingTx, error)

	// AwaitConfirmation blocks until the transaction is mined or the
	// context expires. A mined-but-reverted transaction is returned as
	// a receipt with Status == 0, not as an error.
	AwaitConfirmation(ctx context.Context, hash common.Hash) (types.Receipt, error)

	// WatchHeads streams new block heights. The stream is a latency
	// optimization only: consumers must treat a head as a trigger for
	// an authoritative re-read, never as state itself. The channel is
	// closed when the context ends.
	WatchHeads(ctx context.Context) (<-chan uint64, error)
}

// SessionStore is the durable local cache of pending secrets, keyed by
// owner. It survives process restarts but is device-bound: a record
// absent here proves nothing about the ledger.
type SessionStore interface {
	// Put stores the record for an owner, replacing any previous one.
	Put(owner common.Address, rec types.SessionRecord) error

	// Get returns the record for an owner. The second return is false
	// when no record exists.
	Get(owner common.Address) (types.SessionRecord, bool, error)

	// Delete removes the record for an owner. Deleting a missing
	// record is not an error.
	Delete(owner common.Address) error

	// Close releases the underlying storage.
	Close() error
}

// Approver is the external asset-approval collaborator. The engine
// requires approval to have completed before a commit is submitted but
// does not own the approval UX.
type Approver interface {
	// EnsureApproved blocks until the deposit asset is authorized for
	// transfer to the protocol, prompting the user if needed.
	EnsureApproved(ctx context.Context, owner common.Address, tokenID uint64) error
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(ctx context.Context, owner common.Address, tokenID uint64) error

// EnsureApproved calls f.
func (f ApproverFunc) EnsureApproved(ctx context.Context, owner common.Address, tokenID uint64) error {
	return f(ctx, owner, tokenID)
}
