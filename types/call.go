package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CallKind selects which contract function a Call targets.
type CallKind uint8

const (
	// CallCommit: commit(depositAssetId, depositTier, secretHash) payable.
	CallCommit CallKind = 1
	// CallReveal: reveal(secret).
	CallReveal CallKind = 2
	// CallCancel: cancelCommitment().
	CallCancel CallKind = 3
)

func (k CallKind) String() string {
	switch k {
	case CallCommit:
		return "Commit"
	case CallReveal:
		return "Reveal"
	case CallCancel:
		return "Cancel"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Call is a single contract invocation, self-describing enough for
// both simulation and submission. Fields beyond the ones the Kind
// needs are left zero.
type Call struct {
	Kind  CallKind       `cramberry:"1"`
	Owner common.Address `cramberry:"2"`

	// Commit fields.
	DepositAssetID uint64 `cramberry:"3"`
	DepositTier    uint8  `cramberry:"4"`
	// Fee is the transaction value, big-endian 32 bytes.
	Fee [32]byte `cramberry:"5"`

	// Commit carries the hash of the secret; Reveal carries the
	// secret itself, big-endian 32 bytes.
	SecretHash common.Hash `cramberry:"6"`
	Secret     [32]byte    `cramberry:"7"`
}

// CommitCall builds a commit invocation.
func CommitCall(owner common.Address, assetID uint64, tier uint8, secretHash common.Hash, fee *uint256.Int) Call {
	c := Call{
		Kind:           CallCommit,
		Owner:          owner,
		DepositAssetID: assetID,
		DepositTier:    tier,
		SecretHash:     secretHash,
	}
	if fee != nil {
		c.Fee = fee.Bytes32()
	}
	return c
}

// RevealCall builds a reveal invocation.
func RevealCall(owner common.Address, secret *uint256.Int) Call {
	return Call{
		Kind:   CallReveal,
		Owner:  owner,
		Secret: secret.Bytes32(),
	}
}

// CancelCall builds a cancel invocation.
func CancelCall(owner common.Address) Call {
	return Call{Kind: CallCancel, Owner: owner}
}

// FeeValue returns the transaction value as a uint256.
func (c Call) FeeValue() *uint256.Int {
	return new(uint256.Int).SetBytes32(c.Fee[:])
}

// SecretValue returns the reveal secret as a uint256.
func (c Call) SecretValue() *uint256.Int {
	return new(uint256.Int).SetBytes32(c.Secret[:])
}

// SimResult is the outcome of a dry run: either a gas estimate or the
// revert reason. A revert during simulation is a result, not a
// transport error — it is exactly the information the dry run exists
// to recover.
type SimResult struct {
	GasEstimate uint64 `cramberry:"1"`
	Reverted    bool   `cramberry:"2"`
	// Revert reason string, empty unless Reverted.
	Reason string `cramberry:"3"`
}

// OK reports whether the simulated call would succeed.
func (r SimResult) OK() bool { return !r.Reverted }

// PendingTx tracks a submitted transaction while it awaits
// confirmation. It exists only between Submit and the confirmation
// (or definitive failure) of the transaction.
type PendingTx struct {
	Hash        common.Hash `cramberry:"1"`
	Kind        CallKind    `cramberry:"2"`
	SubmittedAt Timestamp   `cramberry:"3"`
}
