// Package types defines the core data types of the commit-reveal
// session engine.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization, shared by the gRPC transport
// and the local session store. Transport concerns (codec
// registration) are handled in the transport packages.
package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Protocol constants. Both are defined by the ledger contract and are
// read-only to the engine.
const (
	// RevealDelay is the number of blocks that must elapse after the
	// commit block before a reveal becomes eligible.
	RevealDelay uint64 = 2

	// ExpiryWindow is the number of blocks after the commit block at
	// which the commitment expires and only cancel remains.
	ExpiryWindow uint64 = 250
)

// CommitmentState is the derived state of a player's commitment.
type CommitmentState uint8

const (
	// StateNone: no active commitment on the ledger.
	StateNone CommitmentState = iota
	// StateCommitPending: a commit transaction is submitted but not
	// yet mined. Known only locally; the ledger still reports None.
	StateCommitPending
	// StateRevealLocked: mined, but the reveal delay has not elapsed.
	StateRevealLocked
	// StateRevealEligible: inside the reveal window.
	StateRevealEligible
	// StateExpired: past the expiry window; only cancel is possible.
	StateExpired
	// StateRevealed: terminal. Observed as the commitment vanishing
	// after a confirmed reveal.
	StateRevealed
	// StateCancelled: terminal. Observed as the commitment vanishing
	// after a confirmed cancel.
	StateCancelled
)

func (s CommitmentState) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateCommitPending:
		return "CommitPending"
	case StateRevealLocked:
		return "RevealLocked"
	case StateRevealEligible:
		return "RevealEligible"
	case StateExpired:
		return "Expired"
	case StateRevealed:
		return "Revealed"
	case StateCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Terminal reports whether the state admits no further transition.
func (s CommitmentState) Terminal() bool {
	return s == StateRevealed || s == StateCancelled
}

// Commitment is the ledger-side record of one player's active
// commitment. The ledger enforces at most one non-terminal commitment
// per owner; this record is the only authoritative proof that a
// commitment exists.
type Commitment struct {
	Owner common.Address `cramberry:"1"`
	// CommitBlock is the height at which the commit transaction was
	// mined. Zero means no active commitment.
	CommitBlock    uint64 `cramberry:"2"`
	DepositAssetID uint64 `cramberry:"3"`
	DepositTier    uint8  `cramberry:"4"`
}

// Active reports whether the record represents a live commitment.
func (c Commitment) Active() bool { return c.CommitBlock != 0 }

// StateAt derives the commitment state at the given block height.
// Terminal states are never derived here: they are transitions the
// reconciler observes, not facts the ledger stores.
func (c Commitment) StateAt(height uint64) CommitmentState {
	switch {
	case c.CommitBlock == 0:
		return StateNone
	case height >= c.CommitBlock+ExpiryWindow:
		return StateExpired
	case height >= c.CommitBlock+RevealDelay:
		return StateRevealEligible
	default:
		return StateRevealLocked
	}
}

// RevealEligibleAt returns the first height at which reveal is allowed.
func (c Commitment) RevealEligibleAt() uint64 { return c.CommitBlock + RevealDelay }

// ExpiresAt returns the first height at which the commitment is expired.
func (c Commitment) ExpiresAt() uint64 { return c.CommitBlock + ExpiryWindow }
