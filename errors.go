package slotengine

import (
	"errors"
	"fmt"
)

// Kind is the closed taxonomy of user-meaningful failure kinds. Every
// error the engine surfaces carries exactly one Kind; anything the
// classifier cannot place maps to KindUnknown and is surfaced verbatim.
type Kind uint8

const (
	// KindUnknown covers anything the classifier could not place.
	KindUnknown Kind = iota
	// KindUserRejected: the wallet-level signature prompt was declined.
	KindUserRejected
	// KindInsufficientFunds: balance below fee plus gas.
	KindInsufficientFunds
	// KindPoolTooSmall: not enough assets in the pool to satisfy a commit.
	KindPoolTooSmall
	// KindPendingCommitmentExists: a commit was attempted while one is
	// outstanding. The owner must reveal or cancel first.
	KindPendingCommitmentExists
	// KindNotTokenOwner: the deposit asset is no longer owned by the caller.
	KindNotTokenOwner
	// KindInsufficientFee: value sent below the contract's play fee.
	KindInsufficientFee
	// KindInvalidSecret: the reveal secret does not hash-match the
	// commitment.
	KindInvalidSecret
	// KindTooEarly: reveal attempted before the reveal delay elapsed.
	KindTooEarly
	// KindExpired: reveal attempted after the expiry window. The only
	// remaining action is cancel.
	KindExpired
	// KindNoCommitment: the operation needs an active commitment and
	// the ledger reports none.
	KindNoCommitment
	// KindMissingSecret: a commitment exists but no secret is available
	// locally and none was supplied. Terminal from the engine's point
	// of view; funds stay locked until expiry plus cancel.
	KindMissingSecret
	// KindSimulationFailed: an unclassified revert during a dry run.
	KindSimulationFailed
)

func (k Kind) String() string {
	switch k {
	case KindUserRejected:
		return "UserRejected"
	case KindInsufficientFunds:
		return "InsufficientFunds"
	case KindPoolTooSmall:
		return "PoolTooSmall"
	case KindPendingCommitmentExists:
		return "PendingCommitmentExists"
	case KindNotTokenOwner:
		return "NotTokenOwner"
	case KindInsufficientFee:
		return "InsufficientFee"
	case KindInvalidSecret:
		return "InvalidSecret"
	case KindTooEarly:
		return "TooEarly"
	case KindExpired:
		return "Expired"
	case KindNoCommitment:
		return "NoCommitment"
	case KindMissingSecret:
		return "MissingSecret"
	case KindSimulationFailed:
		return "SimulationFailed"
	case KindUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Retryable reports whether an immediate user-initiated retry of the
// same operation can possibly succeed without outside intervention.
func (k Kind) Retryable() bool {
	switch k {
	case KindUserRejected, KindPoolTooSmall, KindInsufficientFee, KindTooEarly:
		return true
	default:
		return false
	}
}

// Error is a classified engine failure: a Kind plus human-readable
// detail, optionally wrapping the raw cause.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a classified error.
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// WrapError creates a classified error wrapping a cause.
func WrapError(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the Kind from an error chain. Unclassified errors
// report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether the error chain carries the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
