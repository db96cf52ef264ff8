package slotengine

import "strings"

// classifyRule maps a lowercase substring of a raw failure message to
// a Kind. First match wins, so more specific reasons come first.
type classifyRule struct {
	substr string
	kind   Kind
}

// The ledger layer returns plain revert strings, not structured codes,
// so classification is substring matching against the known contract
// reasons plus the wallet-level failures that never reach the chain.
var classifyRules = []classifyRule{
	// Wallet-level, before anything is broadcast.
	{"user rejected", KindUserRejected},
	{"user denied", KindUserRejected},
	{"rejected by user", KindUserRejected},
	{"insufficient funds", KindInsufficientFunds},

	// Contract revert reasons.
	{"pending commitment exists", KindPendingCommitmentExists},
	{"commitment already exists", KindPendingCommitmentExists},
	{"not enough nfts in pool", KindPoolTooSmall},
	{"pool too small", KindPoolTooSmall},
	{"not token owner", KindNotTokenOwner},
	{"caller is not owner", KindNotTokenOwner},
	{"insufficient fee", KindInsufficientFee},
	{"invalid secret", KindInvalidSecret},
	{"secret mismatch", KindInvalidSecret},
	{"too early to reveal", KindTooEarly},
	{"reveal delay not met", KindTooEarly},
	{"commitment expired", KindExpired},
	{"no active commitment", KindNoCommitment},
	{"no commitment found", KindNoCommitment},
}

// Classify maps a raw revert or wallet failure message to its Kind.
// Unrecognized messages map to KindUnknown.
func Classify(raw string) Kind {
	msg := strings.ToLower(raw)
	for _, r := range classifyRules {
		if strings.Contains(msg, r.substr) {
			return r.kind
		}
	}
	return KindUnknown
}

// ClassifyRevert wraps a simulation revert reason as a classified
// error. Reasons that match no known rule classify as
// KindSimulationFailed rather than KindUnknown: the dry run did fail,
// just not for a reason the engine recognizes.
func ClassifyRevert(reason string) *Error {
	kind := Classify(reason)
	if kind == KindUnknown {
		kind = KindSimulationFailed
	}
	return NewError(kind, reason)
}
