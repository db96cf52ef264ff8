package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gologme/log"
	"github.com/holiman/uint256"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// RevealResult is what a confirmed reveal yields. OutcomeKnown is
// false when the receipt carried no decodable GameRevealed event: the
// ledger state change stands either way, so the reveal is reported as
// successful with the outcome deferred to the history backend.
type RevealResult struct {
	Receipt      types.Receipt
	Outcome      types.OutcomeEvent
	OutcomeKnown bool
}

// Reveal drives the reveal for owner. The secret is resolved in order:
// the caller-supplied value if non-nil, else the local session store.
// With neither, the reveal fails MissingSecret — the engine never
// guesses a secret.
//
// The session record is deleted only after the reveal is confirmed.
func (e *Engine) Reveal(ctx context.Context, owner common.Address, secret *uint256.Int) (RevealResult, error) {
	guard := e.guards.forOwner(owner)
	if err := guard.acquire(types.CallReveal); err != nil {
		return RevealResult{}, err
	}
	defer guard.release()

	commitment, err := e.ledger.Commitment(ctx, owner)
	if err != nil {
		return RevealResult{}, fmt.Errorf("read commitment: %w", err)
	}
	height, err := e.ledger.CurrentHeight(ctx)
	if err != nil {
		return RevealResult{}, fmt.Errorf("read height: %w", err)
	}

	switch state := commitment.StateAt(height); state {
	case types.StateRevealEligible:
		// proceed
	case types.StateNone:
		return RevealResult{}, slotengine.NewError(slotengine.KindNoCommitment, "nothing to reveal")
	case types.StateRevealLocked:
		return RevealResult{}, slotengine.NewError(slotengine.KindTooEarly,
			fmt.Sprintf("eligible at block %d, current %d", commitment.RevealEligibleAt(), height))
	case types.StateExpired:
		return RevealResult{}, slotengine.NewError(slotengine.KindExpired,
			fmt.Sprintf("expired at block %d, current %d; cancel to recover the fee", commitment.ExpiresAt(), height))
	default:
		return RevealResult{}, slotengine.NewError(slotengine.KindUnknown,
			fmt.Sprintf("unexpected state %s", state))
	}

	if secret == nil {
		rec, ok, err := e.store.Get(owner)
		if err != nil {
			return RevealResult{}, fmt.Errorf("read session record: %w", err)
		}
		if !ok {
			// A commitment without a local secret cannot be revealed
			// from this device. Terminal here: funds stay locked
			// until expiry plus cancel.
			return RevealResult{}, slotengine.NewError(slotengine.KindMissingSecret,
				fmt.Sprintf("commitment from block %d has no local secret", commitment.CommitBlock))
		}
		secret = rec.SecretValue()
	}

	call := types.RevealCall(owner, secret)
	if err := e.simulateCall(ctx, call); err != nil {
		return RevealResult{}, err
	}

	guard.advance(phaseSubmitting)
	pending, err := e.ledger.Submit(ctx, call)
	if err != nil {
		return RevealResult{}, e.classifySubmit(err)
	}
	e.setPending(owner, &pending)
	defer e.clearPending(owner)

	guard.advance(phaseConfirming)
	receipt, err := e.awaitWithin(ctx, pending.Hash)
	if err != nil {
		return RevealResult{}, fmt.Errorf("reveal unconfirmed: %w", err)
	}
	if !receipt.OK() {
		return RevealResult{}, slotengine.NewError(slotengine.KindSimulationFailed,
			fmt.Sprintf("reveal reverted on chain in block %d", receipt.Height))
	}

	result := RevealResult{Receipt: receipt}
	if outcome, ok := types.DecodeOutcome(receipt, e.contract); ok {
		result.Outcome = outcome
		result.OutcomeKnown = true
		e.subs.publish(Event{Kind: EventOutcome, Owner: owner, State: types.StateRevealed, Outcome: &outcome})
	} else {
		log.Warnf("reveal for %s confirmed without an outcome event, check history", owner)
	}

	e.clearSession(owner)
	e.noteState(owner, types.StateRevealed)
	log.Infof("reveal for %s confirmed in block %d", owner, receipt.Height)
	return result, nil
}
