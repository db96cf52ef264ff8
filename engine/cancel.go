package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gologme/log"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// Cancel cancels an expired commitment, recovering the paid fee. The
// protocol refuses cancellation before expiry; a commitment inside the
// reveal window must be revealed instead.
func (e *Engine) Cancel(ctx context.Context, owner common.Address) (types.Receipt, error) {
	guard := e.guards.forOwner(owner)
	if err := guard.acquire(types.CallCancel); err != nil {
		return types.Receipt{}, err
	}
	defer guard.release()

	commitment, err := e.ledger.Commitment(ctx, owner)
	if err != nil {
		return types.Receipt{}, fmt.Errorf("read commitment: %w", err)
	}
	if !commitment.Active() {
		return types.Receipt{}, slotengine.NewError(slotengine.KindNoCommitment, "nothing to cancel")
	}
	height, err := e.ledger.CurrentHeight(ctx)
	if err != nil {
		return types.Receipt{}, fmt.Errorf("read height: %w", err)
	}
	if state := commitment.StateAt(height); state != types.StateExpired {
		return types.Receipt{}, slotengine.NewError(slotengine.KindTooEarly,
			fmt.Sprintf("cancel allowed from block %d, current %d (state %s)",
				commitment.ExpiresAt(), height, state))
	}

	call := types.CancelCall(owner)
	if err := e.simulateCall(ctx, call); err != nil {
		return types.Receipt{}, err
	}

	guard.advance(phaseSubmitting)
	pending, err := e.ledger.Submit(ctx, call)
	if err != nil {
		return types.Receipt{}, e.classifySubmit(err)
	}
	e.setPending(owner, &pending)
	defer e.clearPending(owner)

	guard.advance(phaseConfirming)
	receipt, err := e.awaitWithin(ctx, pending.Hash)
	if err != nil {
		return types.Receipt{}, fmt.Errorf("cancel unconfirmed: %w", err)
	}
	if !receipt.OK() {
		return types.Receipt{}, slotengine.NewError(slotengine.KindSimulationFailed,
			fmt.Sprintf("cancel reverted on chain in block %d", receipt.Height))
	}

	// Refund is the ledger's job; locally only the stale secret
	// remains to clean up.
	e.clearSession(owner)
	e.noteState(owner, types.StateCancelled)
	log.Infof("cancel for %s confirmed in block %d, fee refunded", owner, receipt.Height)
	return receipt, nil
}
