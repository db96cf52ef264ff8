package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gologme/log"
	"github.com/holiman/uint256"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// SecretHash derives the on-chain commitment hash from a secret.
func SecretHash(secret *uint256.Int) common.Hash {
	b := secret.Bytes32()
	return crypto.Keccak256Hash(b[:])
}

// Commit validates and drives a new commitment for owner: persists the
// secret locally, ensures approval, simulates, submits, and waits for
// the confirmation.
//
// The session record is written before submission so a crash between
// submit and confirm leaves the secret recoverable, and it is left in
// place on every failure path — a record without a matching ledger
// commitment is harmless, and retrying with the same secret is safe.
func (e *Engine) Commit(ctx context.Context, owner common.Address, assetID uint64, tier uint8, secret *uint256.Int) (types.PendingTx, error) {
	guard := e.guards.forOwner(owner)
	if err := guard.acquire(types.CallCommit); err != nil {
		return types.PendingTx{}, err
	}
	defer guard.release()

	// The ledger allows one commitment per owner; don't even simulate
	// against a live one.
	commitment, err := e.ledger.Commitment(ctx, owner)
	if err != nil {
		return types.PendingTx{}, fmt.Errorf("read commitment: %w", err)
	}
	if commitment.Active() {
		return types.PendingTx{}, slotengine.NewError(slotengine.KindPendingCommitmentExists,
			fmt.Sprintf("commitment from block %d is still open", commitment.CommitBlock))
	}

	if e.approver != nil {
		if err := e.approver.EnsureApproved(ctx, owner, assetID); err != nil {
			return types.PendingTx{}, fmt.Errorf("asset approval: %w", err)
		}
	}

	// Secret custody first. A failed write is a recoverability
	// problem for the user, not a protocol-safety problem, so it
	// warns instead of blocking.
	rec := types.SessionRecord{
		Owner:          owner,
		DepositAssetID: assetID,
		DepositTier:    tier,
		CreatedAt:      types.Now(),
	}
	rec.SetSecret(secret)
	if err := e.store.Put(owner, rec); err != nil {
		log.Warnf("session record for %s not persisted, secret survives this process only: %v", owner, err)
	}

	fee, err := e.ledger.PlayFee(ctx)
	if err != nil {
		return types.PendingTx{}, fmt.Errorf("read play fee: %w", err)
	}

	call := types.CommitCall(owner, assetID, tier, SecretHash(secret), fee)
	if err := e.simulateCall(ctx, call); err != nil {
		return types.PendingTx{}, err
	}

	guard.advance(phaseSubmitting)
	pending, err := e.ledger.Submit(ctx, call)
	if err != nil {
		return types.PendingTx{}, e.classifySubmit(err)
	}
	e.setPending(owner, &pending)
	defer e.clearPending(owner)

	guard.advance(phaseConfirming)
	receipt, err := e.awaitWithin(ctx, pending.Hash)
	if err != nil {
		// Unconfirmed, not failed: the record stays, and the caller
		// decides whether to keep waiting or retry explicitly.
		return pending, fmt.Errorf("commit unconfirmed: %w", err)
	}
	if !receipt.OK() {
		return pending, slotengine.NewError(slotengine.KindSimulationFailed,
			fmt.Sprintf("commit reverted on chain in block %d", receipt.Height))
	}

	log.Infof("commit for %s confirmed in block %d", owner, receipt.Height)
	e.noteState(owner, types.StateRevealLocked)
	return pending, nil
}

// classifySubmit maps submission failures (wallet rejection, balance)
// onto the taxonomy; transport errors stay unclassified.
func (e *Engine) classifySubmit(err error) error {
	if kind := slotengine.Classify(err.Error()); kind != slotengine.KindUnknown {
		return slotengine.WrapError(kind, "", err)
	}
	return fmt.Errorf("submit: %w", err)
}
