package types_test

import (
	"testing"

	"github.com/dominohunter/slotengine/types"
)

func TestCommitment_StateAt_None(t *testing.T) {
	var c types.Commitment
	if s := c.StateAt(1_000_000); s != types.StateNone {
		t.Errorf("zero CommitBlock must derive None, got %s", s)
	}
}

// Sweep the full window around a commitment mined at height 1000:
// locked until commitBlock+2, eligible through commitBlock+249,
// expired from commitBlock+250 on.
func TestCommitment_StateAt_WindowSweep(t *testing.T) {
	const commitBlock = 1000
	c := types.Commitment{CommitBlock: commitBlock, DepositAssetID: 7, DepositTier: 3}

	for h := uint64(commitBlock); h < commitBlock+types.RevealDelay; h++ {
		if s := c.StateAt(h); s != types.StateRevealLocked {
			t.Fatalf("height %d: expected RevealLocked, got %s", h, s)
		}
	}
	for h := uint64(commitBlock) + types.RevealDelay; h < commitBlock+types.ExpiryWindow; h++ {
		if s := c.StateAt(h); s != types.StateRevealEligible {
			t.Fatalf("height %d: expected RevealEligible, got %s", h, s)
		}
	}
	for h := uint64(commitBlock) + types.ExpiryWindow; h < commitBlock+types.ExpiryWindow+10; h++ {
		if s := c.StateAt(h); s != types.StateExpired {
			t.Fatalf("height %d: expected Expired, got %s", h, s)
		}
	}
}

func TestCommitment_WindowBounds(t *testing.T) {
	c := types.Commitment{CommitBlock: 500}
	if got := c.RevealEligibleAt(); got != 502 {
		t.Errorf("RevealEligibleAt = %d, want 502", got)
	}
	if got := c.ExpiresAt(); got != 750 {
		t.Errorf("ExpiresAt = %d, want 750", got)
	}
}

func TestCommitmentState_Terminal(t *testing.T) {
	for _, s := range []types.CommitmentState{
		types.StateNone, types.StateCommitPending, types.StateRevealLocked,
		types.StateRevealEligible, types.StateExpired,
	} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if !types.StateRevealed.Terminal() || !types.StateCancelled.Terminal() {
		t.Error("Revealed and Cancelled are terminal")
	}
}
