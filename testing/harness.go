package slottest

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/engine"
	"github.com/dominohunter/slotengine/session"
	"github.com/dominohunter/slotengine/types"
)

// Harness wires an engine to a simulated ledger and an in-memory
// session store, with helpers for driving a session end to end.
type Harness struct {
	t      *testing.T
	Sim    *SimLedger
	Store  *session.MemStore
	Engine *engine.Engine
}

// NewHarness creates a harness with a fresh simulator and store.
// Extra engine options are applied after the defaults.
func NewHarness(t *testing.T, fee uint64, opts ...engine.Option) *Harness {
	t.Helper()
	sim := NewSimLedger(fee)
	store := session.NewMemStore()
	eng := engine.New(sim, store, sim.Contract(), opts...)
	t.Cleanup(func() { eng.Close() })
	return &Harness{t: t, Sim: sim, Store: store, Engine: eng}
}

// Player mints a token for a fresh owner and returns the address.
func (h *Harness) Player(tokenID uint64, tier uint8) common.Address {
	h.t.Helper()
	owner := common.BytesToAddress([]byte{0xAA, byte(tokenID)})
	h.Sim.MintTo(owner, tokenID, tier)
	return owner
}

// MustCommit commits and fails the test on error.
func (h *Harness) MustCommit(owner common.Address, assetID uint64, tier uint8, secret *uint256.Int) types.PendingTx {
	h.t.Helper()
	tx, err := h.Engine.Commit(context.Background(), owner, assetID, tier, secret)
	if err != nil {
		h.t.Fatalf("Commit failed: %v", err)
	}
	return tx
}

// MustReveal advances into the reveal window, reveals, and fails the
// test on error.
func (h *Harness) MustReveal(owner common.Address, secret *uint256.Int) engine.RevealResult {
	h.t.Helper()
	h.Sim.AdvanceToRevealWindow(owner)
	res, err := h.Engine.Reveal(context.Background(), owner, secret)
	if err != nil {
		h.t.Fatalf("Reveal failed: %v", err)
	}
	return res
}

// MustCancel advances past expiry, cancels, and fails the test on
// error.
func (h *Harness) MustCancel(owner common.Address) types.Receipt {
	h.t.Helper()
	h.Sim.AdvanceToExpiry(owner)
	receipt, err := h.Engine.Cancel(context.Background(), owner)
	if err != nil {
		h.t.Fatalf("Cancel failed: %v", err)
	}
	return receipt
}

// Reconcile reconciles the owner and fails the test on error.
func (h *Harness) Reconcile(owner common.Address) engine.SessionView {
	h.t.Helper()
	view, err := h.Engine.Reconcile(context.Background(), owner)
	if err != nil {
		h.t.Fatalf("Reconcile failed: %v", err)
	}
	return view
}

// ExpectKind asserts that err carries the given error kind.
func ExpectKind(t *testing.T, err error, want slotengine.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := slotengine.KindOf(err); got != want {
		t.Fatalf("expected %v error, got %v (%v)", want, got, err)
	}
}
