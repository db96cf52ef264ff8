package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/engine"
	slottest "github.com/dominohunter/slotengine/testing"
	"github.com/dominohunter/slotengine/types"
)

const playFee = 100

func TestCommitRevealRoundTrip(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900, 901, 902)
	player := h.Player(7, 3)
	secret := uint256.NewInt(12345)

	h.MustCommit(player, 7, 3, secret)

	// Secret persisted, commitment live on the ledger.
	if _, found, _ := h.Store.Get(player); !found {
		t.Fatal("expected session record after commit")
	}
	view := h.Reconcile(player)
	if view.State != types.StateRevealLocked {
		t.Fatalf("expected RevealLocked, got %s", view.State)
	}
	if view.Next != engine.ActionWait {
		t.Fatalf("expected Wait, got %s", view.Next)
	}
	if view.BlocksLeft != types.RevealDelay {
		t.Errorf("expected %d blocks to eligibility, got %d", types.RevealDelay, view.BlocksLeft)
	}

	h.Sim.AdvanceToRevealWindow(player)
	view = h.Reconcile(player)
	if view.Next != engine.ActionReveal {
		t.Fatalf("expected Reveal, got %s", view.Next)
	}

	// Reveal with a nil secret pulls it from the store.
	res, err := h.Engine.Reveal(context.Background(), player, nil)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if !res.OutcomeKnown {
		t.Fatal("expected a decoded outcome")
	}
	if res.Outcome.Player != player || res.Outcome.DepositedAssetID != 7 {
		t.Errorf("unexpected outcome: %+v", res.Outcome)
	}
	if h.Sim.OwnerOf(res.Outcome.ReceivedAssetID) != player {
		t.Error("received asset not transferred to player")
	}

	// Session cleaned up, a new commit is allowed.
	if _, found, _ := h.Store.Get(player); found {
		t.Error("session record not cleared after reveal")
	}
	view = h.Reconcile(player)
	if view.Next != engine.ActionCommit {
		t.Errorf("expected Commit after reveal, got %s", view.Next)
	}
}

func TestCommit_RejectsSecondCommitment(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)
	h.Sim.MintTo(player, 8, 2)

	h.MustCommit(player, 7, 3, uint256.NewInt(1))

	_, err := h.Engine.Commit(context.Background(), player, 8, 2, uint256.NewInt(2))
	slottest.ExpectKind(t, err, slotengine.KindPendingCommitmentExists)
}

func TestCommit_SimulationReverts(t *testing.T) {
	t.Run("empty_pool", func(t *testing.T) {
		h := slottest.NewHarness(t, playFee)
		player := h.Player(7, 3)

		_, err := h.Engine.Commit(context.Background(), player, 7, 3, uint256.NewInt(1))
		slottest.ExpectKind(t, err, slotengine.KindPoolTooSmall)
	})

	t.Run("not_token_owner", func(t *testing.T) {
		h := slottest.NewHarness(t, playFee)
		h.Sim.FillPool(900)
		player := h.Player(7, 3)
		h.Player(11, 1) // token 11 belongs to someone else

		_, err := h.Engine.Commit(context.Background(), player, 11, 1, uint256.NewInt(1))
		slottest.ExpectKind(t, err, slotengine.KindNotTokenOwner)
	})
}

func TestCommit_WalletRejection(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)

	h.Sim.SubmitErr = errors.New("user rejected the request")
	_, err := h.Engine.Commit(context.Background(), player, 7, 3, uint256.NewInt(1))
	slottest.ExpectKind(t, err, slotengine.KindUserRejected)

	// The secret stays: retrying the same commit is safe.
	if _, found, _ := h.Store.Get(player); !found {
		t.Fatal("session record should survive a rejected submission")
	}
	h.MustCommit(player, 7, 3, uint256.NewInt(1))
}

func TestCommit_StoreFailureDoesNotBlock(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)

	h.Store.FailPuts = true
	h.MustCommit(player, 7, 3, uint256.NewInt(1))

	if h.Store.Len() != 0 {
		t.Error("expected nothing persisted")
	}
}

func TestReveal_TooEarly(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)
	h.MustCommit(player, 7, 3, uint256.NewInt(1))

	_, err := h.Engine.Reveal(context.Background(), player, nil)
	slottest.ExpectKind(t, err, slotengine.KindTooEarly)
}

func TestReveal_NoCommitment(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	player := h.Player(7, 3)

	_, err := h.Engine.Reveal(context.Background(), player, nil)
	slottest.ExpectKind(t, err, slotengine.KindNoCommitment)
}

func TestReveal_MissingSecret(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)

	// Commitment made from another device: the ledger has it, the
	// local store does not.
	secretHash := engine.SecretHash(uint256.NewInt(999))
	h.Sim.SetCommitment(player, 1000, 7, 3, secretHash)
	h.Sim.AdvanceBlocks(1002) // into the reveal window

	_, err := h.Engine.Reveal(context.Background(), player, nil)
	slottest.ExpectKind(t, err, slotengine.KindMissingSecret)

	// Nothing to do but wait out the expiry.
	view := h.Reconcile(player)
	if view.Next != engine.ActionBlocked {
		t.Fatalf("expected Blocked, got %s", view.Next)
	}

	// A caller-supplied secret still works.
	res, err := h.Engine.Reveal(context.Background(), player, uint256.NewInt(999))
	if err != nil {
		t.Fatalf("Reveal with explicit secret failed: %v", err)
	}
	if !res.OutcomeKnown {
		t.Error("expected a decoded outcome")
	}
}

func TestReveal_InvalidSecret(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)
	h.MustCommit(player, 7, 3, uint256.NewInt(1))
	h.Sim.AdvanceToRevealWindow(player)

	_, err := h.Engine.Reveal(context.Background(), player, uint256.NewInt(2))
	slottest.ExpectKind(t, err, slotengine.KindInvalidSecret)
}

func TestReveal_Expired(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)
	h.MustCommit(player, 7, 3, uint256.NewInt(1))
	h.Sim.AdvanceToExpiry(player)

	_, err := h.Engine.Reveal(context.Background(), player, nil)
	slottest.ExpectKind(t, err, slotengine.KindExpired)
}

func TestCancel_RecoversExpiredCommitment(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)
	h.MustCommit(player, 7, 3, uint256.NewInt(1))

	// Deposit is escrowed while the commitment is open.
	if h.Sim.OwnerOf(7) == player {
		t.Fatal("deposit should be escrowed after commit")
	}

	h.MustCancel(player)

	if h.Sim.OwnerOf(7) != player {
		t.Error("deposit not returned after cancel")
	}
	if _, found, _ := h.Store.Get(player); found {
		t.Error("session record not cleared after cancel")
	}

	// Cancel does not repeat: the first one consumed the commitment.
	_, err := h.Engine.Cancel(context.Background(), player)
	slottest.ExpectKind(t, err, slotengine.KindNoCommitment)
}

func TestCancel_TooEarly(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)
	h.MustCommit(player, 7, 3, uint256.NewInt(1))
	h.Sim.AdvanceToRevealWindow(player)

	_, err := h.Engine.Cancel(context.Background(), player)
	slottest.ExpectKind(t, err, slotengine.KindTooEarly)
}

func TestSecretSurvivesRestart(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900, 901)
	player := h.Player(3520, 2)

	h.MustCommit(player, 3520, 2, uint256.NewInt(482910))

	// A new engine over the same ledger and store stands in for a
	// process restart.
	eng := engine.New(h.Sim, h.Store, h.Sim.Contract())
	defer eng.Close()

	h.Sim.AdvanceToRevealWindow(player)
	res, err := eng.Reveal(context.Background(), player, nil)
	if err != nil {
		t.Fatalf("Reveal after restart failed: %v", err)
	}
	if !res.OutcomeKnown {
		t.Error("expected a decoded outcome")
	}
}

func TestReconcile_ClearsSessionResolvedElsewhere(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)
	h.MustCommit(player, 7, 3, uint256.NewInt(1))

	events, cancel := h.Engine.Subscribe()
	defer cancel()

	// Revealed from another device: the ledger record vanishes while
	// the local secret lingers.
	h.Sim.ForceResolve(player)

	view := h.Reconcile(player)
	if view.HasSecret {
		t.Error("stale session record should have been cleared")
	}
	if _, found, _ := h.Store.Get(player); found {
		t.Error("store still holds the stale record")
	}

	var cleared bool
	for done := false; !done; {
		select {
		case ev := <-events:
			if ev.Kind == engine.EventSessionCleared {
				cleared = true
				done = true
			}
		default:
			done = true
		}
	}
	if !cleared {
		t.Error("expected a SessionCleared event")
	}
}

func TestGuard_SerializesOwnerOperations(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	ledger := &slottest.MockLedger{
		SimulateFn: func(ctx context.Context, call types.Call) (types.SimResult, error) {
			close(entered)
			<-release
			return types.SimResult{}, nil
		},
	}
	h := slottest.NewHarness(t, playFee)
	eng := engine.New(ledger, h.Store, h.Sim.Contract())
	defer eng.Close()
	player := h.Player(7, 3)

	errc := make(chan error, 1)
	go func() {
		_, err := eng.Commit(context.Background(), player, 7, 3, uint256.NewInt(1))
		errc <- err
	}()
	<-entered

	// Second operation for the same owner is refused outright.
	if _, err := eng.Reveal(context.Background(), player, uint256.NewInt(1)); err == nil {
		t.Fatal("expected concurrent operation to be refused")
	}

	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
}

func TestIndependentOwnersDoNotBlock(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900, 901, 902, 903)
	alice := h.Player(7, 3)
	bob := h.Player(8, 2)

	h.MustCommit(alice, 7, 3, uint256.NewInt(1))
	h.MustCommit(bob, 8, 2, uint256.NewInt(2))

	h.MustReveal(alice, nil)
	h.MustReveal(bob, nil)
}

func TestSubscribe_OutcomeEvent(t *testing.T) {
	h := slottest.NewHarness(t, playFee)
	h.Sim.FillPool(900)
	player := h.Player(7, 3)

	events, cancel := h.Engine.Subscribe()
	defer cancel()

	h.MustCommit(player, 7, 3, uint256.NewInt(1))
	h.MustReveal(player, nil)

	var outcome *types.OutcomeEvent
	for done := false; !done; {
		select {
		case ev := <-events:
			if ev.Kind == engine.EventOutcome {
				outcome = ev.Outcome
				done = true
			}
		default:
			done = true
		}
	}
	if outcome == nil {
		t.Fatal("expected an outcome event")
	}
	if outcome.Player != player {
		t.Errorf("outcome for wrong player: %s", outcome.Player)
	}
}
