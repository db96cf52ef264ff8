package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gologme/log"

	"github.com/dominohunter/slotengine/types"
)

// NextAction is the reconciler's verdict on what the owner can do.
type NextAction uint8

const (
	// ActionNone: nothing actionable (no commitment, or one is
	// already in flight).
	ActionNone NextAction = iota
	// ActionCommit: no commitment outstanding; a new commit is allowed.
	ActionCommit
	// ActionWait: a commitment exists but is locked or unconfirmed.
	ActionWait
	// ActionReveal: the reveal window is open and a secret is at hand.
	ActionReveal
	// ActionCancel: the commitment expired; cancel recovers the fee.
	ActionCancel
	// ActionBlocked: the reveal window is open but no secret exists
	// locally. Nothing can be done until expiry.
	ActionBlocked
)

func (a NextAction) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionCommit:
		return "Commit"
	case ActionWait:
		return "Wait"
	case ActionReveal:
		return "Reveal"
	case ActionCancel:
		return "Cancel"
	case ActionBlocked:
		return "Blocked"
	default:
		return "unknown"
	}
}

// SessionView is the authoritative per-owner view the reconciler
// produces: ledger record, derived state, local secret presence, any
// in-flight submission, and the next actionable step. The rendering
// layer consumes this and nothing else.
type SessionView struct {
	Owner      common.Address
	Height     uint64
	Commitment types.Commitment
	State      types.CommitmentState
	HasSecret  bool
	InFlight   *types.PendingTx
	Next       NextAction

	// Blocks until the next window edge: reveal eligibility while
	// locked, expiry while eligible. Zero otherwise.
	BlocksLeft uint64
}

// Reconcile derives the current authoritative view for an owner from a
// fresh ledger read, reconciles the local session record against it,
// and publishes any transition. It is the single decision point for
// which coordinator is actionable next.
func (e *Engine) Reconcile(ctx context.Context, owner common.Address) (SessionView, error) {
	e.track(owner)

	height, err := e.ledger.CurrentHeight(ctx)
	if err != nil {
		return SessionView{}, fmt.Errorf("read height: %w", err)
	}
	commitment, err := e.ledger.Commitment(ctx, owner)
	if err != nil {
		return SessionView{}, fmt.Errorf("read commitment: %w", err)
	}

	_, hasSecret, err := e.store.Get(owner)
	if err != nil {
		// A broken store read degrades to "no secret"; the ledger
		// view must still go through.
		log.Warnf("session read for %s failed: %v", owner, err)
		hasSecret = false
	}

	view := SessionView{
		Owner:      owner,
		Height:     height,
		Commitment: commitment,
		State:      commitment.StateAt(height),
		HasSecret:  hasSecret,
		InFlight:   e.pendingFor(owner),
	}

	// The ledger is authoritative: a commitment that vanished while a
	// local record lingers was revealed or cancelled elsewhere. Drop
	// the stale secret without requiring user action.
	if !commitment.Active() && hasSecret && view.InFlight == nil {
		if prev := e.lastState(owner); prev == types.StateRevealLocked ||
			prev == types.StateRevealEligible || prev == types.StateExpired {
			log.Infof("commitment for %s resolved elsewhere, clearing local session", owner)
			e.clearSession(owner)
			view.HasSecret = false
			e.subs.publish(Event{Kind: EventSessionCleared, Owner: owner, State: view.State})
		}
	}

	// An in-flight commit shows as CommitPending until the ledger
	// reflects it.
	if !commitment.Active() && view.InFlight != nil && view.InFlight.Kind == types.CallCommit {
		view.State = types.StateCommitPending
	}

	view.Next = e.nextAction(view)
	switch view.State {
	case types.StateRevealLocked:
		view.BlocksLeft = commitment.RevealEligibleAt() - height
	case types.StateRevealEligible:
		view.BlocksLeft = commitment.ExpiresAt() - height
	}

	if prev := e.lastState(owner); prev != view.State {
		e.noteState(owner, view.State)
		e.subs.publish(Event{Kind: EventStateChanged, Owner: owner, State: view.State})
	}

	return view, nil
}

func (e *Engine) nextAction(v SessionView) NextAction {
	if v.InFlight != nil {
		return ActionNone
	}
	switch v.State {
	case types.StateNone, types.StateRevealed, types.StateCancelled:
		return ActionCommit
	case types.StateCommitPending, types.StateRevealLocked:
		return ActionWait
	case types.StateRevealEligible:
		if v.HasSecret {
			return ActionReveal
		}
		return ActionBlocked
	case types.StateExpired:
		return ActionCancel
	default:
		return ActionNone
	}
}

// Run drives continuous reconciliation for all tracked owners until
// the context ends. New heads from the ledger trigger a pass
// immediately; the poll ticker covers gateways without a head stream
// and fills any gaps in one.
func (e *Engine) Run(ctx context.Context) error {
	var heads <-chan uint64
	if ch, err := e.ledger.WatchHeads(ctx); err == nil {
		heads = ch
	} else {
		log.Debugf("head stream unavailable, polling only: %v", err)
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-heads:
			if !ok {
				heads = nil
				continue
			}
			e.reconcileAll(ctx)
		case <-ticker.C:
			e.reconcileAll(ctx)
		}
	}
}

func (e *Engine) reconcileAll(ctx context.Context) {
	for _, owner := range e.trackedOwners() {
		if _, err := e.Reconcile(ctx, owner); err != nil {
			log.Warnf("reconcile %s: %v", owner, err)
		}
	}
}

// --- tracked-session bookkeeping ---

func (e *Engine) track(owner common.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tracked[owner]; !ok {
		e.tracked[owner] = &trackedSession{state: types.StateNone}
	}
}

func (e *Engine) trackedOwners() []common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	owners := make([]common.Address, 0, len(e.tracked))
	for o := range e.tracked {
		owners = append(owners, o)
	}
	return owners
}

func (e *Engine) lastState(owner common.Address) types.CommitmentState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ts, ok := e.tracked[owner]; ok {
		return ts.state
	}
	return types.StateNone
}

func (e *Engine) noteState(owner common.Address, s types.CommitmentState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ts, ok := e.tracked[owner]
	if !ok {
		ts = &trackedSession{}
		e.tracked[owner] = ts
	}
	ts.state = s
}

func (e *Engine) setPending(owner common.Address, p *types.PendingTx) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ts, ok := e.tracked[owner]
	if !ok {
		ts = &trackedSession{}
		e.tracked[owner] = ts
	}
	ts.pending = p
}

func (e *Engine) clearPending(owner common.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ts, ok := e.tracked[owner]; ok {
		ts.pending = nil
	}
}

func (e *Engine) pendingFor(owner common.Address) *types.PendingTx {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ts, ok := e.tracked[owner]; ok {
		return ts.pending
	}
	return nil
}
