package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gologme/log"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

const (
	// DefaultConfirmWait bounds how long a submitted transaction is
	// awaited before the caller is told to decide for themselves.
	// Never auto-retried: re-submitting is always an explicit user
	// action.
	DefaultConfirmWait = 90 * time.Second

	// DefaultPollInterval is the reconciler's fallback cadence when
	// the ledger offers no head stream, and its safety net when it
	// does.
	DefaultPollInterval = 5 * time.Second
)

// Engine owns all protocol state handling for the commit-reveal game.
// One Engine serves any number of owners; each owner gets an
// independent in-flight guard and session state.
//
// The session store is private to the engine: the rendering layer
// observes state exclusively through Reconcile results and the event
// subscription, so secret handling stays in one place.
type Engine struct {
	ledger   slotengine.Ledger
	store    slotengine.SessionStore
	approver slotengine.Approver
	contract common.Address

	confirmWait  time.Duration
	pollInterval time.Duration

	guards *guardSet
	subs   *subscribers

	// Owners the reconciler tracks, with the last state it derived.
	mu      sync.Mutex
	tracked map[common.Address]*trackedSession

	closeOnce sync.Once
}

// trackedSession is the reconciler's cached view of one owner,
// compared against fresh ledger reads to detect transitions.
type trackedSession struct {
	state   types.CommitmentState
	pending *types.PendingTx
}

// Option configures an Engine.
type Option func(*Engine)

// WithApprover sets the asset-approval collaborator. Without one,
// commits assume approval is already in place.
func WithApprover(a slotengine.Approver) Option {
	return func(e *Engine) { e.approver = a }
}

// WithConfirmWait overrides the bounded confirmation wait.
func WithConfirmWait(d time.Duration) Option {
	return func(e *Engine) { e.confirmWait = d }
}

// WithPollInterval overrides the reconciler poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// New creates an Engine over a ledger gateway and a session store.
// The contract address scopes outcome-event decoding to the game
// contract's own logs.
func New(ledger slotengine.Ledger, store slotengine.SessionStore, contract common.Address, opts ...Option) *Engine {
	e := &Engine{
		ledger:       ledger,
		store:        store,
		contract:     contract,
		confirmWait:  DefaultConfirmWait,
		pollInterval: DefaultPollInterval,
		guards:       newGuardSet(),
		subs:         newSubscribers(),
		tracked:      make(map[common.Address]*trackedSession),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close shuts down subscriptions. The ledger and store are owned by
// the caller and stay open.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.subs.closeAll()
	})
}

// awaitWithin waits for a receipt under the engine's confirmation
// bound. The caller's context still wins if it is shorter.
func (e *Engine) awaitWithin(ctx context.Context, hash common.Hash) (types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, e.confirmWait)
	defer cancel()
	receipt, err := e.ledger.AwaitConfirmation(waitCtx, hash)
	if err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			return types.Receipt{}, fmt.Errorf("no confirmation within %s for %s: %w",
				e.confirmWait, hash, err)
		}
		return types.Receipt{}, err
	}
	return receipt, nil
}

// simulateCall dry-runs a call and converts a revert into a classified
// error. Transport failures pass through unclassified.
func (e *Engine) simulateCall(ctx context.Context, call types.Call) error {
	res, err := e.ledger.Simulate(ctx, call)
	if err != nil {
		return fmt.Errorf("simulate %s: %w", call.Kind, err)
	}
	if res.Reverted {
		return slotengine.ClassifyRevert(res.Reason)
	}
	return nil
}

// clearSession deletes the owner's record after a confirmed reveal or
// cancel. A delete failure only risks a stale cache entry, which the
// reconciler will clear on its next pass, so it is logged, not
// returned.
func (e *Engine) clearSession(owner common.Address) {
	if err := e.store.Delete(owner); err != nil {
		log.Warnf("session delete for %s failed: %v", owner, err)
	}
}
