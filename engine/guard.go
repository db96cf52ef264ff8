// Package engine implements the commit-reveal session engine: the
// commit, reveal, and cancel coordinators and the reconciler that
// derives one authoritative state per player from the ledger record,
// the local session store, and any transaction in flight.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// opPhase is where an in-flight operation currently is in the
// simulate/submit/confirm sequence.
type opPhase uint32

const (
	// phaseIdle: no operation in flight for this owner.
	phaseIdle opPhase = iota
	// phaseSimulating: dry run in progress; nothing signed yet.
	phaseSimulating
	// phaseSubmitting: simulation passed, waiting for signature and
	// broadcast.
	phaseSubmitting
	// phaseConfirming: broadcast done, waiting for the receipt.
	phaseConfirming
)

func (p opPhase) String() string {
	switch p {
	case phaseIdle:
		return "Idle"
	case phaseSimulating:
		return "Simulating"
	case phaseSubmitting:
		return "Submitting"
	case phaseConfirming:
		return "Confirming"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(p))
	}
}

// ownerGuard serializes the multi-step simulate/submit/confirm
// sequence for one owner. The ledger's one-commitment-per-owner rule
// is not enough on its own: the sequence must not be re-entered while
// a previous run is between steps (a double-clicked Reveal would
// otherwise submit twice).
//
// Unlike a lifecycle protocol violation, a concurrent user action is
// not a bug, so acquisition failure is an error, not a panic.
type ownerGuard struct {
	phase atomic.Uint32
	// kind of the in-flight call, valid while phase != idle.
	kind atomic.Uint32
}

// acquire transitions Idle → Simulating, claiming the guard.
func (g *ownerGuard) acquire(kind types.CallKind) error {
	if !g.phase.CompareAndSwap(uint32(phaseIdle), uint32(phaseSimulating)) {
		return slotengine.NewError(slotengine.KindUnknown,
			fmt.Sprintf("%s already in flight (%s)",
				types.CallKind(g.kind.Load()), opPhase(g.phase.Load())))
	}
	g.kind.Store(uint32(kind))
	return nil
}

// advance moves the in-flight operation to the next phase.
func (g *ownerGuard) advance(p opPhase) {
	g.phase.Store(uint32(p))
}

// release returns the guard to Idle.
func (g *ownerGuard) release() {
	g.phase.Store(uint32(phaseIdle))
}

// current returns the in-flight phase and call kind.
func (g *ownerGuard) current() (opPhase, types.CallKind) {
	p := opPhase(g.phase.Load())
	if p == phaseIdle {
		return p, 0
	}
	return p, types.CallKind(g.kind.Load())
}

// guardSet hands out one guard per owner.
type guardSet struct {
	mu     sync.Mutex
	guards map[common.Address]*ownerGuard
}

func newGuardSet() *guardSet {
	return &guardSet{guards: make(map[common.Address]*ownerGuard)}
}

func (s *guardSet) forOwner(owner common.Address) *ownerGuard {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guards[owner]
	if !ok {
		g = &ownerGuard{}
		s.guards[owner] = g
	}
	return g
}
