package engine

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dominohunter/slotengine/types"
)

// EventKind discriminates reconciler notifications.
type EventKind uint8

const (
	// EventStateChanged: the derived commitment state moved.
	EventStateChanged EventKind = iota + 1
	// EventOutcome: a reveal confirmed and its outcome decoded.
	EventOutcome
	// EventSessionCleared: the local record was dropped because the
	// ledger no longer holds a commitment (revealed or cancelled,
	// possibly from another device).
	EventSessionCleared
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "StateChanged"
	case EventOutcome:
		return "Outcome"
	case EventSessionCleared:
		return "SessionCleared"
	default:
		return "unknown"
	}
}

// Event is a reconciler notification for read-only consumers (the
// rendering layer). Events carry derived facts only, never secrets.
type Event struct {
	Kind    EventKind
	Owner   common.Address
	State   types.CommitmentState
	Outcome *types.OutcomeEvent
}

// subscribers fans events out to any number of listeners. Slow
// listeners drop events rather than stall the reconciler; every event
// is re-derivable from a Reconcile call.
type subscribers struct {
	mu     sync.Mutex
	chans  map[int]chan Event
	nextID int
	closed bool
}

func newSubscribers() *subscribers {
	return &subscribers{chans: make(map[int]chan Event)}
}

// Subscribe returns an event channel and a cancel function. The
// channel is closed on cancel or engine shutdown.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.subs.add()
}

func (s *subscribers) add() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan Event, 16)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.chans[id] = ch
	return ch, func() { s.remove(id) }
}

func (s *subscribers) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.chans[id]; ok {
		delete(s.chans, id)
		close(ch)
	}
}

func (s *subscribers) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.chans {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.chans {
		delete(s.chans, id)
		close(ch)
	}
}
