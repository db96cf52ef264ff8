package session

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

var errPutFailed = errors.New("session: put failed (injected)")

// Compile-time interface check.
var _ slotengine.SessionStore = (*MemStore)(nil)

// MemStore is a map-backed SessionStore. It does not survive process
// restarts and exists for tests and ephemeral tooling.
type MemStore struct {
	mu   sync.RWMutex
	recs map[common.Address]types.SessionRecord

	// FailPuts makes every Put return an error, for exercising the
	// store-write-failure path (a warning, never a blocker).
	FailPuts bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{recs: make(map[common.Address]types.SessionRecord)}
}

func (s *MemStore) Put(owner common.Address, rec types.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPuts {
		return errPutFailed
	}
	s.recs[owner] = rec
	return nil
}

func (s *MemStore) Get(owner common.Address) (types.SessionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[owner]
	return rec, ok, nil
}

func (s *MemStore) Delete(owner common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, owner)
	return nil
}

func (s *MemStore) Close() error { return nil }

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}
