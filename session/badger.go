// Package session provides SessionStore implementations: a durable
// badger-backed store for real use and an in-memory store for tests.
//
// The store is an advisory cache of reveal secrets. It must survive
// process restarts, but nothing in it is authoritative — the ledger's
// commitment record is the only proof a commitment exists.
package session

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/dgraph-io/badger"
	"github.com/ethereum/go-ethereum/common"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// keyPrefix namespaces session records so the store can share a badger
// directory with other features.
const keyPrefix = "slot/session/"

// Compile-time interface check.
var _ slotengine.SessionStore = (*BadgerStore)(nil)

// BadgerStore is a badger-backed SessionStore, one record per owner.
type BadgerStore struct {
	db    *badger.DB
	owned bool
}

// OpenBadger opens (or creates) a badger-backed store at path.
func OpenBadger(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithTruncate(true))
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &BadgerStore{db: db, owned: true}, nil
}

// WrapBadger wraps an already-open badger DB. The caller keeps
// ownership of the DB lifecycle; Close on the returned store is a
// no-op.
func WrapBadger(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func sessionKey(owner common.Address) []byte {
	return append([]byte(keyPrefix), owner.Bytes()...)
}

func (s *BadgerStore) Put(owner common.Address, rec types.SessionRecord) error {
	data, err := cramberry.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(owner), data)
	})
	if err != nil {
		return fmt.Errorf("persist session record: %w", err)
	}
	return nil
}

func (s *BadgerStore) Get(owner common.Address) (types.SessionRecord, bool, error) {
	var rec types.SessionRecord
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(owner))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := cramberry.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode session record: %w", err)
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return types.SessionRecord{}, false, fmt.Errorf("read session record: %w", err)
	}
	return rec, found, nil
}

func (s *BadgerStore) Delete(owner common.Address) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(owner))
	})
	if err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// Close closes the underlying DB if this store opened it.
func (s *BadgerStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
