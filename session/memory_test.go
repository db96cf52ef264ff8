package session_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/session"
	slottest "github.com/dominohunter/slotengine/testing"
	"github.com/dominohunter/slotengine/types"
)

func TestMemStore_Compliance(t *testing.T) {
	var store *session.MemStore
	slottest.RunStoreSuite(t, func(gen int) slotengine.SessionStore {
		if gen == 0 {
			store = session.NewMemStore()
		}
		return store
	})
}

func TestMemStore_FailPuts(t *testing.T) {
	store := session.NewMemStore()
	store.FailPuts = true

	owner := common.BytesToAddress([]byte{0x01})
	if err := store.Put(owner, types.SessionRecord{Owner: owner}); err == nil {
		t.Fatal("expected injected Put failure")
	}
	if store.Len() != 0 {
		t.Error("failed Put must not store anything")
	}
}
