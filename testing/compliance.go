package slottest

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// RunStoreSuite runs a standard compliance suite against a session
// store implementation.
//
// The factory is called with a generation number: generation 0 is the
// first open, and each higher generation must see data written by the
// previous one (a reopen of the same backing storage). Stores without
// durable backing may return a shared instance for every generation.
func RunStoreSuite(t *testing.T, factory func(gen int) slotengine.SessionStore) {
	t.Helper()

	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")

	record := func(assetID uint64) types.SessionRecord {
		rec := types.SessionRecord{
			Owner:          owner,
			DepositAssetID: assetID,
			DepositTier:    2,
			CreatedAt:      types.Now(),
		}
		rec.Secret[31] = 0x42
		return rec
	}

	t.Run("get_absent", func(t *testing.T) {
		store := factory(0)
		defer store.Close()

		_, found, err := store.Get(owner)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if found {
			t.Error("expected no record for unknown owner")
		}
	})

	t.Run("put_get_roundtrip", func(t *testing.T) {
		store := factory(0)
		defer store.Close()

		want := record(7)
		if err := store.Put(owner, want); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, found, err := store.Get(owner)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !found {
			t.Fatal("expected record after Put")
		}
		if got.Secret != want.Secret || got.DepositAssetID != want.DepositAssetID || got.DepositTier != want.DepositTier {
			t.Errorf("record mismatch: got %+v, want %+v", got, want)
		}
	})

	t.Run("put_overwrites", func(t *testing.T) {
		store := factory(0)
		defer store.Close()

		if err := store.Put(owner, record(7)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Put(owner, record(9)); err != nil {
			t.Fatalf("second Put failed: %v", err)
		}
		got, found, err := store.Get(owner)
		if err != nil || !found {
			t.Fatalf("Get failed: found=%v err=%v", found, err)
		}
		if got.DepositAssetID != 9 {
			t.Errorf("expected latest record, got asset %d", got.DepositAssetID)
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := factory(0)
		defer store.Close()

		if err := store.Put(owner, record(7)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Delete(owner); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		_, found, err := store.Get(owner)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if found {
			t.Error("expected no record after Delete")
		}
	})

	t.Run("delete_absent_is_noop", func(t *testing.T) {
		store := factory(0)
		defer store.Close()

		if err := store.Delete(other); err != nil {
			t.Errorf("Delete of absent owner should succeed, got %v", err)
		}
	})

	t.Run("survives_reopen", func(t *testing.T) {
		store := factory(0)
		want := record(3520)
		want.SetSecret(uint256.NewInt(482910))
		if err := store.Put(owner, want); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		reopened := factory(1)
		defer reopened.Close()
		got, found, err := reopened.Get(owner)
		if err != nil {
			t.Fatalf("Get after reopen failed: %v", err)
		}
		if !found {
			t.Fatal("record lost across reopen")
		}
		if got.Secret != want.Secret {
			t.Errorf("secret changed across reopen: got %x, want %x", got.Secret, want.Secret)
		}
		if got.DepositAssetID != 3520 {
			t.Errorf("asset id changed across reopen: got %d", got.DepositAssetID)
		}
	})

	t.Run("concurrent_access", func(t *testing.T) {
		store := factory(0)
		defer store.Close()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec := record(uint64(i))
				rec.Owner = common.BytesToAddress([]byte{byte(i + 1)})
				if err := store.Put(rec.Owner, rec); err != nil {
					t.Errorf("concurrent Put failed: %v", err)
					return
				}
				if _, _, err := store.Get(rec.Owner); err != nil {
					t.Errorf("concurrent Get failed: %v", err)
				}
			}(i)
		}
		wg.Wait()
	})
}
