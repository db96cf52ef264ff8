package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPlayerStats(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/slot/stats/"+owner.Hex() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"address":"` + owner.Hex() + `","totalPlays":12,"totalSwaps":9,"cancels":1,"bestTier":4,"lastPlayedAt":1756700000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	stats, err := c.PlayerStats(context.Background(), owner)
	if err != nil {
		t.Fatalf("PlayerStats failed: %v", err)
	}
	if stats.TotalPlays != 12 || stats.TotalSwaps != 9 || stats.BestTier != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestPlayerStats_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "player not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.PlayerStats(context.Background(), common.Address{})
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}
