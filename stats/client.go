// Package stats is a read-only client for the game's stats backend.
// Everything here is display data: the reconciler never consults it,
// and nothing it returns affects protocol decisions.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PlayerStats is the backend's aggregate view of one player.
type PlayerStats struct {
	Address      common.Address `json:"address"`
	TotalPlays   uint64         `json:"totalPlays"`
	TotalSwaps   uint64         `json:"totalSwaps"`
	Cancels      uint64         `json:"cancels"`
	BestTier     uint8          `json:"bestTier"`
	LastPlayedAt int64          `json:"lastPlayedAt"`
}

// Client talks to the stats backend over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a stats client for the given base URL.
func NewClient(url string) *Client {
	return &Client{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// PlayerStats fetches aggregate stats for one player.
func (c *Client) PlayerStats(ctx context.Context, owner common.Address) (PlayerStats, error) {
	data, err := c.makeRequest(ctx, fmt.Sprintf("/slot/stats/%s", owner.Hex()))
	if err != nil {
		return PlayerStats{}, fmt.Errorf("fetch player stats: %w", err)
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return PlayerStats{}, fmt.Errorf("unmarshal player stats: %w", err)
	}
	return stats, nil
}

func (c *Client) makeRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
