package slotgrpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dominohunter/slotengine/engine"
	slotgrpc "github.com/dominohunter/slotengine/grpc"
	"github.com/dominohunter/slotengine/session"
	slottest "github.com/dominohunter/slotengine/testing"
	"github.com/dominohunter/slotengine/types"
)

// startServer starts a gRPC server on a random port and returns
// the listener address and a cleanup function.
func startServer(t *testing.T, gs *slotgrpc.GRPCServer) (string, func()) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := grpc.NewServer()
	gs.Register(s)

	go func() {
		if err := s.Serve(lis); err != nil {
			// Ignore errors from graceful stop.
		}
	}()

	return lis.Addr().String(), func() {
		s.GracefulStop()
	}
}

func dial(t *testing.T, addr string) *slotgrpc.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := slotgrpc.Dial(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return client
}

func TestGRPC_Reads(t *testing.T) {
	sim := slottest.NewSimLedger(250)
	sim.FillPool(900, 901, 902)

	addr, cleanup := startServer(t, slotgrpc.NewGRPCServer(sim))
	defer cleanup()
	client := dial(t, addr)
	defer client.Close()

	ctx := context.Background()

	height, err := client.CurrentHeight(ctx)
	if err != nil {
		t.Fatalf("CurrentHeight: %v", err)
	}
	if height != 1 {
		t.Fatalf("expected height 1, got %d", height)
	}

	fee, err := client.PlayFee(ctx)
	if err != nil {
		t.Fatalf("PlayFee: %v", err)
	}
	if !fee.Eq(uint256.NewInt(250)) {
		t.Fatalf("expected fee 250, got %s", fee)
	}

	size, err := client.PoolSize(ctx)
	if err != nil {
		t.Fatalf("PoolSize: %v", err)
	}
	if size != 3 {
		t.Fatalf("expected pool size 3, got %d", size)
	}

	collection, err := client.Collection(ctx)
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if collection == (common.Address{}) {
		t.Fatal("expected a non-zero collection address")
	}
}

func TestGRPC_CommitmentRoundTrip(t *testing.T) {
	sim := slottest.NewSimLedger(0)
	sim.FillPool(900)

	addr, cleanup := startServer(t, slotgrpc.NewGRPCServer(sim))
	defer cleanup()
	client := dial(t, addr)
	defer client.Close()

	ctx := context.Background()
	owner := common.BytesToAddress([]byte{0xAA})
	sim.MintTo(owner, 7, 3)

	// No commitment yet.
	c, err := client.Commitment(ctx, owner)
	if err != nil {
		t.Fatalf("Commitment: %v", err)
	}
	if c.Active() {
		t.Fatal("expected no active commitment")
	}

	// Simulate, submit, wait through the remote gateway.
	secret := uint256.NewInt(42)
	call := types.CommitCall(owner, 7, 3, engine.SecretHash(secret), uint256.NewInt(0))

	res, err := client.Simulate(ctx, call)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !res.OK() {
		t.Fatalf("simulation reverted: %s", res.Reason)
	}

	pending, err := client.Submit(ctx, call)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	receipt, err := client.AwaitConfirmation(ctx, pending.Hash)
	if err != nil {
		t.Fatalf("AwaitConfirmation: %v", err)
	}
	if !receipt.OK() {
		t.Fatal("commit reverted on chain")
	}

	c, err = client.Commitment(ctx, owner)
	if err != nil {
		t.Fatalf("Commitment: %v", err)
	}
	if !c.Active() || c.DepositAssetID != 7 || c.DepositTier != 3 {
		t.Fatalf("unexpected commitment: %+v", c)
	}
}

func TestGRPC_RevertReasonSurvivesTransport(t *testing.T) {
	sim := slottest.NewSimLedger(0)
	// Empty pool: commits revert.
	addr, cleanup := startServer(t, slotgrpc.NewGRPCServer(sim))
	defer cleanup()
	client := dial(t, addr)
	defer client.Close()

	owner := common.BytesToAddress([]byte{0xAA})
	sim.MintTo(owner, 7, 3)
	call := types.CommitCall(owner, 7, 3, engine.SecretHash(uint256.NewInt(1)), uint256.NewInt(0))

	res, err := client.Simulate(context.Background(), call)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if res.OK() {
		t.Fatal("expected a revert with an empty pool")
	}
	if res.Reason == "" {
		t.Fatal("revert reason lost in transport")
	}
}

func TestGRPC_WatchHeads(t *testing.T) {
	sim := slottest.NewSimLedger(0)
	addr, cleanup := startServer(t, slotgrpc.NewGRPCServer(sim))
	defer cleanup()
	client := dial(t, addr)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	heads, err := client.WatchHeads(ctx)
	if err != nil {
		t.Fatalf("WatchHeads: %v", err)
	}

	// Give the stream a moment to register before mining.
	time.Sleep(50 * time.Millisecond)
	sim.AdvanceBlocks(3)

	select {
	case h, ok := <-heads:
		if !ok {
			t.Fatal("head stream closed early")
		}
		if h < 2 {
			t.Fatalf("unexpected head %d", h)
		}
	case <-ctx.Done():
		t.Fatal("no head received")
	}
}

func TestGRPC_EngineOverTransport(t *testing.T) {
	sim := slottest.NewSimLedger(100)
	sim.FillPool(900, 901)

	addr, cleanup := startServer(t, slotgrpc.NewGRPCServer(sim))
	defer cleanup()
	client := dial(t, addr)
	defer client.Close()

	// The full engine running against the remote gateway.
	store := session.NewMemStore()
	eng := engine.New(client, store, sim.Contract())
	defer eng.Close()

	player := common.BytesToAddress([]byte{0xAB})
	sim.MintTo(player, 7, 3)

	ctx := context.Background()
	if _, err := eng.Commit(ctx, player, 7, 3, uint256.NewInt(77)); err != nil {
		t.Fatalf("Commit over gRPC: %v", err)
	}
	sim.AdvanceToRevealWindow(player)
	res, err := eng.Reveal(ctx, player, nil)
	if err != nil {
		t.Fatalf("Reveal over gRPC: %v", err)
	}
	if !res.OutcomeKnown {
		t.Fatal("expected a decoded outcome")
	}
}
