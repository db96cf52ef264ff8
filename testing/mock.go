package slottest

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// Compile-time check that MockLedger satisfies the gateway interface.
var _ slotengine.Ledger = (*MockLedger)(nil)

// MockLedger is a configurable mock ledger gateway for engine testing.
// All methods are configurable via function fields. Unconfigured
// methods return sensible zero-value defaults: simulations pass,
// submissions confirm with a success receipt.
type MockLedger struct {
	// Configurable handlers. If nil, defaults are used.
	CurrentHeightFn     func(context.Context) (uint64, error)
	CommitmentFn        func(context.Context, common.Address) (types.Commitment, error)
	PlayFeeFn           func(context.Context) (*uint256.Int, error)
	PoolSizeFn          func(context.Context) (uint64, error)
	CollectionFn        func(context.Context) (common.Address, error)
	SimulateFn          func(context.Context, types.Call) (types.SimResult, error)
	SubmitFn            func(context.Context, types.Call) (types.PendingTx, error)
	AwaitConfirmationFn func(context.Context, common.Hash) (types.Receipt, error)
	WatchHeadsFn        func(context.Context) (<-chan uint64, error)

	// Call counters (atomic for concurrent access).
	CurrentHeightCalls atomic.Int64
	CommitmentCalls    atomic.Int64
	SimulateCalls      atomic.Int64
	SubmitCalls        atomic.Int64
	AwaitCalls         atomic.Int64
}

func (m *MockLedger) CurrentHeight(ctx context.Context) (uint64, error) {
	m.CurrentHeightCalls.Add(1)
	if m.CurrentHeightFn != nil {
		return m.CurrentHeightFn(ctx)
	}
	return 1, nil
}

func (m *MockLedger) Commitment(ctx context.Context, owner common.Address) (types.Commitment, error) {
	m.CommitmentCalls.Add(1)
	if m.CommitmentFn != nil {
		return m.CommitmentFn(ctx, owner)
	}
	return types.Commitment{Owner: owner}, nil
}

func (m *MockLedger) PlayFee(ctx context.Context) (*uint256.Int, error) {
	if m.PlayFeeFn != nil {
		return m.PlayFeeFn(ctx)
	}
	return uint256.NewInt(0), nil
}

func (m *MockLedger) PoolSize(ctx context.Context) (uint64, error) {
	if m.PoolSizeFn != nil {
		return m.PoolSizeFn(ctx)
	}
	return 1, nil
}

func (m *MockLedger) Collection(ctx context.Context) (common.Address, error) {
	if m.CollectionFn != nil {
		return m.CollectionFn(ctx)
	}
	return common.Address{}, nil
}

func (m *MockLedger) Simulate(ctx context.Context, call types.Call) (types.SimResult, error) {
	m.SimulateCalls.Add(1)
	if m.SimulateFn != nil {
		return m.SimulateFn(ctx, call)
	}
	return types.SimResult{GasEstimate: 21_000}, nil
}

func (m *MockLedger) Submit(ctx context.Context, call types.Call) (types.PendingTx, error) {
	m.SubmitCalls.Add(1)
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, call)
	}
	return types.PendingTx{Hash: common.Hash{0x01}, Kind: call.Kind, SubmittedAt: types.Now()}, nil
}

func (m *MockLedger) AwaitConfirmation(ctx context.Context, hash common.Hash) (types.Receipt, error) {
	m.AwaitCalls.Add(1)
	if m.AwaitConfirmationFn != nil {
		return m.AwaitConfirmationFn(ctx, hash)
	}
	return types.Receipt{TxHash: hash, Height: 1, Status: types.ReceiptSuccess}, nil
}

func (m *MockLedger) WatchHeads(ctx context.Context) (<-chan uint64, error) {
	if m.WatchHeadsFn != nil {
		return m.WatchHeadsFn(ctx)
	}
	ch := make(chan uint64)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
