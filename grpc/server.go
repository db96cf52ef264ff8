package slotgrpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// Compile-time interface check.
var _ LedgerServiceServer = (*GRPCServer)(nil)

// GRPCServer exposes a ledger gateway over gRPC. No type conversion
// is needed — domain types are serialized directly via cramberry.
type GRPCServer struct {
	ledger slotengine.Ledger
}

// NewGRPCServer creates a gRPC server wrapping the given ledger.
func NewGRPCServer(ledger slotengine.Ledger) *GRPCServer {
	return &GRPCServer{ledger: ledger}
}

// Register adds the ledger service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterLedgerServiceServer(gs, s)
}

// Serve starts the gRPC server on the given listener.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs.Serve(lis)
}

// --- Read RPCs ---

func (s *GRPCServer) CurrentHeight(ctx context.Context, _ *HeightRequest) (*HeightResponse, error) {
	height, err := s.ledger.CurrentHeight(ctx)
	if err != nil {
		return nil, err
	}
	return &HeightResponse{Height: height}, nil
}

func (s *GRPCServer) GetCommitment(ctx context.Context, req *CommitmentRequest) (*types.Commitment, error) {
	commitment, err := s.ledger.Commitment(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	return &commitment, nil
}

func (s *GRPCServer) PlayFee(ctx context.Context, _ *PlayFeeRequest) (*PlayFeeResponse, error) {
	fee, err := s.ledger.PlayFee(ctx)
	if err != nil {
		return nil, err
	}
	resp := new(PlayFeeResponse)
	resp.SetFee(fee)
	return resp, nil
}

func (s *GRPCServer) PoolSize(ctx context.Context, _ *PoolSizeRequest) (*PoolSizeResponse, error) {
	size, err := s.ledger.PoolSize(ctx)
	if err != nil {
		return nil, err
	}
	return &PoolSizeResponse{Size: size}, nil
}

func (s *GRPCServer) Collection(ctx context.Context, _ *CollectionRequest) (*CollectionResponse, error) {
	addr, err := s.ledger.Collection(ctx)
	if err != nil {
		return nil, err
	}
	return &CollectionResponse{Address: addr}, nil
}

// --- Write RPCs ---

func (s *GRPCServer) Simulate(ctx context.Context, call *types.Call) (*types.SimResult, error) {
	res, err := s.ledger.Simulate(ctx, *call)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *GRPCServer) Submit(ctx context.Context, call *types.Call) (*types.PendingTx, error) {
	pending, err := s.ledger.Submit(ctx, *call)
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (s *GRPCServer) WaitTx(ctx context.Context, req *WaitTxRequest) (*types.Receipt, error) {
	receipt, err := s.ledger.AwaitConfirmation(ctx, req.Hash)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// --- Stream RPCs ---

func (s *GRPCServer) WatchHeads(_ *WatchHeadsRequest, stream grpc.ServerStream) error {
	ctx := stream.Context()
	heads, err := s.ledger.WatchHeads(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case height, ok := <-heads:
			if !ok {
				return nil
			}
			if err := stream.SendMsg(&HeadEvent{Height: height}); err != nil {
				return err
			}
		}
	}
}
