package slotgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/dominohunter/slotengine/types"
)

const serviceName = "github.com/dominohunter/slotengine.v1.LedgerService"

// LedgerServiceServer is the server-side interface for the ledger
// gateway gRPC service.
type LedgerServiceServer interface {
	CurrentHeight(context.Context, *HeightRequest) (*HeightResponse, error)
	GetCommitment(context.Context, *CommitmentRequest) (*types.Commitment, error)
	PlayFee(context.Context, *PlayFeeRequest) (*PlayFeeResponse, error)
	PoolSize(context.Context, *PoolSizeRequest) (*PoolSizeResponse, error)
	Collection(context.Context, *CollectionRequest) (*CollectionResponse, error)
	Simulate(context.Context, *types.Call) (*types.SimResult, error)
	Submit(context.Context, *types.Call) (*types.PendingTx, error)
	WaitTx(context.Context, *WaitTxRequest) (*types.Receipt, error)
	WatchHeads(*WatchHeadsRequest, grpc.ServerStream) error
}

// RegisterLedgerServiceServer registers the LedgerServiceServer on a
// gRPC server.
func RegisterLedgerServiceServer(s *grpc.Server, srv LedgerServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// --- Handler functions ---

func handlerCurrentHeight(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(HeightRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).CurrentHeight(ctx, req)
}

func handlerGetCommitment(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(CommitmentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).GetCommitment(ctx, req)
}

func handlerPlayFee(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(PlayFeeRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).PlayFee(ctx, req)
}

func handlerPoolSize(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(PoolSizeRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).PoolSize(ctx, req)
}

func handlerCollection(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(CollectionRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).Collection(ctx, req)
}

func handlerSimulate(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(types.Call)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).Simulate(ctx, req)
}

func handlerSubmit(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(types.Call)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).Submit(ctx, req)
}

func handlerWaitTx(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(WaitTxRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).WaitTx(ctx, req)
}

func handlerWatchHeads(srv any, stream grpc.ServerStream) error {
	req := new(WatchHeadsRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(LedgerServiceServer).WatchHeads(req, stream)
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor for the ledger
// gateway.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CurrentHeight", Handler: handlerCurrentHeight},
		{MethodName: "GetCommitment", Handler: handlerGetCommitment},
		{MethodName: "PlayFee", Handler: handlerPlayFee},
		{MethodName: "PoolSize", Handler: handlerPoolSize},
		{MethodName: "Collection", Handler: handlerCollection},
		{MethodName: "Simulate", Handler: handlerSimulate},
		{MethodName: "Submit", Handler: handlerSubmit},
		{MethodName: "WaitTx", Handler: handlerWaitTx},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchHeads",
			Handler:       handlerWatchHeads,
			ServerStreams: true,
			ClientStreams: false,
		},
	},
	Metadata: "github.com/dominohunter/slotengine/v1/service.cram",
}
