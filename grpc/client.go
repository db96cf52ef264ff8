package slotgrpc

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"google.golang.org/grpc"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// Compile-time interface check.
var _ slotengine.Ledger = (*Client)(nil)

// Client implements slotengine.Ledger against a remote gateway over
// gRPC using cramberry serialization. No protobuf types or conversion
// layer required.
//
// Revert reasons and rejection messages survive the transport inside
// gRPC status messages, so error classification on the engine side
// works unchanged.
type Client struct {
	cc *grpc.ClientConn
}

// Dial connects to a remote ledger gateway.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("ledger client: dial %s: %w", addr, err)
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

// --- Reads ---

func (c *Client) CurrentHeight(ctx context.Context) (uint64, error) {
	resp := new(HeightResponse)
	if err := c.cc.Invoke(ctx, fullMethod("CurrentHeight"), &HeightRequest{}, resp); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

func (c *Client) Commitment(ctx context.Context, owner common.Address) (types.Commitment, error) {
	resp := new(types.Commitment)
	if err := c.cc.Invoke(ctx, fullMethod("GetCommitment"), &CommitmentRequest{Owner: owner}, resp); err != nil {
		return types.Commitment{}, err
	}
	return *resp, nil
}

func (c *Client) PlayFee(ctx context.Context) (*uint256.Int, error) {
	resp := new(PlayFeeResponse)
	if err := c.cc.Invoke(ctx, fullMethod("PlayFee"), &PlayFeeRequest{}, resp); err != nil {
		return nil, err
	}
	return resp.FeeValue(), nil
}

func (c *Client) PoolSize(ctx context.Context) (uint64, error) {
	resp := new(PoolSizeResponse)
	if err := c.cc.Invoke(ctx, fullMethod("PoolSize"), &PoolSizeRequest{}, resp); err != nil {
		return 0, err
	}
	return resp.Size, nil
}

func (c *Client) Collection(ctx context.Context) (common.Address, error) {
	resp := new(CollectionResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Collection"), &CollectionRequest{}, resp); err != nil {
		return common.Address{}, err
	}
	return resp.Address, nil
}

// --- Writes ---

func (c *Client) Simulate(ctx context.Context, call types.Call) (types.SimResult, error) {
	resp := new(types.SimResult)
	if err := c.cc.Invoke(ctx, fullMethod("Simulate"), &call, resp); err != nil {
		return types.SimResult{}, err
	}
	return *resp, nil
}

func (c *Client) Submit(ctx context.Context, call types.Call) (types.PendingTx, error) {
	resp := new(types.PendingTx)
	if err := c.cc.Invoke(ctx, fullMethod("Submit"), &call, resp); err != nil {
		return types.PendingTx{}, err
	}
	return *resp, nil
}

func (c *Client) AwaitConfirmation(ctx context.Context, hash common.Hash) (types.Receipt, error) {
	resp := new(types.Receipt)
	if err := c.cc.Invoke(ctx, fullMethod("WaitTx"), &WaitTxRequest{Hash: hash}, resp); err != nil {
		return types.Receipt{}, err
	}
	return *resp, nil
}

// --- Streams ---

func (c *Client) WatchHeads(ctx context.Context) (<-chan uint64, error) {
	stream, err := c.cc.NewStream(ctx, &grpc.StreamDesc{
		StreamName:    "WatchHeads",
		ServerStreams: true,
	}, fullMethod("WatchHeads"))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&WatchHeadsRequest{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	ch := make(chan uint64, 16)
	go func() {
		defer close(ch)
		for {
			ev := new(HeadEvent)
			if err := stream.RecvMsg(ev); err != nil {
				// EOF or a broken stream both end the channel;
				// consumers fall back to polling.
				return
			}
			select {
			case ch <- ev.Height:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
