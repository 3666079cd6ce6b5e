package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/turn-governor/internal/governor"
)

// #region client-struct
// Client calls a remote Governor service.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to the governor gRPC server at addr.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn creates a Client over an existing connection.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection when the client owns it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region calls
// Decide asks the server to plan a turn.
func (c *Client) Decide(ctx context.Context, turn governor.Turn) (governor.Plan, error) {
	var plan governor.Plan
	err := c.call(ctx, MethodDecide, Request{
		ConversationID: turn.ConversationID,
		Messages:       turn.Messages,
		Tier:           turn.Tier,
		InBandAssist:   turn.InBandAssist,
	}, &plan)
	if err != nil {
		return governor.Plan{}, fmt.Errorf("decide rpc: %w", err)
	}
	return plan, nil
}

// Finalize asks the server to finalize a draft. plan may be nil.
func (c *Client) Finalize(ctx context.Context, turn governor.Turn, plan *governor.Plan, draft, backendErr string) (governor.Outcome, error) {
	var out governor.Outcome
	err := c.call(ctx, MethodFinalize, Request{
		ConversationID: turn.ConversationID,
		Messages:       turn.Messages,
		Tier:           turn.Tier,
		InBandAssist:   turn.InBandAssist,
		Draft:          draft,
		BackendError:   backendErr,
		Plan:           plan,
	}, &out)
	if err != nil {
		return governor.Outcome{}, fmt.Errorf("finalize rpc: %w", err)
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method string, req Request, out any) error {
	in, err := ToStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, resp); err != nil {
		return err
	}
	return FromStruct(resp, out)
}

// #endregion calls
