package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/governor"
)

// #region service-desc

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "governor.v1.Governor"

// Full method names.
const (
	MethodDecide   = "/" + ServiceName + "/Decide"
	MethodFinalize = "/" + ServiceName + "/Finalize"
)

// GovernorServer is the server API. Payloads are structpb.Struct so no
// generated stubs are needed.
type GovernorServer interface {
	Decide(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Finalize(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Governor service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GovernorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Decide", Handler: unary(MethodDecide, GovernorServer.Decide)},
		{MethodName: "Finalize", Handler: unary(MethodFinalize, GovernorServer.Finalize)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "governor/v1/governor.proto",
}

type rpc func(GovernorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call rpc) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GovernorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GovernorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion service-desc

// #region payloads

// Request is the JSON shape carried in both RPCs. Finalize additionally reads
// Draft, BackendError and Plan; without a Plan the turn is decided again.
type Request struct {
	ConversationID string             `json:"conversation_id,omitempty"`
	Messages       []decision.Message `json:"messages"`
	Tier           decision.Tier      `json:"tier"`
	InBandAssist   bool               `json:"in_band_assist,omitempty"`
	Draft          string             `json:"draft,omitempty"`
	BackendError   string             `json:"backend_error,omitempty"`
	Plan           *governor.Plan     `json:"plan,omitempty"`
}

// Turn returns the governor turn described by r.
func (r Request) Turn() governor.Turn {
	return governor.Turn{
		ConversationID: r.ConversationID,
		Messages:       r.Messages,
		Tier:           r.Tier,
		InBandAssist:   r.InBandAssist,
	}
}

// ToStruct converts any JSON-serializable value to a structpb.Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes s into v through its JSON form.
func FromStruct(s *structpb.Struct, v any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// #endregion payloads
