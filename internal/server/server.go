package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/turn-governor/internal/governor"
)

// #region server-struct

// Server exposes a Governor over gRPC. The governor can be swapped at runtime;
// in-flight calls finish on the instance they started with.
type Server struct {
	gov    atomic.Pointer[governor.Governor]
	health *health.Server
	logger *zap.Logger
}

// New creates a Server around g.
func New(g *governor.Governor, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{health: health.NewServer(), logger: logger.Named("server")}
	s.gov.Store(g)
	return s
}

// Swap replaces the governor used for new calls.
func (s *Server) Swap(g *governor.Governor) {
	s.gov.Store(g)
	s.logger.Info("Governor swapped", zap.Bool("enabled", g.Enabled()))
}

// Register attaches the Governor and health services to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&ServiceDesc, s)
	healthpb.RegisterHealthServer(gs, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Serve runs a gRPC server on lis until ctx is cancelled, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	gs := grpc.NewServer(grpc.UnaryInterceptor(s.logCalls))
	s.Register(gs)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.health.Shutdown()
		gs.GracefulStop()
	}()

	s.logger.Info("Serving", zap.String("addr", lis.Addr().String()))
	err := gs.Serve(lis)
	cancel()
	<-stopped
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func (s *Server) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	s.logger.Debug("Handled call", zap.String("method", info.FullMethod), zap.String("code", status.Code(err).String()))
	return resp, err
}

// #endregion server-struct

// #region handlers

// Decide implements GovernorServer.
func (s *Server) Decide(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req Request
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	plan, err := s.gov.Load().Decide(ctx, req.Turn())
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(plan)
}

// Finalize implements GovernorServer.
func (s *Server) Finalize(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req Request
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	g := s.gov.Load()
	turn := req.Turn()

	var plan governor.Plan
	if req.Plan != nil {
		if err := turn.Validate(); err != nil {
			return nil, toStatus(err)
		}
		plan = *req.Plan
	} else {
		var err error
		if plan, err = g.Decide(ctx, turn); err != nil {
			return nil, toStatus(err)
		}
	}

	var backendErr error
	if req.BackendError != "" {
		backendErr = errors.New(req.BackendError)
	}
	return encode(g.Finalize(ctx, turn, plan, req.Draft, backendErr))
}

func encode(v any) (*structpb.Struct, error) {
	out, err := ToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, governor.ErrInvalidTurn):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// #endregion handlers
