package ledgergrpc

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server serves a ledger.Node together with the standard health service.
type Server struct {
	node   *ledger.Node
	health *health.Server
	logger logging.Logger
}

func NewServer(node *ledger.Node, l logging.Logger) *Server {
	s := &Server{
		node:   node,
		health: health.NewServer(),
		logger: l.With("module", "grpc_server"),
	}
	s.SetServing(true)
	return s
}

// SetServing toggles both the node availability and the health status.
func (s *Server) SetServing(serving bool) {
	s.node.SetAvailable(serving)
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Register adds the ledger and health services to gs.
func (s *Server) Register(gs *grpc.Server) {
	RegisterLedgerServer(gs, s)
	healthpb.RegisterHealthServer(gs, s.health)
}

// NewGRPCServer builds a *grpc.Server with tracing and request logging and
// registers s on it.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(s.loggingInterceptor),
	}, opts...)
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs
}

// Serve accepts connections on lis until ctx is done, then drains.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	gs := s.NewGRPCServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		s.node.SetAvailable(false)
		gs.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())
	if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "code", status.Code(err).String(), "elapsed", time.Since(start))
	return resp, err
}

func (s *Server) IsAvailable(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.node.IsAvailable(ctx)), nil
}

func (s *Server) GetData(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	v, err := s.node.Get(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(v), nil
}

func (s *Server) GetVersioned(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	v, ver, err := s.node.GetVersioned(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := structpb.NewStruct(map[string]any{
		fieldValue:   base64.StdEncoding.EncodeToString(v),
		fieldVersion: strconv.FormatUint(ver, 10),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) SetData(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	key := firstHeader(md, common.LedgerKeyHeaderName)
	token := firstHeader(md, common.LedgerSignatureHeaderName)
	value := in.GetValue()
	if value == nil {
		value = []byte{}
	}

	var err error
	var txID string
	if raw := firstHeader(md, common.LedgerVersionHeaderName); raw != "" {
		expected, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil {
			return nil, status.Errorf(codes.InvalidArgument, "bad %s: %q", common.LedgerVersionHeaderName, raw)
		}
		c, werr := s.node.SetIfVersion(ctx, key, value, token, expected)
		txID, err = c.TxID, werr
	} else {
		c, werr := s.node.Set(ctx, key, value, token)
		txID, err = c.TxID, werr
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(txID), nil
}

func firstHeader(md metadata.MD, name string) string {
	if vals := md.Get(name); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, common.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrWriteRejected):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrVersionConflict):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
