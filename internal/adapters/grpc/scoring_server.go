package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
)

// TransportGRPC labels operations received over gRPC.
const TransportGRPC = "grpc"

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "vulnmanager.cvss.v1.Scoring"

// Status messages, shared wording with the HTTP API.
const (
	msgInvalidVector  = "Invalid CVSS vector string. Format: CVSS:3.1/AV:X/AC:X/PR:X/UI:X/S:X/C:X/I:X/A:X"
	msgInvalidMetrics = "Invalid CVSS metrics. Check that all values are valid."
)

// ScoringServer is the server API of ServiceName. Messages are
// google.protobuf.Struct so clients need no generated stubs:
//
//	Build     {"metrics": {"AV": "N", ...}, "fallback": false}
//	Calculate {"vector": "CVSS:3.1/..."}
//	Resolve   {"vector": "CVSS:3.1/..."}
//	Metrics   google.protobuf.Empty
type ScoringServer interface {
	Build(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Calculate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Metrics(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// Scoring_ServiceDesc describes ServiceName for grpc.Server.RegisterService.
var Scoring_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScoringServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Build", Handler: structHandler("Build", ScoringServer.Build)},
		{MethodName: "Calculate", Handler: structHandler("Calculate", ScoringServer.Calculate)},
		{MethodName: "Resolve", Handler: structHandler("Resolve", ScoringServer.Resolve)},
		{MethodName: "Metrics", Handler: metricsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vulnmanager/cvss/v1/scoring.proto",
}

func structHandler(method string, call func(ScoringServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScoringServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ScoringServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func metricsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoringServer).Metrics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Metrics"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScoringServer).Metrics(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// scoringServer adapts ports.ScoringService to ScoringServer.
type scoringServer struct {
	service ports.ScoringService
}

func (s *scoringServer) Build(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input := make(map[string]string)
	for k, v := range req.GetFields()["metrics"].GetStructValue().GetFields() {
		input[k] = v.GetStringValue()
	}

	if req.GetFields()["fallback"].GetBoolValue() {
		res, fellBack := s.service.BuildWithFallback(ctx, input)
		return resultStruct(res, &fellBack)
	}

	res, err := s.service.Build(ctx, input)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, msgInvalidMetrics)
	}
	return resultStruct(res, nil)
}

func (s *scoringServer) Calculate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	vector, ok := req.GetFields()["vector"].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, msgInvalidVector)
	}

	res, err := s.service.Calculate(ctx, vector.StringValue)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, msgInvalidVector)
	}
	return resultStruct(res, nil)
}

func (s *scoringServer) Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return resultStruct(s.service.Resolve(ctx, req.GetFields()["vector"].GetStringValue()), nil)
}

func (s *scoringServer) Metrics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	raw, err := json.Marshal(s.service.Catalog())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode catalog: %v", err)
	}
	var metrics []any
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return nil, status.Errorf(codes.Internal, "encode catalog: %v", err)
	}

	out, err := structpb.NewStruct(map[string]any{"metrics": metrics})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode catalog: %v", err)
	}
	return out, nil
}

func resultStruct(res domain.ScoreResult, fallback *bool) (*structpb.Struct, error) {
	metrics := make(map[string]any, len(res.Metrics))
	for k, v := range res.Metrics {
		metrics[string(k)] = v
	}

	fields := map[string]any{
		"score":    res.Score,
		"severity": string(res.Severity),
		"vector":   res.Vector,
		"metrics":  metrics,
	}
	if fallback != nil {
		fields["fallback"] = *fallback
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// Server hosts the scoring and health services.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	logger       *slog.Logger
}

// NewServer registers the scoring service backed by service.
func NewServer(service ports.ScoringService) *Server {
	s := &Server{
		healthServer: health.NewServer(),
		logger:       slog.Default().With("component", "grpc"),
	}
	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestInfo))

	s.grpcServer.RegisterService(&Scoring_ServiceDesc, &scoringServer{service: service})
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.healthServer)

	s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return s
}

// GRPCServer returns the underlying gRPC server.
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpcServer
}

// Run listens on port until ctx is cancelled.
func (s *Server) Run(ctx context.Context, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis and stops gracefully when ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.logger.Info("gRPC server shutting down...")
		s.healthServer.Shutdown()
		s.grpcServer.GracefulStop()
	}()

	s.logger.Info("gRPC server listening", "addr", lis.Addr().String())
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server error: %w", err)
	}
	return nil
}

// requestInfo records the caller for auditing and logs each call.
func (s *Server) requestInfo(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ri := domain.RequestInfo{Transport: TransportGRPC}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		ri.ClientIP = p.Addr.String()
		if host, _, err := net.SplitHostPort(ri.ClientIP); err == nil {
			ri.ClientIP = host
		}
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-request-id"); len(v) > 0 && len(v[0]) <= 128 {
			ri.RequestID = v[0]
		}
		if v := md.Get("user-agent"); len(v) > 0 {
			ri.UserAgent = v[0]
		}
	}
	if ri.RequestID == "" {
		ri.RequestID = uuid.NewString()
	}

	start := time.Now()
	resp, err := handler(domain.WithRequestInfo(ctx, ri), req)

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "grpc request",
		slog.String("method", info.FullMethod),
		slog.String("code", status.Code(err).String()),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", ri.RequestID),
		slog.String("client_ip", ri.ClientIP),
	)
	return resp, err
}
