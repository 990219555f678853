package server

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// GridServiceName is the fully qualified gRPC service name.
const GridServiceName = "taskgrid.v1.GridService"

// FlattenMethod is the full method name of GridService.Flatten.
const FlattenMethod = "/" + GridServiceName + "/Flatten"

// GridServiceServer is the server API for GridService. Messages are
// google.protobuf.Struct values carrying the same JSON documents as the
// HTTP /v1/tree endpoint.
type GridServiceServer interface {
	Flatten(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// GridServiceDesc describes GridService for registration on a grpc.Server.
var GridServiceDesc = grpc.ServiceDesc{
	ServiceName: GridServiceName,
	HandlerType: (*GridServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Flatten", Handler: flattenHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskgrid/v1/grid.proto",
}

func flattenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GridServiceServer).Flatten(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FlattenMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GridServiceServer).Flatten(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Flatten builds and flattens a project's grid. The request accepts the
// fields project_id, expanded, view, expand_all, visible_only and rollup.
func (s *GridServer) Flatten(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := protojson.Marshal(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	var q gridQuery
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	res, err := s.grid(ctx, q)
	if err != nil {
		return nil, grpcError(err)
	}

	b, err := json.Marshal(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode grid: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode grid: %v", err)
	}
	return out, nil
}

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the GridService, the health service and reflection, and returns the server
// ready to serve.
func NewGRPCServer(gridServer *GridServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			gridServer.requestInterceptor,
			gridServer.recoveryInterceptor,
			AuthInterceptor(authToken),
		),
	)

	srv.RegisterService(&GridServiceDesc, gridServer)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(GridServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	reflection.Register(srv)

	return srv
}
