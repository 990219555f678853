package client

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// flattenMethod is the full gRPC method name of GridService.Flatten.
const flattenMethod = "/taskgrid.v1.GridService/Flatten"

// GRPCClient renders grids over the gRPC transport. It covers the read path
// only; mutations go through HTTPClient.
type GRPCClient struct {
	conn   *grpc.ClientConn
	token  string
	health healthpb.HealthClient
}

// NewGRPCClient connects to the given gRPC address and returns a client.
// Extra dial options are appended after the default insecure credentials.
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		token:  token,
		health: healthpb.NewHealthClient(conn),
	}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) withAuth(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

// Tree calls GridService.Flatten. The request and response travel as
// google.protobuf.Struct documents with the same shape as the HTTP API.
func (c *GRPCClient) Tree(ctx context.Context, req *TreeRequest) (*TreeResponse, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	in := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, in); err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(c.withAuth(ctx), flattenMethod, in, out); err != nil {
		return nil, err
	}

	raw, err = protojson.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	var resp TreeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

// Health reports the serving status of the whole server.
func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return "", err
	}
	return resp.GetStatus().String(), nil
}
