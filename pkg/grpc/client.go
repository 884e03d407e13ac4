package grpc

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type cleanupFunc func()

// NewClient opens a connection whose calls use the JSON codec.
func NewClient(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, cleanupFunc, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("grpc client for %s: %w", addr, err)
	}

	return conn, func() { conn.Close() }, nil
}
