// Package grpc exposes the agent copier over gRPC.
package grpc

import (
	"context"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/sourcesync/internal/logging"
	"github.com/dmitrijs2005/sourcesync/internal/models"
	pb "github.com/dmitrijs2005/sourcesync/internal/proto"
)

// Copier is the agent work the service delegates to.
type Copier interface {
	CopyBatch(ctx context.Context, files []models.FileReference, roots models.AuthorizedRoots) (models.BatchResult, error)
	CopyFile(ctx context.Context, ref models.FileReference, roots models.AuthorizedRoots) (models.FileResult, error)
}

type GRPCServer struct {
	pb.UnimplementedAgentServiceServer
	address     string
	copier      Copier
	logger      logging.Logger
	jwtSecret   []byte
	maxSendSize int
	hostname    string
}

func NewGRPCServer(a string, l logging.Logger, c Copier, secretKey string, maxSendSize int) *GRPCServer {
	hostname, _ := os.Hostname()
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		copier:      c,
		jwtSecret:   []byte(secretKey),
		maxSendSize: maxSendSize,
		hostname:    hostname,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(s.accessTokenInterceptor)}
	if s.maxSendSize > 0 {
		opts = append(opts, grpc.MaxSendMsgSize(s.maxSendSize))
	}
	srv := grpc.NewServer(opts...)

	pb.RegisterAgentServiceServer(srv, s)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
