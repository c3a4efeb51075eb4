package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/sourcesync/internal/common"
	pb "github.com/dmitrijs2005/sourcesync/internal/proto"
)

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK", Hostname: s.hostname}, nil
}

func (s *GRPCServer) CopyBatch(ctx context.Context, req *pb.CopyBatchRequest) (*pb.CopyBatchResponse, error) {
	s.logger.Info(ctx, "Batch copy request", "files", len(req.Files), "workspace_root", req.Roots.WorkspaceRoot)

	res, err := s.copier.CopyBatch(ctx, req.Files, req.Roots)
	if err != nil {
		return nil, toStatus(err)
	}

	return pb.NewCopyBatchResponse(res), nil
}

func (s *GRPCServer) CopyFile(ctx context.Context, req *pb.CopyFileRequest) (*pb.CopyFileResponse, error) {
	s.logger.Debug(ctx, "File copy request", "logical_name", req.File.LogicalName)

	res, err := s.copier.CopyFile(ctx, req.File, req.Roots)
	if err != nil {
		return nil, toStatus(err)
	}

	return pb.NewCopyFileResponse(res), nil
}

func toStatus(err error) error {
	if errors.Is(err, common.ErrInterrupted) {
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
