// Package client talks to an agent over gRPC. It implements both copy paths
// the coordinator needs: CopyBatch for the single round trip and CopyFile
// for the per-file fallback.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/sourcesync/internal/auth"
	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/models"
	pb "github.com/dmitrijs2005/sourcesync/internal/proto"
)

const (
	tokenValidity = 5 * time.Minute
	// tokens are re-minted when they get this close to expiry
	tokenRenewBefore = 30 * time.Second
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.AgentServiceClient
	secretKey   []byte
	maxRecvSize int

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
	now         func() time.Time
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// token returns a cached access token, minting a new one when needed.
func (s *GRPCClient) token(force bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !force && s.accessToken != "" && now.Add(tokenRenewBefore).Before(s.expiresAt) {
		return s.accessToken, nil
	}

	tok, err := auth.GenerateToken(common.ServiceSubject, s.secretKey, tokenValidity)
	if err != nil {
		return "", err
	}
	s.accessToken = tok
	s.expiresAt = now.Add(tokenValidity)
	return tok, nil
}

// accessTokenInterceptor attaches the token to every call but Ping. A call
// rejected as unauthenticated is retried once with a freshly minted token.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == pb.PingFullMethodName {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tok, err := s.token(false)
	if err != nil {
		return err
	}

	err = invoker(withAccessToken(ctx, tok), method, req, reply, cc, opts...)
	if status.Code(err) != codes.Unauthenticated {
		return err
	}

	tok, terr := s.token(true)
	if terr != nil {
		return err
	}
	return invoker(withAccessToken(ctx, tok), method, req, reply, cc, opts...)
}

// NewAgentClient prepares a client for the agent at endpointURL. No
// connection is made until the first call. maxRecvSize bounds the size of a
// batch archive the controller accepts.
func NewAgentClient(endpointURL string, secretKey string, maxRecvSize int) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		secretKey:   []byte(secretKey),
		maxRecvSize: maxRecvSize,
		now:         time.Now,
	}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}
	if s.maxRecvSize > 0 {
		opts = append(opts, grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(s.maxRecvSize)))
	}

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewAgentServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Ping checks the agent answers and returns its hostname.
func (s *GRPCClient) Ping(ctx context.Context) (string, error) {
	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return "", s.mapError(ctx, err)
	}
	if resp.Status != "OK" {
		return "", fmt.Errorf("agent status %q", resp.Status)
	}
	return resp.Hostname, nil
}

func (s *GRPCClient) CopyBatch(ctx context.Context, files []models.FileReference, roots models.AuthorizedRoots) (models.BatchResult, error) {
	resp, err := s.client.CopyBatch(ctx, &pb.CopyBatchRequest{Files: files, Roots: roots})
	if err != nil {
		return models.BatchResult{}, s.mapError(ctx, err)
	}
	return resp.BatchResult(), nil
}

func (s *GRPCClient) CopyFile(ctx context.Context, ref models.FileReference, roots models.AuthorizedRoots) (models.FileResult, error) {
	resp, err := s.client.CopyFile(ctx, &pb.CopyFileRequest{File: ref, Roots: roots})
	if err != nil {
		return models.FileResult{}, s.mapError(ctx, err)
	}
	return resp.FileResult(), nil
}

// mapError turns a gRPC failure into the controller's error taxonomy. A
// cancelled caller context always means interruption.
func (s *GRPCClient) mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return common.Interrupted(ctxErr)
	}

	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", common.ErrChannelUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
