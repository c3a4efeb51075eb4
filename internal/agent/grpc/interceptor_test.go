package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/sourcesync/internal/auth"
	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/logging"
	pb "github.com/dmitrijs2005/sourcesync/internal/proto"
)

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, token))
}

func TestAccessTokenInterceptor(t *testing.T) {
	secret := "secret"
	s := NewGRPCServer("", logging.Nop(), &fakeCopier{}, secret, 0)

	valid, err := auth.GenerateToken(common.ServiceSubject, []byte(secret), time.Minute)
	require.NoError(t, err)
	forged, err := auth.GenerateToken(common.ServiceSubject, []byte("other"), time.Minute)
	require.NoError(t, err)

	var gotSubject string
	handler := func(ctx context.Context, req any) (any, error) {
		gotSubject, _ = SubjectFromContext(ctx)
		return "ok", nil
	}

	tests := []struct {
		name    string
		ctx     context.Context
		method  string
		code    codes.Code
		subject string
	}{
		{"ping needs no token", context.Background(), pb.PingFullMethodName, codes.OK, ""},
		{"missing metadata", context.Background(), pb.CopyBatchFullMethodName, codes.Unauthenticated, ""},
		{"empty token", withToken(""), pb.CopyFileFullMethodName, codes.Unauthenticated, ""},
		{"forged token", withToken(forged), pb.CopyBatchFullMethodName, codes.Unauthenticated, ""},
		{"valid token", withToken(valid), pb.CopyBatchFullMethodName, codes.OK, common.ServiceSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSubject = ""
			_, err := s.accessTokenInterceptor(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)
			assert.Equal(t, tt.code, status.Code(err))
			assert.Equal(t, tt.subject, gotSubject)
		})
	}
}
