package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "sourcesync.agent.AgentService"

	PingFullMethodName      = "/" + ServiceName + "/Ping"
	CopyBatchFullMethodName = "/" + ServiceName + "/CopyBatch"
	CopyFileFullMethodName  = "/" + ServiceName + "/CopyFile"
)

// AgentServiceClient is the controller side of the agent service.
type AgentServiceClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	CopyBatch(ctx context.Context, in *CopyBatchRequest, opts ...grpc.CallOption) (*CopyBatchResponse, error)
	CopyFile(ctx context.Context, in *CopyFileRequest, opts ...grpc.CallOption) (*CopyFileResponse, error)
}

type agentServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAgentServiceClient(cc grpc.ClientConnInterface) AgentServiceClient {
	return &agentServiceClient{cc}
}

func (c *agentServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *agentServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.invoke(ctx, PingFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *agentServiceClient) CopyBatch(ctx context.Context, in *CopyBatchRequest, opts ...grpc.CallOption) (*CopyBatchResponse, error) {
	out := new(CopyBatchResponse)
	if err := c.invoke(ctx, CopyBatchFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *agentServiceClient) CopyFile(ctx context.Context, in *CopyFileRequest, opts ...grpc.CallOption) (*CopyFileResponse, error) {
	out := new(CopyFileResponse)
	if err := c.invoke(ctx, CopyFileFullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// AgentServiceServer is the agent side of the service. Implementations
// must embed UnimplementedAgentServiceServer.
type AgentServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	CopyBatch(context.Context, *CopyBatchRequest) (*CopyBatchResponse, error)
	CopyFile(context.Context, *CopyFileRequest) (*CopyFileResponse, error)
	mustEmbedUnimplementedAgentServiceServer()
}

type UnimplementedAgentServiceServer struct{}

func (UnimplementedAgentServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedAgentServiceServer) CopyBatch(context.Context, *CopyBatchRequest) (*CopyBatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CopyBatch not implemented")
}
func (UnimplementedAgentServiceServer) CopyFile(context.Context, *CopyFileRequest) (*CopyFileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CopyFile not implemented")
}
func (UnimplementedAgentServiceServer) mustEmbedUnimplementedAgentServiceServer() {}

func RegisterAgentServiceServer(s grpc.ServiceRegistrar, srv AgentServiceServer) {
	s.RegisterService(&AgentService_ServiceDesc, srv)
}

func _AgentService_Ping_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentServiceServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PingFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentServiceServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AgentService_CopyBatch_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CopyBatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentServiceServer).CopyBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CopyBatchFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentServiceServer).CopyBatch(ctx, req.(*CopyBatchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AgentService_CopyFile_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CopyFileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentServiceServer).CopyFile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CopyFileFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentServiceServer).CopyFile(ctx, req.(*CopyFileRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AgentService_ServiceDesc is the grpc.ServiceDesc for the agent service.
var AgentService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AgentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: _AgentService_Ping_Handler},
		{MethodName: "CopyBatch", Handler: _AgentService_CopyBatch_Handler},
		{MethodName: "CopyFile", Handler: _AgentService_CopyFile_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sourcesync/agent",
}
