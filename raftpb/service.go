package raftpb

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "raftpb.Raft"

// RaftServer is implemented by the consensus core's RPC-facing adapter.
type RaftServer interface {
	RequestVote(ctx context.Context, req *VoteRequest) (*VoteResponse, error)
	AppendEntries(ctx context.Context, req *AppendRequest) (*AppendResponse, error)
	SubmitCommand(ctx context.Context, req *ClientCommandRequest) (*ClientCommandResponse, error)
}

// RaftClient is the client-side stub — what protoc-gen-go-grpc would
// generate from a Raft service definition, hand-written here since
// there's no .proto file driving codegen.
type RaftClient interface {
	RequestVote(ctx context.Context, req *VoteRequest, opts ...grpc.CallOption) (*VoteResponse, error)
	AppendEntries(ctx context.Context, req *AppendRequest, opts ...grpc.CallOption) (*AppendResponse, error)
	SubmitCommand(ctx context.Context, req *ClientCommandRequest, opts ...grpc.CallOption) (*ClientCommandResponse, error)
}

type raftClient struct {
	cc *grpc.ClientConn
}

// NewRaftClient wraps conn, selecting the raftwire codec for every call.
func NewRaftClient(conn *grpc.ClientConn) RaftClient {
	return &raftClient{cc: conn}
}

func (c *raftClient) RequestVote(ctx context.Context, req *VoteRequest, opts ...grpc.CallOption) (*VoteResponse, error) {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	resp := new(VoteResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/RequestVote", req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *raftClient) AppendEntries(ctx context.Context, req *AppendRequest, opts ...grpc.CallOption) (*AppendResponse, error) {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	resp := new(AppendResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/AppendEntries", req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *raftClient) SubmitCommand(ctx context.Context, req *ClientCommandRequest, opts ...grpc.CallOption) (*ClientCommandResponse, error) {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	resp := new(ClientCommandResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/SubmitCommand", req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func _Raft_RequestVote_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(VoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).RequestVote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RequestVote"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftServer).RequestVote(ctx, req.(*VoteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Raft_AppendEntries_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AppendRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).AppendEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AppendEntries"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftServer).AppendEntries(ctx, req.(*AppendRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Raft_SubmitCommand_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClientCommandRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).SubmitCommand(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/SubmitCommand"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftServer).SubmitCommand(ctx, req.(*ClientCommandRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// emits from a .proto service block.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RaftServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RequestVote", Handler: _Raft_RequestVote_Handler},
		{MethodName: "AppendEntries", Handler: _Raft_AppendEntries_Handler},
		{MethodName: "SubmitCommand", Handler: _Raft_SubmitCommand_Handler},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterRaftServer registers srv on s using ServiceDesc.
func RegisterRaftServer(s grpc.ServiceRegistrar, srv RaftServer) {
	s.RegisterService(&ServiceDesc, srv)
}
