package cluster

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"raftcore/raft"
	"raftcore/raftpb"
)

var _ raftpb.RaftServer = (*GRPCCluster)(nil)

// RequestVote implements raftpb.RaftServer by dispatching to the local
// node.
func (c *GRPCCluster) RequestVote(ctx context.Context, req *raftpb.VoteRequest) (*raftpb.VoteResponse, error) {
	resp := c.node.RequestVote(&raft.RequestVoteRequest{
		Term:         req.Term,
		CandidateID:  raft.NodeID(req.CandidateID),
		LastLogIndex: req.LastLogIndex,
		LastLogTerm:  req.LastLogTerm,
	})
	return &raftpb.VoteResponse{Term: resp.Term, VoteGranted: resp.VoteGranted}, nil
}

// AppendEntries implements raftpb.RaftServer by dispatching to the local
// node.
func (c *GRPCCluster) AppendEntries(ctx context.Context, req *raftpb.AppendRequest) (*raftpb.AppendResponse, error) {
	entries := make([]raft.LogEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = raft.LogEntry{Index: e.Index, Term: e.Term, Command: e.Command}
	}
	resp := c.node.AppendEntries(&raft.AppendEntriesRequest{
		Term:         req.Term,
		LeaderID:     raft.NodeID(req.LeaderID),
		PrevLogIndex: req.PrevLogIndex,
		PrevLogTerm:  req.PrevLogTerm,
		Entries:      entries,
		LeaderCommit: req.LeaderCommit,
	})
	return &raftpb.AppendResponse{Term: resp.Term, Success: resp.Success}, nil
}

// SubmitCommand implements raftpb.RaftServer: a convenience RPC so a
// client that reached a follower doesn't need to discover the leader's
// address itself (spec.md §4.5's redirect path).
func (c *GRPCCluster) SubmitCommand(ctx context.Context, req *raftpb.ClientCommandRequest) (*raftpb.ClientCommandResponse, error) {
	value, err := c.node.MakeRequest(req.Command)
	if err != nil {
		return &raftpb.ClientCommandResponse{ErrorMessage: err.Error()}, nil
	}
	result, ok := value.([]byte)
	if !ok {
		result = []byte(fmt.Sprint(value))
	}
	return &raftpb.ClientCommandResponse{Result: result}, nil
}

// Serve starts the gRPC listener on address in the background.
func (c *GRPCCluster) Serve(address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	c.listener = lis
	c.grpcServer = grpc.NewServer()
	raftpb.RegisterRaftServer(c.grpcServer, c)

	go func() {
		if err := c.grpcServer.Serve(lis); err != nil {
			c.node.Logger().Error("grpc server stopped: %v", err)
		}
	}()
	return nil
}

// StopServing gracefully shuts down the gRPC listener.
func (c *GRPCCluster) StopServing() {
	if c.grpcServer != nil {
		c.grpcServer.GracefulStop()
	}
}
