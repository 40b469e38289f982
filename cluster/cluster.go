// Package cluster adapts raft.Cluster to a real network: gRPC transport
// between nodes and a fixed, statically-configured membership list.
// Grounded on the teacher's raft/rpc_client.go, raft/rpc_server.go, and
// cluster/node_registry.go's peer bookkeeping — the hash-ring sharding
// layer those files sat alongside is a different concern (key-to-node
// assignment) and isn't part of a Raft group's own membership, so it
// isn't carried over here.
package cluster

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"raftcore/raft"
	"raftcore/raftpb"
)

// Peer is one other member of the Raft group.
type Peer struct {
	ID      raft.NodeID
	Address string
}

// GRPCCluster implements raft.Cluster over gRPC and doubles as the gRPC
// server adapter that turns inbound RPCs back into calls on the local
// Node. Membership is fixed at construction time — dynamic
// reconfiguration is an explicit spec.md Non-goal.
type GRPCCluster struct {
	selfID raft.NodeID
	peers  map[raft.NodeID]string

	electionTimeoutMin time.Duration
	electionTimeoutMax time.Duration
	rpcTimeout         time.Duration

	mu    sync.Mutex
	conns map[raft.NodeID]*grpc.ClientConn

	node       *raft.Node
	grpcServer *grpc.Server
	listener   net.Listener
}

// Config configures a GRPCCluster.
type Config struct {
	SelfID  raft.NodeID
	Peers   []Peer
	// ElectionTimeoutMin/Max bound the randomized election timeout
	// (spec.md §4.1). Defaults to 150-300ms, the classic Raft range, if
	// left zero.
	ElectionTimeoutMin time.Duration
	ElectionTimeoutMax time.Duration
	// RPCTimeout bounds a single outbound RequestVote/AppendEntries
	// call. Defaults to 2x ElectionTimeoutMax if left zero.
	RPCTimeout time.Duration
}

// New builds a GRPCCluster from cfg. AttachNode must be called before
// Serve.
func New(cfg Config) *GRPCCluster {
	min := cfg.ElectionTimeoutMin
	max := cfg.ElectionTimeoutMax
	if min == 0 {
		min = 150 * time.Millisecond
	}
	if max == 0 {
		max = 300 * time.Millisecond
	}
	timeout := cfg.RPCTimeout
	if timeout == 0 {
		timeout = 2 * max
	}

	peers := make(map[raft.NodeID]string, len(cfg.Peers))
	for _, p := range cfg.Peers {
		peers[p.ID] = p.Address
	}

	return &GRPCCluster{
		selfID:             cfg.SelfID,
		peers:              peers,
		electionTimeoutMin: min,
		electionTimeoutMax: max,
		rpcTimeout:         timeout,
		conns:              make(map[raft.NodeID]*grpc.ClientConn),
	}
}

// AttachNode wires the local Node that inbound RPCs are dispatched to.
func (c *GRPCCluster) AttachNode(n *raft.Node) {
	c.node = n
}

// Size implements raft.Cluster.
func (c *GRPCCluster) Size() int {
	return len(c.peers) + 1
}

// PeersExceptSelf implements raft.Cluster.
func (c *GRPCCluster) PeersExceptSelf() []raft.NodeID {
	ids := make([]raft.NodeID, 0, len(c.peers))
	for id := range c.peers {
		ids = append(ids, id)
	}
	return ids
}

// ElectionTimeoutMs implements raft.Cluster, returning a fresh
// crypto/rand-sourced duration in [min, max) on every call — the same
// source the teacher's raft/util.go randomInt uses, so a restart never
// reuses a predictable seed.
func (c *GRPCCluster) ElectionTimeoutMs() time.Duration {
	span := int64(c.electionTimeoutMax - c.electionTimeoutMin)
	if span <= 0 {
		return c.electionTimeoutMin
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return c.electionTimeoutMin
	}
	n := int64(binary.BigEndian.Uint64(buf[:])) % span
	if n < 0 {
		n = -n
	}
	return c.electionTimeoutMin + time.Duration(n)
}

func (c *GRPCCluster) connFor(peer raft.NodeID) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[peer]; ok {
		return conn, nil
	}

	address, ok := c.peers[peer]
	if !ok {
		return nil, fmt.Errorf("cluster: unknown peer %d", peer)
	}

	conn, err := grpc.Dial(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	c.conns[peer] = conn
	return conn, nil
}

// RequestVoteFrom implements raft.Cluster.
func (c *GRPCCluster) RequestVoteFrom(peer raft.NodeID, term uint64, candidateID raft.NodeID, lastLogIndex int64, lastLogTerm uint64) (bool, uint64, error) {
	conn, err := c.connFor(peer)
	if err != nil {
		return false, 0, err
	}
	client := raftpb.NewRaftClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), c.rpcTimeout)
	defer cancel()

	resp, err := client.RequestVote(ctx, &raftpb.VoteRequest{
		Term:         term,
		CandidateID:  uint64(candidateID),
		LastLogIndex: lastLogIndex,
		LastLogTerm:  lastLogTerm,
	})
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", raft.ErrTransport, err)
	}
	return resp.VoteGranted, resp.Term, nil
}

// SendAppendEntriesTo implements raft.Cluster.
func (c *GRPCCluster) SendAppendEntriesTo(peer raft.NodeID, term uint64, leaderID raft.NodeID, prevLogIndex int64, prevLogTerm uint64, entries []raft.LogEntry, leaderCommit int64) (bool, uint64, error) {
	conn, err := c.connFor(peer)
	if err != nil {
		return false, 0, err
	}
	client := raftpb.NewRaftClient(conn)

	wireEntries := make([]raftpb.LogEntry, len(entries))
	for i, e := range entries {
		wireEntries[i] = raftpb.LogEntry{Index: e.Index, Term: e.Term, Command: e.Command}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.rpcTimeout)
	defer cancel()

	resp, err := client.AppendEntries(ctx, &raftpb.AppendRequest{
		Term:         term,
		LeaderID:     uint64(leaderID),
		PrevLogIndex: prevLogIndex,
		PrevLogTerm:  prevLogTerm,
		Entries:      wireEntries,
		LeaderCommit: leaderCommit,
	})
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", raft.ErrTransport, err)
	}
	return resp.Success, resp.Term, nil
}

// RedirectRequestTo implements raft.Cluster: forwards a client command
// to whichever peer is currently believed to be the leader.
func (c *GRPCCluster) RedirectRequestTo(peer raft.NodeID, command []byte) (interface{}, error) {
	conn, err := c.connFor(peer)
	if err != nil {
		return nil, err
	}
	client := raftpb.NewRaftClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), c.rpcTimeout)
	defer cancel()

	resp, err := client.SubmitCommand(ctx, &raftpb.ClientCommandRequest{Command: command})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raft.ErrTransport, err)
	}
	if resp.ErrorMessage != "" {
		return nil, errors.New(resp.ErrorMessage)
	}
	return resp.Result, nil
}

// Close tears down every outbound connection.
func (c *GRPCCluster) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.conns {
		conn.Close()
	}
}
