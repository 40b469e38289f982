package raft

import (
	"errors"
	"sync"
	"time"
)

// fakeNetwork is an in-process stand-in for a real transport: tests
// that need to exercise election/replication/commit behavior call into
// sibling Nodes directly instead of going over gRPC, the same
// trade-off the teacher's election_test.go made with real goroutines
// and real timers but an in-memory RPC path.
type fakeNetwork struct {
	mu          sync.Mutex
	nodes       map[NodeID]*Node
	partitioned map[NodeID]bool
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		nodes:       make(map[NodeID]*Node),
		partitioned: make(map[NodeID]bool),
	}
}

func (net *fakeNetwork) register(id NodeID, n *Node) {
	net.mu.Lock()
	defer net.mu.Unlock()
	net.nodes[id] = n
}

func (net *fakeNetwork) partition(id NodeID, cut bool) {
	net.mu.Lock()
	defer net.mu.Unlock()
	net.partitioned[id] = cut
}

func (net *fakeNetwork) reachable(a, b NodeID) bool {
	net.mu.Lock()
	defer net.mu.Unlock()
	return !net.partitioned[a] && !net.partitioned[b]
}

func (net *fakeNetwork) target(id NodeID) *Node {
	net.mu.Lock()
	defer net.mu.Unlock()
	return net.nodes[id]
}

type fakeCluster struct {
	net   *fakeNetwork
	self  NodeID
	peers []NodeID
}

func (c *fakeCluster) Size() int { return len(c.peers) + 1 }

func (c *fakeCluster) PeersExceptSelf() []NodeID {
	out := make([]NodeID, len(c.peers))
	copy(out, c.peers)
	return out
}

func (c *fakeCluster) ElectionTimeoutMs() time.Duration {
	return time.Duration(randomInt(40, 80)) * time.Millisecond
}

var errUnreachable = errors.New("fakeCluster: peer unreachable")

func (c *fakeCluster) RequestVoteFrom(peer NodeID, term uint64, candidateID NodeID, lastLogIndex int64, lastLogTerm uint64) (bool, uint64, error) {
	if !c.net.reachable(c.self, peer) {
		return false, 0, errUnreachable
	}
	target := c.net.target(peer)
	if target == nil {
		return false, 0, errUnreachable
	}
	resp := target.RequestVote(&RequestVoteRequest{
		Term:         term,
		CandidateID:  candidateID,
		LastLogIndex: lastLogIndex,
		LastLogTerm:  lastLogTerm,
	})
	return resp.VoteGranted, resp.Term, nil
}

func (c *fakeCluster) SendAppendEntriesTo(peer NodeID, term uint64, leaderID NodeID, prevLogIndex int64, prevLogTerm uint64, entries []LogEntry, leaderCommit int64) (bool, uint64, error) {
	if !c.net.reachable(c.self, peer) {
		return false, 0, errUnreachable
	}
	target := c.net.target(peer)
	if target == nil {
		return false, 0, errUnreachable
	}
	resp := target.AppendEntries(&AppendEntriesRequest{
		Term:         term,
		LeaderID:     leaderID,
		PrevLogIndex: prevLogIndex,
		PrevLogTerm:  prevLogTerm,
		Entries:      entries,
		LeaderCommit: leaderCommit,
	})
	return resp.Success, resp.Term, nil
}

func (c *fakeCluster) RedirectRequestTo(peer NodeID, command []byte) (interface{}, error) {
	if !c.net.reachable(c.self, peer) {
		return nil, errUnreachable
	}
	target := c.net.target(peer)
	if target == nil {
		return nil, errUnreachable
	}
	return target.MakeRequest(command)
}

// testStateMachine records every applied command in order.
type testStateMachine struct {
	mu      sync.Mutex
	applied [][]byte
}

func (s *testStateMachine) Apply(command []byte) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, command)
	return len(s.applied), nil
}

func (s *testStateMachine) TestConnection() error { return nil }

func (s *testStateMachine) appliedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

// createTestCluster builds n nodes wired to each other over a
// fakeNetwork and starts them all. Callers must call shutdownCluster
// when done.
func createTestCluster(n int) ([]*Node, []*testStateMachine, *fakeNetwork) {
	net := newFakeNetwork()
	nodes := make([]*Node, n)
	machines := make([]*testStateMachine, n)

	ids := make([]NodeID, n)
	for i := 0; i < n; i++ {
		ids[i] = NodeID(i + 1)
	}

	for i, id := range ids {
		sm := &testStateMachine{}
		machines[i] = sm
		node := NewNode(Config{
			ID:           id,
			StateMachine: sm,
			Logger:       NewLogger(id, ERROR),
		})
		nodes[i] = node
		net.register(id, node)
	}

	for i, id := range ids {
		var peers []NodeID
		for _, other := range ids {
			if other != id {
				peers = append(peers, other)
			}
		}
		nodes[i].Configure(&fakeCluster{net: net, self: id, peers: peers})
	}

	for _, node := range nodes {
		node.Run()
	}

	return nodes, machines, net
}

func shutdownCluster(nodes []*Node) {
	for _, n := range nodes {
		n.Stop()
	}
}

func countLeaders(nodes []*Node) int {
	count := 0
	for _, n := range nodes {
		if _, isLeader := n.GetState(); isLeader {
			count++
		}
	}
	return count
}

func findLeader(nodes []*Node) *Node {
	for _, n := range nodes {
		if _, isLeader := n.GetState(); isLeader {
			return n
		}
	}
	return nil
}

func awaitCondition(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
