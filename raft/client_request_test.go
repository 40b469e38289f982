package raft

import (
	"testing"
	"time"
)

func TestMakeRequestOnStoppedNode(t *testing.T) {
	nodes, _, _ := createTestCluster(1)
	n := nodes[0]
	n.Stop()

	_, err := n.MakeRequest([]byte("cmd"))
	if err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestMakeRequestBlocksUntilLeaderKnown(t *testing.T) {
	nodes, _, _ := createTestCluster(3)
	defer shutdownCluster(nodes)

	if !awaitCondition(2*time.Second, func() bool { return countLeaders(nodes) == 1 }) {
		t.Fatal("no leader elected")
	}
	leader := findLeader(nodes)

	var follower *Node
	for _, n := range nodes {
		if n.ID() != leader.ID() {
			follower = n
			break
		}
	}

	// Force the follower back to "no leader known yet". The next
	// heartbeat from the real leader restores leaderId well within a
	// single poll interval, so MakeRequest should wait rather than fail.
	follower.mu.Lock()
	follower.leaderID = nil
	follower.mu.Unlock()

	start := time.Now()
	value, err := follower.MakeRequest([]byte("blocked-then-forwarded"))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("MakeRequest failed: %v", err)
	}
	if value == nil {
		t.Fatal("MakeRequest returned a nil applied value")
	}
	if elapsed < leaderPollInterval {
		t.Fatalf("MakeRequest returned after %v, before a single poll interval (%v) elapsed; it should have waited for leaderId instead of failing fast", elapsed, leaderPollInterval)
	}
}

func TestMakeRequestForwardsToKnownLeader(t *testing.T) {
	nodes, _, _ := createTestCluster(3)
	defer shutdownCluster(nodes)

	if !awaitCondition(2*time.Second, func() bool { return countLeaders(nodes) == 1 }) {
		t.Fatal("no leader elected")
	}
	leader := findLeader(nodes)

	var follower *Node
	for _, n := range nodes {
		if n.ID() != leader.ID() {
			follower = n
			break
		}
	}

	if !awaitCondition(time.Second, func() bool {
		follower.mu.Lock()
		defer follower.mu.Unlock()
		return follower.leaderID != nil
	}) {
		t.Fatal("follower never learned the leader's identity")
	}

	value, err := follower.MakeRequest([]byte("forwarded"))
	if err != nil {
		t.Fatalf("forwarded request failed: %v", err)
	}
	if value == nil {
		t.Fatal("forwarded request returned a nil applied value")
	}
}

func TestMakeRequestFailsOnLeadershipLoss(t *testing.T) {
	nodes, _, _ := createTestCluster(3)
	defer shutdownCluster(nodes)

	if !awaitCondition(2*time.Second, func() bool { return countLeaders(nodes) == 1 }) {
		t.Fatal("no leader elected")
	}
	leader := findLeader(nodes)

	leader.mu.Lock()
	leader.role = Leader
	term := leader.currentTerm
	index := leader.appendEntry([]byte("will never commit"))
	ch := make(chan applyResult, 1)
	leader.pendingRequests[index] = ch
	leader.mu.Unlock()

	leader.advanceTerm(term + 1)

	select {
	case result := <-ch:
		if result.err != ErrLeadershipLost {
			t.Fatalf("expected ErrLeadershipLost, got %v", result.err)
		}
	case <-time.After(time.Second):
		t.Fatal("pending request was never failed after stepping down")
	}
}

// recordingCluster is a minimal raft.Cluster stub (no timers, no real
// fan-out) used to pin down MakeRequest's forwarding decision in
// isolation, without the recursive bounce a full fakeNetwork round trip
// would risk if two stale nodes forwarded to each other.
type recordingCluster struct {
	peers      []NodeID
	redirected NodeID
	result     interface{}
}

func (c *recordingCluster) Size() int                     { return len(c.peers) + 1 }
func (c *recordingCluster) PeersExceptSelf() []NodeID     { return c.peers }
func (c *recordingCluster) ElectionTimeoutMs() time.Duration { return 50 * time.Millisecond }

func (c *recordingCluster) RequestVoteFrom(peer NodeID, term uint64, candidateID NodeID, lastLogIndex int64, lastLogTerm uint64) (bool, uint64, error) {
	return false, 0, nil
}

func (c *recordingCluster) SendAppendEntriesTo(peer NodeID, term uint64, leaderID NodeID, prevLogIndex int64, prevLogTerm uint64, entries []LogEntry, leaderCommit int64) (bool, uint64, error) {
	return false, 0, nil
}

func (c *recordingCluster) RedirectRequestTo(peer NodeID, command []byte) (interface{}, error) {
	c.redirected = peer
	return c.result, nil
}

func TestMakeRequestForwardsAroundStaleSelf(t *testing.T) {
	cluster := &recordingCluster{peers: []NodeID{2, 3}, result: "ok"}
	n := NewNode(Config{ID: 1, StateMachine: &testStateMachine{}, Logger: NewLogger(1, ERROR)})
	n.Configure(cluster)

	n.mu.Lock()
	self := n.id
	n.role = Follower
	n.leaderID = &self
	n.mu.Unlock()

	value, err := n.MakeRequest([]byte("stale-self"))
	if err != nil {
		t.Fatalf("MakeRequest failed: %v", err)
	}
	if value != "ok" {
		t.Fatalf("expected the stub's canned result, got %v", value)
	}
	if cluster.redirected == n.id {
		t.Fatal("MakeRequest forwarded to itself instead of picking another peer")
	}
}

func TestMakeRequestNoLeaderKnownWithNoOtherPeer(t *testing.T) {
	cluster := &recordingCluster{}
	n := NewNode(Config{ID: 1, StateMachine: &testStateMachine{}, Logger: NewLogger(1, ERROR)})
	n.Configure(cluster)

	n.mu.Lock()
	self := n.id
	n.role = Follower
	n.leaderID = &self
	n.mu.Unlock()

	_, err := n.MakeRequest([]byte("cmd"))
	if err != ErrNoLeaderKnown {
		t.Fatalf("expected ErrNoLeaderKnown, got %v", err)
	}
}
