package raft

import (
	"testing"
	"time"
)

func TestInitialState(t *testing.T) {
	nodes, _, net := createTestCluster(3)
	defer shutdownCluster(nodes)
	_ = net

	for _, n := range nodes {
		term, isLeader := n.GetState()
		if isLeader {
			t.Fatalf("node %d claims leadership before any election", n.ID())
		}
		if term != 0 {
			t.Fatalf("node %d started at term %d, want 0", n.ID(), term)
		}
	}
}

func TestSingleNodeElection(t *testing.T) {
	nodes, _, _ := createTestCluster(1)
	defer shutdownCluster(nodes)

	if !awaitCondition(500*time.Millisecond, func() bool { return countLeaders(nodes) == 1 }) {
		t.Fatal("single node never became leader")
	}
}

func TestBasicElection(t *testing.T) {
	nodes, _, _ := createTestCluster(3)
	defer shutdownCluster(nodes)

	if !awaitCondition(2*time.Second, func() bool { return countLeaders(nodes) == 1 }) {
		t.Fatalf("expected exactly one leader, got %d", countLeaders(nodes))
	}
}

func TestReElection(t *testing.T) {
	nodes, _, _ := createTestCluster(3)
	defer shutdownCluster(nodes)

	if !awaitCondition(2*time.Second, func() bool { return countLeaders(nodes) == 1 }) {
		t.Fatal("no leader elected initially")
	}

	oldLeader := findLeader(nodes)
	oldLeader.Stop()

	if !awaitCondition(2*time.Second, func() bool {
		leader := findLeader(nodes)
		return leader != nil && leader.ID() != oldLeader.ID()
	}) {
		t.Fatal("no new leader elected after old leader stopped")
	}
}

func TestNetworkPartitionHealing(t *testing.T) {
	nodes, _, net := createTestCluster(5)
	defer shutdownCluster(nodes)

	if !awaitCondition(2*time.Second, func() bool { return countLeaders(nodes) == 1 }) {
		t.Fatal("no leader elected initially")
	}

	// Partition a minority (2 of 5): the majority side must still have
	// exactly one leader.
	minority := []NodeID{nodes[3].ID(), nodes[4].ID()}
	for _, id := range minority {
		net.partition(id, true)
	}

	if !awaitCondition(2*time.Second, func() bool {
		count := 0
		for _, n := range nodes[:3] {
			if _, isLeader := n.GetState(); isLeader {
				count++
			}
		}
		return count == 1
	}) {
		t.Fatal("majority side lost its leader during partition")
	}

	for _, id := range minority {
		net.partition(id, false)
	}

	if !awaitCondition(2*time.Second, func() bool { return countLeaders(nodes) == 1 }) {
		t.Fatal("cluster did not converge to one leader after healing")
	}
}

func TestVoteRefusalForOutdatedLog(t *testing.T) {
	nodes, _, _ := createTestCluster(2)
	defer shutdownCluster(nodes)

	voter := nodes[0]
	voter.mu.Lock()
	voter.log = []LogEntry{{Index: 0, Term: 1}, {Index: 1, Term: 2}, {Index: 2, Term: 2}}
	voter.currentTerm = 3
	voter.mu.Unlock()

	resp := voter.RequestVote(&RequestVoteRequest{
		Term:         4,
		CandidateID:  NodeID(99),
		LastLogIndex: 1,
		LastLogTerm:  2,
	})

	if resp.VoteGranted {
		t.Fatal("vote granted to a candidate with a shorter log")
	}
	if resp.Term != 4 {
		t.Fatalf("expected reply term 4, got %d", resp.Term)
	}
}

func TestOneVotePerTerm(t *testing.T) {
	nodes, _, _ := createTestCluster(3)
	defer shutdownCluster(nodes)

	voter := nodes[0]

	first := voter.RequestVote(&RequestVoteRequest{Term: 5, CandidateID: NodeID(2)})
	if !first.VoteGranted {
		t.Fatal("expected first vote in term 5 to be granted")
	}

	second := voter.RequestVote(&RequestVoteRequest{Term: 5, CandidateID: NodeID(3)})
	if second.VoteGranted {
		t.Fatal("voter granted a second vote in the same term to a different candidate")
	}

	// Same candidate re-requesting in the same term is idempotent.
	third := voter.RequestVote(&RequestVoteRequest{Term: 5, CandidateID: NodeID(2)})
	if !third.VoteGranted {
		t.Fatal("voter denied a repeat vote for the same candidate in the same term")
	}
}

func TestStoppedNodeAlwaysFails(t *testing.T) {
	nodes, _, _ := createTestCluster(1)
	n := nodes[0]
	n.Stop()

	voteResp := n.RequestVote(&RequestVoteRequest{Term: 100, CandidateID: NodeID(2)})
	if voteResp.VoteGranted {
		t.Fatal("stopped node granted a vote")
	}

	appendResp := n.AppendEntries(&AppendEntriesRequest{Term: 100, LeaderID: NodeID(2)})
	if appendResp.Success {
		t.Fatal("stopped node reported AppendEntries success")
	}
}
