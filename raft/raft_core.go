// raft/raft_core.go
package raft

import (
	"sync"
	"time"
)

// NodeID uniquely identifies a node within a cluster, stable for the
// node's lifetime.
type NodeID uint64

// NodeState represents the current state of a Raft node.
type NodeState int

const (
	Follower NodeState = iota
	Candidate
	Leader
	Stopped
)

func (s NodeState) String() string {
	switch s {
	case Follower:
		return "Follower"
	case Candidate:
		return "Candidate"
	case Leader:
		return "Leader"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Node is a single Raft participant. It owns the role state machine, the
// replicated log, and the two timers that drive elections and
// heartbeats. Every exported method is safe to call from multiple
// goroutines; mu is the single lock guarding every field spec.md §5
// lists as shared mutable state.
type Node struct {
	mu sync.Mutex

	id NodeID

	// Persistent-intent state. currentTerm/votedFor are written only by
	// advanceTermLocked (role.go), startElection and RequestVote
	// (election.go), and Configure when restoring from the store; log is
	// written only by appendEntry/truncateAndAppend (log.go) and that same
	// restore. Every
	// mutation is flushed to store before the RPC reply depending on it
	// is returned, per spec.md §6.
	currentTerm uint64
	votedFor    *NodeID
	log         []LogEntry

	// Volatile state, all nodes.
	role        NodeState
	leaderID    *NodeID
	voteCount   int
	commitIndex int64 // -1 means "nothing committed"
	lastApplied int64 // -1 means "nothing applied"

	// Volatile state, leaders only. Reset on every promotion (election.go
	// becomeLeader).
	nextIndex  map[NodeID]int64
	matchIndex map[NodeID]int64

	// pendingRequests lets MakeRequest block a caller until its entry's
	// index has been applied; resolves spec.md §9 open question 6.
	pendingRequests map[int64]chan applyResult

	electionTimer  *time.Timer
	heartbeatTimer *time.Timer

	shutdownCh chan struct{}

	cluster      Cluster
	stateMachine StateMachine
	store        PersistentStore
	logger       *Logger
}

// applyResult is delivered to a blocked MakeRequest caller once its log
// entry has been applied to the state machine.
type applyResult struct {
	value interface{}
	err   error
}

// Config configures a Node. ID and StateMachine are required. Cluster may
// be supplied here or later via Configure.
type Config struct {
	ID           NodeID
	Cluster      Cluster
	StateMachine StateMachine
	Store        PersistentStore
	Logger       *Logger
}

// NewNode creates a Node in the Stopped state. Configure must be called
// before Run.
func NewNode(cfg Config) *Node {
	logger := cfg.Logger
	if logger == nil {
		logger = NewLogger(cfg.ID, INFO)
	}

	n := &Node{
		id:              cfg.ID,
		role:            Stopped,
		commitIndex:     -1,
		lastApplied:     -1,
		nextIndex:       make(map[NodeID]int64),
		matchIndex:      make(map[NodeID]int64),
		pendingRequests: make(map[int64]chan applyResult),
		cluster:         cfg.Cluster,
		stateMachine:    cfg.StateMachine,
		store:           cfg.Store,
		logger:          logger,
	}
	if n.cluster != nil {
		n.initPeerState()
	}
	return n
}

func (n *Node) initPeerState() {
	for _, peer := range n.cluster.PeersExceptSelf() {
		n.nextIndex[peer] = 0
		n.matchIndex[peer] = -1
	}
}

// Configure attaches the cluster collaborator (replacing any supplied
// via Config), restores persisted state if a Store is attached, and
// transitions the node to Follower. It must be called before Run.
func (n *Node) Configure(cluster Cluster) {
	n.mu.Lock()

	n.cluster = cluster
	n.initPeerState()

	if n.store != nil {
		if state, ok, err := n.store.LoadState(); err != nil {
			n.logger.Error("failed to load persisted state: %v", err)
		} else if ok {
			n.currentTerm = state.CurrentTerm
			n.votedFor = state.VotedFor
			n.log = state.Log
		}
	}

	n.role = Follower
	n.mu.Unlock()
}

// ID returns the node's identity.
func (n *Node) ID() NodeID { return n.id }

// Logger returns the node's logger, for collaborators (e.g. the gRPC
// transport) that want to log in the same format.
func (n *Node) Logger() *Logger { return n.logger }

// Run arms the timers appropriate to the node's current role (spec.md
// §4.1) and begins normal operation.
func (n *Node) Run() {
	n.mu.Lock()
	n.shutdownCh = make(chan struct{})
	n.mu.Unlock()

	n.run()
}

// run is the role controller's single reconfiguration point: every
// transition that must (re-)arm timers goes through here.
func (n *Node) run() {
	switch n.getRole() {
	case Follower:
		n.disarmHeartbeat()
		n.armElection()
	case Candidate:
		n.disarmHeartbeat()
		n.armElection()
		go n.startElection()
	case Leader:
		n.disarmElection()
		n.resetLeaderVolatileState()
		n.armHeartbeatNow()
	case Stopped:
		n.disarmTimers()
	}
}

// Stop disarms all timers and returns the node to Stopped.
func (n *Node) Stop() {
	n.mu.Lock()
	if n.role == Stopped {
		n.mu.Unlock()
		return
	}
	n.role = Stopped
	n.disarmTimersLocked()
	n.failPendingRequestsLocked(ErrStopped)
	shutdownCh := n.shutdownCh
	n.mu.Unlock()

	if shutdownCh != nil {
		close(shutdownCh)
	}
}

// Restart returns a Stopped node to Follower and re-arms timers.
func (n *Node) Restart() {
	n.mu.Lock()
	n.role = Follower
	n.mu.Unlock()
	n.Run()
}

// GetState returns the current term and whether this node believes
// itself to be the leader.
func (n *Node) GetState() (uint64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentTerm, n.role == Leader
}

func (n *Node) getRole() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role
}

// majority returns the smallest quorum size for the cluster, counting
// self: ceil((clusterSize+1)/2), simplified to the standard
// clusterSize/2 + 1 (spec.md §4.2 GLOSSARY).
func (n *Node) majority() int {
	clusterSize := len(n.cluster.PeersExceptSelf()) + 1
	return clusterSize/2 + 1
}
