// raft/contracts.go
package raft

import "time"

// Cluster is the node's view of the rest of the cluster: membership,
// timing policy, and the RPC fan-out. spec.md §6 — concrete
// implementations live outside this package (see package cluster).
type Cluster interface {
	// Size returns the total number of nodes including self.
	Size() int
	// PeersExceptSelf enumerates every other node's id.
	PeersExceptSelf() []NodeID
	// ElectionTimeoutMs returns this node's randomized election timeout.
	// Called fresh every time a timer is armed, so successive calls may
	// return different durations.
	ElectionTimeoutMs() time.Duration

	RequestVoteFrom(peer NodeID, term uint64, candidateID NodeID, lastLogIndex int64, lastLogTerm uint64) (voteGranted bool, responderTerm uint64, err error)
	SendAppendEntriesTo(peer NodeID, term uint64, leaderID NodeID, prevLogIndex int64, prevLogTerm uint64, entries []LogEntry, leaderCommit int64) (success bool, responderTerm uint64, err error)
	RedirectRequestTo(peer NodeID, command []byte) (result interface{}, err error)
}

// StateMachine is the pluggable, deterministic executor of committed
// commands. spec.md §6. Apply need not be idempotent: the core applies
// each committed index exactly once, and an error Apply returns is
// handed to the waiting MakeRequest caller, if any. Snapshotting is an explicit spec.md Non-goal and is
// deliberately absent from this interface.
type StateMachine interface {
	Apply(command []byte) (interface{}, error)
	TestConnection() error
}

// PersistedState is the durable snapshot of a node's persistent-intent
// fields, written atomically by PersistentStore.SaveState and restored
// by LoadState on Configure.
type PersistedState struct {
	CurrentTerm uint64
	VotedFor    *NodeID
	Log         []LogEntry
}

// PersistentStore is the durable-write hook spec.md §6/§9 requires: a
// node must persist currentTerm, votedFor, and log before returning any
// RPC reply that depended on their new values. A nil Store is legal (the
// reference itself keeps these fields in memory only); callers that need
// crash safety attach one.
type PersistentStore interface {
	SaveState(state PersistedState) error
	LoadState() (state PersistedState, ok bool, err error)
}
