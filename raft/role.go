// raft/role.go
package raft

import "time"

// advanceTermLocked is the single privileged term-update primitive
// (spec.md §4.1). If term is strictly greater than currentTerm,
// currentTerm, leaderID, votedFor, and voteCount reset together and the
// node steps down to Follower (a Stopped node stays Stopped). Assigning a
// term ≤ currentTerm has no effect. Every code path that observes a
// term in an inbound RPC or its reply must call this before acting on
// anything else. Caller must hold n.mu; persistLocked is called if the
// term actually advanced. No timer is touched here: the caller is
// responsible for calling run() afterwards if it needs timers re-armed
// outside the lock (the advanceTerm wrapper in election.go does this).
func (n *Node) advanceTermLocked(term uint64) (stepped bool) {
	if term <= n.currentTerm {
		return false
	}

	oldRole := n.role
	n.currentTerm = term
	n.leaderID = nil
	n.votedFor = nil
	n.voteCount = 0
	if n.role != Stopped {
		n.role = Follower
	}
	n.persistLocked()

	if oldRole == Leader {
		n.failPendingRequestsLocked(ErrLeadershipLost)
	}

	if oldRole != Follower && oldRole != Stopped {
		n.logger.LogStateChange(oldRole, n.role, term)
	}
	return true
}

func (n *Node) armElection() {
	n.mu.Lock()
	if n.electionTimer != nil {
		n.electionTimer.Stop()
	}
	timeout := n.cluster.ElectionTimeoutMs()
	var t *time.Timer
	t = time.AfterFunc(timeout, func() { n.onElectionFired(t) })
	n.electionTimer = t
	n.mu.Unlock()
}

func (n *Node) disarmElection() {
	n.mu.Lock()
	if n.electionTimer != nil {
		n.electionTimer.Stop()
		n.electionTimer = nil
	}
	n.mu.Unlock()
}

func (n *Node) disarmHeartbeat() {
	n.mu.Lock()
	if n.heartbeatTimer != nil {
		n.heartbeatTimer.Stop()
		n.heartbeatTimer = nil
	}
	n.mu.Unlock()
}

// disarmTimersLocked stops both timers. Caller must hold n.mu.
func (n *Node) disarmTimersLocked() {
	if n.electionTimer != nil {
		n.electionTimer.Stop()
		n.electionTimer = nil
	}
	if n.heartbeatTimer != nil {
		n.heartbeatTimer.Stop()
		n.heartbeatTimer = nil
	}
}

// disarmTimers stops both timers, acquiring n.mu itself.
func (n *Node) disarmTimers() {
	n.mu.Lock()
	n.disarmTimersLocked()
	n.mu.Unlock()
}

// onElectionFired runs when an armed election timer expires. It is a
// no-op if that timer is no longer the node's current one (superseded by
// a later arm/disarm) or if the role no longer permits an election.
func (n *Node) onElectionFired(fired *time.Timer) {
	n.mu.Lock()
	current := n.electionTimer == fired
	role := n.role
	n.mu.Unlock()

	if !current || (role != Follower && role != Candidate) {
		return
	}
	n.logger.LogElectionTimeout()
	n.startElection()
}

// armHeartbeatNow arms the heartbeat timer to fire immediately (t=0) and
// then periodically at electionTimeoutMs/2, per spec.md §4.1.
func (n *Node) armHeartbeatNow() {
	n.mu.Lock()
	if n.heartbeatTimer != nil {
		n.heartbeatTimer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(0, func() { n.onHeartbeatFired(t) })
	n.heartbeatTimer = t
	n.mu.Unlock()
}

func (n *Node) rearmHeartbeat() {
	n.mu.Lock()
	if n.role != Leader {
		n.mu.Unlock()
		return
	}
	interval := n.cluster.ElectionTimeoutMs() / 2
	if n.heartbeatTimer != nil {
		n.heartbeatTimer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(interval, func() { n.onHeartbeatFired(t) })
	n.heartbeatTimer = t
	n.mu.Unlock()
}

func (n *Node) onHeartbeatFired(fired *time.Timer) {
	n.mu.Lock()
	current := n.heartbeatTimer == fired
	role := n.role
	n.mu.Unlock()

	if !current || role != Leader {
		return
	}
	n.sendHeartbeats()
	n.rearmHeartbeat()
}

// resetLeaderVolatileState reinitializes nextIndex/matchIndex for every
// peer on promotion to Leader (spec.md §3): nextIndex starts at
// len(log), matchIndex starts at -1 (spec.md §9 open question 1).
func (n *Node) resetLeaderVolatileState() {
	n.mu.Lock()
	lastIdx := n.lastLogIndex()
	for _, peer := range n.cluster.PeersExceptSelf() {
		n.nextIndex[peer] = lastIdx + 1
		n.matchIndex[peer] = -1
	}
	n.mu.Unlock()
}
