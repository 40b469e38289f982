// raft/append_entries.go
package raft

// AppendEntriesRequest carries both heartbeats (Entries == nil) and log
// replication batches (spec.md §4.4).
type AppendEntriesRequest struct {
	Term         uint64
	LeaderID     NodeID
	PrevLogIndex int64
	PrevLogTerm  uint64
	Entries      []LogEntry
	LeaderCommit int64
}

// AppendEntriesResponse is the follower's reply.
type AppendEntriesResponse struct {
	Term    uint64
	Success bool
}

// AppendEntries is the follower-side RPC handler (spec.md §4.4).
func (n *Node) AppendEntries(req *AppendEntriesRequest) *AppendEntriesResponse {
	n.mu.Lock()

	// Step 1: a Stopped node always fails, never mutates state (spec.md
	// §9 open question 2 — the reference's "heartbeats succeed on a
	// stopped node" behavior is rejected in favor of uniform failure).
	if n.role == Stopped {
		term := n.currentTerm
		n.mu.Unlock()
		return &AppendEntriesResponse{Term: term, Success: false}
	}

	// Step 2.
	if req.Term < n.currentTerm {
		term := n.currentTerm
		n.mu.Unlock()
		return &AppendEntriesResponse{Term: term, Success: false}
	}

	// Step 3: conflict check, skipped for pure heartbeats so a lagging
	// follower can still learn of a new leader and advance commits
	// within its existing log. Bounds-checked against the log's actual
	// length (spec.md §9 open question 4) rather than trusting the
	// leader's prevLogIndex, which is computed with a clamp that
	// otherwise cannot be distinguished from a real gap.
	if !n.checkPrevLogLocked(req.PrevLogIndex, req.PrevLogTerm, req.Entries) {
		term := n.currentTerm
		n.mu.Unlock()
		return &AppendEntriesResponse{Term: term, Success: false}
	}

	// Step 4: the sender is a valid leader for this term.
	n.advanceTermLocked(req.Term)
	oldRole := n.role
	n.role = Follower
	leader := req.LeaderID
	n.leaderID = &leader
	if oldRole != Follower {
		n.logger.LogStateChange(oldRole, Follower, req.Term)
	}

	// Step 5.
	if len(req.Entries) > 0 {
		n.truncateAndAppend(req.Entries)
		n.persistLocked()
		n.logger.LogAppendEntries(req.LeaderID, req.Term, req.PrevLogIndex, len(req.Entries))
	} else {
		n.logger.LogHeartbeatReceived(req.LeaderID, req.Term)
	}

	// Step 6: commit advancement. An empty toApply is success with no
	// state machine call (spec.md §9 open question 3), never a
	// rejection.
	if req.LeaderCommit > n.commitIndex {
		n.commitIndex = minI64(req.LeaderCommit, n.lastLogIndex())
		n.applyCommittedLocked()
	}

	term := n.currentTerm
	n.mu.Unlock()

	// Step 4 continued: disarm heartbeat timer, re-arm election timer —
	// outside the lock, matching the RequestVote handler.
	n.disarmHeartbeat()
	n.armElection()

	return &AppendEntriesResponse{Term: term, Success: true}
}

// checkPrevLogLocked implements spec.md §4.4 step 3. Caller must hold
// n.mu. Heartbeats (no entries) always pass. For a replication batch,
// entries[0].Index is the authoritative "new entries start here"
// position: if it's beyond the follower's current log, there's a real
// gap and the append is rejected; otherwise prevLogIndex is checked only
// when it names an entry the follower actually has.
func (n *Node) checkPrevLogLocked(prevLogIndex int64, prevLogTerm uint64, entries []LogEntry) bool {
	if len(entries) == 0 {
		return true
	}

	newStart := entries[0].Index
	if newStart > int64(len(n.log)) {
		return false
	}

	if prevLogIndex >= 0 && prevLogIndex < int64(len(n.log)) {
		if n.log[prevLogIndex].Term != prevLogTerm {
			return false
		}
	}
	return true
}
