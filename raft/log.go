// raft/log.go
package raft

// LogEntry is a single command in the replicated log. Index equals the
// entry's slot (0-based); entries are never reordered, and the tail may
// only be truncated by the AppendEntries conflict rule (spec.md §3).
type LogEntry struct {
	Index   int64
	Term    uint64
	Command []byte
}

// lastLogIndex returns the index of the last entry, or -1 if the log is
// empty. Caller must hold n.mu.
func (n *Node) lastLogIndex() int64 {
	return int64(len(n.log)) - 1
}

// lastLogTerm returns the term of the last entry, or 0 if the log is
// empty. Caller must hold n.mu.
func (n *Node) lastLogTerm() uint64 {
	if len(n.log) == 0 {
		return 0
	}
	return n.log[len(n.log)-1].Term
}

// termAt returns the term of the entry at index, or 0 if index is out of
// the log's current bounds. Caller must hold n.mu.
func (n *Node) termAt(index int64) uint64 {
	if index < 0 || index >= int64(len(n.log)) {
		return 0
	}
	return n.log[index].Term
}

// appendEntry appends a single new entry authored by this node (i.e. a
// leader accepting a client command via MakeRequest) and returns its
// index. Caller must hold n.mu.
func (n *Node) appendEntry(command []byte) int64 {
	entry := LogEntry{
		Index:   n.lastLogIndex() + 1,
		Term:    n.currentTerm,
		Command: command,
	}
	n.log = append(n.log, entry)
	return entry.Index
}

// truncateAndAppend implements the AppendEntries conflict-resolution
// rule (spec.md §4.4 step 5): the log is cut to length entries[0].Index,
// discarding any conflicting suffix, and entries is appended in full.
// Caller must hold n.mu.
func (n *Node) truncateAndAppend(entries []LogEntry) {
	if len(entries) == 0 {
		return
	}
	cut := entries[0].Index
	if cut < int64(len(n.log)) {
		n.log = n.log[:cut]
	}
	n.log = append(n.log, entries...)
}

// persistLocked flushes currentTerm/votedFor/log to the durable store,
// if one is attached, satisfying spec.md §6's requirement that these
// three fields be persisted before any RPC reply depending on them is
// returned. Caller must hold n.mu.
func (n *Node) persistLocked() {
	if n.store == nil {
		return
	}
	logCopy := make([]LogEntry, len(n.log))
	copy(logCopy, n.log)
	state := PersistedState{
		CurrentTerm: n.currentTerm,
		VotedFor:    n.votedFor,
		Log:         logCopy,
	}
	if err := n.store.SaveState(state); err != nil {
		n.logger.Error("failed to persist state: %v", err)
	}
}

// applyCommittedLocked applies every not-yet-applied entry up to and
// including commitIndex, in strictly increasing index order, and
// notifies any MakeRequest callers blocked on those indices. Caller must
// hold n.mu; stateMachine.Apply is called while holding the lock, same
// as the teacher's design, since spec.md guarantees Apply is infallible
// and never blocks.
func (n *Node) applyCommittedLocked() {
	for n.lastApplied < n.commitIndex {
		idx := n.lastApplied + 1
		entry := n.log[idx]

		var value interface{}
		var err error
		if n.stateMachine != nil {
			value, err = n.stateMachine.Apply(entry.Command)
		}

		n.lastApplied = idx
		n.logger.LogApply(idx, string(entry.Command))

		if ch, ok := n.pendingRequests[idx]; ok {
			delete(n.pendingRequests, idx)
			ch <- applyResult{value: value, err: err}
		}
	}
}
