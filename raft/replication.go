// raft/replication.go
package raft

import "sync"

// sendHeartbeats fans out one AppendEntries RPC per peer (spec.md §4.3)
// and, once every reply is in, attempts to advance commitIndex. Called
// immediately on promotion to Leader and periodically thereafter by the
// heartbeat timer.
func (n *Node) sendHeartbeats() {
	n.mu.Lock()
	if n.role != Leader {
		n.mu.Unlock()
		return
	}
	term := n.currentTerm
	peers := n.cluster.PeersExceptSelf()
	n.mu.Unlock()

	n.logger.LogHeartbeatSent(term, len(peers))

	var wg sync.WaitGroup
	for _, peer := range peers {
		peer := peer
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.replicateTo(peer, term)
		}()
	}
	wg.Wait()

	n.mu.Lock()
	if n.role == Leader && n.currentTerm == term {
		n.advanceCommitIndexLocked()
	}
	n.mu.Unlock()
}

// replicateTo sends one AppendEntries RPC to peer carrying whatever
// entries it hasn't yet acknowledged, and updates nextIndex/matchIndex
// from the reply (spec.md §4.3).
func (n *Node) replicateTo(peer NodeID, term uint64) {
	n.mu.Lock()
	if n.role != Leader || n.currentTerm != term {
		n.mu.Unlock()
		return
	}
	nextIdx := n.nextIndex[peer]
	prevLogIndex := maxI64(0, nextIdx-1)
	prevLogTerm := n.termAt(prevLogIndex)
	var entries []LogEntry
	if nextIdx <= n.lastLogIndex() {
		entries = append(entries, n.log[nextIdx:]...)
	}
	leaderCommit := n.commitIndex
	n.mu.Unlock()

	success, responderTerm, err := n.cluster.SendAppendEntriesTo(peer, term, n.id, prevLogIndex, prevLogTerm, entries, leaderCommit)
	if err != nil {
		return
	}

	if n.advanceTerm(responderTerm) {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.role != Leader || n.currentTerm != term {
		return
	}

	// Only a successful, non-empty batch tells us anything new about the
	// follower's log (spec.md §4.3 step 5): a bare heartbeat succeeding
	// says nothing about what the follower has beyond what we already
	// knew, so nextIndex/matchIndex must not move on one. matchIndex is
	// the index of the last entry in this batch, not prevLogIndex+len —
	// prevLogIndex is clamped to 0 for a follower with an empty log, which
	// would otherwise overstate matchIndex by one on a cold start.
	if success {
		if len(entries) > 0 {
			n.matchIndex[peer] = nextIdx + int64(len(entries)) - 1
			n.nextIndex[peer] = n.matchIndex[peer] + 1
		}
	} else if n.nextIndex[peer] > 0 {
		n.nextIndex[peer]--
	}
}

// advanceCommitIndexLocked implements spec.md §4.3's commit rule: the
// highest index N with a matching majority of matchIndex[peer] >= N,
// whose own entry was authored in the current term, becomes the new
// commitIndex. Older-term entries are never committed directly (Raft
// safety), only transitively once a current-term entry past them
// commits. Caller must hold n.mu.
func (n *Node) advanceCommitIndexLocked() {
	majority := n.majority()
	for N := n.commitIndex + 1; N <= n.lastLogIndex(); N++ {
		if n.termAt(N) != n.currentTerm {
			continue
		}
		count := 1 // self
		for _, peer := range n.cluster.PeersExceptSelf() {
			if n.matchIndex[peer] >= N {
				count++
			}
		}
		if count >= majority {
			n.commitIndex = N
		}
	}
	n.applyCommittedLocked()
}
