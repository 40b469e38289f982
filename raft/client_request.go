// raft/client_request.go
package raft

import "time"

// leaderPollInterval bounds how often a non-leader rechecks whether a
// leader has become known, while it waits to forward a client request
// (spec.md §4.5, §5's default of 500ms).
const leaderPollInterval = 500 * time.Millisecond

// MakeRequest submits command to the cluster and blocks until it has
// been applied to the state machine, or until it's clear that it never
// will be (spec.md §4.5, resolving §9 open question 6: the reference
// never actually threaded a result back to the caller).
//
// A non-leader waits until a leader is known (polling leaderId at
// leaderPollInterval, never returning early just because no leader has
// been observed yet) and then forwards to it via
// Cluster.RedirectRequestTo. If the known leader is this node itself —
// stale, from before it stepped down — an arbitrary other peer is
// chosen instead, per spec.md §4.5.
func (n *Node) MakeRequest(command []byte) (interface{}, error) {
	n.mu.Lock()
	for n.role != Leader && n.role != Stopped && n.leaderID == nil {
		n.mu.Unlock()
		time.Sleep(leaderPollInterval)
		n.mu.Lock()
	}

	if n.role == Stopped {
		n.mu.Unlock()
		return nil, ErrStopped
	}

	if n.role != Leader {
		leaderID := *n.leaderID
		if leaderID == n.id {
			peers := n.cluster.PeersExceptSelf()
			n.mu.Unlock()
			if len(peers) == 0 {
				return nil, ErrNoLeaderKnown
			}
			return n.cluster.RedirectRequestTo(peers[0], command)
		}
		n.mu.Unlock()
		return n.cluster.RedirectRequestTo(leaderID, command)
	}

	index := n.appendEntry(command)
	term := n.currentTerm
	n.persistLocked()

	ch := make(chan applyResult, 1)
	n.pendingRequests[index] = ch
	n.mu.Unlock()

	n.logger.Debug("accepted client command at index=%d term=%d", index, term)

	// Don't wait for the next heartbeat tick to start replicating.
	go n.sendHeartbeats()

	result := <-ch
	return result.value, result.err
}

// failPendingRequestsLocked delivers err to every MakeRequest caller
// still waiting on an index to commit and clears the map. Called when a
// leader steps down: none of its pending entries are guaranteed to
// commit under whatever leader comes next, and spec.md §9 open question
// 6 is explicit that callers must not be left blocked forever. Caller
// must hold n.mu.
func (n *Node) failPendingRequestsLocked(err error) {
	for index, ch := range n.pendingRequests {
		ch <- applyResult{err: err}
		delete(n.pendingRequests, index)
	}
}
