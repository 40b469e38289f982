// raft/election.go
package raft

// RequestVoteRequest is the candidate's solicitation (spec.md §4.2).
type RequestVoteRequest struct {
	Term         uint64
	CandidateID  NodeID
	LastLogIndex int64
	LastLogTerm  uint64
}

// RequestVoteResponse is a voter's reply.
type RequestVoteResponse struct {
	Term        uint64
	VoteGranted bool
}

// startElection runs a single election attempt for one freshly bumped
// term (spec.md §4.2). It is always launched in its own goroutine: a
// losing or inconclusive attempt simply returns, leaving the next
// election timeout (already re-armed below) to try again with a higher
// term.
func (n *Node) startElection() {
	n.mu.Lock()
	oldRole := n.role
	n.role = Candidate
	n.currentTerm++
	self := n.id
	n.votedFor = &self
	n.voteCount = 1
	n.leaderID = nil
	term := n.currentTerm
	lastLogIndex := n.lastLogIndex()
	lastLogTerm := n.lastLogTerm()
	n.persistLocked()
	majority := n.majority()
	won := n.voteCount >= majority
	n.mu.Unlock()

	n.logger.LogStateChange(oldRole, Candidate, term)
	n.logger.LogElectionStart(term)

	// A fresh term means a fresh timeout window (spec.md §4.1): if this
	// attempt doesn't conclude before it expires, the timer fires again
	// and startElection runs once more for term+1.
	n.armElection()

	if won {
		// Single-node cluster: the self-vote alone already reaches quorum.
		n.logger.LogElectionWon(term, uint64(n.voteCount), uint64(majority))
		n.becomeLeader(term)
		return
	}

	peers := n.cluster.PeersExceptSelf()
	type voteReply struct {
		granted bool
		term    uint64
		err     error
	}
	replies := make(chan voteReply, len(peers))

	for _, peer := range peers {
		peer := peer
		go func() {
			granted, responderTerm, err := n.cluster.RequestVoteFrom(peer, term, n.id, lastLogIndex, lastLogTerm)
			replies <- voteReply{granted: granted, term: responderTerm, err: err}
		}()
	}

	for i := 0; i < len(peers); i++ {
		reply := <-replies
		if reply.err != nil {
			// Unreachable peer: counted as a missing vote, not a denial.
			continue
		}

		n.advanceTerm(reply.term)

		n.mu.Lock()
		stillCandidate := n.role == Candidate && n.currentTerm == term
		if stillCandidate && reply.granted {
			n.voteCount++
		}
		wonNow := stillCandidate && n.voteCount >= majority
		votes := n.voteCount
		n.mu.Unlock()

		if wonNow {
			n.logger.LogElectionWon(term, uint64(votes), uint64(majority))
			n.becomeLeader(term)
			return
		}
	}

	n.mu.Lock()
	lost := n.role == Candidate && n.currentTerm == term
	votes := n.voteCount
	n.mu.Unlock()
	if lost {
		n.logger.LogElectionLost(term, uint64(votes), uint64(majority))
	}
}

// advanceTerm is the unlocked wrapper around advanceTermLocked for
// callers that don't already hold n.mu. If the term advanced, the node
// stepped down to Follower and the timers are re-armed to match.
func (n *Node) advanceTerm(term uint64) bool {
	n.mu.Lock()
	stepped := n.advanceTermLocked(term)
	n.mu.Unlock()
	if stepped {
		n.run()
	}
	return stepped
}

// becomeLeader promotes a Candidate to Leader, provided the term it won
// under is still current (a concurrent higher term or step-down makes
// this a no-op).
func (n *Node) becomeLeader(term uint64) {
	n.mu.Lock()
	if n.role != Candidate || n.currentTerm != term {
		n.mu.Unlock()
		return
	}
	oldRole := n.role
	leader := n.id
	n.role = Leader
	n.leaderID = &leader
	n.mu.Unlock()

	n.logger.LogStateChange(oldRole, Leader, term)
	n.run()
}

// RequestVote is the voter-side RPC handler (spec.md §4.4).
func (n *Node) RequestVote(req *RequestVoteRequest) *RequestVoteResponse {
	n.mu.Lock()

	if n.role == Stopped {
		term := n.currentTerm
		n.mu.Unlock()
		return &RequestVoteResponse{Term: term, VoteGranted: false}
	}

	if req.Term < n.currentTerm {
		term := n.currentTerm
		n.mu.Unlock()
		return &RequestVoteResponse{Term: term, VoteGranted: false}
	}

	n.advanceTermLocked(req.Term)

	granted := false
	if (n.votedFor == nil || *n.votedFor == req.CandidateID) &&
		n.candidateLogUpToDateLocked(req.LastLogIndex, req.LastLogTerm) {
		granted = true
		candidate := req.CandidateID
		n.votedFor = &candidate
		n.persistLocked()
		n.logger.LogVoteGranted(req.CandidateID, req.Term)
	} else {
		n.logger.LogVoteDenied(req.CandidateID, req.Term)
	}

	term := n.currentTerm
	n.mu.Unlock()

	// Disarm heartbeat, re-arm election (spec.md §4.4 step 3) — granted
	// or not, any RequestVote that clears the term check resets the
	// timeout, since it came from a legitimately current candidate.
	n.disarmHeartbeat()
	n.armElection()

	return &RequestVoteResponse{Term: term, VoteGranted: granted}
}

// candidateLogUpToDateLocked implements the two log conditions of
// spec.md §4.4's three-part grant rule (the votedFor condition is checked
// by RequestVote itself): the candidate's last log index and term must
// each be at least as large as this node's own. Caller must hold n.mu.
func (n *Node) candidateLogUpToDateLocked(candidateLastIndex int64, candidateLastTerm uint64) bool {
	return candidateLastIndex >= n.lastLogIndex() && candidateLastTerm >= n.lastLogTerm()
}
