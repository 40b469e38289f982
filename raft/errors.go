// raft/errors.go
package raft

import "errors"

// Error taxonomy from spec.md §7. All internal errors are recovered
// locally and turned into Raft-legal RPC replies; these sentinels are
// the ones that can still escape to a MakeRequest caller, since client
// requests are the one surface spec.md allows to fail outward.
var (
	// ErrStopped is returned by MakeRequest against a Stopped node.
	ErrStopped = errors.New("raft: node is stopped")

	// ErrLeadershipLost is delivered to a pending MakeRequest caller
	// whose leader stepped down (or lost the term) before its entry
	// committed. The entry may still commit later under a new leader;
	// callers are expected to retry (spec.md Non-goals excludes client
	// session dedup, so retries are not deduplicated for them either).
	ErrLeadershipLost = errors.New("raft: leadership lost before entry committed")

	// ErrTransport wraps a failure from the Cluster collaborator itself
	// (peer unreachable, malformed reply) — spec.md's TransportError
	// kind. It is never fatal to an election or heartbeat pass, which
	// proceeds with whatever responses did arrive; it only surfaces when
	// a specific RPC result is needed, e.g. a client redirect.
	ErrTransport = errors.New("raft: transport error")

	// ErrNoLeaderKnown is returned only in the degenerate case where
	// MakeRequest's stale-self forward has no other peer to pick: every
	// other non-leader call blocks until a leader is known rather than
	// returning this early (spec.md §4.5).
	ErrNoLeaderKnown = errors.New("raft: no leader known yet")
)
