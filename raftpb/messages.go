// Package raftpb defines the wire messages exchanged between Raft nodes
// and a hand-rolled protobuf-wire-format codec for them. No .proto file
// or protoc-generated code is involved: every message type below encodes
// and decodes its own fields directly with
// google.golang.org/protobuf/encoding/protowire, the same library
// protoc-gen-go's output calls internally, so the bytes on the wire are
// ordinary protobuf — only the Go-side marshaling is hand-written.
package raftpb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// LogEntry mirrors raft.LogEntry without importing the raft package,
// keeping the wire format decoupled from the consensus core's internal
// types.
type LogEntry struct {
	Index   int64
	Term    uint64
	Command []byte
}

// VoteRequest is the wire form of a RequestVote call.
type VoteRequest struct {
	Term         uint64
	CandidateID  uint64
	LastLogIndex int64
	LastLogTerm  uint64
}

// VoteResponse is the wire form of a RequestVote reply.
type VoteResponse struct {
	Term        uint64
	VoteGranted bool
}

// AppendRequest is the wire form of an AppendEntries call, carrying both
// heartbeats (Entries == nil) and replication batches.
type AppendRequest struct {
	Term         uint64
	LeaderID     uint64
	PrevLogIndex int64
	PrevLogTerm  uint64
	Entries      []LogEntry
	LeaderCommit int64
}

// AppendResponse is the wire form of an AppendEntries reply.
type AppendResponse struct {
	Term    uint64
	Success bool
}

const (
	fieldVoteReqTerm = iota + 1
	fieldVoteReqCandidateID
	fieldVoteReqLastLogIndex
	fieldVoteReqLastLogTerm
)

func (m *VoteRequest) Marshal() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldVoteReqTerm, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Term)
	b = protowire.AppendTag(b, fieldVoteReqCandidateID, protowire.VarintType)
	b = protowire.AppendVarint(b, m.CandidateID)
	b = protowire.AppendTag(b, fieldVoteReqLastLogIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(m.LastLogIndex))
	b = protowire.AppendTag(b, fieldVoteReqLastLogTerm, protowire.VarintType)
	b = protowire.AppendVarint(b, m.LastLogTerm)
	return b, nil
}

func (m *VoteRequest) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldVoteReqTerm:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Term = v
			b = b[n:]
		case fieldVoteReqCandidateID:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.CandidateID = v
			b = b[n:]
		case fieldVoteReqLastLogIndex:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.LastLogIndex = protowire.DecodeZigZag(v)
			b = b[n:]
		case fieldVoteReqLastLogTerm:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.LastLogTerm = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

const (
	fieldVoteRespTerm = iota + 1
	fieldVoteRespGranted
)

func (m *VoteResponse) Marshal() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldVoteRespTerm, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Term)
	b = protowire.AppendTag(b, fieldVoteRespGranted, protowire.VarintType)
	b = protowire.AppendVarint(b, boolToVarint(m.VoteGranted))
	return b, nil
}

func (m *VoteResponse) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldVoteRespTerm:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Term = v
			b = b[n:]
		case fieldVoteRespGranted:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.VoteGranted = v != 0
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

const (
	fieldAppendReqTerm = iota + 1
	fieldAppendReqLeaderID
	fieldAppendReqPrevLogIndex
	fieldAppendReqPrevLogTerm
	fieldAppendReqEntries
	fieldAppendReqLeaderCommit
)

const (
	fieldEntryIndex = iota + 1
	fieldEntryTerm
	fieldEntryCommand
)

func marshalEntry(e LogEntry) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldEntryIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(e.Index))
	b = protowire.AppendTag(b, fieldEntryTerm, protowire.VarintType)
	b = protowire.AppendVarint(b, e.Term)
	if len(e.Command) > 0 {
		b = protowire.AppendTag(b, fieldEntryCommand, protowire.BytesType)
		b = protowire.AppendBytes(b, e.Command)
	}
	return b
}

func unmarshalEntry(b []byte) (LogEntry, error) {
	var e LogEntry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldEntryIndex:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Index = protowire.DecodeZigZag(v)
			b = b[n:]
		case fieldEntryTerm:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Term = v
			b = b[n:]
		case fieldEntryCommand:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Command = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return e, nil
}

func (m *AppendRequest) Marshal() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldAppendReqTerm, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Term)
	b = protowire.AppendTag(b, fieldAppendReqLeaderID, protowire.VarintType)
	b = protowire.AppendVarint(b, m.LeaderID)
	b = protowire.AppendTag(b, fieldAppendReqPrevLogIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(m.PrevLogIndex))
	b = protowire.AppendTag(b, fieldAppendReqPrevLogTerm, protowire.VarintType)
	b = protowire.AppendVarint(b, m.PrevLogTerm)
	for _, e := range m.Entries {
		b = protowire.AppendTag(b, fieldAppendReqEntries, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalEntry(e))
	}
	b = protowire.AppendTag(b, fieldAppendReqLeaderCommit, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(m.LeaderCommit))
	return b, nil
}

func (m *AppendRequest) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldAppendReqTerm:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Term = v
			b = b[n:]
		case fieldAppendReqLeaderID:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.LeaderID = v
			b = b[n:]
		case fieldAppendReqPrevLogIndex:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.PrevLogIndex = protowire.DecodeZigZag(v)
			b = b[n:]
		case fieldAppendReqPrevLogTerm:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.PrevLogTerm = v
			b = b[n:]
		case fieldAppendReqEntries:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			entry, err := unmarshalEntry(v)
			if err != nil {
				return err
			}
			m.Entries = append(m.Entries, entry)
			b = b[n:]
		case fieldAppendReqLeaderCommit:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.LeaderCommit = protowire.DecodeZigZag(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

const (
	fieldAppendRespTerm = iota + 1
	fieldAppendRespSuccess
)

func (m *AppendResponse) Marshal() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldAppendRespTerm, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Term)
	b = protowire.AppendTag(b, fieldAppendRespSuccess, protowire.VarintType)
	b = protowire.AppendVarint(b, boolToVarint(m.Success))
	return b, nil
}

func (m *AppendResponse) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldAppendRespTerm:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Term = v
			b = b[n:]
		case fieldAppendRespSuccess:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Success = v != 0
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

// ClientCommandRequest carries a raw application command to whichever
// node is believed to be the leader, for the RedirectRequestTo path
// (spec.md §4.5) — this is not a consensus RPC, just a convenience so a
// client that reaches a follower doesn't have to know the leader's
// address itself.
type ClientCommandRequest struct {
	Command []byte
}

// ClientCommandResponse carries back either the applied result or an
// error message; raft core errors cross the wire as plain text since
// they're meant for a human or a retrying client, not for further
// programmatic dispatch.
type ClientCommandResponse struct {
	Result       []byte
	ErrorMessage string
}

const (
	fieldClientCmdReqCommand = iota + 1
)

func (m *ClientCommandRequest) Marshal() ([]byte, error) {
	var b []byte
	if len(m.Command) > 0 {
		b = protowire.AppendTag(b, fieldClientCmdReqCommand, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Command)
	}
	return b, nil
}

func (m *ClientCommandRequest) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldClientCmdReqCommand:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Command = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

const (
	fieldClientCmdRespResult = iota + 1
	fieldClientCmdRespError
)

func (m *ClientCommandResponse) Marshal() ([]byte, error) {
	var b []byte
	if len(m.Result) > 0 {
		b = protowire.AppendTag(b, fieldClientCmdRespResult, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Result)
	}
	if m.ErrorMessage != "" {
		b = protowire.AppendTag(b, fieldClientCmdRespError, protowire.BytesType)
		b = protowire.AppendBytes(b, []byte(m.ErrorMessage))
	}
	return b, nil
}

func (m *ClientCommandResponse) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldClientCmdRespResult:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Result = append([]byte(nil), v...)
			b = b[n:]
		case fieldClientCmdRespError:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.ErrorMessage = string(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

func boolToVarint(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// wireMessage is implemented by every type in this package; the codec
// dispatches on it rather than on proto.Message, since these are not
// protoc-generated types.
type wireMessage interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

var (
	_ wireMessage = (*VoteRequest)(nil)
	_ wireMessage = (*VoteResponse)(nil)
	_ wireMessage = (*AppendRequest)(nil)
	_ wireMessage = (*AppendResponse)(nil)
	_ wireMessage = (*ClientCommandRequest)(nil)
	_ wireMessage = (*ClientCommandResponse)(nil)
)

func errUnsupportedMessage(v interface{}) error {
	return fmt.Errorf("raftpb: %T does not implement wireMessage", v)
}
