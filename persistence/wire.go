package persistence

import (
	"google.golang.org/protobuf/encoding/protowire"

	"raftcore/raft"
)

const (
	fieldCurrentTerm = iota + 1
	fieldVotedFor
	fieldHasVotedFor
	fieldLogEntry
)

const (
	fieldEntryIndex = iota + 1
	fieldEntryTerm
	fieldEntryCommand
)

func marshalState(state raft.PersistedState) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldCurrentTerm, protowire.VarintType)
	b = protowire.AppendVarint(b, state.CurrentTerm)

	if state.VotedFor != nil {
		b = protowire.AppendTag(b, fieldHasVotedFor, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fieldVotedFor, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*state.VotedFor))
	}

	for _, e := range state.Log {
		b = protowire.AppendTag(b, fieldLogEntry, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalEntry(e))
	}
	return b
}

func marshalEntry(e raft.LogEntry) []byte {
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

func unmarshalState(b []byte) (raft.PersistedState, error) {
	var state raft.PersistedState
	hasVotedFor := false
	var votedFor uint64

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return state, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldCurrentTerm:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return state, protowire.ParseError(n)
			}
			state.CurrentTerm = v
			b = b[n:]
		case fieldHasVotedFor:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return state, protowire.ParseError(n)
			}
			hasVotedFor = v != 0
			b = b[n:]
		case fieldVotedFor:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return state, protowire.ParseError(n)
			}
			votedFor = v
			b = b[n:]
		case fieldLogEntry:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return state, protowire.ParseError(n)
			}
			entry, err := unmarshalEntry(v)
			if err != nil {
				return state, err
			}
			state.Log = append(state.Log, entry)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return state, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	if hasVotedFor {
		id := raft.NodeID(votedFor)
		state.VotedFor = &id
	}
	return state, nil
}

func unmarshalEntry(b []byte) (raft.LogEntry, error) {
	var e raft.LogEntry
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
