// Package statemachine provides the pluggable raft.StateMachine this
// repo ships by default: an in-memory key-value store whose commands
// ride the replicated log as JSON. Grounded on the teacher's
// storage/store.go (map[string][]byte guarded by a mutex) and
// raft/util.go's Command type, adapted to the raft.StateMachine
// interface instead of being driven by a WAL of its own — durability
// here is the consensus core's job (see package persistence), not the
// state machine's.
package statemachine

import (
	"encoding/json"
	"fmt"
	"sync"
)

// CommandType names the operation a Command performs.
type CommandType string

const (
	CommandPut    CommandType = "PUT"
	CommandGet    CommandType = "GET"
	CommandDelete CommandType = "DELETE"
)

// Command is the unit of work appended to the Raft log. Encoded as JSON
// before being handed to raft.Node.MakeRequest and decoded again inside
// Apply.
type Command struct {
	Type  CommandType `json:"type"`
	Key   string      `json:"key"`
	Value []byte      `json:"value,omitempty"`
}

// Encode serializes a Command for submission via raft.Node.MakeRequest.
func (c Command) Encode() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Result is what Apply returns, JSON-encoded, for every command kind —
// GET included, since linearizable reads are an explicit spec.md
// Non-goal and routing reads through the log like any other command is
// the simplest correct behavior here.
type Result struct {
	OK    bool   `json:"ok"`
	Value []byte `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// DecodeResult parses the []byte Apply hands back through
// raft.Node.MakeRequest.
func DecodeResult(b []byte) (Result, error) {
	var r Result
	err := json.Unmarshal(b, &r)
	return r, err
}

// KVStateMachine is an in-memory key-value store driven entirely by
// committed log entries.
type KVStateMachine struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKVStateMachine returns an empty store.
func NewKVStateMachine() *KVStateMachine {
	return &KVStateMachine{data: make(map[string][]byte)}
}

// Apply implements raft.StateMachine. raw must be a JSON-encoded
// Command; the returned interface{} is always a JSON-encoded Result
// ([]byte), which callers decode with DecodeResult.
func (s *KVStateMachine) Apply(raw []byte) (interface{}, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return encodeResult(Result{Error: err.Error()}), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Type {
	case CommandPut:
		s.data[cmd.Key] = cmd.Value
		return encodeResult(Result{OK: true}), nil
	case CommandGet:
		v, ok := s.data[cmd.Key]
		if !ok {
			return encodeResult(Result{OK: false, Error: "key not found"}), nil
		}
		return encodeResult(Result{OK: true, Value: v}), nil
	case CommandDelete:
		delete(s.data, cmd.Key)
		return encodeResult(Result{OK: true}), nil
	default:
		err := fmt.Errorf("statemachine: unknown command type %q", cmd.Type)
		return encodeResult(Result{Error: err.Error()}), err
	}
}

// TestConnection implements raft.StateMachine. The in-memory store has
// no external dependency to probe.
func (s *KVStateMachine) TestConnection() error {
	return nil
}

// Snapshot returns a point-in-time copy of the store, for callers that
// want to inspect state without going through the log (e.g. a debug
// endpoint). Not part of raft.StateMachine — log compaction and
// snapshot-based recovery are explicit spec.md Non-goals.
func (s *KVStateMachine) Snapshot() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

func encodeResult(r Result) []byte {
	b, _ := json.Marshal(r)
	return b
}
