// Package persistence is the durable-write hook for raft.Node: a
// file-backed raft.PersistentStore. Framing is ported directly from the
// teacher's storage/wal.go (length-prefixed little-endian records over a
// buffered writer, flushed per write, fsynced on Close) but each record
// is a full snapshot of (currentTerm, votedFor, log) rather than a
// single key/value operation — LoadState replays every record and keeps
// only the last one, the same "replay to rebuild current state" idea
// storage/store.go's recover() uses.
package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"raftcore/raft"
)

// Store is a file-backed raft.PersistentStore.
type Store struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *bufio.Writer
}

// NewStore opens (creating if necessary) the checkpoint file at path.
func NewStore(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", path, err)
	}
	return &Store{path: path, file: f, writer: bufio.NewWriter(f)}, nil
}

// SaveState implements raft.PersistentStore. Every call appends a fresh
// record rather than rewriting the file in place, same tradeoff as the
// teacher's WAL: sequential appends are cheap, and stale records are
// simply skipped on the next LoadState.
func (s *Store) SaveState(state raft.PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := marshalState(state)
	if err := binary.Write(s.writer, binary.LittleEndian, uint32(len(payload))); err != nil {
		return fmt.Errorf("persistence: write length: %w", err)
	}
	if _, err := s.writer.Write(payload); err != nil {
		return fmt.Errorf("persistence: write payload: %w", err)
	}

	// NOTE: flushed to the OS page cache but not fsynced on every write —
	// same cost tradeoff storage/wal.go makes. Close fsyncs.
	return s.writer.Flush()
}

// LoadState implements raft.PersistentStore, replaying every record
// written so far and returning the most recent one.
func (s *Store) LoadState() (raft.PersistedState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Flush(); err != nil {
		return raft.PersistedState{}, false, err
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return raft.PersistedState{}, false, err
	}
	reader := bufio.NewReader(s.file)

	var last raft.PersistedState
	found := false
	for {
		var length uint32
		if err := binary.Read(reader, binary.LittleEndian, &length); err != nil {
			break
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return raft.PersistedState{}, false, fmt.Errorf("persistence: truncated record: %w", err)
		}
		state, err := unmarshalState(payload)
		if err != nil {
			return raft.PersistedState{}, false, err
		}
		last = state
		found = true
	}

	if _, err := s.file.Seek(0, io.SeekEnd); err != nil {
		return raft.PersistedState{}, false, err
	}
	return last, found, nil
}

// Close flushes, fsyncs, and closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Flush(); err != nil {
		return err
	}
	if err := s.file.Sync(); err != nil {
		return err
	}
	return s.file.Close()
}
