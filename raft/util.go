// raft/util.go
package raft

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// minI64 returns the minimum of two int64 values.
func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// maxI64 returns the maximum of two int64 values.
func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// randomInt returns a random integer in [min, max).
func randomInt(min, max int) int {
	if min >= max {
		return min
	}

	var n uint32
	binary.Read(rand.Reader, binary.BigEndian, &n)
	return min + int(n)%(max-min)
}

// FormatTerm formats a term for logging.
func FormatTerm(term uint64) string {
	return fmt.Sprintf("T%d", term)
}

// FormatIndex formats a log index for logging.
func FormatIndex(index int64) string {
	return fmt.Sprintf("I%d", index)
}

// FormatLogEntry formats a log entry for logging.
func FormatLogEntry(entry LogEntry) string {
	return fmt.Sprintf("%s:%s", FormatTerm(entry.Term), FormatIndex(entry.Index))
}
