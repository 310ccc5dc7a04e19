// Package history records every line entered into a shell session, success
// or failure alike, and persists the record across sessions.
package history

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one executed input line. ExitStatus is recorded after dispatch
// completes, regardless of outcome: history is a record of attempts, not of
// successes only.
type Entry struct {
	ID         string
	SessionID  string
	Raw        string
	Timestamp  time.Time
	ExitStatus int
}

// Log is the in-memory, session-scoped ordered sequence of entries. Entries
// are flushed to the persisted store incrementally; flushed keeps the index
// of the first unflushed entry.
type Log struct {
	sessionID string
	entries   []Entry
	flushed   int
}

// NewLog creates an empty log for a new session.
func NewLog() *Log {
	return &Log{sessionID: uuid.NewString()}
}

// SessionID returns the session identifier stamped on every entry.
func (l *Log) SessionID() string {
	return l.sessionID
}

// Append records a raw input line with its exit status and returns the
// created entry.
func (l *Log) Append(raw string, exitStatus int) Entry {
	e := Entry{
		ID:         uuid.NewString(),
		SessionID:  l.sessionID,
		Raw:        raw,
		Timestamp:  time.Now().UTC(),
		ExitStatus: exitStatus,
	}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns the session's entries in order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// Len returns the number of entries recorded this session.
func (l *Log) Len() int {
	return len(l.entries)
}

// Search returns entries whose raw text contains the substring.
func (l *Log) Search(substr string) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if strings.Contains(e.Raw, substr) {
			out = append(out, e)
		}
	}
	return out
}

// FlushTo bulk-appends every unflushed entry to the persisted store. Safe to
// call repeatedly; already-flushed entries are not re-written.
func (l *Log) FlushTo(store *Store) error {
	if store == nil || l.flushed >= len(l.entries) {
		return nil
	}
	if err := store.BulkAppend(l.entries[l.flushed:]); err != nil {
		return err
	}
	l.flushed = len(l.entries)
	return nil
}
