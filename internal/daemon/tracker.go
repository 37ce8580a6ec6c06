package daemon

import "time"

// ModTimes records the last-triggered time per watched file, keyed by path
// relative to the watch root. Unseen paths report the zero time, which is
// earlier than any real modification time. The mapping lives in memory for
// the life of the process and is never persisted.
type ModTimes struct {
	seen map[string]time.Time
}

// NewModTimes creates an empty tracker.
func NewModTimes() *ModTimes {
	return &ModTimes{seen: make(map[string]time.Time)}
}

// Get returns the last recorded trigger time for rel, or the zero time if
// rel has never triggered a backup.
func (m *ModTimes) Get(rel string) time.Time {
	return m.seen[rel]
}

// Set records t as the last-triggered time for rel.
func (m *ModTimes) Set(rel string, t time.Time) {
	m.seen[rel] = t
}

// Len returns the number of files that have triggered at least once.
func (m *ModTimes) Len() int { return len(m.seen) }
