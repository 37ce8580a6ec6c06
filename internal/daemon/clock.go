package daemon

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so the polling loop is deterministic in
// tests. The clock supplies capture timestamps, not file mtimes.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts session ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
