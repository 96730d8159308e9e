package handler

import (
	"sync/atomic"

	"github.com/philipp01105/conlog/core"
)

// OverflowPolicy defines how to handle full async queues
type OverflowPolicy int

const (
	// DropNewest drops the newest log entry when queue is full
	DropNewest OverflowPolicy = iota
	// DropOldest drops the oldest log entry when queue is full
	DropOldest
	// Block blocks the caller until space is available (with timeout)
	Block
)

// String returns the string representation of the policy
func (p OverflowPolicy) String() string {
	switch p {
	case DropNewest:
		return "DropNewest"
	case DropOldest:
		return "DropOldest"
	case Block:
		return "Block"
	default:
		return "Unknown"
	}
}

// DefaultLevelPolicy returns the default level-based overflow policies:
// chatty levels are dropped, warnings and above wait for room.
func DefaultLevelPolicy() map[core.Level]OverflowPolicy {
	return map[core.Level]OverflowPolicy{
		core.DebugLevel:    DropNewest,
		core.InfoLevel:     DropNewest,
		core.NoticeLevel:   DropNewest,
		core.WarnLevel:     Block,
		core.ErrorLevel:    Block,
		core.CriticalLevel: Block,
	}
}

// Stats tracks handler statistics. It is safe for concurrent use and may
// be shared by several handlers.
type Stats struct {
	dropped     [core.LevelCount]atomic.Uint64
	blocked     atomic.Uint64
	written     atomic.Uint64
	writeErrors atomic.Uint64
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{}
}

// IncrementDropped atomically increments the dropped counter for a level
func (s *Stats) IncrementDropped(level core.Level) {
	if level.Valid() {
		s.dropped[level].Add(1)
	}
}

// IncrementBlocked counts an entry that timed out waiting for queue room.
func (s *Stats) IncrementBlocked() {
	s.blocked.Add(1)
}

// AddWritten counts n written lines.
func (s *Stats) AddWritten(n int) {
	s.written.Add(uint64(n))
}

// IncrementWriteErrors counts a failed write.
func (s *Stats) IncrementWriteErrors() {
	s.writeErrors.Add(1)
}

// GetDropped returns the dropped count for a level
func (s *Stats) GetDropped(level core.Level) uint64 {
	if !level.Valid() {
		return 0
	}
	return s.dropped[level].Load()
}

// GetBlocked returns the blocked count
func (s *Stats) GetBlocked() uint64 {
	return s.blocked.Load()
}

// GetWritten returns the number of lines written
func (s *Stats) GetWritten() uint64 {
	return s.written.Load()
}

// GetWriteErrors returns the number of failed writes
func (s *Stats) GetWriteErrors() uint64 {
	return s.writeErrors.Load()
}

// GetTotalDropped returns the total dropped across all levels
func (s *Stats) GetTotalDropped() uint64 {
	var total uint64
	for i := range s.dropped {
		total += s.dropped[i].Load()
	}
	return total
}

// Reset resets all counters to zero
func (s *Stats) Reset() {
	for i := range s.dropped {
		s.dropped[i].Store(0)
	}
	s.blocked.Store(0)
	s.written.Store(0)
	s.writeErrors.Store(0)
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Dropped     map[core.Level]uint64
	Blocked     uint64
	Written     uint64
	WriteErrors uint64
}

// TotalDropped sums the dropped counts of all levels.
func (s Snapshot) TotalDropped() uint64 {
	var total uint64
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// GetSnapshot returns a snapshot of current statistics
func (s *Stats) GetSnapshot() Snapshot {
	snap := Snapshot{
		Dropped:     make(map[core.Level]uint64, core.LevelCount),
		Blocked:     s.GetBlocked(),
		Written:     s.GetWritten(),
		WriteErrors: s.GetWriteErrors(),
	}
	for _, level := range core.AllLevels() {
		snap.Dropped[level] = s.GetDropped(level)
	}
	return snap
}
