// Package dedup collapses runs of identical consecutive log messages.
//
// The Filter remembers the last message it let through. Repeats of it are
// suppressed and counted; when a different message arrives the count is
// handed back as a Repeat so the caller can log a one-line summary through
// the logger that produced the streak.
package dedup

import (
	"strconv"
	"sync/atomic"

	"github.com/philipp01105/conlog/core"
)

// Key identifies a message for deduplication. Owner is the identity of
// the logger that produced it, usually a pointer.
type Key struct {
	Level core.Level
	Owner any
	Text  string
}

// Delegate emits text through the level and logger of a streak.
type Delegate func(summary core.Untraceable)

// Repeat is a finished streak of suppressed repeats.
type Repeat struct {
	Key      Key
	Count    int
	Delegate Delegate
}

// Summary returns the "Last message repeated N time(s)." line.
func (r Repeat) Summary() core.Untraceable {
	unit := " times."
	if r.Count == 1 {
		unit = " time."
	}
	return core.NewUntraceable("Last message repeated " + strconv.Itoa(r.Count) + unit)
}

// Emit logs the summary through the streak's delegate.
func (r Repeat) Emit() {
	if r.Delegate != nil && r.Count > 0 {
		r.Delegate(r.Summary())
	}
}

// Verdict is the outcome of Check.
type Verdict struct {
	// Allow is false when the message repeats the previous one.
	Allow bool
	// Pending holds the streak that the message ended, if any.
	Pending *Repeat
}

// Filter holds the single last-message slot. It is not safe for
// concurrent use; callers serialize access, normally under the lock that
// also orders their writes.
type Filter struct {
	last       *Key
	delegate   Delegate
	repeated   int
	suppressed atomic.Uint64
}

// NewFilter creates an empty Filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Check decides whether the message identified by k may be emitted.
// delegate is remembered with k and used for the streak's summary.
//
// Repeating the stored message suppresses it. Any other message is
// allowed and becomes the stored one; if it ended a streak, the streak is
// returned in Verdict.Pending and must be emitted before the message.
func (f *Filter) Check(k Key, delegate Delegate) Verdict {
	if f.last != nil && *f.last == k {
		f.repeated++
		f.suppressed.Add(1)
		return Verdict{}
	}

	pending := f.take()
	f.last = &k
	f.delegate = delegate
	return Verdict{Allow: true, Pending: pending}
}

// Break ends the current streak without storing a new message. It is
// used for content that never takes part in deduplication.
func (f *Filter) Break() *Repeat {
	pending := f.take()
	f.last = nil
	f.delegate = nil
	return pending
}

// Reset forgets the stored message and any pending count.
func (f *Filter) Reset() {
	f.last = nil
	f.delegate = nil
	f.repeated = 0
}

// Suppressed returns how many messages were suppressed so far.
func (f *Filter) Suppressed() uint64 {
	return f.suppressed.Load()
}

func (f *Filter) take() *Repeat {
	if f.last == nil || f.repeated == 0 {
		f.repeated = 0
		return nil
	}
	r := &Repeat{Key: *f.last, Count: f.repeated, Delegate: f.delegate}
	f.repeated = 0
	return r
}
