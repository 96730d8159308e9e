package handler

import (
	"context"

	"github.com/philipp01105/conlog/core"
)

// Handler writes batches of rendered lines.
type Handler interface {
	// Handle takes ownership of entry and returns it to the pool once its
	// lines are written or dropped.
	Handle(entry *core.Entry) error

	// Close closes the handler and releases resources
	Close() error
}

// Flusher is implemented by handlers that defer writes.
type Flusher interface {
	// Flush blocks until every entry handed over before the call has been
	// written or dropped, or until ctx is done.
	Flush(ctx context.Context) error
}

// StatsProvider is implemented by handlers that keep Stats.
type StatsProvider interface {
	Stats() Snapshot
}
