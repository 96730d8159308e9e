package consolehandler

import (
	"context"
	"sync"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/handler"
)

// Emitter routes entries to a synchronous handler or to an asynchronous
// one, per call. Both share one write lock and one Stats, so the lines of
// a call never interleave with another call's lines on the same stream.
// The asynchronous handler and its goroutine are only started on first use.
type Emitter struct {
	cfg   Config
	sync  *SyncHandler
	once  sync.Once
	async *AsyncHandler
	mu    sync.Mutex
}

// NewEmitter creates an Emitter. cfg.Async is ignored.
func NewEmitter(cfg Config) *Emitter {
	applyDefaults(&cfg)
	return &Emitter{cfg: cfg, sync: newSyncHandler(cfg)}
}

// Emit hands entry to the synchronous or the asynchronous handler.
func (e *Emitter) Emit(entry *core.Entry, synchronous bool) error {
	if synchronous {
		return e.sync.Handle(entry)
	}
	return e.asyncHandler().Handle(entry)
}

func (e *Emitter) asyncHandler() *AsyncHandler {
	e.once.Do(func() {
		a := newAsyncHandler(e.cfg)
		e.mu.Lock()
		e.async = a
		e.mu.Unlock()
	})
	return e.async
}

func (e *Emitter) started() *AsyncHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.async
}

// Flush waits for deferred writes queued before the call.
func (e *Emitter) Flush(ctx context.Context) error {
	if a := e.started(); a != nil {
		return a.Flush(ctx)
	}
	return nil
}

// Stats returns a snapshot of the shared counters.
func (e *Emitter) Stats() handler.Snapshot {
	return e.cfg.Stats.GetSnapshot()
}

// Close drains the asynchronous handler, if started, and closes both.
func (e *Emitter) Close() error {
	var err error
	if a := e.started(); a != nil {
		err = a.Close()
	}
	if cerr := e.sync.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
