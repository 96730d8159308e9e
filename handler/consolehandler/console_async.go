package consolehandler

import (
	"context"
	"sync"
	"time"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/handler"
)

// item is one queue slot: an entry to write, or a flush marker whose done
// channel is closed once every earlier item has been processed.
type item struct {
	entry *core.Entry
	done  chan struct{}
}

// release recycles the entry or completes the marker without writing.
func (it item) release() {
	if it.done != nil {
		close(it.done)
		return
	}
	core.PutEntry(it.entry)
}

// AsyncHandler hands entries to a background goroutine through a bounded
// queue. Entries are written in the order they were queued.
type AsyncHandler struct {
	consoleBase
	queue          chan item
	wg             sync.WaitGroup
	// sendMu is held shared while an item is queued and exclusively while
	// Close marks the handler closed, so nothing is queued after the writer
	// goroutine has drained the queue.
	sendMu         sync.RWMutex
	overflowPolicy map[core.Level]handler.OverflowPolicy
	blockTimeout   time.Duration
	drainTimeout   time.Duration
}

// NewAsync creates an asynchronous handler and starts its writer goroutine.
func NewAsync(cfg Config) *AsyncHandler {
	applyDefaults(&cfg)
	return newAsyncHandler(cfg)
}

func newAsyncHandler(cfg Config) *AsyncHandler {
	h := &AsyncHandler{
		queue:          make(chan item, cfg.BufferSize),
		overflowPolicy: cfg.OverflowPolicy,
		blockTimeout:   cfg.BlockTimeout,
		drainTimeout:   cfg.DrainTimeout,
	}
	h.init(cfg)

	h.wg.Add(1)
	go h.process()

	return h
}

// Handle queues the entry, applying the level's overflow policy when the
// queue is full. After Close entries are written synchronously.
func (h *AsyncHandler) Handle(entry *core.Entry) error {
	h.sendMu.RLock()
	defer h.sendMu.RUnlock()
	if h.isClosed() {
		return h.write(entry)
	}

	policy, ok := h.overflowPolicy[entry.Level]
	if !ok {
		policy = handler.DropNewest
	}
	it := item{entry: entry}

	switch policy {
	case handler.Block:
		select {
		case h.queue <- it:
			return nil
		default:
		}

		timer := time.NewTimer(h.blockTimeout)
		defer timer.Stop()
		select {
		case h.queue <- it:
			return nil
		case <-timer.C:
			// Timeout - fall back to synchronous write
			h.stats.IncrementBlocked()
			return h.write(entry)
		}

	case handler.DropOldest:
		select {
		case h.queue <- it:
			return nil
		default:
		}
		select {
		case old := <-h.queue:
			if old.entry != nil {
				h.stats.IncrementDropped(old.entry.Level)
			}
			old.release()
		default:
		}
		select {
		case h.queue <- it:
		default:
			h.stats.IncrementDropped(entry.Level)
			it.release()
		}
		return nil

	default:
		select {
		case h.queue <- it:
		default:
			h.stats.IncrementDropped(entry.Level)
			it.release()
		}
		return nil
	}
}

// Flush waits until every entry queued before the call has been written
// or dropped.
func (h *AsyncHandler) Flush(ctx context.Context) error {
	h.sendMu.RLock()
	if h.isClosed() {
		h.sendMu.RUnlock()
		return nil
	}
	done := make(chan struct{})
	select {
	case h.queue <- item{done: done}:
		h.sendMu.RUnlock()
	case <-ctx.Done():
		h.sendMu.RUnlock()
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// process handles async log processing
func (h *AsyncHandler) process() {
	defer h.wg.Done()

	for {
		select {
		case it := <-h.queue:
			h.handleItem(it)
		case <-h.closed:
			h.drain()
			return
		}
	}
}

// drain writes what is left in the queue until it is empty or the drain
// timeout passes; entries still queued after that are discarded.
func (h *AsyncHandler) drain() {
	deadline := time.NewTimer(h.drainTimeout)
	defer deadline.Stop()
	for {
		select {
		case it := <-h.queue:
			h.handleItem(it)
		case <-deadline.C:
			h.discard()
			return
		default:
			return
		}
	}
}

func (h *AsyncHandler) discard() {
	for {
		select {
		case it := <-h.queue:
			if it.entry != nil {
				h.stats.IncrementDropped(it.entry.Level)
			}
			it.release()
		default:
			return
		}
	}
}

func (h *AsyncHandler) handleItem(it item) {
	if it.done != nil {
		close(it.done)
		return
	}
	// Write errors are counted in Stats; the loop keeps going.
	_ = h.write(it.entry)
}

// Close stops accepting queued entries and drains the queue within the
// drain timeout.
func (h *AsyncHandler) Close() error {
	h.sendMu.Lock()
	first := h.markClosed()
	h.sendMu.Unlock()
	if !first {
		return nil
	}
	h.wg.Wait()
	return nil
}
