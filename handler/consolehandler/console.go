package consolehandler

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/formatter"
	"github.com/philipp01105/conlog/handler"
)

// ErrNoWriter is returned for entries without a stream when the handler
// has no default one either.
var ErrNoWriter = errors.New("no writer for entry")

// consoleBase contains shared fields and methods for console handlers.
type consoleBase struct {
	writer io.Writer
	clock  core.Clock
	stats  *handler.Stats
	mu     *sync.Mutex // serializes writes, may be shared between handlers
	closed chan struct{}
	once   sync.Once
}

func (b *consoleBase) init(cfg Config) {
	b.writer = cfg.Writer
	b.clock = cfg.Clock
	b.stats = cfg.Stats
	b.mu = cfg.WriteLock
	b.closed = make(chan struct{})
}

// write timestamps each line of entry as it is rendered and writes them
// with a single Write call, so the lines of one logging call are never
// interleaved with others.
// The entry is returned to the pool.
func (b *consoleBase) write(entry *core.Entry) error {
	defer core.PutEntry(entry)

	w := entry.Writer
	if w == nil {
		w = b.writer
	}
	if w == nil {
		b.stats.IncrementWriteErrors()
		return ErrNoWriter
	}

	buf := formatter.GetBuffer()
	defer formatter.PutBuffer(buf)

	b.mu.Lock()
	for _, line := range entry.Lines {
		formatter.AppendLine(buf, b.clock(), line)
	}
	_, err := w.Write(buf.Bytes())
	b.mu.Unlock()

	if err != nil {
		b.stats.IncrementWriteErrors()
		return errors.Wrap(err, "write log lines")
	}
	b.stats.AddWritten(len(entry.Lines))
	return nil
}

// Stats returns a snapshot of the current statistics
func (b *consoleBase) Stats() handler.Snapshot {
	return b.stats.GetSnapshot()
}

// markClosed closes the closed channel and reports whether this call did it.
func (b *consoleBase) markClosed() bool {
	first := false
	b.once.Do(func() {
		close(b.closed)
		first = true
	})
	return first
}

func (b *consoleBase) isClosed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

// Config holds configuration for console handlers
type Config struct {
	// Writer is used for entries without their own stream (default: colorable stdout)
	Writer io.Writer
	// Async enables asynchronous logging (default: false)
	Async bool
	// BufferSize is the size of the async queue (default: 1000)
	BufferSize int
	// OverflowPolicy defines per-level overflow behavior (default: uses DefaultLevelPolicy)
	OverflowPolicy map[core.Level]handler.OverflowPolicy
	// BlockTimeout is the timeout for blocking overflow policy (default: 100ms)
	BlockTimeout time.Duration
	// DrainTimeout is the timeout for draining queue on Close (default: 5s)
	DrainTimeout time.Duration
	// Clock stamps lines when they are written (default: time.Now)
	Clock core.Clock
	// WriteLock serializes writes. Handlers writing to the same streams
	// should share one. (default: a new mutex)
	WriteLock *sync.Mutex
	// Stats receives the counters. Handlers may share one. (default: new)
	Stats *handler.Stats
}

// Stdout returns standard output, translating color escapes on Windows consoles.
func Stdout() io.Writer {
	return colorable.NewColorable(os.Stdout)
}

// Stderr returns standard error, translating color escapes on Windows consoles.
func Stderr() io.Writer {
	return colorable.NewColorable(os.Stderr)
}

// applyDefaults fills in zero-value fields with defaults.
func applyDefaults(cfg *Config) {
	if cfg.Writer == nil {
		cfg.Writer = Stdout()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.OverflowPolicy == nil {
		cfg.OverflowPolicy = handler.DefaultLevelPolicy()
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 100 * time.Millisecond
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.WriteLock == nil {
		cfg.WriteLock = &sync.Mutex{}
	}
	if cfg.Stats == nil {
		cfg.Stats = handler.NewStats()
	}
}

// New creates a console handler: an *AsyncHandler when cfg.Async is set,
// otherwise a *SyncHandler.
func New(cfg Config) handler.Handler {
	applyDefaults(&cfg)
	if cfg.Async {
		return newAsyncHandler(cfg)
	}
	return newSyncHandler(cfg)
}
