package logger

import (
	"context"
	"io"
	"sync"
	"weak"

	"github.com/pkg/errors"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/dedup"
	"github.com/philipp01105/conlog/formatter"
	"github.com/philipp01105/conlog/handler"
	"github.com/philipp01105/conlog/handler/consolehandler"
	"github.com/philipp01105/conlog/source"
	"github.com/philipp01105/conlog/subject"
)

// Factory creates loggers and owns the state they share: the alignment
// width, the last-message slot used for deduplication, the output handlers
// and the process-wide switches. Loggers of different factories do not
// affect each other.
type Factory struct {
	normalizer *subject.Normalizer
	locator    *source.Locator
	emitter    *consolehandler.Emitter
	layout     *formatter.Context
	colorMode  formatter.ColorMode
	colorizers *formatter.Colorizers

	// mu guards everything below and the mutable fields of every Logger
	// created by this factory.
	mu       sync.Mutex
	filter   *dedup.Filter
	stream   io.Writer
	enabled  bool
	silent   bool
	minLevel core.Level
	disabled [core.LevelCount]bool
	sync     bool
	source   bool
	root     *Logger
	loggers  []weak.Pointer[Logger]
	ttys     map[uintptr]bool
}

// Option configures a Factory.
type Option func(*settings)

type settings struct {
	stream     io.Writer
	color      formatter.ColorMode
	colorizers *formatter.Colorizers
	capturer   source.Capturer
	unrollers  []subject.Unroller
	handler    consolehandler.Config
	minLevel   core.Level
	silent     bool
	sync       bool
	source     bool
}

// WithStream sets the stream of new loggers (default: standard output).
func WithStream(w io.Writer) Option {
	return func(s *settings) { s.stream = w }
}

// WithColor sets when lines are colored (default: ColorAuto).
func WithColor(mode formatter.ColorMode) Option {
	return func(s *settings) { s.color = mode }
}

// WithColorizers replaces the per-level colors.
func WithColorizers(c *formatter.Colorizers) Option {
	return func(s *settings) { s.colorizers = c }
}

// WithClock sets the clock used to timestamp lines.
func WithClock(clock core.Clock) Option {
	return func(s *settings) { s.handler.Clock = clock }
}

// WithCoarseClock timestamps lines from a cached clock refreshed every
// half millisecond.
func WithCoarseClock() Option {
	return func(s *settings) { s.handler.Clock = core.CoarseClock() }
}

// WithCapturer sets how call stacks are captured for source tracing.
func WithCapturer(c source.Capturer) Option {
	return func(s *settings) { s.capturer = c }
}

// WithUnroller adds a request projection for logged subjects.
func WithUnroller(u subject.Unroller) Option {
	return func(s *settings) { s.unrollers = append(s.unrollers, u) }
}

// WithAsyncConfig configures the queue used by loggers with Sync(false).
// Writer, Clock, WriteLock and Stats are managed by the factory and
// ignored unless set.
func WithAsyncConfig(cfg consolehandler.Config) Option {
	return func(s *settings) {
		clock := s.handler.Clock
		s.handler = cfg
		if s.handler.Clock == nil {
			s.handler.Clock = clock
		}
	}
}

// WithMinLevel sets the minimum level of every logger.
func WithMinLevel(level core.Level) Option {
	return func(s *settings) { s.minLevel = level }
}

// WithSilence creates the factory silenced.
func WithSilence(silent bool) Option {
	return func(s *settings) { s.silent = silent }
}

// WithSync sets whether new loggers write synchronously (default: true).
func WithSync(enabled bool) Option {
	return func(s *settings) { s.sync = enabled }
}

// WithSource sets whether new loggers trace call sites (default: false).
func WithSource(enabled bool) Option {
	return func(s *settings) { s.source = enabled }
}

// NewFactory creates a Factory.
func NewFactory(opts ...Option) *Factory {
	s := settings{
		color:    formatter.ColorAuto,
		minLevel: core.DebugLevel,
		sync:     true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.stream == nil {
		s.stream = consolehandler.Stdout()
	}
	if s.colorizers == nil {
		s.colorizers = formatter.DefaultColorizers()
	}
	if s.handler.Writer == nil {
		s.handler.Writer = s.stream
	}

	return &Factory{
		normalizer: subject.NewNormalizer(s.unrollers...),
		locator:    source.NewLocator(s.capturer),
		emitter:    consolehandler.NewEmitter(s.handler),
		layout:     formatter.NewContext(),
		colorMode:  s.color,
		colorizers: s.colorizers,
		filter:     dedup.NewFilter(),
		stream:     s.stream,
		enabled:    true,
		silent:     s.silent,
		minLevel:   s.minLevel,
		sync:       s.sync,
		source:     s.source,
		ttys:       make(map[uintptr]bool),
	}
}

// Module creates a logger named after the file of the calling code, with
// its extension stripped. If the file cannot be determined the logger has
// no prefix.
func (f *Factory) Module() *Logger {
	return f.module(2)
}

// module infers the prefix from the frame depth levels above it.
func (f *Factory) module(depth int) *Logger {
	name := ""
	if frame, ok := f.locator.Caller(depth); ok {
		name = source.ModuleName(frame)
	}
	return f.Instance(name)
}

// Instance creates a logger with the given prefix. An empty prefix creates
// a logger without one. A prefix wider than all earlier ones widens the
// prefix column of every logger of the factory.
func (f *Factory) Instance(prefix string) *Logger {
	if prefix != "" {
		f.layout.Register(prefix)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newLoggerLocked(prefix)
}

// Root returns the factory's logger without a prefix.
func (f *Factory) Root() *Logger {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.root == nil {
		f.root = f.newLoggerLocked("")
	}
	return f.root
}

func (f *Factory) newLoggerLocked(prefix string) *Logger {
	l := &Logger{
		f:           f,
		prefix:      prefix,
		stream:      f.stream,
		traceSource: f.source,
		synchronous: f.sync,
		enabled:     !f.silent,
		minLevel:    f.minLevel,
	}
	f.loggers = append(f.loggers, weak.Make(l))
	return l
}

// eachLocked calls fn for every logger still referenced somewhere and
// forgets the collected ones.
func (f *Factory) eachLocked(fn func(*Logger)) {
	live := f.loggers[:0]
	for _, wp := range f.loggers {
		if l := wp.Value(); l != nil {
			fn(l)
			live = append(live, wp)
		}
	}
	clear(f.loggers[len(live):])
	f.loggers = live
}

// Silence disables (true) or re-enables (false) every existing logger and
// every logger created afterwards.
func (f *Factory) Silence(silent bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silent = silent
	f.eachLocked(func(l *Logger) { l.enabled = !silent })
}

// SetEnabled is the master switch: while disabled no logger of the
// factory writes anything, regardless of its own state.
func (f *Factory) SetEnabled(enabled bool) {
	f.mu.Lock()
	f.enabled = enabled
	f.mu.Unlock()
}

// Enabled reports the master switch.
func (f *Factory) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// Require sets the minimum level of every existing and future logger.
func (f *Factory) Require(level core.Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minLevel = level
	f.eachLocked(func(l *Logger) { l.minLevel = level })
}

// To sets the stream of loggers created afterwards.
func (f *Factory) To(w io.Writer) {
	if w == nil {
		return
	}
	f.mu.Lock()
	f.stream = w
	f.mu.Unlock()
}

// Disable turns the named level methods into no-ops for every logger of
// the factory. Aliases (verbose, err, crit) disable their level. Nothing
// is changed if any name is unknown.
func (f *Factory) Disable(names ...string) error {
	return f.setDisabled(true, names)
}

// EnableLevels reverts Disable for the named levels.
func (f *Factory) EnableLevels(names ...string) error {
	return f.setDisabled(false, names)
}

func (f *Factory) setDisabled(disabled bool, names []string) error {
	levels := make([]core.Level, 0, len(names))
	for _, name := range names {
		level, err := core.ParseLevel(name)
		if err != nil {
			return errors.Wrap(err, "invalid logger")
		}
		levels = append(levels, level)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, level := range levels {
		f.disabled[level] = disabled
	}
	return nil
}

// Flush waits for lines of loggers with Sync(false) to be written.
func (f *Factory) Flush(ctx context.Context) error {
	return f.emitter.Flush(ctx)
}

// Close flushes and stops the factory's handlers. Loggers keep working
// afterwards but write synchronously.
func (f *Factory) Close() error {
	return f.emitter.Close()
}

// Stats is a snapshot of the factory's output counters.
type Stats struct {
	handler.Snapshot
	// Suppressed counts messages swallowed as repeats.
	Suppressed uint64
}

// Stats returns the current counters.
func (f *Factory) Stats() Stats {
	return Stats{
		Snapshot:   f.emitter.Stats(),
		Suppressed: f.filter.Suppressed(),
	}
}

// colorizerLocked returns the colorizer for lines at level written to w,
// or nil when w should get plain text.
func (f *Factory) colorizerLocked(level core.Level, w io.Writer) core.Colorizer {
	if !f.colorEnabledLocked(w) {
		return nil
	}
	return f.colorizers.For(level)
}

// colorEnabledLocked applies the factory's ColorMode to w, remembering the
// terminal check per file descriptor in auto mode.
func (f *Factory) colorEnabledLocked(w io.Writer) bool {
	fd, ok := w.(interface{ Fd() uintptr })
	if f.colorMode != formatter.ColorAuto || !ok {
		return f.colorMode.Enabled(w)
	}
	enabled, seen := f.ttys[fd.Fd()]
	if !seen {
		enabled = f.colorMode.Enabled(w)
		f.ttys[fd.Fd()] = enabled
	}
	return enabled
}
