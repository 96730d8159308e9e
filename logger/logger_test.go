package logger

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/formatter"
)

const stamp = "2024-01-01 09:00:00.000 "

func fixedClock() time.Time {
	return time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
}

// safeBuffer is a bytes.Buffer safe for the async writer goroutine.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimSuffix(b.buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func newTestFactory(t *testing.T, opts ...Option) (*Factory, *safeBuffer) {
	t.Helper()
	buf := &safeBuffer{}
	base := []Option{
		WithStream(buf),
		WithColor(formatter.ColorNever),
		WithClock(fixedClock),
	}
	f := NewFactory(append(base, opts...)...)
	t.Cleanup(func() { _ = f.Close() })
	return f, buf
}

func assertLines(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSingleLine(t *testing.T) {
	f, buf := newTestFactory(t)
	f.Root().Info("hello")
	assertLines(t, buf.lines(), stamp+"[INFO  ] hello")
}

func TestLevelTags(t *testing.T) {
	f, buf := newTestFactory(t)
	l := f.Root()
	l.Debug("1")
	l.Verbose("2")
	l.Info("3")
	l.Notice("4")
	l.Warn("5")
	l.Error("6")
	l.Err("7")
	l.Critical("8")
	l.Crit("9")

	assertLines(t, buf.lines(),
		stamp+"[DEBUG ] 1",
		stamp+"[DEBUG ] 2",
		stamp+"[INFO  ] 3",
		stamp+"[NOTICE] 4",
		stamp+"[WARN  ] 5",
		stamp+"[ERROR ] 6",
		stamp+"[ERROR ] 7",
		stamp+"[CRITIC] 8",
		stamp+"[CRITIC] 9",
	)
}

func TestMultiLineAlignment(t *testing.T) {
	f, buf := newTestFactory(t)
	f.Instance("foo").Info("x\ny")

	lines := buf.lines()
	assertLines(t, lines,
		stamp+"[INFO  ] (foo) x",
		stamp+strings.Repeat(" ", 15)+"y",
	)
	if strings.Index(lines[0], "x") != strings.Index(lines[1], "y") {
		t.Errorf("continuation not aligned:\n%s\n%s", lines[0], lines[1])
	}
}

func TestLineCount(t *testing.T) {
	f, buf := newTestFactory(t)
	f.Instance("svc").Warn("a\nb\nc\n")
	if got := len(buf.lines()); got != 4 {
		t.Errorf("got %d lines, want 4", got)
	}
}

func TestPrefixWidth(t *testing.T) {
	f, buf := newTestFactory(t)
	ab := f.Instance("ab")
	ab.Info("before")
	long := f.Instance("abcdef")
	ab.Info("after")
	long.Info("long")

	assertLines(t, buf.lines(),
		stamp+"[INFO  ] (ab) before",
		stamp+"[INFO  ] (    ab) after",
		stamp+"[INFO  ] (abcdef) long",
	)
}

func TestLinesTimestampedSeparately(t *testing.T) {
	var ticks atomic.Int64
	clock := func() time.Time {
		return fixedClock().Add(time.Duration(ticks.Add(1)-1) * time.Millisecond)
	}
	f, buf := newTestFactory(t, WithClock(clock))
	f.Root().Info("x\ny\nz")

	assertLines(t, buf.lines(),
		"2024-01-01 09:00:00.000 [INFO  ] x",
		"2024-01-01 09:00:00.001          y",
		"2024-01-01 09:00:00.002          z",
	)
}

func TestDeduplication(t *testing.T) {
	tests := []struct {
		name    string
		repeats int
		summary string
	}{
		{"single repeat", 2, "Last message repeated 1 time."},
		{"many repeats", 4, "Last message repeated 3 times."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, buf := newTestFactory(t)
			l := f.Instance("dup")
			for i := 0; i < tt.repeats; i++ {
				l.Info("same")
			}
			l.Info("other")

			assertLines(t, buf.lines(),
				stamp+"[INFO  ] (dup) same",
				stamp+"[INFO  ] (dup) "+tt.summary,
				stamp+"[INFO  ] (dup) other",
			)
			if got := f.Stats().Suppressed; got != uint64(tt.repeats-1) {
				t.Errorf("Suppressed = %d, want %d", got, tt.repeats-1)
			}
		})
	}
}

func TestDeduplicationSummaryUsesStreakLogger(t *testing.T) {
	f, buf := newTestFactory(t)
	a, b := f.Instance("a"), f.Instance("b")
	a.Warn("same")
	a.Warn("same")
	b.Info("next")

	assertLines(t, buf.lines(),
		stamp+"[WARN  ] (a) same",
		stamp+"[WARN  ] (a) Last message repeated 1 time.",
		stamp+"[INFO  ] (b) next",
	)
}

func TestSwitchingLevelOrLoggerIsNotRepeat(t *testing.T) {
	f, buf := newTestFactory(t)
	a, b := f.Instance("a"), f.Instance("b")
	a.Info("msg")
	a.Warn("msg")
	b.Warn("msg")
	a.Warn("msg")

	if got := len(buf.lines()); got != 4 {
		t.Errorf("got %d lines, want 4:\n%s", got, strings.Join(buf.lines(), "\n"))
	}
	if f.Stats().Suppressed != 0 {
		t.Error("nothing should be suppressed")
	}
}

func TestErrorEndsStreak(t *testing.T) {
	f, buf := newTestFactory(t)
	l := f.Root()
	l.Info("a")
	l.Info("a")
	l.Error(fmt.Errorf("failed"))
	l.Error(fmt.Errorf("failed"))

	assertLines(t, buf.lines(),
		stamp+"[INFO  ] a",
		stamp+"[INFO  ] Last message repeated 1 time.",
		stamp+"[ERROR ] failed",
		stamp+"[ERROR ] failed",
	)
}

func TestErrorStack(t *testing.T) {
	f, buf := newTestFactory(t, WithSource(true))
	f.Instance("e").Error(errors.New("boom"))

	lines := buf.lines()
	if len(lines) < 3 {
		t.Fatalf("expected a stack, got:\n%s", strings.Join(lines, "\n"))
	}
	if lines[0] != stamp+"[ERROR ] (e) boom" {
		t.Errorf("first line = %q", lines[0])
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, stamp+strings.Repeat(" ", 13)) {
			t.Errorf("continuation line not aligned: %q", line)
		}
		if strings.HasPrefix(line, stamp+"[ERROR ]") {
			t.Errorf("errors must not get a location line: %q", line)
		}
	}
	if !strings.Contains(strings.Join(lines, "\n"), "TestErrorStack") {
		t.Error("stack does not mention the test")
	}
}

func TestSourceLocationColumn(t *testing.T) {
	f, buf := newTestFactory(t)
	l := f.Root().WithSource(true)
	l.Notice("col") // the column points at Notice

	lines := buf.lines()
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	m := regexp.MustCompile(`:(\d+):(\d+)$`).FindStringSubmatch(lines[1])
	if m == nil {
		t.Fatalf("no position in %q", lines[1])
	}
	if m[2] != "4" {
		t.Errorf("column = %s, want 4", m[2])
	}
}

func TestDisabledOutput(t *testing.T) {
	f, buf := newTestFactory(t)
	l := f.Instance("x")

	f.SetEnabled(false)
	l.Critical("hidden")
	if f.Enabled() {
		t.Error("Enabled() = true after SetEnabled(false)")
	}
	f.SetEnabled(true)
	l.Info("shown")

	assertLines(t, buf.lines(), stamp+"[INFO  ] (x) shown")
}

func TestSilence(t *testing.T) {
	f, buf := newTestFactory(t)
	before := f.Instance("before")

	f.Silence(true)
	after := f.Instance("after")
	before.Info("1")
	after.Info("2")
	if n := len(buf.lines()); n != 0 {
		t.Fatalf("silenced loggers wrote %d lines", n)
	}

	after.Enable(true).Info("3")
	f.Silence(false)
	before.Info("4")

	assertLines(t, buf.lines(),
		stamp+"[INFO  ] ( after) 3",
		stamp+"[INFO  ] (before) 4",
	)
}

func TestRequire(t *testing.T) {
	f, buf := newTestFactory(t)
	l := f.Root()
	f.Require(core.WarnLevel)
	l.Info("dropped")
	l.Warn("kept")
	f.Instance("new").Notice("dropped too")

	assertLines(t, buf.lines(), stamp+"[WARN  ] kept")
}

func TestRepeatSummaryHonorsGate(t *testing.T) {
	tests := []struct {
		name  string
		apply func(f *Factory, l *Logger)
	}{
		{"require", func(f *Factory, _ *Logger) { f.Require(core.WarnLevel) }},
		{"disable", func(f *Factory, _ *Logger) { _ = f.Disable("info") }},
		{"silence", func(f *Factory, _ *Logger) { f.Silence(true) }},
		{"logger disabled", func(_ *Factory, l *Logger) { l.Enable(false) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, buf := newTestFactory(t)
			l, other := f.Instance("a"), f.Instance("b")
			l.Info("same")
			l.Info("same")
			tt.apply(f, l)
			other.Enable(true).Warn("next")

			assertLines(t, buf.lines(),
				stamp+"[INFO  ] (a) same",
				stamp+"[WARN  ] (b) next",
			)
		})
	}
}

func TestDisable(t *testing.T) {
	f, buf := newTestFactory(t)
	if err := f.Disable("verbose", "info"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	l := f.Root()
	l.Debug("no")
	l.Info("no")
	l.Warn("yes")

	if err := f.EnableLevels("info"); err != nil {
		t.Fatalf("EnableLevels() error = %v", err)
	}
	l.Info("back")

	assertLines(t, buf.lines(),
		stamp+"[WARN  ] yes",
		stamp+"[INFO  ] back",
	)
}

func TestDisableInvalidName(t *testing.T) {
	f, _ := newTestFactory(t)
	err := f.Disable("warn", "loud")
	if !errors.Is(err, core.ErrInvalidLevel) {
		t.Fatalf("Disable() error = %v, want ErrInvalidLevel", err)
	}
	if f.disabled[core.WarnLevel] {
		t.Error("a failed Disable must not change anything")
	}
}

func TestLevelFunc(t *testing.T) {
	f, buf := newTestFactory(t)
	fn, err := f.Root().LevelFunc("notice")
	if err != nil {
		t.Fatalf("LevelFunc() error = %v", err)
	}
	fn("via %s", "func")
	assertLines(t, buf.lines(), stamp+"[NOTICE] via func")

	if _, err := f.Root().LevelFunc("shout"); !errors.Is(err, core.ErrInvalidLevel) {
		t.Errorf("LevelFunc(shout) error = %v", err)
	}
}

func TestLogInvalidLevel(t *testing.T) {
	f, buf := newTestFactory(t)
	f.Root().Log(core.Level(42), "nope")
	f.Root().Log(core.NoticeLevel, "yes")
	assertLines(t, buf.lines(), stamp+"[NOTICE] yes")
}

func TestModule(t *testing.T) {
	f, _ := newTestFactory(t)
	if got := f.Module().Prefix(); got != "logger_test" {
		t.Errorf("Module().Prefix() = %q, want logger_test", got)
	}
	if f.Root() != f.Root() {
		t.Error("Root() should return the same logger")
	}
}

func TestFactoryTo(t *testing.T) {
	f, first := newTestFactory(t)
	old := f.Root()
	second := &safeBuffer{}
	f.To(second)
	f.Instance("n").Info("second")
	old.Info("first")

	assertLines(t, first.lines(), stamp+"[INFO  ] first")
	assertLines(t, second.lines(), stamp+"[INFO  ] (n) second")
}

func TestLoggerTo(t *testing.T) {
	f, buf := newTestFactory(t)
	other := &safeBuffer{}
	f.Root().To(other).Info("elsewhere")
	if len(buf.lines()) != 0 {
		t.Error("factory stream received a redirected line")
	}
	assertLines(t, other.lines(), stamp+"[INFO  ] elsewhere")
}

type panicky struct{}

func (panicky) String() string { panic("bad") }

func TestMalformedSubject(t *testing.T) {
	f, buf := newTestFactory(t)
	f.Root().Info(panicky{})
	assertLines(t, buf.lines(), stamp+"[INFO  ] "+core.MalformedSubject)
}

type chatty struct{ l *Logger }

func (c chatty) String() string {
	c.l.Debug("inner")
	return "outer"
}

func TestSubjectThatLogs(t *testing.T) {
	f, buf := newTestFactory(t)
	l := f.Root()
	l.Info(chatty{l})
	assertLines(t, buf.lines(),
		stamp+"[DEBUG ] inner",
		stamp+"[INFO  ] outer",
	)
}

func TestColorAlways(t *testing.T) {
	f, buf := newTestFactory(t, WithColor(formatter.ColorAlways))
	f.Root().Critical("red")
	out := strings.Join(buf.lines(), "\n")
	if !strings.Contains(out, "\x1b[") || !strings.Contains(out, "red") {
		t.Errorf("expected color escapes, got %q", out)
	}
	if !strings.HasPrefix(out, stamp) {
		t.Errorf("timestamp must stay uncolored: %q", out)
	}
}

func TestColorAutoSkipsFiles(t *testing.T) {
	file, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	f, _ := newTestFactory(t, WithColor(formatter.ColorAuto), WithStream(file))
	f.Root().Warn("one")
	f.Root().Error("two")

	data, err := os.ReadFile(file.Name())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Errorf("file output should be plain: %q", data)
	}
	f.mu.Lock()
	cached := len(f.ttys)
	f.mu.Unlock()
	if cached != 1 {
		t.Errorf("terminal check cached for %d descriptors, want 1", cached)
	}
}

func TestAsync(t *testing.T) {
	f, buf := newTestFactory(t)
	l := f.Instance("bg").Sync(false)
	for i := 0; i < 5; i++ {
		l.Info("line %d\nmore", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	lines := buf.lines()
	if len(lines) != 10 {
		t.Fatalf("got %d lines, want 10", len(lines))
	}
	for i := 0; i < 5; i++ {
		if want := fmt.Sprintf("%s[INFO  ] (bg) line %d", stamp, i); lines[2*i] != want {
			t.Errorf("line %d = %q, want %q", 2*i, lines[2*i], want)
		}
		if !strings.HasSuffix(lines[2*i+1], " more") {
			t.Errorf("line %d = %q", 2*i+1, lines[2*i+1])
		}
	}
	if got := f.Stats().Written; got != 10 {
		t.Errorf("Written = %d, want 10", got)
	}
}

func TestConcurrentLogging(t *testing.T) {
	f, buf := newTestFactory(t)
	const goroutines, perG = 8, 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			l := f.Instance(fmt.Sprintf("g%d", g))
			for i := 0; i < perG; i++ {
				l.Info("msg %d\ncont", i)
			}
		}(g)
	}
	wg.Wait()

	lines := buf.lines()
	if len(lines) != goroutines*perG*2 {
		t.Fatalf("got %d lines, want %d", len(lines), goroutines*perG*2)
	}
	for i := 0; i < len(lines); i += 2 {
		if !strings.Contains(lines[i], "[INFO  ]") || !strings.HasSuffix(lines[i+1], " cont") {
			t.Fatalf("lines of one call were split: %q / %q", lines[i], lines[i+1])
		}
	}
}
