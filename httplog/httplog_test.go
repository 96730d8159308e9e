package httplog

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"

	"github.com/philipp01105/conlog/formatter"
	"github.com/philipp01105/conlog/logger"
	"github.com/philipp01105/conlog/subject"
)

// capture records the text handed to a LogFunc.
type capture struct {
	mu    sync.Mutex
	lines []string
}

func (c *capture) log(v any, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, v.(string))
}

func (c *capture) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// steppingClock advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}

var start = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func hello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte("hello"))
}

func TestWriterStripsTrailingNewline(t *testing.T) {
	c := &capture{}
	w := NewWriter(c.log)
	n, err := w.Write([]byte("GET / 200\n"))
	if err != nil || n != 10 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	_, _ = w.Write([]byte("two\nlines\n"))
	got := c.get()
	if got[0] != "GET / 200" || got[1] != "two\nlines" {
		t.Errorf("lines = %q", got)
	}
}

func TestMiddlewareFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"tiny", "GET /items?id=1 201 5 - 12.500 ms"},
		{"dev", "GET /items?id=1 201 12.500 ms - 5"},
		{"short", "192.0.2.1 - GET /items?id=1 HTTP/1.1 201 5 - 12.500 ms"},
		{"common", `192.0.2.1 - bob [05/Mar/2024:14:07:09 +0000] "GET /items?id=1 HTTP/1.1" 201 5`},
		{"combined", `192.0.2.1 - bob [05/Mar/2024:14:07:09 +0000] "GET /items?id=1 HTTP/1.1" 201 5 "http://ref.test/" "agent/1.0"`},
		{":method :req[x-trace] :res[content-type] :date[iso] :response-time[1] :nope", "GET abc text/plain 2024-03-05T14:07:09.000Z 12.5 -"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c := &capture{}
			h := Middleware(tt.format, c.log, WithClock(steppingClock(start, 12500*time.Microsecond)))(http.HandlerFunc(hello))

			r := httptest.NewRequest(http.MethodGet, "/items?id=1", nil)
			r.Header.Set("Referer", "http://ref.test/")
			r.Header.Set("User-Agent", "agent/1.0")
			r.Header.Set("X-Trace", "abc")
			if tt.format == "common" || tt.format == "combined" {
				r.SetBasicAuth("bob", "secret")
			}
			h.ServeHTTP(httptest.NewRecorder(), r)

			got := c.get()
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("line = %q\nwant   %q", got, tt.want)
			}
		})
	}
}

func TestMiddlewareImmediate(t *testing.T) {
	c := &capture{}
	h := Middleware("tiny", c.log, WithImmediate())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		if len(c.get()) != 1 {
			t.Error("immediate line must be logged before the handler runs")
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/up", nil))
	if got := c.get(); len(got) != 1 || got[0] != "POST /up - - - - ms" {
		t.Errorf("lines = %q", got)
	}
}

func TestMiddlewareSkip(t *testing.T) {
	c := &capture{}
	skip := func(_ *http.Request, status int) bool { return status < 400 }
	h := Middleware("tiny", c.log, WithSkip(skip))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	got := c.get()
	if len(got) != 1 || !strings.HasPrefix(got[0], "GET /missing 404 ") {
		t.Errorf("lines = %q", got)
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"plain":           "plain",
		"a\nb\rc":         "a b c",
		"esc\x1b[31mred":  "esc[31mred",
		"nul\x00tab\there": "nultab\there",
	}
	for in, want := range tests {
		if got := sanitize(in); got != want {
			t.Errorf("sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareWithLogger(t *testing.T) {
	var buf strings.Builder
	var mu sync.Mutex
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})
	f := logger.NewFactory(logger.WithStream(w), logger.WithColor(formatter.ColorNever))
	defer f.Close()

	h := ForLogger(f.Instance("http"), ":method :url :user-agent")(http.HandlerFunc(hello))
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("User-Agent", "evil\n2024-01-01 [CRITIC] forged")
	h.ServeHTTP(httptest.NewRecorder(), r)

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	if !strings.Contains(out, "[DEBUG ] (http) GET /x evil 2024-01-01 [CRITIC] forged\n") {
		t.Errorf("output = %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected one line, got %q", out)
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func TestGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := &capture{}

	engine := gin.New()
	engine.Use(Gin("tiny", c.log, WithClock(steppingClock(start, 2*time.Millisecond))))
	engine.GET("/users/:id", func(ctx *gin.Context) {
		ctx.String(http.StatusAccepted, "user %s", ctx.Param("id"))
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))

	if got := c.get(); len(got) != 1 || got[0] != "GET /users/42 202 7 - 2.000 ms" {
		t.Errorf("lines = %q", got)
	}
}

func TestUnrollGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodDelete, "/users/7?hard=1", nil)
	ctx.Params = gin.Params{{Key: "id", Value: "7"}}
	ctx.Status(http.StatusNoContent)
	ctx.Writer.WriteHeaderNow()

	req, ok := UnrollGin(ctx)
	if !ok {
		t.Fatal("UnrollGin() did not handle *gin.Context")
	}
	if req.Method != http.MethodDelete || req.Params["id"] != "7" || req.Query["hard"] != "1" {
		t.Errorf("projection = %+v", req)
	}
	if req.StatusCode != http.StatusNoContent {
		t.Errorf("StatusCode = %d, want 204", req.StatusCode)
	}

	routed := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/users/7", nil), map[string]string{"team": "a"})
	ctx.Request = routed
	if req, _ := UnrollGin(ctx); req.Params["id"] != "7" || req.Params["team"] != "a" {
		t.Errorf("params = %v", req.Params)
	}
	if vars := mux.Vars(routed); len(vars) != 1 {
		t.Errorf("UnrollGin changed the route vars: %v", vars)
	}

	if _, ok := UnrollGin("not a context"); ok {
		t.Error("UnrollGin() accepted a string")
	}

	n := subject.NewNormalizer(UnrollGin)
	if got := n.Normalize(ctx); !strings.Contains(got.Text, `"id": "7"`) {
		t.Errorf("Normalize(*gin.Context) = %s", got.Text)
	}
}
