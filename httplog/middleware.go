package httplog

import (
	"net/http"
	"time"

	"github.com/philipp01105/conlog/logger"
)

// Options configures the access-log middlewares.
type Options struct {
	// Skip suppresses the line for a request; status is 0 in immediate
	// mode.
	Skip func(r *http.Request, status int) bool
	// Immediate logs when the request arrives instead of when the response
	// is done. Response tokens then render as "-".
	Immediate bool
	// Clock overrides time.Now for the date and response-time tokens.
	Clock func() time.Time
}

// Option configures Options.
type Option func(*Options)

// WithSkip sets Options.Skip.
func WithSkip(skip func(r *http.Request, status int) bool) Option {
	return func(o *Options) { o.Skip = skip }
}

// WithImmediate sets Options.Immediate.
func WithImmediate() Option {
	return func(o *Options) { o.Immediate = true }
}

// WithClock sets Options.Clock.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) { o.Clock = clock }
}

func buildOptions(opts []Option) Options {
	o := Options{Clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Middleware returns net/http middleware that writes one line per request
// in format (see ParseFormat) through how.
func Middleware(format string, how LogFunc, opts ...Option) func(http.Handler) http.Handler {
	f := ParseFormat(format)
	o := buildOptions(opts)
	w := NewWriter(how)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rec := &record{req: r, start: o.Clock()}

			if o.Immediate {
				if o.Skip == nil || !o.Skip(r, 0) {
					_, _ = w.Write([]byte(f.render(rec) + "\n"))
				}
				next.ServeHTTP(rw, r)
				return
			}

			wrapped := newResponseWriter(rw)
			next.ServeHTTP(wrapped, r)

			rec.done = true
			rec.status = wrapped.status
			rec.header = wrapped.Header()
			rec.written = wrapped.written
			rec.duration = o.Clock().Sub(rec.start)
			if o.Skip != nil && o.Skip(r, rec.status) {
				return
			}
			_, _ = w.Write([]byte(f.render(rec) + "\n"))
		})
	}
}

// ForLogger is Middleware logging at l's debug level.
func ForLogger(l *logger.Logger, format string, opts ...Option) func(http.Handler) http.Handler {
	return Middleware(format, l.Debug, opts...)
}
