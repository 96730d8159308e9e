package httplog

import (
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Predefined access-log formats.
const (
	Combined = `:remote-addr - :remote-user [:date[clf]] ":method :url HTTP/:http-version" :status :res[content-length] ":referrer" ":user-agent"`
	Common   = `:remote-addr - :remote-user [:date[clf]] ":method :url HTTP/:http-version" :status :res[content-length]`
	Dev      = `:method :url :status :response-time ms - :res[content-length]`
	Short    = `:remote-addr :remote-user :method :url HTTP/:http-version :status :res[content-length] - :response-time ms`
	Tiny     = `:method :url :status :res[content-length] - :response-time ms`
)

var namedFormats = map[string]string{
	"combined": Combined,
	"common":   Common,
	"dev":      Dev,
	"short":    Short,
	"tiny":     Tiny,
}

// record is what a format line is rendered from.
type record struct {
	req      *http.Request
	status   int
	header   http.Header
	written  int64
	start    time.Time
	duration time.Duration
	// done is false for lines logged when the request arrives.
	done bool
}

type segment struct {
	literal string
	token   string
	arg     string
}

// Format renders access-log lines. Tokens are ":name" or ":name[arg]";
// everything else is copied as is. Unknown tokens and missing values
// render as "-".
type Format struct {
	segments []segment
}

var tokenPattern = regexp.MustCompile(`:([-\w]{2,})(?:\[([^\]]+)\])?`)

// ParseFormat compiles a named format (combined, common, dev, short,
// tiny) or a custom format string.
func ParseFormat(format string) *Format {
	if named, ok := namedFormats[format]; ok {
		format = named
	}
	f := &Format{}
	last := 0
	for _, m := range tokenPattern.FindAllStringSubmatchIndex(format, -1) {
		if m[0] > last {
			f.segments = append(f.segments, segment{literal: format[last:m[0]]})
		}
		s := segment{token: format[m[2]:m[3]]}
		if m[4] >= 0 {
			s.arg = format[m[4]:m[5]]
		}
		f.segments = append(f.segments, s)
		last = m[1]
	}
	if last < len(format) {
		f.segments = append(f.segments, segment{literal: format[last:]})
	}
	return f
}

func (f *Format) render(rec *record) string {
	var b strings.Builder
	for _, s := range f.segments {
		if s.token == "" {
			b.WriteString(s.literal)
			continue
		}
		v := sanitize(rec.token(s.token, s.arg))
		if v == "" {
			v = "-"
		}
		b.WriteString(v)
	}
	return b.String()
}

func (rec *record) token(name, arg string) string {
	r := rec.req
	switch name {
	case "remote-addr":
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	case "remote-user":
		user, _, _ := r.BasicAuth()
		return user
	case "date":
		t := rec.start.UTC()
		switch arg {
		case "iso":
			return t.Format("2006-01-02T15:04:05.000Z")
		case "clf":
			return t.Format("02/Jan/2006:15:04:05 +0000")
		default:
			return t.Format(http.TimeFormat)
		}
	case "method":
		return r.Method
	case "url":
		if r.RequestURI != "" {
			return r.RequestURI
		}
		if r.URL != nil {
			return r.URL.RequestURI()
		}
	case "http-version":
		return strconv.Itoa(r.ProtoMajor) + "." + strconv.Itoa(r.ProtoMinor)
	case "status":
		if rec.done {
			return strconv.Itoa(rec.status)
		}
	case "referrer", "referer":
		if ref := r.Header.Get("Referer"); ref != "" {
			return ref
		}
		return r.Header.Get("Referrer")
	case "user-agent":
		return r.UserAgent()
	case "req":
		return strings.Join(r.Header.Values(arg), ", ")
	case "res":
		if !rec.done {
			return ""
		}
		if v := rec.header.Get(arg); v != "" {
			return v
		}
		if strings.EqualFold(arg, "content-length") && rec.written > 0 {
			return strconv.FormatInt(rec.written, 10)
		}
	case "response-time":
		if !rec.done {
			return ""
		}
		digits := 3
		if n, err := strconv.Atoi(arg); err == nil && n >= 0 && n <= 9 {
			digits = n
		}
		ms := float64(rec.duration) / float64(time.Millisecond)
		return strconv.FormatFloat(ms, 'f', digits, 64)
	}
	return ""
}

// sanitize removes control characters that could forge extra log lines or
// inject terminal escapes.
func sanitize(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
