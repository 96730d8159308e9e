package subject

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/philipp01105/conlog/core"
)

// Kind classifies a normalized subject.
type Kind int

const (
	// Plain text takes part in deduplication and source tracing
	Plain Kind = iota
	// Untraced text was passed in as a core.Untraceable
	Untraced
	// Error text is the rendering of an error value
	Error
)

// Subject is the canonical form of one logging subject.
type Subject struct {
	Text string
	Kind Kind
}

// Traceable reports whether the subject is plain text.
func (s Subject) Traceable() bool {
	return s.Kind == Plain
}

// UndefinedSubject is the type of Undefined.
type UndefinedSubject struct{}

// Undefined stands for a missing value and renders as "undefined".
var Undefined = UndefinedSubject{}

// Unroller projects a request-like value onto a Request. It returns
// false when it does not handle v.
type Unroller func(v any) (*Request, bool)

// Normalizer converts subjects to text. The zero value is not usable;
// create one with NewNormalizer.
type Normalizer struct {
	mu        sync.RWMutex
	unrollers []Unroller
}

// NewNormalizer creates a Normalizer that unrolls *http.Request values
// and values implementing HTTPMessage, plus any extra unrollers.
func NewNormalizer(extra ...Unroller) *Normalizer {
	n := &Normalizer{
		unrollers: []Unroller{UnrollHTTPMessage, UnrollHTTPRequest},
	}
	for _, u := range extra {
		n.Register(u)
	}
	return n
}

// Register adds an unroller. Unrollers are tried in registration order
// after the built-in ones.
func (n *Normalizer) Register(u Unroller) {
	if u == nil {
		return
	}
	n.mu.Lock()
	n.unrollers = append(n.unrollers, u)
	n.mu.Unlock()
}

// Normalize renders v. Extra args are only used when v is a string.
func (n *Normalizer) Normalize(v any, args ...any) (s Subject) {
	defer func() {
		if r := recover(); r != nil {
			s = Subject{Text: core.MalformedSubject}
		}
	}()

	switch x := v.(type) {
	case nil:
		return Subject{Text: "null"}
	case UndefinedSubject:
		return Subject{Text: "undefined"}
	case core.Untraceable:
		return Subject{Text: x.String(), Kind: Untraced}
	case *core.Untraceable:
		if x == nil {
			return Subject{Text: "null"}
		}
		return Subject{Text: x.String(), Kind: Untraced}
	case string:
		return Subject{Text: Interpolate(x, args...)}
	case error:
		if isNilPointer(x) {
			return Subject{Text: "null"}
		}
		return Subject{Text: ErrorText(x), Kind: Error}
	}

	if req, ok := n.unroll(v); ok {
		return Subject{Text: Stringify(req)}
	}

	if isNilPointer(v) {
		return Subject{Text: "null"}
	}
	if st, ok := v.(fmt.Stringer); ok {
		return Subject{Text: st.String()}
	}

	switch indirectKind(reflect.ValueOf(v)) {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return Subject{Text: Stringify(v)}
	default:
		return Subject{Text: fmt.Sprint(v)}
	}
}

func (n *Normalizer) unroll(v any) (*Request, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, u := range n.unrollers {
		if req, ok := u(v); ok && req != nil {
			return req, true
		}
	}
	return nil, false
}

// Interpolate combines a format string with its arguments. When the
// string holds formatting verbs and there are enough arguments for them,
// it goes through fmt.Sprintf and the arguments left over are appended
// separated by spaces. Otherwise every argument is appended and the string
// is kept as written, so "50% done" stays intact.
func Interpolate(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	var b strings.Builder
	if verbs := countVerbs(format); verbs > 0 && verbs <= len(args) {
		fmt.Fprintf(&b, format, args[:verbs]...)
		args = args[verbs:]
	} else {
		b.WriteString(format)
	}
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(a))
	}
	return b.String()
}

// countVerbs counts the fmt verbs of format that consume an argument. A
// verb is '%', optional '+', '-', '#' or '0' flags, an optional width and
// precision, then a letter; "%%" consumes nothing. Anything else, such as
// the "% d" in "50% done", is not a verb.
func countVerbs(format string) int {
	n := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		j := i + 1
		if j < len(format) && format[j] == '%' {
			i = j
			continue
		}
		for j < len(format) && strings.IndexByte("+-#0", format[j]) >= 0 {
			j++
		}
		for j < len(format) && (format[j] >= '0' && format[j] <= '9' || format[j] == '.') {
			j++
		}
		if j < len(format) && strings.IndexByte(verbLetters, format[j]) >= 0 {
			n++
			i = j
		}
	}
	return n
}

const verbLetters = "vTtbcdoOqxXUeEfFgGsp"

// stackTracer is implemented by errors created with github.com/pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ErrorText renders err as its message followed by the stack trace of the
// innermost error in its chain that carries one. An empty message is
// replaced with core.InvalidError.
func ErrorText(err error) string {
	msg := err.Error()
	if msg == "" {
		msg = core.InvalidError
	}

	var tracer stackTracer
	if !errors.As(err, &tracer) {
		return msg
	}
	for {
		e, ok := tracer.(error)
		if !ok {
			break
		}
		var inner stackTracer
		next := errors.Unwrap(e)
		if next == nil || !errors.As(next, &inner) {
			break
		}
		tracer = inner
	}
	return msg + fmt.Sprintf("%+v", tracer.StackTrace())
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func indirectKind(rv reflect.Value) reflect.Kind {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Invalid
		}
		rv = rv.Elem()
	}
	return rv.Kind()
}
