package subject

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"github.com/philipp01105/conlog/formatter"
)

// indent is the per-level indentation of Stringify output.
const indent = "  "

// Stringify renders v as JSON indented by two spaces. A pointer, map or
// slice that was already rendered once is left out: its key is dropped
// inside objects and it becomes null inside arrays. Values JSON cannot
// represent (functions, channels, NaN) are treated the same way.
func Stringify(v any) string {
	buf := formatter.GetBuffer()
	defer formatter.PutBuffer(buf)

	e := &encoder{buf: buf, seen: map[visit]struct{}{}}
	if !e.value(reflect.ValueOf(v), 0) {
		return "null"
	}
	return buf.String()
}

// visit identifies a reference value by address and type, so a struct and
// its first field are told apart.
type visit struct {
	ptr unsafe.Pointer
	typ reflect.Type
}

type encoder struct {
	buf  *bytes.Buffer
	seen map[visit]struct{}
}

var (
	marshalerType     = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	errorType         = reflect.TypeFor[error]()
)

// skippable reports whether v would be left out, without writing anything.
func (e *encoder) skippable(v reflect.Value) bool {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Invalid, reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return math.IsNaN(f) || math.IsInf(f, 0)
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return false
		}
		if v.Kind() == reflect.Slice && v.Len() == 0 {
			return false
		}
		_, ok := e.seen[visit{v.UnsafePointer(), v.Type()}]
		return ok
	}
	return false
}

// value writes v and reports whether anything was written.
func (e *encoder) value(v reflect.Value, depth int) bool {
	if !v.IsValid() {
		e.buf.WriteString("null")
		return true
	}
	if e.skippable(v) {
		return false
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			e.buf.WriteString("null")
			return true
		}
		return e.value(v.Elem(), depth)
	}

	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Map || v.Kind() == reflect.Slice) && v.IsNil() {
		e.buf.WriteString("null")
		return true
	}

	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Map || (v.Kind() == reflect.Slice && v.Len() > 0) {
		e.seen[visit{v.UnsafePointer(), v.Type()}] = struct{}{}
	}

	if e.special(v, depth) {
		return true
	}

	switch v.Kind() {
	case reflect.Bool:
		e.buf.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		e.float(v.Float(), v.Type().Bits())
	case reflect.String:
		e.string(v.String())
	case reflect.Pointer:
		return e.value(v.Elem(), depth)
	case reflect.Struct:
		e.object(structMembers(v), depth)
	case reflect.Map:
		e.object(mapMembers(v), depth)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			e.string(base64.StdEncoding.EncodeToString(v.Bytes()))
			return true
		}
		e.array(v, depth)
	case reflect.Array:
		e.array(v, depth)
	default:
		return false
	}
	return true
}

// special handles json.Marshaler, encoding.TextMarshaler and error values.
func (e *encoder) special(v reflect.Value, depth int) bool {
	if !v.CanInterface() {
		return false
	}
	t := v.Type()
	switch {
	case t.Implements(marshalerType):
		raw, err := v.Interface().(json.Marshaler).MarshalJSON()
		if err != nil {
			e.buf.WriteString("null")
			return true
		}
		var out bytes.Buffer
		prefix := strings.Repeat(indent, depth)
		if err := json.Indent(&out, raw, prefix, indent); err != nil {
			e.buf.WriteString("null")
			return true
		}
		e.buf.Write(out.Bytes())
		return true
	case t.Implements(textMarshalerType):
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			e.buf.WriteString("null")
			return true
		}
		e.string(string(text))
		return true
	case t.Implements(errorType):
		e.string(v.Interface().(error).Error())
		return true
	}
	return false
}

func (e *encoder) float(f float64, bits int) {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	e.buf.WriteString(strconv.FormatFloat(f, format, -1, bits))
}

func (e *encoder) string(s string) {
	e.buf.WriteByte('"')
	appendJSONString(e.buf, s)
	e.buf.WriteByte('"')
}

type member struct {
	key   string
	value reflect.Value
}

func (e *encoder) object(members []member, depth int) {
	e.buf.WriteByte('{')
	wrote := false
	for _, m := range members {
		if e.skippable(m.value) {
			continue
		}
		if wrote {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		e.string(m.key)
		e.buf.WriteString(": ")
		e.value(m.value, depth+1)
		wrote = true
	}
	if wrote {
		e.newline(depth)
	}
	e.buf.WriteByte('}')
}

func (e *encoder) array(v reflect.Value, depth int) {
	e.buf.WriteByte('[')
	n := v.Len()
	for i := 0; i < n; i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if !e.value(v.Index(i), depth+1) {
			e.buf.WriteString("null")
		}
	}
	if n > 0 {
		e.newline(depth)
	}
	e.buf.WriteByte(']')
}

func (e *encoder) newline(depth int) {
	e.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.buf.WriteString(indent)
	}
}

// structMembers lists the exported fields of v honoring json tags.
// Untagged embedded structs are flattened into their parent.
func structMembers(v reflect.Value) []member {
	t := v.Type()
	var members []member
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" && opts == "" {
			continue
		}
		fv := v.Field(i)
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if ft.Kind() == reflect.Struct {
				members = append(members, structMembers(fv)...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if strings.Contains(","+opts+",", ",omitempty,") && fv.IsZero() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		members = append(members, member{key: name, value: fv})
	}
	return members
}

// mapMembers lists the entries of v sorted by key.
func mapMembers(v reflect.Value) []member {
	members := make([]member, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		members = append(members, member{key: mapKey(iter.Key()), value: iter.Value()})
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].key < members[j].key
	})
	return members
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.CanInterface() {
		if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
			if text, err := tm.MarshalText(); err == nil {
				return string(text)
			}
		}
	}
	return fmt.Sprint(k.Interface())
}

// appendJSONString writes a JSON-escaped string (without surrounding quotes) to the buffer
func appendJSONString(buf *bytes.Buffer, s string) {
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		if start < i {
			buf.WriteString(s[start:i])
		}
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexChars[c>>4])
			buf.WriteByte(hexChars[c&0x0f])
		}
		start = i + 1
	}
	if start < len(s) {
		buf.WriteString(s[start:])
	}
}

var hexChars = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}
