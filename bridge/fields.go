package bridge

import (
	"strconv"
	"strings"
	"unicode"
)

// appendPair writes " key=value" to b, quoting value when it would not
// survive a round trip as a bare word.
func appendPair(b *strings.Builder, key, value string) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	if needsQuoting(value) {
		b.WriteString(strconv.Quote(value))
		return
	}
	b.WriteString(value)
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r == '"' || r == '=' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}
