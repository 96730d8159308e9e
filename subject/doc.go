// Package subject turns arbitrary logging subjects into text.
//
// Strings are interpolated printf-style, errors become their stack trace
// (or message), HTTP requests are projected onto a fixed allow-list of
// fields and everything else structured is rendered as indented JSON.
// Normalization never fails: a subject that panics while being rendered
// is replaced with core.MalformedSubject.
package subject
