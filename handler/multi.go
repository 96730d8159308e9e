package handler

import (
	"io"

	"github.com/pkg/errors"
)

// MultiWriter fans every write out to several streams. Unlike
// io.MultiWriter it keeps writing to the remaining streams when one fails
// and reports the last error.
type MultiWriter struct {
	writers []io.Writer
}

// NewMultiWriter creates a MultiWriter. Nil writers are skipped.
func NewMultiWriter(writers ...io.Writer) *MultiWriter {
	m := &MultiWriter{writers: make([]io.Writer, 0, len(writers))}
	for _, w := range writers {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

// Write implements io.Writer.
func (m *MultiWriter) Write(p []byte) (int, error) {
	var lastErr error
	for _, w := range m.writers {
		n, err := w.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			lastErr = errors.Wrapf(err, "write to %T", w)
		}
	}
	if lastErr != nil {
		return 0, lastErr
	}
	return len(p), nil
}

// Close closes every stream that implements io.Closer.
func (m *MultiWriter) Close() error {
	var lastErr error
	for _, w := range m.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}
