// Package core defines the shared types used across conlog.
//
// It provides the Level type with its fixed-width tags ("[INFO  ]",
// "[CRITIC]", ...), the Untraceable wrapper for pre-rendered text that
// must bypass source tracing and deduplication, the Frame type describing
// one captured call-stack entry, and the Entry type that carries the
// rendered lines of a single log call to a handler.
//
// Entry objects are pooled via sync.Pool. Callers get an Entry with
// GetEntry and return it with PutEntry once the handler has written it.
// An Entry's lines always travel together, which is what keeps the lines
// of one multi-line message contiguous even when writes are deferred.
//
// CoarseClock offers a cached time source for hot logging paths; the
// rendered timestamp has millisecond precision, so the cache never
// shows up in the output.
package core
