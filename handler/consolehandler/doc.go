// Package consolehandler writes rendered log lines to streams.
//
// Handlers are split into specialized sync and async variants:
//
//   - SyncHandler writes every entry on the calling goroutine.
//   - AsyncHandler provides a bounded queue with per-level
//     OverflowPolicy and a dedicated background goroutine.
//
// Every line is prefixed with the timestamp of the moment it is written.
// Emitter combines both variants behind one write lock so loggers can
// switch between synchronous and deferred output per call.
package consolehandler
