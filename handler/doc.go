// Package handler defines how rendered log lines reach their streams.
//
// A Handler receives core.Entry batches: the lines produced by one logging
// call together with the stream they are meant for. The consolehandler
// subpackage provides the synchronous and asynchronous implementations.
//
// In async mode, entries are sent to a bounded channel and written by a
// background goroutine. When the queue is full, each level applies an
// OverflowPolicy: DropNewest (default for debug, info and notice),
// DropOldest, or Block with a timeout followed by a synchronous write
// (default for warn and above), so low-priority logs never stall the
// application while errors are never silently dropped.
//
// Handlers track dropped, blocked and written counts via the Stats type,
// which can be queried at runtime for monitoring.
package handler
