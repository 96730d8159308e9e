// Command conlog-demo shows the console logger at work: prefixes and
// their alignment, multi-line messages, errors and source tracing.
//
// With -listen it also serves a small HTTP API whose requests are logged
// through the httplog middleware, with the logger counters exposed on
// /metrics:
//
//	conlog-demo -config conlog.yaml -listen :8080
package main
