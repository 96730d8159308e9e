// Package logger is the public API of conlog. Most users only need to
// import this package.
//
// A Factory hands out loggers and owns what they share: the width of the
// prefix column, the last-message slot that collapses repeats, and the
// output handlers. The package keeps a default Factory writing to
// standard output, so simple programs can log without any setup:
//
//	log := logger.Module() // prefix inferred from the file name
//	log.Info("listening on %s", addr)
//
// Every line starts with a timestamp and a fixed-width level tag. Named
// loggers add their prefix, right-aligned to the longest prefix created
// so far:
//
//	2024-01-01 09:00:00.000 [INFO  ] (  db) connected
//	2024-01-01 09:00:00.001 [WARN  ] (server) slow request
//
// Multi-line messages continue under the first line's body. Identical
// consecutive messages from the same logger at the same level are written
// once, followed by "Last message repeated N times." when something else
// is logged.
//
// Loggers are configured fluently:
//
//	log := f.Instance("api").WithSource(true).Sync(false)
//
// WithSource adds a second line with function@file:line:column of the
// caller. Sync(false) defers writes to a background goroutine; call
// Factory.Flush or Factory.Close before exiting.
package logger
