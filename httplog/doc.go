// Package httplog connects HTTP servers to conlog.
//
// Writer turns each written line into one log call. Middleware and Gin
// render access-log lines in the familiar combined, common, dev, short
// and tiny formats (or a custom ":token" format) and log them through a
// level method:
//
//	http.Handle("/", httplog.Middleware("combined", log.Info)(mux))
//	engine.Use(httplog.Gin("dev", log.Debug))
//
// Request values are stripped of control characters so a client cannot
// forge extra log lines.
package httplog
