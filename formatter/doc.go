// Package formatter builds the fixed console layout.
//
// Every output line has the shape
//
//	YYYY-MM-DD HH:mm:ss.mmm [LEVEL ] (prefix) body
//
// The level tag is always eight characters wide. The prefix column is as
// wide as the widest prefix registered on the shared Context, so loggers
// created before a longer name appeared line up with it from then on.
// Continuation lines of a multi-line body replace the tag and the prefix
// with blanks of the same width.
//
// Timestamps are appended into pooled buffers with hand-written digit
// formatting; buffers larger than 64 KiB are not returned to the pool.
package formatter
