// Package source finds the call site of a logging call.
//
// Stacks are captured through the Capturer interface. RuntimeCapturer
// walks runtime frames and is the default; TextCapturer parses the text
// of runtime/debug.Stack and exists for environments where only a
// textual trace is available. Locator picks the frame of the caller and
// resolves a column by looking the call up in the source file.
package source
