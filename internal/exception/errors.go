// Package exception holds the error types shared by the grading tools.
package exception

import (
	"fmt"
)

// FileAccessError reports a roster, grade file, config file or submissions
// directory that could not be opened.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot access %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// FormatError reports malformed input: a short CSV row or an unparsable config.
// Line is 1-based and zero when the error is not tied to a line.
type FormatError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := e.Path
	if e.Line > 0 {
		msg = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
