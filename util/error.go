// util/error.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmp/modelview/log"
)

// FileError is a problem found at a particular place in a model or
// resource file. Line is zero for problems with the file as a whole.
type FileError struct {
	File string
	Line int
	Err  error
}

func (e *FileError) Error() string {
	if e.Line == 0 {
		return e.File + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// maxFileErrors bounds how many errors are kept for a single file; a
// file in the wrong format would otherwise produce one for every line.
const maxFileErrors = 100

// ErrorLogger accumulates the errors found while parsing a file so that
// parsing can continue and all of them can be reported together. Errors
// are attributed to the line most recently set with SetLine.
type ErrorLogger struct {
	file    string
	line    int
	errs    []*FileError
	dropped int
}

func NewErrorLogger(file string) *ErrorLogger {
	return &ErrorLogger{file: file}
}

// SetLine sets the line that subsequent errors are reported at; zero
// means the file as a whole.
func (e *ErrorLogger) SetLine(line int) {
	e.line = line
}

func (e *ErrorLogger) Errorf(format string, args ...any) {
	e.Error(fmt.Errorf(format, args...))
}

func (e *ErrorLogger) Error(err error) {
	if len(e.errs) == maxFileErrors {
		e.dropped++
		return
	}
	e.errs = append(e.errs, &FileError{File: e.file, Line: e.line, Err: err})
}

func (e *ErrorLogger) HaveErrors() bool {
	return len(e.errs) > 0
}

// Errors returns the errors reported so far, in the order they were
// found.
func (e *ErrorLogger) Errors() []*FileError {
	return e.errs
}

// Err returns nil if no errors have been reported and otherwise an error
// that joins all of them, one per line; errors.As finds the first
// *FileError.
func (e *ErrorLogger) Err() error {
	if !e.HaveErrors() {
		return nil
	}
	errs := make([]error, 0, len(e.errs)+1)
	for _, fe := range e.errs {
		errs = append(errs, fe)
	}
	if e.dropped > 0 {
		errs = append(errs, &FileError{File: e.file, Err: fmt.Errorf("%d more errors", e.dropped)})
	}
	return errors.Join(errs...)
}

// Log reports each error as a separate warning with the file and line as
// attributes.
func (e *ErrorLogger) Log(lg *log.Logger) {
	for _, fe := range e.errs {
		lg.Warn(fe.Err.Error(), slog.String("file", fe.File), slog.Int("line", fe.Line))
	}
	if e.dropped > 0 {
		lg.Warn("additional errors not reported", slog.String("file", e.file), slog.Int("count", e.dropped))
	}
}
