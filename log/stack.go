// log/stack.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// StackFrame is one entry of the callstack attribute attached to log
// records.
type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

const (
	maxCallstackDepth = 16
	modulePrefix      = "github.com/mmp/modelview/"
)

// Callstack returns the stack starting at its caller after skipping skip
// additional frames; a logging method passes 1 so that the stack starts
// at the code that called it. Frames from the Go runtime and the testing
// package are left out and the stack stops at main.main.
func Callstack(skip int) []StackFrame {
	pcs := make([]uintptr, maxCallstackDepth)
	pcs = pcs[:runtime.Callers(skip+2, pcs)]
	if len(pcs) == 0 {
		return nil
	}

	var stack []StackFrame
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if !isHarnessFrame(frame.Function) {
			stack = append(stack, StackFrame{
				File:     filepath.Base(frame.File),
				Line:     frame.Line,
				Function: shortFunctionName(frame.Function),
			})
		}
		if !more || frame.Function == "main.main" {
			return stack
		}
	}
}

func isHarnessFrame(fn string) bool {
	return strings.HasPrefix(fn, "runtime.") || strings.HasPrefix(fn, "testing.")
}

// shortFunctionName strips the module path so that frames read as
// "renderer.(*Texture2D).Bind".
func shortFunctionName(fn string) string {
	return strings.TrimPrefix(strings.TrimPrefix(fn, modulePrefix), "main.")
}

func (f StackFrame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + ":" + f.Function
}
