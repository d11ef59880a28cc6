// log/log_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "info": slog.LevelInfo, "warn": slog.LevelWarn, "error": slog.LevelError,
	} {
		if lvl, ok := ParseLevel(name); !ok || lvl != want {
			t.Errorf("ParseLevel(%q) = %v, %v", name, lvl, ok)
		}
	}
	if _, ok := ParseLevel("verbose"); ok {
		t.Errorf("expected unknown level to be rejected")
	}
}

func TestLoggerCallstack(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	lg.Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug message logged at info level: %s", buf.String())
	}

	lg.Warnf("vertex count %d differs", 12)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("%v: %s", err, buf.String())
	}
	if rec["msg"] != "vertex count 12 differs" {
		t.Errorf("unexpected message %v", rec["msg"])
	}
	stack, ok := rec["callstack"].([]any)
	if !ok || len(stack) == 0 {
		t.Fatalf("missing callstack: %v", rec["callstack"])
	}
	frame := stack[0].(map[string]any)
	if !strings.HasSuffix(frame["file"].(string), "log_test.go") {
		t.Errorf("first frame should be the caller, got %v", frame)
	}
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	// None of these should crash.
	lg.Debug("a")
	lg.Infof("b %d", 1)
	if lg.With("k", "v") != nil {
		t.Errorf("With on nil logger should be nil")
	}
}

func callstackHelper() []StackFrame {
	return Callstack(1)
}

func TestCallstack(t *testing.T) {
	stack := Callstack(0)
	if len(stack) != 1 {
		t.Fatalf("expected only the test function's frame, got %v", stack)
	}
	if stack[0].Function != "log.TestCallstack" || stack[0].File != "log_test.go" {
		t.Errorf("unexpected frame %v", stack[0])
	}

	// Skipping the helper starts the stack at its caller.
	stack = callstackHelper()
	if len(stack) != 1 || stack[0].Function != "log.TestCallstack" {
		t.Errorf("helper frame not skipped: %v", stack)
	}
}

func TestStackFrameString(t *testing.T) {
	f := StackFrame{File: "texture.go", Line: 42, Function: "renderer.(*Texture2D).Bind"}
	if s := f.String(); s != "texture.go:42:renderer.(*Texture2D).Bind" {
		t.Errorf("got %q", s)
	}
}
