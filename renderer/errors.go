// renderer/errors.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmp/modelview/log"
)

var (
	ErrVertexData = errors.New("number of floats is not a multiple of the floats per vertex")
	ErrBufferSize = errors.New("buffer size does not match the texture level size")
	ErrDestroyed  = errors.New("resource has been destroyed")
	ErrFaceIndex  = errors.New("cube face index out of range")
	ErrNoProgram  = errors.New("shader program is not valid")
)

var errorNames = map[ErrorCode][2]string{
	NoError:          {"GL_NO_ERROR", "No error has been recorded."},
	InvalidEnum:      {"GL_INVALID_ENUM", "An unacceptable value is specified for an enumerated argument."},
	InvalidValue:     {"GL_INVALID_VALUE", "A numeric argument is out of range."},
	InvalidOperation: {"GL_INVALID_OPERATION", "The specified operation is not allowed in the current state."},
	StackOverflow:    {"GL_STACK_OVERFLOW", "An attempt has been made to perform an operation that would cause an internal stack to overflow."},
	StackUnderflow:   {"GL_STACK_UNDERFLOW", "An attempt has been made to perform an operation that would cause an internal stack to underflow."},
	OutOfMemory:      {"GL_OUT_OF_MEMORY", "There is not enough memory left to execute the command."},
	InvalidFramebufferOperation: {"GL_INVALID_FRAMEBUFFER_OPERATION",
		"The framebuffer object is not complete."},
}

func (e ErrorCode) String() string {
	if n, ok := errorNames[e]; ok {
		return n[0]
	}
	return fmt.Sprintf("GL error 0x%04x", uint32(e))
}

// Description returns a human-readable explanation of the error.
func (e ErrorCode) Description() string {
	if n, ok := errorNames[e]; ok {
		return n[1]
	}
	return "Unknown error."
}

func (s FramebufferStatus) String() string {
	switch s {
	case FramebufferComplete:
		return "GL_FRAMEBUFFER_COMPLETE"
	case FramebufferUndefined:
		return "GL_FRAMEBUFFER_UNDEFINED"
	case FramebufferIncompleteAttachment:
		return "GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT"
	case FramebufferIncompleteMissingAttachment:
		return "GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT"
	case FramebufferIncompleteDrawBuffer:
		return "GL_FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER"
	case FramebufferIncompleteReadBuffer:
		return "GL_FRAMEBUFFER_INCOMPLETE_READ_BUFFER"
	case FramebufferUnsupported:
		return "GL_FRAMEBUFFER_UNSUPPORTED"
	case FramebufferIncompleteMultisample:
		return "GL_FRAMEBUFFER_INCOMPLETE_MULTISAMPLE"
	default:
		return fmt.Sprintf("framebuffer status 0x%04x", uint32(s))
	}
}

// maxDrainedErrors bounds how many errors CheckError will pull from the
// device; a lost context can report the same error forever.
const maxDrainedErrors = 32

// CheckError drains the device's pending errors, logging each one, and
// returns the errors found. The device does not check for errors after
// each call; this should be called after sequences of operations that
// may have failed (or after every frame in debug mode).
func CheckError(dev Device, lg *log.Logger, context string) []ErrorCode {
	var errs []ErrorCode
	for range maxDrainedErrors {
		e := dev.GetError()
		if e == NoError {
			break
		}
		errs = append(errs, e)
		lg.Error("GL error", slog.String("context", context), slog.String("error", e.String()),
			slog.String("description", e.Description()))
	}
	return errs
}
