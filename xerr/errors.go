/*
 * MIT License
 *
 * Copyright (c) 2026 the xiorpc authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package xerr

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the error type returned by the core's constructors and session,
// task and transport operations; Transport.Close passes socket errors through
// unwrapped.
// It always carries a Code so callers can branch on error kind instead of
// string-matching, and may chain parent errors (e.g. a protocol violation
// wrapping the underlying sn mismatch).
type Error interface {
	error
	Code() Code
	Parent() []error
	HasParent() bool
}

type xe struct {
	code    Code
	message string
	parent  []error
}

// New builds an Error with an explicit message, overriding the code's
// registered message.
func New(code Code, msg string, parent ...error) Error {
	return &xe{code: code, message: msg, parent: filterNil(parent)}
}

// Newf is New with fmt.Sprintf-style formatting of the message.
func Newf(code Code, format string, args ...interface{}) Error {
	return &xe{code: code, message: fmt.Sprintf(format, args...)}
}

// Of builds an Error using the code's registered message.
func Of(code Code, parent ...error) Error {
	return &xe{code: code, message: code.Message(), parent: filterNil(parent)}
}

func filterNil(errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (e *xe) Code() Code         { return e.code }
func (e *xe) Parent() []error    { return e.parent }
func (e *xe) HasParent() bool    { return len(e.parent) > 0 }

func (e *xe) Error() string {
	if !e.HasParent() {
		return e.message
	}
	parts := make([]string, 0, len(e.parent)+1)
	parts = append(parts, e.message)
	for _, p := range e.parent {
		parts = append(parts, p.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes the first parent so errors.Is/errors.As keep working
// through a single level of wrapping; chains deeper than one parent are a
// rare construction (handshake + socket failure) and are still visible via
// Parent().
func (e *xe) Unwrap() error {
	if len(e.parent) == 0 {
		return nil
	}
	return e.parent[0]
}

// CodeOf extracts the Code carried by err, if any, and Unknown otherwise.
func CodeOf(err error) Code {
	var xe Error
	if errors.As(err, &xe) {
		return xe.Code()
	}
	return Unknown
}

// Is reports whether err (or one of its wrapped parents) carries code.
func Is(err error, code Code) bool {
	var e Error
	if !errors.As(err, &e) {
		return code == Unknown
	}
	if e.Code() == code {
		return true
	}
	for _, p := range e.Parent() {
		var pe Error
		if errors.As(p, &pe) && Is(pe, code) {
			return true
		}
	}
	return false
}

func InvalidArgumentf(format string, args ...interface{}) Error {
	return Newf(InvalidArgument, format, args...)
}

func NotFoundf(format string, args ...interface{}) Error {
	return Newf(NotFound, format, args...)
}

func Busyf(format string, args ...interface{}) Error {
	return Newf(Busy, format, args...)
}

func ProtocolViolationf(format string, args ...interface{}) Error {
	return Newf(ProtocolViolation, format, args...)
}

func ConnectFailedErr(parent error) Error {
	return New(ConnectFailed, ConnectFailed.Message(), parent)
}
