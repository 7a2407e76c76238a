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

// Package logger wraps logrus behind a small structured-fields interface so
// the core never logs with fmt.Println or the bare "log" package. Protocol
// violations, pairing failures, and disconnect cascades (spec §7: "logged
// and continues") all go through this interface.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the logging contract the core depends on. It never panics and
// never aborts the caller; every method returns promptly.
type Logger interface {
	WithField(key string, val interface{}) Logger
	WithFields(f Fields) Logger
	WithError(err error) Logger

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type entry struct {
	e *logrus.Entry
}

func (l *entry) WithField(key string, val interface{}) Logger {
	return &entry{e: l.e.WithField(key, val)}
}

func (l *entry) WithFields(f Fields) Logger {
	return &entry{e: l.e.WithFields(logrus.Fields(f))}
}

func (l *entry) WithError(err error) Logger {
	return &entry{e: l.e.WithError(err)}
}

func (l *entry) Debugf(format string, args ...interface{}) { l.e.Debugf(format, args...) }
func (l *entry) Infof(format string, args ...interface{})  { l.e.Infof(format, args...) }
func (l *entry) Warnf(format string, args ...interface{})  { l.e.Warnf(format, args...) }
func (l *entry) Errorf(format string, args ...interface{}) { l.e.Errorf(format, args...) }

// New builds a Logger writing to w at the given level, with component set
// as a permanent field (e.g. "session", "transport/tcp").
func New(w io.Writer, level logrus.Level, component string) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &entry{e: l.WithField("component", component)}
}

var (
	defMu  sync.RWMutex
	defLog Logger = New(os.Stderr, logrus.InfoLevel, "xiorpc")
)

// SetDefault installs the process-wide default logger. Components that
// don't receive an explicit Logger (tests, quick CLI usage) fall back to it.
func SetDefault(l Logger) {
	defMu.Lock()
	defer defMu.Unlock()
	defLog = l
}

// Default returns the process-wide default logger.
func Default() Logger {
	defMu.RLock()
	defer defMu.RUnlock()
	return defLog
}

// Component returns the default logger scoped with a "component" field,
// the convention every package in this module follows for its own logger.
func Component(name string) Logger {
	return Default().WithField("component", name)
}
