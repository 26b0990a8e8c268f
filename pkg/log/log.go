// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	prefix      = "[assetcopy] "
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for asset path
	statusWidth = 15 // Width for status text
)

// 📶 Level is the rank of a diagnostic message. Lower is more important.
type Level int

const (
	LevelWarning Level = iota
	LevelInfo
	LevelDebug
)

// String returns the configuration name of the level
func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// zerolog maps a rank onto the structured sink's level
func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelWarning:
		return zerolog.WarnLevel
	case LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// 🔍 ParseLevel resolves a debug setting into a verbosity rank.
// An empty or "false" setting means warnings only, "true" means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "warning":
		return LevelWarning, nil
	case "true", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelWarning, errors.Errorf("invalid debug level %q: expected one of warning, info, debug", s)
	}
}

// 🎯 FileOperation describes one asset handled during a build cycle
type FileOperation struct {
	Path         string // Output asset path
	From         string // Absolute source path
	Status       string // Operation status
	IsNew        bool   // Whether the asset was emitted this cycle
	IsSkipped    bool   // Whether the asset was skipped
	Replacements int    // Number of text replacements made
}

// 🎯 Logger gates diagnostic output by a verbosity rank chosen at construction
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	verbosity Level
	mu        sync.Mutex
}

// 🏭 New creates a new logger writing to console
func New(console io.Writer, verbosity Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(verbosity.zerolog())
	return NewWithZerolog(console, verbosity, zlog)
}

// 🏭 NewWithZerolog creates a logger that mirrors messages to an existing zerolog logger
func NewWithZerolog(console io.Writer, verbosity Level, zlog zerolog.Logger) *Logger {
	if console == nil {
		console = io.Discard
	}
	return &Logger{
		zlog:      zlog,
		console:   console,
		verbosity: verbosity,
	}
}

// 🔇 Nop returns a logger that never writes anything
func Nop() *Logger {
	return NewWithZerolog(io.Discard, LevelWarning, zerolog.Nop())
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, falling back to a no-op logger
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return Nop()
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// Verbosity returns the configured rank
func (l *Logger) Verbosity() Level {
	return l.verbosity
}

// Enabled reports whether a message of the given level would be emitted
func (l *Logger) Enabled(level Level) bool {
	return level <= l.verbosity
}

// Zerolog returns the structured logger messages are mirrored to
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// 📝 Log emits msg when level is within the configured verbosity
func (l *Logger) Log(msg string, level Level) {
	if !l.Enabled(level) {
		return
	}
	if level == LevelWarning {
		msg = "WARNING - " + msg
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, prefix+msg)
	l.zlog.WithLevel(level.zerolog()).Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.Log(msg, LevelWarning)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.Log(msg, LevelInfo)
}

// 📝 Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.Log(msg, LevelDebug)
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	if l.Enabled(LevelWarning) {
		l.Warning(fmt.Sprintf(format, args...))
	}
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.Enabled(LevelInfo) {
		l.Info(fmt.Sprintf(format, args...))
	}
}

// 📝 Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.Enabled(LevelDebug) {
		l.Debug(fmt.Sprintf(format, args...))
	}
}

// 📝 formatFileOperation formats a file operation for display
func formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsSkipped:
		symbol = '•'
		symbolColor = color.FgCyan
	case op.Replacements > 0:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case op.IsNew:
		symbol = '✓'
		symbolColor = color.FgGreen
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	return fmt.Sprintf("%s%s %s %s",
		strings.Repeat(" ", fileIndent),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogFileOperation prints one line per handled asset at info level
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	if !l.Enabled(LevelInfo) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, formatFileOperation(op))

	l.zlog.Info().
		Str("asset", op.Path).
		Str("from", op.From).
		Str("status", op.Status).
		Bool("is_new", op.IsNew).
		Bool("is_skipped", op.IsSkipped).
		Int("replacements", op.Replacements).
		Msg("file operation")
}
