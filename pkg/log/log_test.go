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
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, verbosity Level) *Logger {
	return NewWithZerolog(buf, verbosity, zerolog.Nop())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "", want: LevelWarning},
		{in: "false", want: LevelWarning},
		{in: "warning", want: LevelWarning},
		{in: "true", want: LevelInfo},
		{in: "info", want: LevelInfo},
		{in: "INFO", want: LevelInfo},
		{in: "debug", want: LevelDebug},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err, "ParseLevel should fail")
				assert.Contains(t, err.Error(), "invalid debug level")
				return
			}
			require.NoError(t, err, "ParseLevel should succeed")
			assert.Equal(t, tt.want, got, "level should match")
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbosity Level
		wantLogs  []string
	}{
		{
			name:      "warning_only",
			verbosity: LevelWarning,
			wantLogs: []string{
				"[assetcopy] WARNING - warning message",
			},
		},
		{
			name:      "info",
			verbosity: LevelInfo,
			wantLogs: []string{
				"[assetcopy] WARNING - warning message",
				"[assetcopy] info message",
			},
		},
		{
			name:      "debug",
			verbosity: LevelDebug,
			wantLogs: []string{
				"[assetcopy] WARNING - warning message",
				"[assetcopy] info message",
				"[assetcopy] debug message",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := newTestLogger(buf, tt.verbosity)

			logger.Warning("warning message")
			logger.Info("info message")
			logger.Debug("debug message")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, lines[i], "log line %d should match", i)
			}
		})
	}
}

func TestLoggerDebugSilentAtWarning(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestLogger(buf, LevelWarning)

	logger.Debugf("adding %s to change tracking", "a.txt")
	logger.Log("ranked message", LevelDebug)

	assert.Empty(t, buf.String(), "debug output should be suppressed")
}

func TestLogFileOperation(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		op   FileOperation
		want string
	}{
		{
			name: "new_asset",
			op:   FileOperation{Path: "a.txt", Status: "emitted", IsNew: true},
			want: fmt.Sprintf("✓ %-35s %s", "a.txt", "emitted"),
		},
		{
			name: "skipped_asset",
			op:   FileOperation{Path: "b.txt", Status: "unmodified", IsSkipped: true},
			want: fmt.Sprintf("• %-35s %s", "b.txt", "unmodified"),
		},
		{
			name: "replaced_asset",
			op:   FileOperation{Path: "c.txt", Status: "emitted", IsNew: true, Replacements: 2},
			want: fmt.Sprintf("⟳ %-35s %s", "c.txt", "emitted"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := newTestLogger(buf, LevelInfo)

			logger.LogFileOperation(context.Background(), tt.op)

			assert.Equal(t, tt.want, strings.TrimSpace(buf.String()), "formatted output should match")
		})
	}

	t.Run("suppressed_at_warning", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := newTestLogger(buf, LevelWarning)
		logger.LogFileOperation(context.Background(), FileOperation{Path: "a.txt", IsNew: true})
		assert.Empty(t, buf.String())
	})
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, LevelInfo)

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx), "logger from context should be the same instance")

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback, "missing logger should fall back to a no-op logger")
	assert.Equal(t, LevelWarning, fallback.Verbosity())
}
