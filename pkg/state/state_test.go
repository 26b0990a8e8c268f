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

package state

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/assetcopy/pkg/config"
	"github.com/walteh/assetcopy/pkg/host"
	"github.com/walteh/assetcopy/pkg/log"
	"github.com/walteh/assetcopy/pkg/manifest"
)

func TestNewCycle(t *testing.T) {
	c := host.NewCompilation()
	m := manifest.NewMap(nil)

	cycle := NewCycle(c, Settings{
		Root:           "/src",
		Output:         "/dist",
		Ignore:         []string{"**/*.map"},
		CopyUnmodified: true,
	}, m)

	assert.NotEmpty(t, cycle.ID, "cycle should get an id")
	assert.Same(t, c, cycle.Compilation)
	assert.Same(t, m, cycle.Manifest)
	assert.Equal(t, "/src", cycle.Root)
	assert.Equal(t, "/dist", cycle.Output)
	assert.Equal(t, []string{"**/*.map"}, cycle.Ignore)
	assert.Equal(t, config.DefaultConcurrency, cycle.Concurrency, "unset concurrency should take the default")
	assert.True(t, cycle.CopyUnmodified)
	assert.NotNil(t, cycle.Logger, "missing logger should fall back to a no-op logger")
	assert.Empty(t, cycle.Written())
	assert.Empty(t, cycle.Deps.Files())

	other := NewCycle(c, Settings{Concurrency: 3}, nil)
	assert.NotEqual(t, cycle.ID, other.ID, "every cycle should get a fresh id")
	assert.Equal(t, 3, other.Concurrency)
	assert.Nil(t, other.Manifest)
}

func TestCycle_Written(t *testing.T) {
	cycle := NewCycle(host.NewCompilation(), Settings{}, nil)

	cycle.MarkWritten("b.txt")
	cycle.MarkWritten("a.txt")
	cycle.MarkWritten("b.txt")

	assert.True(t, cycle.IsWritten("a.txt"))
	assert.False(t, cycle.IsWritten("c.txt"))
	assert.Equal(t, []string{"b.txt", "a.txt"}, cycle.Written())
}

func TestDeps_Reconcile(t *testing.T) {
	tests := []struct {
		name         string
		files        []string
		contexts     []string
		hostFiles    []string
		hostContexts []string
		wantFiles    []string
		wantContexts []string
	}{
		{
			name:         "empty_host",
			files:        []string{"/src/a.txt", "/src/b.txt"},
			contexts:     []string{"/src/static"},
			wantFiles:    []string{"/src/a.txt", "/src/b.txt"},
			wantContexts: []string{"/src/static"},
		},
		{
			name:         "already_tracked",
			files:        []string{"/src/a.txt", "/src/b.txt"},
			hostFiles:    []string{"/src/z.txt", "/src/b.txt"},
			hostContexts: []string{"/src"},
			contexts:     []string{"/src"},
			wantFiles:    []string{"/src/z.txt", "/src/b.txt", "/src/a.txt"},
			wantContexts: []string{"/src"},
		},
		{
			name:      "duplicate_local_entries",
			files:     []string{"/src/a.txt", "/src/a.txt"},
			wantFiles: []string{"/src/a.txt"},
		},
		{
			name:         "nothing_local",
			hostFiles:    []string{"/x"},
			hostContexts: []string{"/y"},
			wantFiles:    []string{"/x"},
			wantContexts: []string{"/y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeps()
			for _, f := range tt.files {
				d.AddFile(f)
			}
			for _, c := range tt.contexts {
				d.AddContext(c)
			}

			hostFiles := append([]string(nil), tt.hostFiles...)
			hostContexts := append([]string(nil), tt.hostContexts...)

			d.Reconcile(context.Background(), &hostFiles, &hostContexts)
			assert.Equal(t, tt.wantFiles, nilIfEmpty(hostFiles), "files should match")
			assert.Equal(t, tt.wantContexts, nilIfEmpty(hostContexts), "contexts should match")

			d.Reconcile(context.Background(), &hostFiles, &hostContexts)
			assert.Equal(t, tt.wantFiles, nilIfEmpty(hostFiles), "second reconcile should add nothing")
			assert.Equal(t, tt.wantContexts, nilIfEmpty(hostContexts), "second reconcile should add nothing")
		})
	}
}

func TestDeps_ReconcileLogs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := log.NewWithZerolog(buf, log.LevelDebug, zerolog.Nop())
	ctx := log.NewContext(context.Background(), logger)

	d := NewDeps()
	d.AddFile("/src/a.txt")
	d.AddFile("/src/b.txt")

	hostFiles := []string{"/src/b.txt"}
	var hostContexts []string
	d.Reconcile(ctx, &hostFiles, &hostContexts)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[assetcopy] adding /src/a.txt to change tracking", lines[0])
	assert.Equal(t, "[assetcopy] not adding /src/b.txt to change tracking, because it's already tracked", lines[1])
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
