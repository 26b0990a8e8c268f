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

// Package state holds the per-cycle state threaded through pattern processing.
package state

import (
	"time"

	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/google/uuid"

	"github.com/walteh/assetcopy/pkg/config"
	"github.com/walteh/assetcopy/pkg/host"
	"github.com/walteh/assetcopy/pkg/log"
	"github.com/walteh/assetcopy/pkg/manifest"
)

// 🧭 FromType is the resolved shape of a pattern's source
type FromType string

const (
	FromFile FromType = "file"
	FromDir  FromType = "dir"
	FromGlob FromType = "glob"
)

// 📦 Normalized is a pattern after resolution. The embedded Pattern is a
// copy: its Context is absolute, its ToType is resolved and its Ignore holds
// the cycle ignores followed by the pattern's own.
type Normalized struct {
	config.Pattern

	// AbsoluteFrom is the source path or glob, absolute
	AbsoluteFrom string
	// FromType is how AbsoluteFrom is enumerated
	FromType FromType
	// Glob matches candidate files; empty for FromFile
	Glob string
	// Base is the directory candidates are walked from and made relative to
	Base string
}

// 🔧 Settings are the cycle-wide values derived from plugin options and the host
type Settings struct {
	Root           string
	Output         string
	Ignore         []string
	Concurrency    int
	CopyUnmodified bool
	Logger         *log.Logger
}

// 🔄 Cycle is the state of one emit phase. One exists per emit invocation;
// every pipeline step receives it and hands it back.
type Cycle struct {
	ID          string
	StartedAt   time.Time
	Compilation *host.Compilation
	Logger      *log.Logger

	Root           string
	Output         string
	Ignore         []string
	Concurrency    int
	CopyUnmodified bool

	// Manifest is nil when no manifest is recorded
	Manifest *manifest.Map
	Deps     *Deps

	written *linkedhashset.Set
}

// 🏭 NewCycle creates the state for one emit invocation
func NewCycle(c *host.Compilation, s Settings, m *manifest.Map) *Cycle {
	logger := s.Logger
	if logger == nil {
		logger = log.Nop()
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = config.DefaultConcurrency
	}

	return &Cycle{
		ID:             uuid.NewString(),
		StartedAt:      time.Now(),
		Compilation:    c,
		Logger:         logger,
		Root:           s.Root,
		Output:         s.Output,
		Ignore:         append([]string(nil), s.Ignore...),
		Concurrency:    concurrency,
		CopyUnmodified: s.CopyUnmodified,
		Manifest:       m,
		Deps:           NewDeps(),
		written:        linkedhashset.New(),
	}
}

// MarkWritten records that assetPath was emitted this cycle
func (c *Cycle) MarkWritten(assetPath string) {
	c.written.Add(assetPath)
}

// IsWritten reports whether an earlier pattern of this cycle emitted assetPath
func (c *Cycle) IsWritten(assetPath string) bool {
	return c.written.Contains(assetPath)
}

// Written returns the emitted asset paths in emission order
func (c *Cycle) Written() []string {
	return toStrings(c.written.Values())
}

func toStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.(string))
	}
	return out
}
