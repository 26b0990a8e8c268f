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

// Package manifest aggregates the assets copied in one build cycle and
// emits them as a single artifact.
package manifest

import (
	"context"
	"path"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/host"
)

// DefaultFilename is the manifest artifact name when none is configured
const DefaultFilename = "webpack-assets.json"

// EntryFunc computes the manifest value for one copied asset
type EntryFunc func(from, assetPath string) any

// 📋 Map is an insertion-ordered mapping of asset path to manifest entry
type Map struct {
	m     *linkedhashmap.Map
	entry EntryFunc
}

// NewMap creates an empty map. entry may be nil.
func NewMap(entry EntryFunc) *Map {
	return &Map{
		m:     linkedhashmap.New(),
		entry: entry,
	}
}

// Put sets the entry for assetPath. A repeated key keeps its first position.
func (m *Map) Put(assetPath string, entry any) {
	m.m.Put(assetPath, entry)
}

// Record adds the entry for one copied asset. Without an EntryFunc the
// entry is assetPath joined onto basePath.
func (m *Map) Record(basePath, from, assetPath string) {
	if m.entry != nil {
		m.Put(assetPath, m.entry(from, assetPath))
		return
	}
	m.Put(assetPath, path.Join(basePath, assetPath))
}

// Get returns the entry for assetPath
func (m *Map) Get(assetPath string) (any, bool) {
	return m.m.Get(assetPath)
}

// Len returns the number of entries
func (m *Map) Len() int {
	return m.m.Size()
}

// Keys returns the asset paths in insertion order
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.m.Size())
	for _, k := range m.m.Keys() {
		keys = append(keys, k.(string))
	}
	return keys
}

// MarshalJSON encodes the map as a compact JSON object in insertion order
func (m *Map) MarshalJSON() ([]byte, error) {
	return m.m.ToJSON()
}

// 🖨️ Formatter serializes a map into the manifest artifact's content
type Formatter func(m *Map) ([]byte, error)

// DefaultFormatter writes compact JSON
func DefaultFormatter(m *Map) ([]byte, error) {
	return m.MarshalJSON()
}

// 🔧 Options configure the manifest artifact
type Options struct {
	// BasePath prefixes entries of patterns that set no base path of their own
	BasePath string
	// Path is the directory of the artifact, relative to the output root
	Path string
	// Filename is the artifact's file name
	Filename string
	// ProcessFromPattern replaces the default entry value when set
	ProcessFromPattern EntryFunc
	// ProcessOutput serializes the map
	ProcessOutput Formatter
}

// WithDefaults returns a copy with every unset field filled in
func (o Options) WithDefaults() Options {
	if o.Path == "" {
		o.Path = "."
	}
	if o.Filename == "" {
		o.Filename = DefaultFilename
	}
	if o.ProcessOutput == nil {
		o.ProcessOutput = DefaultFormatter
	}
	return o
}

// OutputPath is the artifact name the manifest is emitted under
func (o Options) OutputPath() string {
	return path.Join(o.Path, o.Filename)
}

// 📤 Emit serializes m and adds it to the compilation. An empty map emits
// nothing and reports false.
func Emit(ctx context.Context, c *host.Compilation, opts Options, m *Map) (bool, error) {
	if m == nil || m.Len() == 0 {
		zerolog.Ctx(ctx).Debug().Msg("manifest empty, not emitting")
		return false, nil
	}

	format := opts.ProcessOutput
	if format == nil {
		format = DefaultFormatter
	}

	content, err := format(m)
	if err != nil {
		return false, errors.Errorf("formatting manifest: %w", err)
	}

	name := opts.OutputPath()
	c.EmitAsset(name, host.RawSource(content))

	zerolog.Ctx(ctx).Debug().Str("asset", name).Int("entries", m.Len()).Int("size", len(content)).Msg("manifest emitted")
	return true, nil
}
