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

package host

import (
	"context"
	"sort"
)

// 📦 Asset is one output artifact of a build cycle
type Asset interface {
	// Size returns the byte length of the content
	Size() int
	// Source returns the content
	Source() []byte
}

// RawSource is an in-memory Asset
type RawSource []byte

func (s RawSource) Size() int      { return len(s) }
func (s RawSource) Source() []byte { return s }

// 🏗️ Compilation is the build-result handle of one cycle. The host owns it,
// plugins mutate it during their phases.
type Compilation struct {
	Assets              map[string]Asset
	Errors              []error
	FileDependencies    []string
	ContextDependencies []string
}

// NewCompilation creates an empty compilation
func NewCompilation() *Compilation {
	return &Compilation{
		Assets: make(map[string]Asset),
	}
}

// EmitAsset adds or replaces an output artifact
func (c *Compilation) EmitAsset(name string, a Asset) {
	c.Assets[name] = a
}

// HasAsset reports whether name is already an output artifact
func (c *Compilation) HasAsset(name string) bool {
	_, ok := c.Assets[name]
	return ok
}

// ReportError appends to the compilation's error collection
func (c *Compilation) ReportError(err error) {
	c.Errors = append(c.Errors, err)
}

// AssetNames returns the artifact names in lexical order
func (c *Compilation) AssetNames() []string {
	names := make([]string, 0, len(c.Assets))
	for name := range c.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 🔁 Phase names a lifecycle point plugins can hook into
type Phase string

const (
	PhaseEmit      Phase = "emit"
	PhaseAfterEmit Phase = "after-emit"
)

// HookFunc is invoked once per phase per cycle. It must call done exactly
// once, after every mutation of the compilation for that phase.
type HookFunc func(ctx context.Context, c *Compilation, done func())

// 🔧 CompilerOptions are the host settings visible to plugins
type CompilerOptions struct {
	// Context is the build root that relative patterns resolve against
	Context string
	// OutputPath is the output root
	OutputPath string
	// DevServerOutputPath overrides an OutputPath of "/" when set
	DevServerOutputPath string
}

// 🎯 Compiler is the part of the host plugins are applied to
type Compiler interface {
	Options() CompilerOptions
	Plugin(phase Phase, fn HookFunc)
}

// 🔌 Plugin is anything that can register itself with a compiler
type Plugin interface {
	Apply(c Compiler)
}
