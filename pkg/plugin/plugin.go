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

// Package plugin wires the pattern pipeline into a host's emit lifecycle.
package plugin

import (
	"context"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/config"
	"github.com/walteh/assetcopy/pkg/host"
	"github.com/walteh/assetcopy/pkg/log"
	"github.com/walteh/assetcopy/pkg/manifest"
	"github.com/walteh/assetcopy/pkg/metrics"
	"github.com/walteh/assetcopy/pkg/operation"
	"github.com/walteh/assetcopy/pkg/state"
)

// 🔌 Plugin copies the configured patterns into every emit cycle of a host
type Plugin struct {
	patterns    []config.Pattern
	ignore      []string
	concurrency int
	unmodified  bool
	manifest    *manifest.Options

	fs       billy.Filesystem
	logger   *log.Logger
	recorder metrics.Recorder
	resolver operation.Resolver
	copier   operation.Copier
	pipeline *operation.Pipeline

	mu   sync.Mutex
	last *state.Cycle
}

var _ host.Plugin = (*Plugin)(nil)

// Option customizes a Plugin
type Option func(*Plugin)

// WithFilesystem sets the filesystem sources are read from. Defaults to the OS root.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(p *Plugin) { p.fs = fs }
}

// WithLogger replaces the logger built from the debug option
func WithLogger(l *log.Logger) Option {
	return func(p *Plugin) { p.logger = l }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Plugin) { p.recorder = r }
}

// WithResolver replaces the filesystem resolver
func WithResolver(r operation.Resolver) Option {
	return func(p *Plugin) { p.resolver = r }
}

// WithCopier replaces the copy executor
func WithCopier(c operation.Copier) Option {
	return func(p *Plugin) { p.copier = c }
}

// WithManifestEntry computes manifest entry values instead of the base-path join
func WithManifestEntry(fn manifest.EntryFunc) Option {
	return func(p *Plugin) {
		if p.manifest != nil {
			p.manifest.ProcessFromPattern = fn
		}
	}
}

// WithManifestFormatter serializes the manifest instead of compact JSON
func WithManifestFormatter(fn manifest.Formatter) Option {
	return func(p *Plugin) {
		if p.manifest != nil {
			p.manifest.ProcessOutput = fn
		}
	}
}

// 🏗️ New validates the configuration and builds a plugin
func New(patterns []config.Pattern, opts config.Options, options ...Option) (*Plugin, error) {
	level, err := log.ParseLevel(string(opts.Debug))
	if err != nil {
		return nil, errors.Errorf("resolving debug level: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Errorf("validating options: %w", err)
	}
	for i, pattern := range patterns {
		if err := pattern.Validate(); err != nil {
			return nil, errors.Errorf("pattern %d: %w", i, err)
		}
	}

	p := &Plugin{
		patterns:    append([]config.Pattern(nil), patterns...),
		ignore:      append([]string(nil), opts.Ignore...),
		concurrency: opts.Concurrency,
		unmodified:  opts.CopyUnmodified,
	}
	if p.concurrency <= 0 {
		p.concurrency = config.DefaultConcurrency
	}
	if opts.Manifest.Enabled {
		m := manifest.Options{
			BasePath: opts.Manifest.BasePath,
			Path:     opts.Manifest.Path,
			Filename: opts.Manifest.Filename,
		}.WithDefaults()
		p.manifest = &m
	}

	for _, o := range options {
		o(p)
	}

	if p.fs == nil {
		p.fs = osfs.New("/")
	}
	if p.logger == nil {
		p.logger = log.New(os.Stderr, level)
	}
	if p.recorder == nil {
		p.recorder = metrics.NoopRecorder{}
	}
	if p.resolver == nil {
		p.resolver = operation.NewResolver(p.fs)
	}
	if p.copier == nil {
		exec, err := operation.NewExecutor(p.fs, p.recorder)
		if err != nil {
			return nil, errors.Errorf("creating executor: %w", err)
		}
		p.copier = exec
	}
	if p.manifest != nil && p.manifest.ProcessOutput == nil {
		p.manifest.ProcessOutput = manifest.DefaultFormatter
	}

	p.pipeline = operation.NewPipeline(p.resolver, p.copier, p.recorder)
	return p, nil
}

// 🎯 Apply registers the emit and after-emit hooks
func (p *Plugin) Apply(c host.Compiler) {
	opts := c.Options()

	c.Plugin(host.PhaseEmit, func(ctx context.Context, comp *host.Compilation, done func()) {
		p.emit(ctx, opts, comp, done)
	})
	c.Plugin(host.PhaseAfterEmit, func(ctx context.Context, comp *host.Compilation, done func()) {
		p.afterEmit(ctx, comp, done)
	})
}

func (p *Plugin) emit(ctx context.Context, opts host.CompilerOptions, comp *host.Compilation, done func()) {
	ctx = log.NewContext(p.logger.Zerolog().WithContext(ctx), p.logger)
	p.logger.Debug("starting emit")

	output := opts.OutputPath
	if output == "/" && opts.DevServerOutputPath != "" {
		output = opts.DevServerOutputPath
	}

	var (
		entries *manifest.Map
		mopts   *manifest.Options
	)
	if p.manifest != nil {
		m := *p.manifest
		mopts = &m
		entries = manifest.NewMap(m.ProcessFromPattern)
	}

	cycle := state.NewCycle(comp, state.Settings{
		Root:           opts.Context,
		Output:         output,
		Ignore:         p.ignore,
		Concurrency:    p.concurrency,
		CopyUnmodified: p.unmodified,
		Logger:         p.logger,
	}, entries)

	p.mu.Lock()
	p.last = cycle
	p.mu.Unlock()

	p.pipeline.Run(ctx, p.patterns, cycle, mopts, func() {
		p.logger.Debug("finishing emit")
		done()
	})
}

func (p *Plugin) afterEmit(ctx context.Context, comp *host.Compilation, done func()) {
	ctx = log.NewContext(p.logger.Zerolog().WithContext(ctx), p.logger)
	p.logger.Debug("starting after-emit")

	if last := p.LastCycle(); last != nil {
		last.Deps.Reconcile(ctx, &comp.FileDependencies, &comp.ContextDependencies)
	}

	p.logger.Debug("finishing after-emit")
	done()
}

// LastCycle returns the state of the most recent emit, or nil before the first one
func (p *Plugin) LastCycle() *state.Cycle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Logger returns the logger the plugin reports through
func (p *Plugin) Logger() *log.Logger {
	return p.logger
}
