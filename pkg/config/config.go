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

package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/log"
	"github.com/walteh/assetcopy/pkg/text"
)

// ErrPatternsNotArray is returned when a configuration's patterns value is not a sequence
var ErrPatternsNotArray = errors.New("patterns must be an array")

const (
	// DefaultConcurrency bounds parallel file reads when the config leaves it unset
	DefaultConcurrency = 100
	// DefaultOutput is the output root, relative to the context, when none is configured
	DefaultOutput = "dist"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*File, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🎯 ToType is the declared shape of a pattern's destination
type ToType string

const (
	ToTypeUnset ToType = ""
	ToFile      ToType = "file"
	ToDir       ToType = "dir"
	ToTemplate  ToType = "template"
)

// Validate rejects unknown destination shapes
func (t ToType) Validate() error {
	switch t {
	case ToTypeUnset, ToFile, ToDir, ToTemplate:
		return nil
	default:
		return errors.Errorf("invalid toType %q: expected one of file, dir, template", string(t))
	}
}

// 📦 Pattern is one copy instruction
type Pattern struct {
	From         string                 `json:"from" yaml:"from" hcl:"from"`
	To           string                 `json:"to,omitempty" yaml:"to,omitempty" hcl:"to,optional"`
	Context      string                 `json:"context,omitempty" yaml:"context,omitempty" hcl:"context,optional"`
	ToType       ToType                 `json:"toType,omitempty" yaml:"toType,omitempty" hcl:"to_type,optional"`
	Flatten      bool                   `json:"flatten,omitempty" yaml:"flatten,omitempty" hcl:"flatten,optional"`
	Force        bool                   `json:"force,omitempty" yaml:"force,omitempty" hcl:"force,optional"`
	Ignore       []string               `json:"ignore,omitempty" yaml:"ignore,omitempty" hcl:"ignore,optional"`
	Replacements []text.ReplacementRule `json:"replacements,omitempty" yaml:"replacements,omitempty" hcl:"replace,block"`

	// ManifestBasePath prefixes this pattern's manifest entries. Empty takes the manifest default.
	ManifestBasePath string `json:"manifestBasePath,omitempty" yaml:"manifestBasePath,omitempty" hcl:"manifest_base_path,optional"`
	// ExcludeFromManifest keeps this pattern's assets out of the manifest
	ExcludeFromManifest bool `json:"excludeFromManifest,omitempty" yaml:"excludeFromManifest,omitempty" hcl:"exclude_from_manifest,optional"`
}

// 🔍 Validate checks a single pattern
func (p Pattern) Validate() error {
	if p.From == "" {
		return errors.New("from is required")
	}
	if err := p.ToType.Validate(); err != nil {
		return err
	}
	for _, ig := range p.Ignore {
		if !doublestar.ValidatePattern(ig) {
			return errors.Errorf("invalid ignore glob %q", ig)
		}
	}
	if err := text.NewSimpleTextReplacer().ValidateRules(p.Replacements); err != nil {
		return errors.Errorf("validating replacements: %w", err)
	}
	return nil
}

// 🔧 Options are the plugin-wide settings
type Options struct {
	Debug          Debug    `json:"debug,omitempty" yaml:"debug,omitempty"`
	Manifest       Manifest `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Ignore         []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	CopyUnmodified bool     `json:"copyUnmodified,omitempty" yaml:"copyUnmodified,omitempty"`
	Concurrency    int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// 📚 File is a complete configuration file
type File struct {
	// Context is the build root; relative values resolve against the config file's directory
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
	// Output is the output root; relative values resolve against Context
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	// DevServerOutputPath replaces an Output of "/"
	DevServerOutputPath string `json:"devServerOutputPath,omitempty" yaml:"devServerOutputPath,omitempty"`

	Patterns []Pattern `json:"patterns" yaml:"patterns"`
	Options  Options   `json:"options,omitempty" yaml:"options,omitempty"`
}

// ValidatePatterns reports ErrPatternsNotArray unless raw is a decoded sequence
func ValidatePatterns(raw any) error {
	if _, ok := raw.([]any); !ok {
		return errors.WithStack(ErrPatternsNotArray)
	}
	return nil
}

// validateDocument checks the patterns value of a generically decoded
// document. A missing key means no patterns.
func validateDocument(doc map[string]any) error {
	raw, ok := doc["patterns"]
	if !ok {
		return nil
	}
	return ValidatePatterns(raw)
}

// 🎯 Load reads, parses and validates a configuration file
func Load(ctx context.Context, path string) (*File, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving config path: %w", err)
	}
	cfg.resolvePaths(filepath.Dir(abs))

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Int("patterns", len(cfg.Patterns)).Str("context", cfg.Context).Str("output", cfg.Output).Msg("configuration loaded")

	return cfg, nil
}

// resolvePaths anchors Context at base and Output at Context
func (cfg *File) resolvePaths(base string) {
	if cfg.Context == "" {
		cfg.Context = base
	} else if !filepath.IsAbs(cfg.Context) {
		cfg.Context = filepath.Join(base, cfg.Context)
	}

	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if !filepath.IsAbs(cfg.Output) {
		cfg.Output = filepath.Join(cfg.Context, cfg.Output)
	}
}

// 🔍 Validate checks if the configuration is valid
func (cfg *File) Validate() error {
	for i, p := range cfg.Patterns {
		if err := p.Validate(); err != nil {
			return errors.Errorf("pattern %d: %w", i, err)
		}
	}
	return cfg.Options.Validate()
}

// 🔍 Validate checks the plugin-wide settings
func (o Options) Validate() error {
	if _, err := log.ParseLevel(string(o.Debug)); err != nil {
		return err
	}
	if o.Concurrency < 0 {
		return errors.Errorf("concurrency must not be negative, got %d", o.Concurrency)
	}
	for _, ig := range o.Ignore {
		if !doublestar.ValidatePattern(ig) {
			return errors.Errorf("invalid ignore glob %q", ig)
		}
	}
	return nil
}
