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

// Package text applies per-pattern text replacements to copied assets.
package text

import (
	"bytes"
	"context"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔄 ReplacementRule replaces every occurrence of FromText with ToText in
// files whose context-relative path matches FileFilterGlob. An empty glob
// matches every file.
type ReplacementRule struct {
	FromText       string `json:"fromText" yaml:"fromText" hcl:"from_text"`
	ToText         string `json:"toText" yaml:"toText" hcl:"to_text,optional"`
	FileFilterGlob string `json:"fileFilterGlob,omitempty" yaml:"fileFilterGlob,omitempty" hcl:"file_filter_glob,optional"`
}

// 📦 ReplacementResult is the outcome of applying a rule set to one file
type ReplacementResult struct {
	OriginalContent  []byte
	ModifiedContent  []byte
	ReplacementCount int
	WasModified      bool
}

// SimpleTextReplacer applies rules with plain byte replacement
type SimpleTextReplacer struct{}

// NewSimpleTextReplacer creates a new SimpleTextReplacer
func NewSimpleTextReplacer() *SimpleTextReplacer {
	return &SimpleTextReplacer{}
}

// ReplaceText applies every rule whose filter matches path, in order
func (r *SimpleTextReplacer) ReplaceText(ctx context.Context, path string, content []byte, rules []ReplacementRule) (*ReplacementResult, error) {
	result := &ReplacementResult{
		OriginalContent: content,
		ModifiedContent: content,
	}

	current := content
	for i, rule := range rules {
		if rule.FromText == "" {
			continue
		}

		if rule.FileFilterGlob != "" {
			matched, err := doublestar.Match(rule.FileFilterGlob, path)
			if err != nil {
				return nil, errors.Errorf("rule %d: matching %q: %w", i, rule.FileFilterGlob, err)
			}
			if !matched {
				zerolog.Ctx(ctx).Trace().Str("path", path).Str("glob", rule.FileFilterGlob).Msg("replacement rule filtered out")
				continue
			}
		}

		from := []byte(rule.FromText)
		if n := bytes.Count(current, from); n > 0 {
			current = bytes.ReplaceAll(current, from, []byte(rule.ToText))
			result.ReplacementCount += n
			result.WasModified = true
		}
	}

	result.ModifiedContent = current
	return result, nil
}

// ValidateRules rejects rules that can never match
func (r *SimpleTextReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.FromText == "" {
			return errors.Errorf("rule %d: from_text is required", i)
		}
		if rule.FileFilterGlob != "" && !doublestar.ValidatePattern(rule.FileFilterGlob) {
			return errors.Errorf("rule %d: invalid file_filter_glob %q", i, rule.FileFilterGlob)
		}
	}
	return nil
}
