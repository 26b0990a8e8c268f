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

package operation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/assetcopy/pkg/config"
	"github.com/walteh/assetcopy/pkg/host"
	"github.com/walteh/assetcopy/pkg/log"
	"github.com/walteh/assetcopy/pkg/metrics"
	"github.com/walteh/assetcopy/pkg/state"
	"github.com/walteh/assetcopy/pkg/text"
)

const (
	// DefaultHashCacheSize bounds how many copied files are remembered across cycles
	DefaultHashCacheSize = 4096
	// hashLength is the default length of a [hash] template token
	hashLength = 20
)

// 📦 Executor copies the files of a resolved pattern into the compilation
type Executor struct {
	fs       billy.Filesystem
	replacer *text.SimpleTextReplacer
	recorder metrics.Recorder

	// hashes maps source+destination to the content hash last emitted for it
	hashes *lru.Cache[string, string]
}

// 🏭 NewExecutor creates an executor reading from fs. A nil recorder records nothing.
func NewExecutor(fs billy.Filesystem, recorder metrics.Recorder) (*Executor, error) {
	hashes, err := lru.New[string, string](DefaultHashCacheSize)
	if err != nil {
		return nil, errors.Errorf("creating hash cache: %w", err)
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Executor{
		fs:       fs,
		replacer: text.NewSimpleTextReplacer(),
		recorder: recorder,
		hashes:   hashes,
	}, nil
}

// candidate is one source file of a pattern
type candidate struct {
	abs     string // absolute source path
	rel     string // path relative to the pattern base
	ctxRel  string // path relative to the pattern context
	content []byte
	hash    string
	count   int // replacements made
}

// Copy enumerates, filters, reads and emits the pattern's files. Reads run
// in parallel up to the cycle's concurrency; every change to the cycle
// happens afterwards, in candidate order.
func (e *Executor) Copy(ctx context.Context, cycle *state.Cycle, n state.Normalized) (*state.Cycle, error) {
	candidates, err := e.enumerate(n)
	if err != nil {
		return nil, err
	}

	candidates = e.filter(cycle.Logger, n, candidates)
	if len(candidates) == 0 {
		cycle.Logger.Warningf("nothing to copy for '%s'", n.From)
		return cycle, nil
	}

	if err := e.load(ctx, cycle.Concurrency, n, candidates); err != nil {
		return nil, err
	}

	for _, c := range candidates {
		e.emit(ctx, cycle, n, c)
	}

	return cycle, nil
}

// enumerate lists the pattern's source files, sorted
func (e *Executor) enumerate(n state.Normalized) ([]*candidate, error) {
	if n.FromType == state.FromFile {
		return []*candidate{newCandidate(n, n.AbsoluteFrom)}, nil
	}

	if _, err := e.fs.Stat(n.Base); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Errorf("checking %s: %w", n.Base, err)
	}

	var out []*candidate
	err := util.Walk(e.fs, n.Base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		p = filepath.ToSlash(p)
		matched, err := doublestar.Match(n.Glob, p)
		if err != nil {
			return errors.Errorf("matching %s: %w", n.Glob, err)
		}
		if matched {
			out = append(out, newCandidate(n, p))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", n.Base, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].abs < out[j].abs })
	return out, nil
}

func newCandidate(n state.Normalized, abs string) *candidate {
	return &candidate{
		abs:    abs,
		rel:    relative(n.Base, abs),
		ctxRel: relative(n.Context, abs),
	}
}

func relative(base, p string) string {
	rel, err := filepath.Rel(filepath.FromSlash(base), filepath.FromSlash(p))
	if err != nil {
		return path.Base(p)
	}
	return filepath.ToSlash(rel)
}

// filter drops candidates whose context-relative path matches an ignore glob
func (e *Executor) filter(logger *log.Logger, n state.Normalized, candidates []*candidate) []*candidate {
	if len(n.Ignore) == 0 {
		return candidates
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if e.shouldIgnore(logger, n.Ignore, c) {
			e.recorder.IncFileResult(metrics.ResultIgnored)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// 🔍 shouldIgnore checks if a file should be ignored
func (e *Executor) shouldIgnore(logger *log.Logger, patterns []string, c *candidate) bool {
	for _, pattern := range patterns {
		target := c.ctxRel
		if path.IsAbs(pattern) {
			target = c.abs
		}
		matched, err := doublestar.Match(pattern, target)
		if err != nil {
			logger.Debugf("error matching ignore pattern '%s': %v", pattern, err)
			continue
		}
		if matched {
			logger.Debugf("ignoring '%s', matched '%s'", c.ctxRel, pattern)
			return true
		}
	}
	return false
}

// load reads, transforms and hashes candidates in parallel
func (e *Executor) load(ctx context.Context, limit int, n state.Normalized, candidates []*candidate) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, c := range candidates {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			content, err := util.ReadFile(e.fs, c.abs)
			if err != nil {
				return errors.Errorf("reading %s: %w", c.abs, err)
			}

			if len(n.Replacements) > 0 {
				res, err := e.replacer.ReplaceText(gctx, c.ctxRel, content, n.Replacements)
				if err != nil {
					return errors.Errorf("replacing text in %s: %w", c.abs, err)
				}
				content = res.ModifiedContent
				c.count = res.ReplacementCount
			}

			sum := sha256.Sum256(content)
			c.content = content
			c.hash = hex.EncodeToString(sum[:])
			return nil
		})
	}

	return g.Wait()
}

// emit does the per-file bookkeeping for one loaded candidate
func (e *Executor) emit(ctx context.Context, cycle *state.Cycle, n state.Normalized, c *candidate) {
	logger := cycle.Logger

	if n.FromType == state.FromGlob {
		cycle.Deps.AddFile(c.abs)
	}

	dest := e.destination(n, c)

	if cycle.IsWritten(dest) {
		logger.Debugf("already written '%s' this cycle, skipping", dest)
		e.recordManifest(cycle, n, c, dest, false)
		e.skip(ctx, logger, dest, c, "already written", metrics.ResultWritten)
		return
	}

	if cycle.Compilation.HasAsset(dest) && !n.Force {
		logger.Infof("skipping '%s', because it already exists", dest)
		e.skip(ctx, logger, dest, c, "exists", metrics.ResultExists)
		return
	}

	key := c.abs + "\x00" + dest
	if !cycle.CopyUnmodified {
		if prev, ok := e.hashes.Get(key); ok && prev == c.hash {
			logger.Debugf("skipping '%s', because it hasn't changed", c.abs)
			e.recordManifest(cycle, n, c, dest, false)
			e.skip(ctx, logger, dest, c, "unmodified", metrics.ResultUnmodified)
			return
		}
	}

	cycle.Compilation.EmitAsset(dest, host.RawSource(c.content))
	cycle.MarkWritten(dest)
	e.hashes.Add(key, c.hash)

	e.recordManifest(cycle, n, c, dest, true)

	logger.LogFileOperation(ctx, log.FileOperation{
		Path:         dest,
		From:         c.abs,
		Status:       "emitted",
		IsNew:        true,
		Replacements: c.count,
	})
	e.recorder.IncFileResult(metrics.ResultEmitted)
}

// recordManifest adds the manifest entry for dest. Without overwrite an
// existing entry is kept.
func (e *Executor) recordManifest(cycle *state.Cycle, n state.Normalized, c *candidate, dest string, overwrite bool) {
	if cycle.Manifest == nil || n.ExcludeFromManifest {
		return
	}
	if !overwrite {
		if _, ok := cycle.Manifest.Get(dest); ok {
			return
		}
	}
	cycle.Manifest.Record(n.ManifestBasePath, c.abs, dest)
}

func (e *Executor) skip(ctx context.Context, logger *log.Logger, dest string, c *candidate, status string, result metrics.ResultLabel) {
	zerolog.Ctx(ctx).Trace().Str("asset", dest).Str("from", c.abs).Str("reason", status).Msg("asset skipped")
	logger.LogFileOperation(ctx, log.FileOperation{
		Path:      dest,
		From:      c.abs,
		Status:    status,
		IsSkipped: true,
	})
	e.recorder.IncFileResult(result)
}

// destination computes the asset path of c
func (e *Executor) destination(n state.Normalized, c *candidate) string {
	rel := c.rel
	if n.Flatten {
		rel = path.Base(rel)
	}

	var dest string
	switch n.ToType {
	case config.ToFile:
		dest = n.To
		if dest == "" {
			dest = rel
		}
	case config.ToTemplate:
		dest = interpolate(n.To, c, n.Flatten)
	default:
		dest = path.Join(n.To, rel)
	}

	dest = path.Clean(dest)
	return strings.TrimPrefix(dest, "/")
}

// interpolate fills the [name], [ext], [path] and [hash] tokens of tmpl.
// [hash:N] keeps the first N hex characters.
func interpolate(tmpl string, c *candidate, flatten bool) string {
	base := path.Base(c.abs)
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)

	dir := ""
	if !flatten {
		if d := path.Dir(c.ctxRel); d != "." {
			dir = d + "/"
		}
	}

	return templateTokens.ReplaceAllStringFunc(tmpl, func(token string) string {
		m := templateTokens.FindStringSubmatch(token)
		switch m[1] {
		case "name":
			return name
		case "ext":
			return strings.TrimPrefix(ext, ".")
		case "path":
			return dir
		default:
			length := hashLength
			if m[2] != "" {
				if l, err := strconv.Atoi(m[2][1:]); err == nil && l > 0 {
					length = l
				}
			}
			if length > len(c.hash) {
				length = len(c.hash)
			}
			return c.hash[:length]
		}
	})
}
