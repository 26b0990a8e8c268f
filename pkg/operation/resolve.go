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
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/config"
	"github.com/walteh/assetcopy/pkg/state"
)

var templateTokens = regexp.MustCompile(`\[(name|ext|path|hash)(:\d+)?\]`)

// 🔍 FSResolver resolves patterns against a filesystem holding absolute paths
type FSResolver struct {
	fs billy.Filesystem
}

// NewResolver creates a resolver over fs
func NewResolver(fs billy.Filesystem) *FSResolver {
	return &FSResolver{fs: fs}
}

// Resolve makes the pattern's context and source absolute, classifies the
// source and destination, and records the context or file dependency the
// source implies.
func (r *FSResolver) Resolve(ctx context.Context, cycle *state.Cycle, p config.Pattern) (state.Normalized, error) {
	if p.From == "" {
		return state.Normalized{}, errors.New("from is required")
	}
	if err := p.ToType.Validate(); err != nil {
		return state.Normalized{}, err
	}

	n := state.Normalized{Pattern: p}

	n.Context = absolute(cycle.Root, p.Context)
	n.AbsoluteFrom = absolute(n.Context, p.From)

	if isGlob(p.From) {
		n.FromType = state.FromGlob
		n.Glob = n.AbsoluteFrom
		n.Base, _ = doublestar.SplitPattern(n.AbsoluteFrom)
		cycle.Deps.AddContext(n.Base)
	} else {
		fi, err := r.fs.Stat(n.AbsoluteFrom)
		switch {
		case err == nil && fi.IsDir():
			n.FromType = state.FromDir
			n.Base = n.AbsoluteFrom
			n.Glob = path.Join(escapeMeta(n.AbsoluteFrom), "**", "*")
			cycle.Deps.AddContext(n.AbsoluteFrom)
		case err == nil:
			n.FromType = state.FromFile
			n.Base = path.Dir(n.AbsoluteFrom)
			cycle.Deps.AddFile(n.AbsoluteFrom)
		case errors.Is(err, os.ErrNotExist):
			cycle.Logger.Warningf("unable to locate '%s' at '%s'", p.From, n.AbsoluteFrom)
			n.FromType = state.FromGlob
			n.Glob = escapeMeta(n.AbsoluteFrom)
			n.Base = path.Dir(n.AbsoluteFrom)
		default:
			return state.Normalized{}, errors.Errorf("checking %s: %w", n.AbsoluteFrom, err)
		}
	}

	to, err := destination(cycle.Output, p.To)
	if err != nil {
		return state.Normalized{}, err
	}
	n.To = to
	n.ToType = toType(p.ToType, n.To, n.FromType)

	n.Ignore = append(append([]string{}, cycle.Ignore...), p.Ignore...)

	zerolog.Ctx(ctx).Debug().
		Str("from", n.AbsoluteFrom).
		Str("from_type", string(n.FromType)).
		Str("to", n.To).
		Str("to_type", string(n.ToType)).
		Msg("pattern resolved")
	cycle.Logger.Debugf("determined '%s' is a '%s'", p.From, n.FromType)

	return n, nil
}

// absolute resolves p against base and returns a clean slash path
func absolute(base, p string) string {
	p = filepath.ToSlash(p)
	if p == "" {
		return path.Clean(filepath.ToSlash(base))
	}
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(filepath.ToSlash(base), p)
}

// destination makes an absolute To relative to the output root
func destination(output, to string) (string, error) {
	to = filepath.ToSlash(to)
	if !path.IsAbs(to) {
		return to, nil
	}

	rel, err := filepath.Rel(filepath.FromSlash(output), filepath.FromSlash(to))
	if err != nil {
		return "", errors.Errorf("making %s relative to %s: %w", to, output, err)
	}
	rel = filepath.ToSlash(rel)
	if strings.HasSuffix(to, "/") && rel != "." {
		rel += "/"
	}
	if rel == "." {
		rel = ""
	}
	return rel, nil
}

// toType picks the destination shape when the pattern leaves it unset
func toType(explicit config.ToType, to string, from state.FromType) config.ToType {
	switch {
	case explicit != config.ToTypeUnset:
		return explicit
	case templateTokens.MatchString(to):
		return config.ToTemplate
	case to == "", strings.HasSuffix(to, "/"), path.Ext(to) == "", from == state.FromDir:
		return config.ToDir
	default:
		return config.ToFile
	}
}

// isGlob reports whether p has glob meta characters
func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// escapeMeta quotes glob meta characters so a literal path matches only itself
func escapeMeta(p string) string {
	var b strings.Builder
	for _, r := range p {
		if strings.ContainsRune("*?[]{}\\", r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
