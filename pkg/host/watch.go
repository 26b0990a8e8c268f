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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultDebounce is how long the watcher waits for changes to settle
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc receives the outcome of every cycle the watcher runs
type BuildFunc func(ctx context.Context, c *Compilation, err error)

// 👀 Watcher re-runs a Runner whenever one of the last cycle's dependencies
// changes, until its context is cancelled
type Watcher struct {
	runner   *Runner
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onBuild  BuildFunc

	mu      sync.Mutex
	watched map[string]struct{}
	timer   *time.Timer
	rebuild chan struct{}
}

// 🏭 NewWatcher creates a watcher around r. A zero debounce uses DefaultDebounce.
func NewWatcher(r *Runner, debounce time.Duration, onBuild BuildFunc) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		runner:   r,
		watcher:  w,
		debounce: debounce,
		onBuild:  onBuild,
		watched:  make(map[string]struct{}),
		rebuild:  make(chan struct{}, 1),
	}, nil
}

// 🎯 Run builds once, then rebuilds on every debounced change. It returns
// nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()
	defer w.stopTimer()

	logger := zerolog.Ctx(ctx)
	w.build(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("file watcher error")
		case <-w.rebuild:
			w.build(ctx)
		}
	}
}

// Watched returns the directories currently watched
func (w *Watcher) Watched() []string {
	return w.watcher.WatchList()
}

func (w *Watcher) build(ctx context.Context) {
	c, err := w.runner.Run(ctx)
	if c != nil {
		w.sync(ctx, c)
	}
	if w.onBuild != nil {
		w.onBuild(ctx, c, err)
	}
}

// sync watches the directories of every dependency the cycle reported
func (w *Watcher) sync(ctx context.Context, c *Compilation) {
	for _, f := range c.FileDependencies {
		w.add(ctx, filepath.Dir(f))
	}
	for _, d := range c.ContextDependencies {
		w.addRecursive(ctx, d)
	}
}

func (w *Watcher) add(ctx context.Context, dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.watched[dir]; ok {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("dir", dir).Msg("not watching directory")
		return
	}
	w.watched[dir] = struct{}{}
}

func (w *Watcher) addRecursive(ctx context.Context, root string) {
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if w.isOutput(p) {
				return filepath.SkipDir
			}
			w.add(ctx, p)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || w.isOutput(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addRecursive(ctx, ev.Name)
		}
	}
	zerolog.Ctx(ctx).Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("change detected")
	w.trigger()
}

// trigger schedules a rebuild once changes stop arriving for the debounce period
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.rebuild <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// isOutput reports whether p lies inside the output root, whose writes must
// not retrigger a build
func (w *Watcher) isOutput(p string) bool {
	out := w.runner.Options().OutputPath
	if out == "" || out == "/" {
		return false
	}
	rel, err := filepath.Rel(out, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, "../"))
}

// shouldIgnoreEvent skips hidden files and editor swap files
func shouldIgnoreEvent(p string) bool {
	base := filepath.Base(p)
	return strings.HasPrefix(base, ".") ||
		strings.HasPrefix(base, "#") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx")
}
