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
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/status"
)

// 🏃 Runner is a minimal Compiler. Each Run is one build cycle: emit hooks,
// asset writes, after-emit hooks.
type Runner struct {
	opts CompilerOptions
	out  *status.Manager

	mu    sync.Mutex
	hooks map[Phase][]HookFunc
}

var _ Compiler = (*Runner)(nil)

// 🏭 NewRunner creates a runner. A nil out keeps assets in memory only.
func NewRunner(opts CompilerOptions, out *status.Manager) *Runner {
	return &Runner{
		opts:  opts,
		out:   out,
		hooks: make(map[Phase][]HookFunc),
	}
}

// Options returns the host settings
func (r *Runner) Options() CompilerOptions {
	return r.opts
}

// Plugin registers fn for phase. Hooks of a phase run in registration order.
func (r *Runner) Plugin(phase Phase, fn HookFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[phase] = append(r.hooks[phase], fn)
}

// Output returns the writer assets are flushed to, if any
func (r *Runner) Output() *status.Manager {
	return r.out
}

// Apply registers every plugin with the runner
func (r *Runner) Apply(plugins ...Plugin) {
	for _, p := range plugins {
		p.Apply(r)
	}
}

// 🎯 Run executes one build cycle and returns its compilation. Errors that
// plugins report land in the compilation; only host failures are returned.
func (r *Runner) Run(ctx context.Context) (*Compilation, error) {
	logger := zerolog.Ctx(ctx)
	c := NewCompilation()

	if err := r.runPhase(ctx, PhaseEmit, c); err != nil {
		return c, err
	}

	if r.out != nil {
		r.out.Reset()
		for _, name := range c.AssetNames() {
			st, err := r.out.WriteFile(ctx, name, c.Assets[name].Source())
			if err != nil {
				return c, errors.Errorf("writing asset %s: %w", name, err)
			}
			logger.Debug().Str("asset", name).Str("status", st.String()).Msg("asset written")
		}
	}

	if err := r.runPhase(ctx, PhaseAfterEmit, c); err != nil {
		return c, err
	}

	logger.Debug().
		Int("assets", len(c.Assets)).
		Int("errors", len(c.Errors)).
		Msg("build cycle finished")
	return c, nil
}

// runPhase invokes the phase's hooks one at a time, waiting for each
// completion signal before the next hook starts
func (r *Runner) runPhase(ctx context.Context, phase Phase, c *Compilation) error {
	r.mu.Lock()
	hooks := append([]HookFunc(nil), r.hooks[phase]...)
	r.mu.Unlock()

	logger := zerolog.Ctx(ctx)
	for i, fn := range hooks {
		finished := make(chan struct{})
		var once sync.Once

		fn(ctx, c, func() {
			called := false
			once.Do(func() {
				called = true
				close(finished)
			})
			if !called {
				logger.Warn().Str("phase", string(phase)).Int("hook", i).Msg("completion signalled more than once, ignoring")
			}
		})

		select {
		case <-finished:
		case <-ctx.Done():
			return errors.Errorf("waiting for %s hook %d: %w", phase, i, ctx.Err())
		}
	}
	return nil
}
