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
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/config"
	"github.com/walteh/assetcopy/pkg/log"
	"github.com/walteh/assetcopy/pkg/manifest"
	"github.com/walteh/assetcopy/pkg/metrics"
	"github.com/walteh/assetcopy/pkg/state"
)

// 🔍 Resolver turns a configured pattern into its absolute form
type Resolver interface {
	Resolve(ctx context.Context, cycle *state.Cycle, p config.Pattern) (state.Normalized, error)
}

// 📦 Copier copies the files of one resolved pattern into the cycle's compilation
type Copier interface {
	Copy(ctx context.Context, cycle *state.Cycle, n state.Normalized) (*state.Cycle, error)
}

// 🚦 Stage is a pipeline state within one cycle
type Stage string

const (
	StageIdle         Stage = "idle"
	StageProcessing   Stage = "processing"
	StageManifestEmit Stage = "manifest_emit"
	StageSettledOK    Stage = "settled_ok"
	StageSettledError Stage = "settled_error"
	StageCompleted    Stage = "completed"
)

// 🏃 Pipeline processes a cycle's patterns strictly in order. The first
// failure stops the cycle and is reported once to the compilation.
type Pipeline struct {
	resolver Resolver
	copier   Copier
	recorder metrics.Recorder
}

// 🏗️ NewPipeline creates a pipeline. A nil recorder records nothing.
func NewPipeline(resolver Resolver, copier Copier, recorder metrics.Recorder) *Pipeline {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Pipeline{
		resolver: resolver,
		copier:   copier,
		recorder: recorder,
	}
}

// Run processes patterns against cycle, emits the manifest when manifestOpts
// is set, and calls done exactly once. Errors land in the cycle's
// compilation; Run never returns one.
func (p *Pipeline) Run(ctx context.Context, patterns []config.Pattern, cycle *state.Cycle, manifestOpts *manifest.Options, done func()) {
	var once sync.Once
	defer func() {
		p.transition(ctx, cycle, StageCompleted)
		p.recorder.ObserveEmitDuration(time.Since(cycle.StartedAt))
		once.Do(done)
	}()

	p.transition(ctx, cycle, StageIdle)

	switch {
	case manifestOpts == nil:
		cycle.Manifest = nil
	case cycle.Manifest == nil:
		cycle.Manifest = manifest.NewMap(manifestOpts.ProcessFromPattern)
	}

	cycle, err := p.fold(ctx, patterns, cycle, manifestOpts)

	if err == nil && manifestOpts != nil {
		p.transition(ctx, cycle, StageManifestEmit)
		if _, merr := manifest.Emit(ctx, cycle.Compilation, *manifestOpts, cycle.Manifest); merr != nil {
			err = errors.Errorf("emitting manifest: %w", merr)
		}
	}

	if err != nil {
		p.transition(ctx, cycle, StageSettledError)
		cycle.Compilation.ReportError(err)
		cycle.Logger.Warningf("emit failed: %v", err)
		p.recorder.IncCycleOutcome("failed")
		return
	}

	p.transition(ctx, cycle, StageSettledOK)
	p.recorder.IncCycleOutcome("success")
}

// fold hands the cycle to each pattern in turn and stops at the first error
func (p *Pipeline) fold(ctx context.Context, patterns []config.Pattern, cycle *state.Cycle, manifestOpts *manifest.Options) (*state.Cycle, error) {
	for i := range patterns {
		pattern := prepare(patterns[i], manifestOpts)

		p.transition(ctx, cycle, StageProcessing)
		cycle.Logger.Debugf("processing pattern %d from '%s'", i, pattern.From)

		next, err := p.process(ctx, cycle, pattern)
		if err != nil {
			p.recorder.IncPatternResult(metrics.ResultFailed)
			for range patterns[i+1:] {
				p.recorder.IncPatternResult(metrics.ResultSkipped)
			}
			return cycle, errors.Errorf("pattern %d (%s): %w", i, pattern.From, err)
		}

		cycle = next
		p.recorder.IncPatternResult(metrics.ResultSuccess)
	}
	return cycle, nil
}

func (p *Pipeline) process(ctx context.Context, cycle *state.Cycle, pattern config.Pattern) (*state.Cycle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized, err := p.resolver.Resolve(ctx, cycle, pattern)
	if err != nil {
		return nil, errors.Errorf("resolving: %w", err)
	}

	next, err := p.copier.Copy(ctx, cycle, normalized)
	if err != nil {
		return nil, errors.Errorf("copying: %w", err)
	}
	if next == nil {
		return nil, errors.New("copying: no cycle returned")
	}
	return next, nil
}

// prepare copies a configured pattern and back-fills manifest defaults on the copy
func prepare(p config.Pattern, manifestOpts *manifest.Options) config.Pattern {
	p.Ignore = append([]string(nil), p.Ignore...)
	p.Replacements = append(p.Replacements[:0:0], p.Replacements...)

	if manifestOpts != nil && p.ManifestBasePath == "" {
		p.ManifestBasePath = manifestOpts.BasePath
	}
	return p
}

func (p *Pipeline) transition(ctx context.Context, cycle *state.Cycle, stage Stage) {
	zerolog.Ctx(ctx).Trace().Str("cycle", cycle.ID).Str("stage", string(stage)).Msg("pipeline transition")
	if cycle.Logger.Enabled(log.LevelDebug) {
		cycle.Logger.Debugf("cycle %s: %s", cycle.ID, stage)
	}
	p.recorder.IncTransition(string(stage))
}
