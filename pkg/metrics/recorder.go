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

// Package metrics records what build cycles did. NoopRecorder is the default;
// PrometheusRecorder exports counters under the assetcopy namespace.
package metrics

import "time"

// ResultLabel enumerates per-pattern and per-file result categories.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultEmpty   ResultLabel = "empty"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"

	// file results
	ResultEmitted    ResultLabel = "emitted"
	ResultWritten    ResultLabel = "already_written"
	ResultExists     ResultLabel = "already_exists"
	ResultUnmodified ResultLabel = "unmodified"
	ResultIgnored    ResultLabel = "ignored"
)

// Recorder defines observability hooks for the emit pipeline.
type Recorder interface {
	ObserveEmitDuration(d time.Duration)
	IncPatternResult(result ResultLabel)
	IncFileResult(result ResultLabel)
	IncCycleOutcome(outcome string) // outcome: success|failed
	IncTransition(state string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveEmitDuration(time.Duration) {}
func (NoopRecorder) IncPatternResult(ResultLabel)      {}
func (NoopRecorder) IncFileResult(ResultLabel)         {}
func (NoopRecorder) IncCycleOutcome(string)            {}
func (NoopRecorder) IncTransition(string)              {}
