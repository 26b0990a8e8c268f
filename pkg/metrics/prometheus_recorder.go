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

package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "assetcopy"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	emitDuration  prom.Histogram
	patternResult *prom.CounterVec
	fileResult    *prom.CounterVec
	cycleOutcome  *prom.CounterVec
	transitions   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		emitDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "emit_duration_seconds",
			Help:      "Duration of the emit phase",
			Buckets:   prom.DefBuckets,
		}),
		patternResult: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pattern_results_total",
			Help:      "Processed patterns by result",
		}, []string{"result"}),
		fileResult: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "file_results_total",
			Help:      "Candidate files by result",
		}, []string{"result"}),
		cycleOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_outcomes_total",
			Help:      "Emit cycles by final status",
		}, []string{"outcome"}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_transitions_total",
			Help:      "Pipeline state transitions by target state",
		}, []string{"state"}),
	}
	reg.MustRegister(pr.emitDuration, pr.patternResult, pr.fileResult, pr.cycleOutcome, pr.transitions)
	return pr
}

func (p *PrometheusRecorder) ObserveEmitDuration(d time.Duration) {
	p.emitDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPatternResult(result ResultLabel) {
	p.patternResult.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncFileResult(result ResultLabel) {
	p.fileResult.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncCycleOutcome(outcome string) {
	p.cycleOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncTransition(state string) {
	p.transitions.WithLabelValues(state).Inc()
}
