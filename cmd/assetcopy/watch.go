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

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/host"
	"github.com/walteh/assetcopy/pkg/metrics"
)

type watchOpts struct {
	debounce    time.Duration
	metricsAddr string
}

func newWatchCmd(root *rootOpts) *cobra.Command {
	opts := &watchOpts{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Copy again whenever a source changes",
		Long: `Watch runs a cycle, then watches every file and directory the cycle
copied from and runs again after changes settle. With --metrics-addr set,
Prometheus metrics are served on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, root, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", host.DefaultDebounce, "how long changes must settle before copying again")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, root *rootOpts, opts *watchOpts) error {
	logger := zerolog.Ctx(ctx)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if opts.metricsAddr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		srv := serveMetrics(ctx, opts.metricsAddr, reg)
		defer func() { _ = srv.Close() }()
	}

	s, err := newSession(ctx, root, recorder, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	w, err := host.NewWatcher(s.runner, opts.debounce, func(ctx context.Context, c *host.Compilation, err error) {
		if err != nil {
			logger.Error().Err(err).Msg("build cycle failed")
			return
		}
		files, err := s.runner.Output().ListFiles(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("listing output")
			return
		}
		if err := printSummary(cmd.OutOrStdout(), c, files); err != nil {
			logger.Error().Err(err).Msg("printing summary")
		}
	})
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}

	s.logger().Infof("watching for changes, output '%s'", s.cfg.Output)
	return w.Run(ctx)
}

// serveMetrics exposes reg on addr until ctx is done
func serveMetrics(ctx context.Context, addr string, reg *prom.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("metrics server stopped")
		}
	}()

	return srv
}
