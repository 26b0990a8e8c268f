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
	"io"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/config"
	"github.com/walteh/assetcopy/pkg/host"
	"github.com/walteh/assetcopy/pkg/log"
	"github.com/walteh/assetcopy/pkg/metrics"
	"github.com/walteh/assetcopy/pkg/plugin"
	"github.com/walteh/assetcopy/pkg/status"
)

const (
	envConfig = "ASSETCOPY_CONFIG"
	envDebug  = "ASSETCOPY_DEBUG"

	defaultConfigFile = "assetcopy.yaml"
)

// rootOpts are the flags shared by every command
type rootOpts struct {
	configFile string
	debug      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "assetcopy",
		Short: "Copy static files into a build's output",
		Long: `assetcopy copies files and directories matched by configured patterns
into an output directory, optionally writing a manifest of everything copied.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd, opts.debug)
		},
	}

	configDefault := defaultConfigFile
	if v := os.Getenv(envConfig); v != "" {
		configDefault = v
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", configDefault, "config file path (env "+envConfig+")")
	cmd.PersistentFlags().StringVarP(&opts.debug, "debug", "d", os.Getenv(envDebug), "verbosity: warning, info or debug (env "+envDebug+")")

	cmd.AddCommand(
		newBuildCmd(opts),
		newWatchCmd(opts),
	)

	return cmd
}

// setupLogging raises the structured logger to debug when asked for
func setupLogging(cmd *cobra.Command, debug string) {
	level := zerolog.InfoLevel
	if debug == "debug" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.Ctx(cmd.Context()).Level(level)
	cmd.SetContext(logger.WithContext(cmd.Context()))
}

// session is a loaded configuration wired to a runner
type session struct {
	cfg    *config.File
	runner *host.Runner
	plugin *plugin.Plugin
}

// newSession loads the configuration and wires the plugin into a fresh runner.
// Plugin messages print to console; the context logger only mirrors them at debug.
func newSession(ctx context.Context, opts *rootOpts, recorder metrics.Recorder, console io.Writer) (*session, error) {
	cfg, err := config.Load(ctx, opts.configFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	if opts.debug != "" {
		cfg.Options.Debug = config.Debug(opts.debug)
	}

	level, err := log.ParseLevel(string(cfg.Options.Debug))
	if err != nil {
		return nil, errors.Errorf("resolving debug level: %w", err)
	}
	mirror := *zerolog.Ctx(ctx)
	if level < log.LevelDebug {
		mirror = mirror.Level(zerolog.ErrorLevel)
	}
	logger := log.NewWithZerolog(console, level, mirror)

	p, err := plugin.New(cfg.Patterns, cfg.Options, plugin.WithRecorder(recorder), plugin.WithLogger(logger))
	if err != nil {
		return nil, errors.Errorf("creating plugin: %w", err)
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return nil, errors.Errorf("creating output directory: %w", err)
	}
	out := status.New(osfs.New(cfg.Output), zerolog.Ctx(ctx))

	runner := host.NewRunner(host.CompilerOptions{
		Context:             cfg.Context,
		OutputPath:          cfg.Output,
		DevServerOutputPath: cfg.DevServerOutputPath,
	}, out)
	runner.Apply(p)

	zerolog.Ctx(ctx).Debug().
		Str("config", opts.configFile).
		Str("verbosity", p.Logger().Verbosity().String()).
		Msg("session ready")

	return &session{cfg: cfg, runner: runner, plugin: p}, nil
}

// logger returns the plugin's console logger
func (s *session) logger() *log.Logger {
	return s.plugin.Logger()
}
