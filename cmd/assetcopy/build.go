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
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/metrics"
)

func newBuildCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run one copy cycle",
		Long: `Build runs a single cycle:
1. Load the configuration
2. Copy every pattern into the compilation, in order
3. Write the assets to the output directory
4. Print a summary of what changed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := newSession(ctx, opts, metrics.NoopRecorder{}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			c, err := s.runner.Run(ctx)
			if err != nil {
				return errors.Errorf("running build: %w", err)
			}

			files, err := s.runner.Output().ListFiles(ctx)
			if err != nil {
				return errors.Errorf("listing output: %w", err)
			}
			if err := printSummary(cmd.OutOrStdout(), c, files); err != nil {
				return err
			}

			if len(c.Errors) > 0 {
				return errors.Errorf("build failed: %w", errors.Join(c.Errors...))
			}
			return nil
		},
	}

	return cmd
}
