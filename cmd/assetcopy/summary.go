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
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetcopy/pkg/host"
	"github.com/walteh/assetcopy/pkg/status"
)

// 📊 printSummary renders the written files as a table followed by totals
func printSummary(w io.Writer, c *host.Compilation, files []status.FileInfo) error {
	formatter := status.NewDefaultFileFormatter()

	counts := make(map[status.FileStatus]int)
	data := pterm.TableData{{"Asset", "Status", "Size"}}
	for _, f := range files {
		counts[f.Status]++
		data = append(data, []string{f.Path, f.Status.String(), strconv.FormatInt(f.Size, 10)})
	}

	if len(files) > 0 {
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return errors.Errorf("rendering summary: %w", err)
		}
		fmt.Fprintln(w, table)
	}

	fmt.Fprintln(w, formatter.FormatSummary(counts))
	for _, err := range c.Errors {
		fmt.Fprintln(w, formatter.FormatError(err))
	}
	return nil
}
