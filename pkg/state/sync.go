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

package state

import (
	"context"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/walteh/assetcopy/pkg/log"
)

// 🔗 Deps accumulates the files and directories touched in one cycle
type Deps struct {
	files    *linkedhashset.Set
	contexts *linkedhashset.Set
}

// NewDeps creates empty dependency sets
func NewDeps() *Deps {
	return &Deps{
		files:    linkedhashset.New(),
		contexts: linkedhashset.New(),
	}
}

// AddFile records a file dependency
func (d *Deps) AddFile(p string) {
	d.files.Add(p)
}

// AddContext records a directory dependency
func (d *Deps) AddContext(p string) {
	d.contexts.Add(p)
}

// Files returns the file dependencies in insertion order
func (d *Deps) Files() []string {
	return toStrings(d.files.Values())
}

// Contexts returns the directory dependencies in insertion order
func (d *Deps) Contexts() []string {
	return toStrings(d.contexts.Values())
}

// 🔄 Reconcile appends every local dependency the host does not track yet.
// Existing host entries keep their order and nothing is appended twice.
func (d *Deps) Reconcile(ctx context.Context, hostFiles, hostContexts *[]string) {
	logger := log.FromContext(ctx)
	merge(logger, d.Files(), hostFiles)
	merge(logger, d.Contexts(), hostContexts)
}

func merge(logger *log.Logger, local []string, tracked *[]string) {
	seen := make(map[string]struct{}, len(*tracked))
	for _, p := range *tracked {
		seen[p] = struct{}{}
	}

	for _, p := range local {
		if _, ok := seen[p]; ok {
			logger.Debugf("not adding %s to change tracking, because it's already tracked", p)
			continue
		}
		logger.Debugf("adding %s to change tracking", p)
		*tracked = append(*tracked, p)
		seen[p] = struct{}{}
	}
}
