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

package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".hcl")
}

type hclFile struct {
	Context             string         `hcl:"context,optional"`
	Output              string         `hcl:"output,optional"`
	DevServerOutputPath string         `hcl:"dev_server_output_path,optional"`
	Debug               hcl.Expression `hcl:"debug,optional"`
	Ignore              []string       `hcl:"ignore,optional"`
	CopyUnmodified      bool           `hcl:"copy_unmodified,optional"`
	Concurrency         int            `hcl:"concurrency,optional"`
	Manifest            *Manifest      `hcl:"manifest,block"`
	Patterns            []Pattern      `hcl:"pattern,block"`
}

// 📝 Parse parses the config from HCL. Expressions can read the process
// environment as env.NAME.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	var raw hclFile
	diags = gohcl.DecodeBody(file.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	debug, err := decodeDebug(raw.Debug, evalCtx)
	if err != nil {
		return nil, err
	}

	cfg := &File{
		Context:             raw.Context,
		Output:              raw.Output,
		DevServerOutputPath: raw.DevServerOutputPath,
		Patterns:            raw.Patterns,
		Options: Options{
			Debug:          debug,
			Ignore:         raw.Ignore,
			CopyUnmodified: raw.CopyUnmodified,
			Concurrency:    raw.Concurrency,
		},
	}
	if cfg.Patterns == nil {
		cfg.Patterns = []Pattern{}
	}
	if raw.Manifest != nil {
		cfg.Options.Manifest = *raw.Manifest
		cfg.Options.Manifest.Enabled = true
	}

	return cfg, nil
}

// decodeDebug reads the debug attribute as either a bool or a string
func decodeDebug(expr hcl.Expression, evalCtx *hcl.EvalContext) (Debug, error) {
	if expr == nil {
		return "", nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", errors.Errorf("decoding debug: %s", diags.Error())
	}
	if val.IsNull() {
		return "", nil
	}

	switch val.Type() {
	case cty.Bool:
		if val.True() {
			return "true", nil
		}
		return "false", nil
	case cty.String:
		return Debug(val.AsString()), nil
	default:
		return "", errors.Errorf("debug must be a bool or a string, got %s", val.Type().FriendlyName())
	}
}

// environment exposes the process environment to HCL expressions
func environment() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
