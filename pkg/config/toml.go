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
	"encoding/json"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gitlab.com/tozd/go/errors"
)

// 🔧 TOMLParser implements the Parser interface for TOML files. Keys are the
// same camelCase names the JSON format uses.
type TOMLParser struct{}

func init() {
	Register(&TOMLParser{})
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *TOMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".toml")
}

// 📝 Parse decodes the document generically, then runs it through the JSON
// decoder so debug and manifest accept the same shapes in both formats
func (p *TOMLParser) Parse(ctx context.Context, data []byte) (*File, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Errorf("parsing TOML: %w", err)
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Errorf("converting TOML: %w", err)
	}

	cfg, err := (&JSONParser{}).Parse(ctx, doc)
	if err != nil {
		return nil, errors.Errorf("parsing TOML: %w", err)
	}
	return cfg, nil
}
