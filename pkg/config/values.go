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
	"bytes"
	"encoding/json"
	"strconv"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 📶 Debug is the verbosity setting. Files may give a bool or one of
// warning, info, debug; a bool is stored as "true" or "false".
type Debug string

// UnmarshalJSON accepts a bool or a string
func (d *Debug) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*d = Debug(strconv.FormatBool(b))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Errorf("debug must be a bool or a string: %w", err)
	}
	*d = Debug(s)
	return nil
}

// UnmarshalYAML accepts any scalar
func (d *Debug) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: debug must be a bool or a string", value.Line)
	}
	*d = Debug(value.Value)
	return nil
}

// 📋 Manifest is either disabled (false, null or absent) or a set of overrides
// merged over the manifest defaults. true enables the defaults as they are.
type Manifest struct {
	Enabled  bool   `json:"-" yaml:"-"`
	BasePath string `json:"basePath,omitempty" yaml:"basePath,omitempty" hcl:"base_path,optional"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty" hcl:"path,optional"`
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty" hcl:"filename,optional"`
}

type manifestFields struct {
	BasePath string `json:"basePath" yaml:"basePath"`
	Path     string `json:"path" yaml:"path"`
	Filename string `json:"filename" yaml:"filename"`
}

// UnmarshalJSON accepts false, true, null or an object
func (m *Manifest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch string(trimmed) {
	case "null", "false":
		*m = Manifest{}
		return nil
	case "true":
		*m = Manifest{Enabled: true}
		return nil
	}

	var fields manifestFields
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fields); err != nil {
		return errors.Errorf("manifest must be false or an object: %w", err)
	}
	*m = Manifest{Enabled: true, BasePath: fields.BasePath, Path: fields.Path, Filename: fields.Filename}
	return nil
}

// UnmarshalYAML accepts false, true, null or a mapping
func (m *Manifest) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*m = Manifest{}
			return nil
		}
		var b bool
		if err := value.Decode(&b); err != nil {
			return errors.Errorf("line %d: manifest must be false or a mapping", value.Line)
		}
		*m = Manifest{Enabled: b}
		return nil
	case yaml.MappingNode:
		var fields manifestFields
		if err := value.Decode(&fields); err != nil {
			return errors.Errorf("decoding manifest: %w", err)
		}
		*m = Manifest{Enabled: true, BasePath: fields.BasePath, Path: fields.Path, Filename: fields.Filename}
		return nil
	default:
		return errors.Errorf("line %d: manifest must be false or a mapping", value.Line)
	}
}
