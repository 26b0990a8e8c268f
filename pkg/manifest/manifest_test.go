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

package manifest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/assetcopy/pkg/host"
)

func TestMap(t *testing.T) {
	m := NewMap(nil)

	m.Record("", "/src/b.txt", "b.txt")
	m.Record("/cdn", "/src/a.txt", "a.txt")
	m.Put("b.txt", "replaced")

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"b.txt", "a.txt"}, m.Keys(), "keys should keep insertion order")

	v, ok := m.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "/cdn/a.txt", v)

	v, ok = m.Get("b.txt")
	require.True(t, ok)
	assert.Equal(t, "replaced", v)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMap_RecordWithEntryFunc(t *testing.T) {
	m := NewMap(func(from, assetPath string) any {
		return map[string]string{"from": from, "to": assetPath}
	})

	m.Record("/ignored", "/src/a.txt", "a.txt")

	v, ok := m.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"from": "/src/a.txt", "to": "a.txt"}, v)
}

func TestDefaultFormatter(t *testing.T) {
	m := NewMap(nil)
	m.Put("z.txt", "z.txt")
	m.Put("a.txt", "a.txt")

	content, err := DefaultFormatter(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z.txt":"z.txt","a.txt":"a.txt"}`, string(content), "output should be compact and ordered")

	empty, err := DefaultFormatter(NewMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{BasePath: "/cdn"}.WithDefaults()

	assert.Equal(t, "/cdn", opts.BasePath)
	assert.Equal(t, ".", opts.Path)
	assert.Equal(t, DefaultFilename, opts.Filename)
	assert.NotNil(t, opts.ProcessOutput)
	assert.Nil(t, opts.ProcessFromPattern)
	assert.Equal(t, "webpack-assets.json", opts.OutputPath())

	custom := Options{Path: "meta", Filename: "assets.json"}.WithDefaults()
	assert.Equal(t, "meta/assets.json", custom.OutputPath())
}

func TestEmit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		entries     map[string]string
		opts        Options
		wantEmitted bool
		wantAsset   string
		errContains string
	}{
		{
			name:        "empty_map_emits_nothing",
			opts:        Options{}.WithDefaults(),
			wantEmitted: false,
		},
		{
			name:        "default_location",
			entries:     map[string]string{"a.txt": "a.txt"},
			opts:        Options{}.WithDefaults(),
			wantEmitted: true,
			wantAsset:   "webpack-assets.json",
		},
		{
			name:        "custom_location",
			entries:     map[string]string{"a.txt": "a.txt"},
			opts:        Options{Path: "meta", Filename: "m.json"}.WithDefaults(),
			wantEmitted: true,
			wantAsset:   "meta/m.json",
		},
		{
			name:    "formatter_error",
			entries: map[string]string{"a.txt": "a.txt"},
			opts: Options{ProcessOutput: func(*Map) ([]byte, error) {
				return nil, assert.AnError
			}}.WithDefaults(),
			errContains: "formatting manifest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := host.NewCompilation()
			m := NewMap(nil)
			for k, v := range tt.entries {
				m.Put(k, v)
			}

			emitted, err := Emit(ctx, c, tt.opts, m)

			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Empty(t, c.Assets, "no artifact on failure")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantEmitted, emitted)
			if !tt.wantEmitted {
				assert.Empty(t, c.Assets)
				return
			}

			require.Contains(t, c.Assets, tt.wantAsset)
			asset := c.Assets[tt.wantAsset]
			assert.Equal(t, len(asset.Source()), asset.Size())
			assert.Equal(t, asset.Source(), asset.Source(), "source should be stable")

			var decoded map[string]string
			require.NoError(t, json.Unmarshal(asset.Source(), &decoded))
			assert.Equal(t, tt.entries, decoded)
		})
	}
}

func TestEmit_NilMap(t *testing.T) {
	c := host.NewCompilation()
	emitted, err := Emit(context.Background(), c, Options{}.WithDefaults(), nil)
	require.NoError(t, err)
	assert.False(t, emitted)
}
