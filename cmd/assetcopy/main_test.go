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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func runCmd(t *testing.T, args ...string) (string, error) {
	out, _, err := runCmdSplit(t, args...)
	return out, err
}

func runCmdSplit(t *testing.T, args ...string) (string, string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(setupTestContext(t))
	return stdout.String(), stderr.String(), err
}

func TestBuildCmd(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"assetcopy.yaml": `
patterns:
  - from: a.txt
    to: a.txt
  - from: static
    to: assets
options:
  manifest:
    basePath: /cdn
`,
		"a.txt":            "a",
		"static/app.css":   "body{}",
		"static/app.css~":  "backup",
		"static/img/x.png": "png",
	})

	out, err := runCmd(t, "build", "--config", filepath.Join(dir, "assetcopy.yaml"))
	require.NoError(t, err, out)

	for name, want := range map[string]string{
		"a.txt":               "a",
		"assets/app.css":      "body{}",
		"assets/img/x.png":    "png",
		"webpack-assets.json": `{"a.txt":"/cdn/a.txt","assets/app.css":"/cdn/assets/app.css","assets/app.css~":"/cdn/assets/app.css~","assets/img/x.png":"/cdn/assets/img/x.png"}`,
	} {
		got, err := os.ReadFile(filepath.Join(dir, "dist", name))
		require.NoError(t, err, "reading %s", name)
		assert.Equal(t, want, string(got), "content of %s", name)
	}

	assert.Contains(t, out, "✅ 5 new")
}

func TestBuildCmd_ReportsErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"assetcopy.yaml": "patterns: nope\n",
	})

	_, err := runCmd(t, "build", "-c", filepath.Join(dir, "assetcopy.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patterns must be an array")
}

func TestBuildCmd_EnvConfig(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"copy.json": `{"patterns":[{"from":"a.txt","to":"b.txt"}],"output":"out"}`,
		"a.txt":     "a",
	})
	t.Setenv(envConfig, filepath.Join(dir, "copy.json"))

	out, err := runCmd(t, "build")
	require.NoError(t, err, out)

	got, err := os.ReadFile(filepath.Join(dir, "out", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}

func TestBuildCmd_WarningsOnStderrOnce(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"assetcopy.yaml": "patterns:\n  - from: missing.txt\n    to: missing.txt\n  - from: a.txt\n",
		"a.txt":          "a",
	})

	stdout, stderr, err := runCmdSplit(t, "build", "-c", filepath.Join(dir, "assetcopy.yaml"))
	require.NoError(t, err, stderr)

	assert.Equal(t, 1, strings.Count(stderr, "[assetcopy] WARNING - unable to locate 'missing.txt'"), "warning should be printed once")
	assert.NotContains(t, stdout, "unable to locate", "warnings should stay out of the summary")
	assert.Contains(t, stdout, "✅ 1 new")
}
