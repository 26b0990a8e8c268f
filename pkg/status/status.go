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

package status

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus represents the state of an output file after a write
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusNew                  // File didn't exist in the output
	StatusModified             // File existed but content differed
	StatusUnchanged            // File existed and content matched
	StatusDeleted              // File was deleted
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains metadata about a tracked output file
type FileInfo struct {
	Path     string     // Path relative to the output root
	Status   FileStatus // Status of the last write
	Size     int64      // File size in bytes
	Checksum string     // Content hash for diff detection
}

// 🔧 Manager writes assets into an output filesystem and remembers what it did
type Manager struct {
	fs        billy.Filesystem
	logger    *zerolog.Logger
	formatter FileFormatter

	mu    sync.RWMutex
	files map[string]FileInfo
}

// 🏭 New creates a new status manager rooted at fs
func New(fs billy.Filesystem, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Manager{
		fs:        fs,
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		files:     make(map[string]FileInfo),
	}
}

// Filesystem returns the output filesystem
func (m *Manager) Filesystem() billy.Filesystem {
	return m.fs
}

// 🔒 clean turns an asset name into a filesystem path
func clean(name string) (string, error) {
	p := path.Clean("/" + filepath.ToSlash(name))
	if p == "/" {
		return "", errors.Errorf("invalid asset path %q", name)
	}
	return strings.TrimPrefix(p, "/"), nil
}

// 🔍 calculateChecksum generates a SHA-256 hash of the content
func calculateChecksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// 💾 WriteFile writes content to name unless the output already holds the same bytes
func (m *Manager) WriteFile(ctx context.Context, name string, content []byte) (FileStatus, error) {
	p, err := clean(name)
	if err != nil {
		return StatusUnknown, err
	}

	st := StatusNew
	existing, err := util.ReadFile(m.fs, p)
	switch {
	case err == nil:
		if calculateChecksum(existing) == calculateChecksum(content) {
			m.track(p, StatusUnchanged, content)
			zerolog.Ctx(ctx).Trace().Str("path", p).Msg("output unchanged")
			return StatusUnchanged, nil
		}
		st = StatusModified
	case errors.Is(err, os.ErrNotExist):
	default:
		return StatusUnknown, errors.Errorf("reading existing output %q: %w", p, err)
	}

	if dir := path.Dir(p); dir != "." {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return StatusUnknown, errors.Errorf("creating parent directories: %w", err)
		}
	}

	if err := m.WriteFileAtomic(ctx, p, content); err != nil {
		return StatusUnknown, err
	}

	m.track(p, st, content)
	m.logger.Debug().Str("path", p).Str("status", st.String()).Msg(m.formatter.FormatFileOperation(p, st))
	return st, nil
}

// WriteFileAtomic writes through a temp file in the target directory and renames it into place
func (m *Manager) WriteFileAtomic(ctx context.Context, name string, content []byte) error {
	dir := path.Dir(name)

	tmp, err := m.fs.TempFile(dir, ".assetcopy-")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = m.fs.Remove(tmpName)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = m.fs.Remove(tmpName)
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := m.fs.Rename(tmpName, name); err != nil {
		_ = m.fs.Remove(tmpName)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// ReadFile returns the content of an output file
func (m *Manager) ReadFile(ctx context.Context, name string) ([]byte, error) {
	p, err := clean(name)
	if err != nil {
		return nil, err
	}
	content, err := util.ReadFile(m.fs, p)
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// FileExists reports whether name exists in the output
func (m *Manager) FileExists(ctx context.Context, name string) (bool, error) {
	p, err := clean(name)
	if err != nil {
		return false, err
	}
	_, err = m.fs.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

// DeleteFile removes an output file and marks it deleted
func (m *Manager) DeleteFile(ctx context.Context, name string) error {
	p, err := clean(name)
	if err != nil {
		return err
	}
	if err := m.fs.Remove(p); err != nil {
		return errors.Errorf("deleting file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = FileInfo{Path: p, Status: StatusDeleted}
	return nil
}

func (m *Manager) track(p string, st FileStatus, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = FileInfo{
		Path:     p,
		Status:   st,
		Size:     int64(len(content)),
		Checksum: calculateChecksum(content),
	}
}

// GetFileInfo returns what the manager last did to name
func (m *Manager) GetFileInfo(ctx context.Context, name string) (FileInfo, error) {
	p, err := clean(name)
	if err != nil {
		return FileInfo{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[p]
	if !ok {
		return FileInfo{}, errors.Errorf("file not tracked: %s", p)
	}
	return info, nil
}

// ListFiles returns every tracked file sorted by path
func (m *Manager) ListFiles(ctx context.Context) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, 0, len(m.files))
	for _, info := range m.files {
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Summary counts tracked files by status
func (m *Manager) Summary() map[FileStatus]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[FileStatus]int)
	for _, info := range m.files {
		out[info.Status]++
	}
	return out
}

// Reset forgets every tracked file; the output filesystem is untouched
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string]FileInfo)
}
