// SPDX-License-Identifier: AGPL-3.0-or-later

// Package projection writes generated files to disk. Writes go through a
// temp file in the target directory followed by a rename, so a reader never
// observes a half-written file.
package projection

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultMode is applied to files that do not exist yet.
const DefaultMode fs.FileMode = 0o644

// AtomicWrite writes content to path atomically by writing to a temp file and renaming it.
// An existing file keeps its permission bits.
func AtomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	mode := DefaultMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmpFile, err := os.CreateTemp(dir, ".swiftreq-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmpFile.Chmod(mode); err != nil {
		tmpFile.Close()
		return fmt.Errorf("setting mode: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("moving temp file to %s: %w", path, err)
	}

	return nil
}

// Batch collects file contents and writes them together once every
// generation step has succeeded. Nothing touches the disk before Commit.
type Batch struct {
	entries []entry
}

type entry struct {
	path    string
	content []byte
}

// Stage queues content for path. Staging the same path twice replaces the
// earlier content but keeps its position.
func (b *Batch) Stage(path string, content []byte) {
	for i := range b.entries {
		if b.entries[i].path == path {
			b.entries[i].content = content
			return
		}
	}
	b.entries = append(b.entries, entry{path: path, content: content})
}

// Paths lists staged paths in staging order.
func (b *Batch) Paths() []string {
	out := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e.path)
	}
	return out
}

// Len reports the number of staged files.
func (b *Batch) Len() int { return len(b.entries) }

// Commit writes staged files in staging order and returns the paths whose
// content actually changed. Files whose current content already matches are
// left alone. On error the returned slice holds what was written so far.
func (b *Batch) Commit() ([]string, error) {
	var written []string
	for _, e := range b.entries {
		current, err := os.ReadFile(e.path)
		switch {
		case err == nil && bytes.Equal(current, e.content):
			continue
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return written, fmt.Errorf("reading %s: %w", e.path, err)
		}
		if err := AtomicWrite(e.path, e.content); err != nil {
			return written, err
		}
		written = append(written, e.path)
	}
	return written, nil
}
