// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriteFile replaces path with data in one step: a reader sees either
// the previous file or the whole new one, never a partial write.
//
// Missing parent directories are created. A file that is private to its
// owner (no group or other bits in perm) gets a 0700 parent, anything else
// gets 0755.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, parentPerm(perm)); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	staged, err := stageFile(dir, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(staged, target); err != nil {
		os.Remove(staged)
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}

func parentPerm(perm os.FileMode) os.FileMode {
	if perm&0o077 == 0 {
		return 0o700
	}
	return 0o755
}

// stageFile writes data to a hidden file in dir, flushed and closed, and
// returns its name. The caller owns the file on success.
func stageFile(dir string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, ".protoforge-*")
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	name := f.Name()

	werr := func() error {
		if _, err := f.Write(data); err != nil {
			return err
		}
		if err := f.Sync(); err != nil {
			return err
		}
		return f.Chmod(perm)
	}()
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(name)
		return "", fmt.Errorf("write staging file: %w", werr)
	}
	return name, nil
}
