// Package store implements the small set of filesystem primitives the
// repository state machine builds its persistence on: writing a file
// (creating any missing ancestor directories), reading one back, and
// pruning a directory down to a keep-set. Unlike Mutagen's filesystem
// package, which writes configuration and synchronization content via
// rename-based atomic replacement to survive a crash mid-write, these
// primitives use a single direct write: RRDP's retention model already
// tolerates a crash leaving orphaned files on disk (see the repo state
// machine's save step), so paying for atomic-rename machinery here buys
// nothing.
package store

import (
	"os"
	"path/filepath"
)

// Save creates fullPath's parent directories if necessary, then
// creates-or-truncates the file and writes bytes to it in one call.
func Save(fullPath string, bytes []byte) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return errStoreFailed(fullPath, err)
	}
	if err := os.WriteFile(fullPath, bytes, 0o644); err != nil {
		return errStoreFailed(fullPath, err)
	}
	return nil
}

// Read returns the complete contents of path.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errStoreFailed(path, err)
	}
	return data, nil
}

// Retain iterates the immediate children of base and, for each whose name
// does not satisfy keep, removes it recursively. Individual removal
// failures are swallowed: retention is advisory housekeeping, not a
// correctness requirement, so one stubborn file should not abort the rest
// of the sweep.
func Retain(base string, keep func(name string) bool) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if keep(entry.Name()) {
			continue
		}
		_ = os.RemoveAll(filepath.Join(base, entry.Name()))
	}
}
