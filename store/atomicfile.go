package store

import (
	"os"
	"path/filepath"

	"github.com/continuum-labs/storachain/errs"
)

// WriteFileAtomic is the exported form of writeFileAtomic, used by callers
// outside this package (the hashchain aggregate's Save) that need the same
// temp-file-and-rename durability guarantee for their own sidecar files.
func WriteFileAtomic(path string, content []byte, perm os.FileMode) error {
	return writeFileAtomic(path, content, perm)
}

// writeFileAtomic writes content to path via a temp file in the same
// directory followed by rename, syncing both the temp file and the
// directory so the rename is durable. Grounded on the teacher's
// node/store/manifest.go writeManifestAtomic.
func writeFileAtomic(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return errs.New(errs.IoFailure, "open temp file %s: %v", tmp, err)
	}
	_, writeErr := f.Write(content)
	syncErr := f.Sync()
	closeErr := f.Close()
	if writeErr != nil {
		_ = os.Remove(tmp)
		return errs.New(errs.IoFailure, "write temp file %s: %v", tmp, writeErr)
	}
	if syncErr != nil {
		_ = os.Remove(tmp)
		return errs.New(errs.IoFailure, "fsync temp file %s: %v", tmp, syncErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return errs.New(errs.IoFailure, "close temp file %s: %v", tmp, closeErr)
	}

	if err := os.Rename(tmp, path); err != nil {
		return errs.New(errs.IoFailure, "rename %s -> %s: %v", tmp, path, err)
	}

	d, err := os.Open(dir)
	if err != nil {
		return errs.New(errs.IoFailure, "open dir %s for fsync: %v", dir, err)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return errs.New(errs.IoFailure, "fsync dir %s: %v", dir, err)
	}
	return errNilOr(d.Close())
}

func errNilOr(err error) error {
	if err != nil {
		return errs.New(errs.IoFailure, "close dir: %v", err)
	}
	return nil
}

// writeFileIfAbsent writes content to path only if it does not already
// exist; if it exists with different content, that is a corruption signal.
// Grounded on the teacher's node/blockstore.go writeFileIfAbsent.
func writeFileIfAbsent(path string, content []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err == nil {
		_, writeErr := f.Write(content)
		closeErr := f.Close()
		if writeErr != nil {
			_ = os.Remove(path)
			return errs.New(errs.IoFailure, "write %s: %v", path, writeErr)
		}
		if closeErr != nil {
			_ = os.Remove(path)
			return errs.New(errs.IoFailure, "close %s: %v", path, closeErr)
		}
		return nil
	}
	if !os.IsExist(err) {
		return errs.New(errs.IoFailure, "create %s: %v", path, err)
	}
	existing, readErr := os.ReadFile(path)
	if readErr != nil {
		return errs.New(errs.IoFailure, "read existing %s: %v", path, readErr)
	}
	if len(existing) != len(content) {
		return errs.New(errs.Corrupt, "%s exists with different length", path)
	}
	for i := range existing {
		if existing[i] != content[i] {
			return errs.New(errs.Corrupt, "%s exists with different content", path)
		}
	}
	return nil
}
