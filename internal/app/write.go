package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type outputFile struct {
	name string
	data []byte
	mode fs.FileMode
}

// rename is swapped in tests to simulate a failing move.
var rename = os.Rename

// writeFiles writes every file to a temporary name in dir and renames them
// into place only once all of them were written. Files it replaces are set
// aside first and restored if a later rename fails, so dir ends up with all
// of the new files or none of them. It returns the final paths.
func writeFiles(dir string, files []outputFile) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	for _, f := range files {
		if info, err := os.Lstat(filepath.Join(dir, f.name)); err == nil && info.IsDir() {
			return nil, fmt.Errorf("move %s into place: %s is a directory", f.name, filepath.Join(dir, f.name))
		}
	}

	temps := make([]string, 0, len(files))
	for _, f := range files {
		tmp, err := writeTemp(dir, f)
		if err != nil {
			removeAll(temps)
			return nil, err
		}
		temps = append(temps, tmp)
	}

	// backups[i] holds the previous version of files[i], if there was one.
	backups := make([]string, len(files))
	written := make([]string, 0, len(files))
	rollback := func() {
		for i, dst := range written {
			_ = os.Remove(dst)
			if backups[i] != "" {
				_ = rename(backups[i], dst)
			}
		}
		if n := len(written); n < len(backups) && backups[n] != "" {
			_ = rename(backups[n], filepath.Join(dir, files[n].name))
		}
		removeAll(temps[len(written):])
	}

	for i, f := range files {
		dst := filepath.Join(dir, f.name)
		backup, err := setAside(dir, dst)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("move %s into place: %w", f.name, err)
		}
		backups[i] = backup
		if err := rename(temps[i], dst); err != nil {
			rollback()
			return nil, fmt.Errorf("move %s into place: %w", f.name, err)
		}
		written = append(written, dst)
	}
	removeAll(backups)
	return written, nil
}

// setAside moves an existing dst to a temporary name in dir and returns it,
// or "" when there is nothing to keep.
func setAside(dir, dst string) (string, error) {
	if _, err := os.Lstat(dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".bak-*")
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	_ = tmp.Close()
	if err := rename(dst, name); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}

func writeTemp(dir string, f outputFile) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+f.name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temporary %s: %w", f.name, err)
	}
	name := tmp.Name()
	fail := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write %s: %w", f.name, err)
	}

	if _, err := tmp.Write(f.data); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(f.mode); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("write %s: %w", f.name, err)
	}
	return name, nil
}
