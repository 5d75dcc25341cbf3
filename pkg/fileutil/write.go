package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileOverwrite writes content to a file at the specified path,
// overwriting it if it already exists. The content is written to a
// sibling temp file first and renamed into place, so readers polling
// the file never observe a half-written payload.
func WriteFileOverwrite(filePath string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return fmt.Errorf("failed to open temp file for %s: %w", filePath, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err = f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write to file %s: %w", filePath, err)
	}
	if err = f.Chmod(perm); err != nil {
		f.Close()
		return fmt.Errorf("failed to chmod file %s: %w", filePath, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filePath, err)
	}

	if err = os.Rename(tmp, filePath); err != nil {
		return fmt.Errorf("failed to replace file %s: %w", filePath, err)
	}
	return nil
}
