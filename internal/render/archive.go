package render

import (
	"os"
	"path/filepath"
)

// archiveFile copies src into dstDir under dstName, creating the directory if
// absent. The copy lands in a temp file first and is renamed into place so
// concurrent writers to the same name never leave torn files; last writer
// wins.
func archiveFile(src, dstDir, dstName string) error {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return &IOError{Op: "create archive dir", Path: dstDir, Err: err}
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return &IOError{Op: "read staged file", Path: src, Err: err}
	}

	tmp, err := os.CreateTemp(dstDir, "."+dstName+".*")
	if err != nil {
		return &IOError{Op: "create archive temp", Path: dstDir, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &IOError{Op: "write archive temp", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &IOError{Op: "close archive temp", Path: tmpPath, Err: err}
	}

	dst := filepath.Join(dstDir, dstName)
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return &IOError{Op: "rename into archive", Path: dst, Err: err}
	}
	return nil
}
