package utils

import (
	"os"
	"path/filepath"
)

// EnsureDataDir creates the directory that will hold the file at path
func EnsureDataDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
