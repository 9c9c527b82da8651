// Package filesys provides the small set of filesystem helpers
// internal/directory.FS needs: creating its root directory and checking
// whether a file exists.
package filesys

import (
	"errors"
	"os"
)

var ErrIsNotDir = errors.New("path isn't a directory")

// CreateDir creates dirPath with the given permission, if it does not
// already exist. If force is false and dirPath exists (or cannot be
// stat'ed), it returns the stat error unchanged (nil for an existing path)
// without checking or changing anything. If force is true, it errors if
// dirPath exists and is a regular file rather than a directory, and
// otherwise sets the directory's permission to permission.
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		return err
	}
	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}
	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}
	return os.Chmod(dirPath, permission)
}

// Exists reports whether a file or directory exists at path.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
