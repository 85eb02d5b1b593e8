// Package fs implements ports.FileSystemPort on the local file system.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type LocalFileSystem struct{}

func NewLocalFileSystem() *LocalFileSystem {
	return &LocalFileSystem{}
}

// Creates a directory and its parents if not present.
// Returns an error if the path exists and is not a directory.
func (lfs *LocalFileSystem) CreateDir(dirPath string, permission os.FileMode) error {
	stat, err := os.Stat(dirPath)
	if err == nil {
		if !stat.IsDir() {
			return fmt.Errorf("existing path %s isn't a directory", dirPath)
		}
		return nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error in getting directory stat %s : %w", dirPath, err)
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return fmt.Errorf("error in creating all directories %s : %w", dirPath, err)
	}

	return nil
}

// Returns the names of all files matching a glob pattern.
func (lfs *LocalFileSystem) ReadDir(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// Opens a file with the given flags.
func (lfs *LocalFileSystem) OpenFile(filePath string, flag int, permission os.FileMode) (*os.File, error) {
	return os.OpenFile(filePath, flag, permission)
}

// Deletes a file.
func (lfs *LocalFileSystem) DeleteFile(filePath string) error {
	return os.Remove(filePath)
}

// Reports whether a path exists.
func (lfs *LocalFileSystem) Exists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Syncs the directory so that created and removed entries survive a crash.
func (lfs *LocalFileSystem) SyncDir(dirPath string) error {
	dir, err := os.Open(dirPath)
	if err != nil {
		return err
	}

	if err := lfs.Sync(dir); err != nil {
		dir.Close()
		return err
	}

	return dir.Close()
}
