//go:build !linux

package fs

import "os"

// Sync flushes file data to the device.
func (lfs *LocalFileSystem) Sync(file *os.File) error {
	return file.Sync()
}
