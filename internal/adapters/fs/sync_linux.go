//go:build linux

package fs

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// Sync flushes file data to the device. fdatasync skips metadata that is
// not needed to read the data back, such as modification times.
func (lfs *LocalFileSystem) Sync(file *os.File) error {
	err := unix.Fdatasync(int(file.Fd()))
	if errors.Is(err, unix.EINVAL) {
		// Directories on some file systems reject fdatasync.
		return file.Sync()
	}
	return err
}
