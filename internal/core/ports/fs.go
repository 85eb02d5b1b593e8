package ports

import "os"

// FileSystemPort is the subset of file system operations the log relies on.
type FileSystemPort interface {
	CreateDir(dirPath string, permission os.FileMode) error
	ReadDir(pattern string) ([]string, error)

	OpenFile(filePath string, flag int, permission os.FileMode) (*os.File, error)
	DeleteFile(filePath string) error
	Exists(filePath string) (bool, error)

	// Sync makes the data of an open file durable.
	Sync(file *os.File) error

	// SyncDir makes directory entries (created or removed files) durable.
	SyncDir(dirPath string) error
}
