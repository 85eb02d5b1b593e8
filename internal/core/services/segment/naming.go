package segment

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName returns the file name of segment id. Ids are zero padded so
// that lexical and numeric order agree.
func FileName(prefix string, id uint64) string {
	return fmt.Sprintf("%s%020d%s", prefix, id, SegmentExtension)
}

// GlobPattern matches every segment file of a directory.
func GlobPattern(dir, prefix string) string {
	return filepath.Join(dir, prefix+"*"+SegmentExtension)
}

// ParseID extracts the segment id from a file path. ok is false for files
// that match the glob but are not segments.
func ParseID(path, prefix string) (id uint64, ok bool) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, SegmentExtension) {
		return 0, false
	}

	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), SegmentExtension)
	id, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}
