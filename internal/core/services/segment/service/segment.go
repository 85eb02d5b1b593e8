// Package service implements a single segment file: the buffered writer used
// while a segment is active and the scanner used to replay it.
package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/ports"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/segment"
	logerrors "github.com/iamNilotpal/mrecordlog/pkg/errors"
)

var (
	// ErrSegmentClosed indicates operation on closed segment
	ErrSegmentClosed = errors.New("segment is closed")
)

// Config holds the configuration parameters for creating or reopening a segment.
type Config struct {
	// Directory and Prefix locate the segment file.
	Directory string
	Prefix    string

	// ID is the unique, monotonically increasing identifier of the segment.
	ID uint64

	// LogID and ChecksumID are written into the header of new segments.
	LogID      uuid.UUID
	ChecksumID uint8

	// BufferSize is the size of the buffered writer.
	BufferSize int

	FS ports.FileSystemPort
}

// Segment is the append side of one segment file. It is not safe for
// concurrent writers; the segment manager serializes access.
type Segment struct {
	id     uint64           // Unique monotonically increasing identifier for the segment.
	path   string           // File path where segment data is stored.
	header segment.Header   // Header written at offset zero.
	fs     ports.FileSystemPort
	file   *os.File         // Operating system file handle for I/O operations.
	writer *bufio.Writer    // Buffered writer to optimize write performance.
	usage  *segment.Usage   // Queues referenced by the frames of the segment.

	size   atomic.Int64 // Bytes written, buffered ones included.
	frames int          // Frames written, replayed ones included.
	closed atomic.Bool  // Indicates if segment is closed for writing.
}

// Create creates a new segment file and durably writes its header.
// It fails if the file already exists.
func Create(cfg *Config) (*Segment, error) {
	path := filepath.Join(cfg.Directory, segment.FileName(cfg.Prefix, cfg.ID))

	file, err := cfg.FS.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "create segment", err)
	}

	header := segment.Header{
		Version:    segment.FormatVersion,
		ChecksumID: cfg.ChecksumID,
		SegmentID:  cfg.ID,
		LogID:      cfg.LogID,
	}

	if err := writeHeader(cfg.FS, file, header); err != nil {
		file.Close()
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "write segment header", err)
	}

	if err := cfg.FS.SyncDir(cfg.Directory); err != nil {
		file.Close()
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "sync segment directory", err)
	}

	return newSegment(cfg, path, file, header, segment.HeaderSize, 0, segment.NewUsage()), nil
}

// Reset rewrites the header of an existing segment whose header was never
// completely written, discarding whatever the file held.
func Reset(cfg *Config) (*Segment, error) {
	path := filepath.Join(cfg.Directory, segment.FileName(cfg.Prefix, cfg.ID))

	file, err := cfg.FS.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "reset segment", err)
	}

	header := segment.Header{
		Version:    segment.FormatVersion,
		ChecksumID: cfg.ChecksumID,
		SegmentID:  cfg.ID,
		LogID:      cfg.LogID,
	}

	if err := writeHeader(cfg.FS, file, header); err != nil {
		file.Close()
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "write segment header", err)
	}

	return newSegment(cfg, path, file, header, segment.HeaderSize, 0, segment.NewUsage()), nil
}

// OpenForAppend reopens a replayed segment for writing. Anything past
// validSize, the end of its last complete frame, is cut off first.
func OpenForAppend(cfg *Config, scan *ScanResult) (*Segment, error) {
	path := filepath.Join(cfg.Directory, segment.FileName(cfg.Prefix, cfg.ID))

	file, err := cfg.FS.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "open segment", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "stat segment", err)
	}

	if stat.Size() > scan.ValidSize {
		if err := file.Truncate(scan.ValidSize); err != nil {
			file.Close()
			return nil, logerrors.NewLogError(logerrors.ErrorStorage, "truncate torn tail", err)
		}
		if err := cfg.FS.Sync(file); err != nil {
			file.Close()
			return nil, logerrors.NewLogError(logerrors.ErrorStorage, "sync segment", err)
		}
	}

	// Move file pointer to end for appending.
	if _, err := file.Seek(scan.ValidSize, io.SeekStart); err != nil {
		file.Close()
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "seek segment", err)
	}

	return newSegment(cfg, path, file, scan.Header, scan.ValidSize, scan.Records, scan.Usage), nil
}

func newSegment(
	cfg *Config, path string, file *os.File, header segment.Header, size int64, frames int, usage *segment.Usage,
) *Segment {
	s := &Segment{
		id:     cfg.ID,
		path:   path,
		header: header,
		fs:     cfg.FS,
		file:   file,
		frames: frames,
		usage:  usage,
		writer: bufio.NewWriterSize(file, cfg.BufferSize),
	}
	s.size.Store(size)
	return s
}

func writeHeader(fs ports.FileSystemPort, file *os.File, header segment.Header) error {
	if _, err := file.Write(header.Marshal()); err != nil {
		return err
	}
	return fs.Sync(file)
}

// Returns the unique identifier of the segment.
func (s *Segment) ID() uint64 {
	return s.id
}

func (s *Segment) Path() string {
	return s.path
}

func (s *Segment) Header() segment.Header {
	return s.header
}

// Size returns the bytes written to the segment, including buffered ones.
func (s *Segment) Size() int64 {
	return s.size.Load()
}

// Frames returns the number of frames in the segment.
func (s *Segment) Frames() int {
	return s.frames
}

// Usage returns the queues referenced by the segment.
func (s *Segment) Usage() *segment.Usage {
	return s.usage
}

// Write appends one complete frame. The frame is buffered; call Flush to
// hand it to the operating system. A failed write leaves the buffer in an
// unknown state, and every later Write fails too.
func (s *Segment) Write(frame []byte) error {
	if s.closed.Load() {
		return ErrSegmentClosed
	}

	if nn, err := s.writer.Write(frame); err != nil {
		return logerrors.NewLogError(logerrors.ErrorStorage, "write frame", err)
	} else if nn != len(frame) {
		return logerrors.NewLogError(logerrors.ErrorStorage, "write frame", fmt.Errorf("short write: %d != %d", nn, len(frame)))
	}

	s.size.Add(int64(len(frame)))
	s.frames++
	return nil
}

// Observe accounts for a record written on behalf of a queue incarnation.
func (s *Segment) Observe(rec *domain.Record, incarnation uint64) {
	s.usage.Observe(rec, incarnation)
}

// Flush writes buffered frames to the file, then fsyncs it when requested.
func (s *Segment) Flush(fsync bool) error {
	if s.closed.Load() {
		return ErrSegmentClosed
	}
	return s.flushLocked(fsync)
}

func (s *Segment) flushLocked(fsync bool) error {
	if err := s.writer.Flush(); err != nil {
		return logerrors.NewLogError(logerrors.ErrorStorage, "flush segment", err)
	}

	if fsync {
		if err := s.fs.Sync(s.file); err != nil {
			return logerrors.NewLogError(logerrors.ErrorStorage, "sync segment", err)
		}
	}

	return nil
}

// Close flushes and fsyncs pending frames and closes the file.
func (s *Segment) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrSegmentClosed
	}

	flushErr := s.flushLocked(true)
	if err := s.file.Close(); err != nil && flushErr == nil {
		return logerrors.NewLogError(logerrors.ErrorStorage, "close segment", err)
	}

	return flushErr
}
