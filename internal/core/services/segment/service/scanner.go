package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/iamNilotpal/mrecordlog/internal/adapters/checksum"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/record"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/segment"
	"golang.org/x/exp/mmap"
)

const scanBufferSize = 256 * 1024

// ScanResult describes a replayed segment.
type ScanResult struct {
	Header segment.Header

	// ValidSize is the offset right after the last complete frame.
	ValidSize int64

	// FileSize is the size of the file when it was scanned.
	FileSize int64

	// Records is the number of complete frames.
	Records int

	// TornTail is set when the file ends inside a frame. The partial frame
	// is not part of ValidSize.
	TornTail bool

	// Usage is rebuilt from the replayed records.
	Usage *segment.Usage
}

// ApplyFunc is called for every record of a segment, in file order. It
// returns the incarnation of the queue the record was applied to. The
// payloads of rec are only valid during the call.
type ApplyFunc func(rec *domain.Record) (incarnation uint64, err error)

// Scan replays the segment at path. A file shorter than a header yields an
// error wrapping domain.ErrIncompleteFrame; any invalid frame yields an
// error wrapping domain.ErrCorrupted. An incomplete last frame is not an
// error and is reported through ScanResult.TornTail.
func Scan(path string, codec *record.Codec, apply ApplyFunc) (*ScanResult, error) {
	file, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segment %s: %w", path, err)
	}
	defer file.Close()

	result := &ScanResult{FileSize: int64(file.Len()), Usage: segment.NewUsage()}
	if file.Len() < segment.HeaderSize {
		return result, fmt.Errorf("segment %s header: %w", path, domain.ErrIncompleteFrame)
	}

	buf := make([]byte, segment.HeaderSize)
	if _, err := file.ReadAt(buf, 0); err != nil {
		return result, fmt.Errorf("read segment %s header: %w", path, err)
	}

	result.Header, err = segment.UnmarshalHeader(buf)
	if err != nil {
		return result, fmt.Errorf("segment %s: %w", path, err)
	}

	summer, err := checksum.FromID(result.Header.ChecksumID)
	if err != nil {
		return result, fmt.Errorf("segment %s: %w: %w", path, domain.ErrCorrupted, err)
	}

	section := io.NewSectionReader(file, segment.HeaderSize, result.FileSize-segment.HeaderSize)
	reader := codec.WithChecksum(summer).NewReader(bufio.NewReaderSize(section, scanBufferSize))

	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, domain.ErrIncompleteFrame) {
			result.TornTail = true
			break
		}
		if err != nil {
			return result, fmt.Errorf("segment %s: %w", path, err)
		}

		incarnation, err := apply(&rec)
		if err != nil {
			return result, fmt.Errorf("segment %s, record ending at offset %d: %w", path, segment.HeaderSize+reader.Offset(), err)
		}

		result.Usage.Observe(&rec, incarnation)
		result.Records++
	}

	result.ValidSize = segment.HeaderSize + reader.Offset()
	return result, nil
}
