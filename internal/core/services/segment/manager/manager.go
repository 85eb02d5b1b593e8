// Package manager owns the set of segment files of a log directory: it
// replays them at startup, rotates the active segment and deletes segments
// that no queue needs anymore.
package manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/iamNilotpal/mrecordlog/internal/adapters/metrics"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/ports"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/record"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/segment"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/segment/service"
	logerrors "github.com/iamNilotpal/mrecordlog/pkg/errors"
	"go.uber.org/zap"
)

// Options configures a SegmentManager.
type Options struct {
	Directory      string
	Prefix         string
	MaxSegmentSize int64
	BufferSize     int

	// ChecksumID is the algorithm of new segments. Codec must use the
	// same algorithm; replayed segments use the one in their header.
	ChecksumID uint8
	Codec      *record.Codec

	FS      ports.FileSystemPort
	Metrics ports.MetricsPort
	Logger  *zap.SugaredLogger
}

// Sealed is a segment that is no longer written to.
type Sealed struct {
	ID    uint64
	Path  string
	Size  int64
	Usage *segment.Usage
}

// RecoveryStats summarizes a replay.
type RecoveryStats struct {
	Segments      int
	Records       int
	TornTails     int
	ResetSegments int
}

// SegmentManager handles the lifecycle of segments. Mutating methods must
// be serialized by the caller; the read-only accessors are safe to call
// concurrently with them.
type SegmentManager struct {
	opts  Options
	logID uuid.UUID

	mu     sync.RWMutex     // Guards sealed and active for concurrent readers.
	sealed []*Sealed        // Non-active segments, ascending ids.
	active *service.Segment // Currently active segment for writing.
}

// Open replays every segment of the directory through apply, in segment
// order, and leaves the last one open for appending. A missing or empty
// directory gets a fresh first segment. ctx is checked between segments.
func Open(ctx context.Context, opts Options, apply service.ApplyFunc) (*SegmentManager, *RecoveryStats, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}

	sm := &SegmentManager{opts: opts}
	stats := &RecoveryStats{}

	if err := opts.FS.CreateDir(opts.Directory, 0755); err != nil {
		return nil, nil, logerrors.NewLogError(logerrors.ErrorStorage, "create log directory", err)
	}

	ids, err := sm.listSegmentIDs()
	if err != nil {
		return nil, nil, err
	}

	if len(ids) == 0 {
		sm.logID = uuid.New()
		if sm.active, err = service.Create(sm.segmentConfig(0)); err != nil {
			return nil, nil, err
		}
		sm.publishSizes()
		return sm, stats, nil
	}

	var last *service.ScanResult
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		isLast := i == len(ids)-1
		path := sm.segmentPath(id)

		result, err := service.Scan(path, opts.Codec, apply)
		if err != nil {
			if isLast && errors.Is(err, domain.ErrIncompleteFrame) && result != nil && result.Records == 0 {
				// The header of the newest segment was never completely written.
				stats.ResetSegments++
				opts.Logger.Warnw("resetting segment with incomplete header", "segment", id, "size", result.FileSize)
				if sm.logID == uuid.Nil {
					sm.logID = uuid.New()
				}
				if sm.active, err = service.Reset(sm.segmentConfig(id)); err != nil {
					return nil, nil, err
				}
				break
			}
			if errors.Is(err, domain.ErrIncompleteFrame) {
				err = fmt.Errorf("%w: %w", domain.ErrCorrupted, err)
			}
			return nil, nil, logerrors.NewLogError(logerrors.ErrorRecovery, "replay segment", err)
		}

		if result.Header.SegmentID != id {
			return nil, nil, logerrors.NewLogError(logerrors.ErrorRecovery, "replay segment", fmt.Errorf(
				"%w: segment %s declares id %d", domain.ErrCorrupted, path, result.Header.SegmentID,
			))
		}

		if sm.logID == uuid.Nil {
			sm.logID = result.Header.LogID
		} else if result.Header.LogID != sm.logID {
			return nil, nil, logerrors.NewLogError(logerrors.ErrorRecovery, "replay segment", fmt.Errorf(
				"%w: segment %s belongs to log %s, expected %s", domain.ErrCorrupted, path, result.Header.LogID, sm.logID,
			))
		}

		stats.Segments++
		stats.Records += result.Records
		if result.TornTail {
			stats.TornTails++
			opts.Logger.Warnw(
				"discarding incomplete frame at end of segment",
				"segment", id, "validSize", result.ValidSize, "fileSize", result.FileSize,
			)
		}

		if isLast {
			last = result
			break
		}

		sm.sealed = append(sm.sealed, &Sealed{ID: id, Path: path, Size: result.FileSize, Usage: result.Usage})
	}

	if last != nil {
		lastID := ids[len(ids)-1]
		if last.ValidSize >= opts.MaxSegmentSize || last.Header.ChecksumID != opts.ChecksumID {
			// Full, or written with another checksum algorithm: seal it as
			// is and start the next one.
			sm.sealed = append(sm.sealed, &Sealed{
				ID: lastID, Path: sm.segmentPath(lastID), Size: last.FileSize, Usage: last.Usage,
			})
			if sm.active, err = service.Create(sm.segmentConfig(lastID + 1)); err != nil {
				return nil, nil, err
			}
		} else if sm.active, err = service.OpenForAppend(sm.segmentConfig(lastID), last); err != nil {
			return nil, nil, err
		}
	}

	sm.publishSizes()
	return sm, stats, nil
}

func (sm *SegmentManager) listSegmentIDs() ([]uint64, error) {
	files, err := sm.opts.FS.ReadDir(segment.GlobPattern(sm.opts.Directory, sm.opts.Prefix))
	if err != nil {
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "list segments", err)
	}

	ids := make([]uint64, 0, len(files))
	for _, file := range files {
		if id, ok := segment.ParseID(file, sm.opts.Prefix); ok {
			ids = append(ids, id)
		}
	}

	slices.Sort(ids)
	return ids, nil
}

func (sm *SegmentManager) segmentPath(id uint64) string {
	return filepath.Join(sm.opts.Directory, segment.FileName(sm.opts.Prefix, id))
}

func (sm *SegmentManager) segmentConfig(id uint64) *service.Config {
	return &service.Config{
		Directory:  sm.opts.Directory,
		Prefix:     sm.opts.Prefix,
		ID:         id,
		LogID:      sm.logID,
		ChecksumID: sm.opts.ChecksumID,
		BufferSize: sm.opts.BufferSize,
		FS:         sm.opts.FS,
	}
}

// LogID returns the identifier shared by every segment of the directory.
func (sm *SegmentManager) LogID() uuid.UUID {
	return sm.logID
}

// Write appends a frame to the active segment, rotating first when the
// frame would push a non-empty segment past the size limit.
func (sm *SegmentManager) Write(frame []byte) error {
	active := sm.active
	if active.Frames() > 0 && active.Size()+int64(len(frame)) > sm.opts.MaxSegmentSize {
		if err := sm.rotate(); err != nil {
			return err
		}
	}

	if err := sm.active.Write(frame); err != nil {
		return err
	}

	sm.opts.Metrics.SetOnDiskBytes(sm.OnDiskSize())
	return nil
}

// Observe records that the last written frame holds rec for a queue incarnation.
func (sm *SegmentManager) Observe(rec *domain.Record, incarnation uint64) {
	sm.active.Observe(rec, incarnation)
}

func (sm *SegmentManager) rotate() error {
	current := sm.active
	if err := current.Close(); err != nil {
		return err
	}

	next, err := service.Create(sm.segmentConfig(current.ID() + 1))
	if err != nil {
		return err
	}

	sm.mu.Lock()
	sm.sealed = append(sm.sealed, &Sealed{
		ID: current.ID(), Path: current.Path(), Size: current.Size(), Usage: current.Usage(),
	})
	sm.active = next
	sm.mu.Unlock()

	sm.opts.Metrics.SegmentRotated()
	sm.opts.Metrics.SetSegments(sm.SegmentCount())
	sm.opts.Logger.Infow("rotated segment", "sealed", current.ID(), "size", current.Size(), "active", next.ID())
	return nil
}

// Flush pushes buffered frames of the active segment to the OS and
// optionally fsyncs them.
func (sm *SegmentManager) Flush(fsync bool) error {
	if err := sm.active.Flush(fsync); err != nil {
		return err
	}
	sm.opts.Metrics.Flushed(fsync)
	return nil
}

// CoveredFunc reports whether a queue incarnation no longer needs any
// record at or below maxPosition: it was deleted or truncated past it.
type CoveredFunc func(key segment.QueueKey, maxPosition uint64) bool

// Collectable returns the sealed segments that can be deleted.
//
// A segment qualifies when every queue incarnation with appends in it is
// covered. A segment that deletes a queue is additionally kept while an
// older retained segment still references the name, otherwise replay would
// resurrect the deleted queue from those older records.
func (sm *SegmentManager) Collectable(covered CoveredFunc) []*Sealed {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var victims []*Sealed
	retainedNames := make(map[string]struct{})

	for _, s := range sm.sealed {
		if deletable(s.Usage, covered, retainedNames) {
			victims = append(victims, s)
			continue
		}
		for name := range s.Usage.Names {
			retainedNames[name] = struct{}{}
		}
	}

	return victims
}

func deletable(usage *segment.Usage, covered CoveredFunc, retainedNames map[string]struct{}) bool {
	for key, maxPosition := range usage.MaxPositions {
		if !covered(key, maxPosition) {
			return false
		}
	}

	for name := range usage.Deletes {
		if _, ok := retainedNames[name]; ok {
			return false
		}
	}

	return true
}

// Delete removes sealed segments from disk and from the manager.
// Segments already removed from the manager, or whose file is missing,
// are ignored.
func (sm *SegmentManager) Delete(victims []*Sealed) error {
	if len(victims) == 0 {
		return nil
	}

	ids := make(map[uint64]struct{}, len(victims))
	for _, v := range victims {
		ids[v.ID] = struct{}{}
	}

	sm.mu.Lock()
	var deleted []*Sealed
	var err error
	kept := sm.sealed[:0]
	for _, s := range sm.sealed {
		if _, ok := ids[s.ID]; !ok || err != nil {
			kept = append(kept, s)
			continue
		}
		if derr := sm.opts.FS.DeleteFile(s.Path); derr != nil {
			// A file that is already gone counts as deleted.
			if exists, xerr := sm.opts.FS.Exists(s.Path); xerr != nil || exists {
				err = logerrors.NewLogError(logerrors.ErrorRetention, "delete segment", derr)
				kept = append(kept, s)
				continue
			}
		}
		deleted = append(deleted, s)
	}
	clear(sm.sealed[len(kept):])
	sm.sealed = kept
	sm.mu.Unlock()

	if len(deleted) > 0 {
		if serr := sm.opts.FS.SyncDir(sm.opts.Directory); serr != nil && err == nil {
			err = logerrors.NewLogError(logerrors.ErrorRetention, "sync log directory", serr)
		}

		sm.opts.Metrics.SegmentsDeleted(len(deleted))
		sm.publishSizes()
		for _, s := range deleted {
			sm.opts.Logger.Infow("deleted segment", "segment", s.ID, "size", s.Size)
		}
	}

	return err
}

// Close flushes, fsyncs and closes the active segment.
func (sm *SegmentManager) Close() error {
	return sm.active.Close()
}

// ActiveID returns the id of the active segment.
func (sm *SegmentManager) ActiveID() uint64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.active.ID()
}

// SegmentIDs returns the ids of every segment, active one last.
func (sm *SegmentManager) SegmentIDs() []uint64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]uint64, 0, len(sm.sealed)+1)
	for _, s := range sm.sealed {
		ids = append(ids, s.ID)
	}
	return append(ids, sm.active.ID())
}

// SegmentCount returns the number of segment files.
func (sm *SegmentManager) SegmentCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sealed) + 1
}

// OnDiskSize returns the bytes held by segments, buffered frames included.
func (sm *SegmentManager) OnDiskSize() int64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	total := sm.active.Size()
	for _, s := range sm.sealed {
		total += s.Size
	}
	return total
}

func (sm *SegmentManager) publishSizes() {
	sm.opts.Metrics.SetSegments(sm.SegmentCount())
	sm.opts.Metrics.SetOnDiskBytes(sm.OnDiskSize())
}
