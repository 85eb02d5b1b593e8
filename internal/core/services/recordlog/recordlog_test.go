package recordlog_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain/config"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/recordlog"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/segment"
	logerrors "github.com/iamNilotpal/mrecordlog/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Position uint64
	Payload  string
}

func options(dir string) *domain.LogOptions {
	return &domain.LogOptions{Directory: dir}
}

func smallSegments(dir string) *domain.LogOptions {
	opts := options(dir)
	opts.SegmentOptions = &domain.SegmentOptions{
		SegmentPrefix:  segment.DefaultSegmentPrefix,
		MaxSegmentSize: segment.MinMaxSegmentSize,
	}
	return opts
}

func open(t *testing.T, opts *domain.LogOptions) *recordlog.MultiRecordLog {
	t.Helper()
	l, err := recordlog.Open(context.Background(), opts)
	require.NoError(t, err)
	return l
}

func entries(t *testing.T, l *recordlog.MultiRecordLog, name string, r domain.Range) []entry {
	t.Helper()
	seq, err := l.Range(name, r)
	require.NoError(t, err)

	var out []entry
	for pos, payload := range seq {
		out = append(out, entry{pos, string(payload)})
	}
	return out
}

func segmentPath(dir string, id uint64) string {
	return filepath.Join(dir, segment.FileName(segment.DefaultSegmentPrefix, id))
}

func TestAutoPositionsTruncateAndDelete(t *testing.T) {
	l := open(t, options(t.TempDir()))
	defer l.Close()

	require.NoError(t, l.CreateQueue("a"))
	for i, payload := range []string{"P0", "P1", "P2"} {
		pos, err := l.AppendRecord("a", []byte(payload))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), pos)
	}

	require.NoError(t, l.Truncate("a", 1))
	assert.Equal(t, []entry{{2, "P2"}}, entries(t, l, "a", domain.RangeFrom(0)))

	require.NoError(t, l.DeleteQueue("a"))
	_, err := l.AppendRecord("a", []byte("P3"))
	assert.ErrorIs(t, err, domain.ErrQueueNotFound)
	_, err = l.Range("a", domain.RangeAll())
	assert.ErrorIs(t, err, domain.ErrQueueNotFound)
	assert.ErrorIs(t, l.Truncate("a", 0), domain.ErrQueueNotFound)
	assert.ErrorIs(t, l.DeleteQueue("a"), domain.ErrQueueNotFound)
}

func TestQueueLifecycle(t *testing.T) {
	l := open(t, options(t.TempDir()))
	defer l.Close()

	require.NoError(t, l.CreateQueue("b"))
	require.NoError(t, l.CreateQueue("a"))
	assert.ErrorIs(t, l.CreateQueue("a"), domain.ErrQueueAlreadyExists)
	assert.ErrorIs(t, l.CreateQueue(""), domain.ErrInvalidQueueName)

	assert.True(t, l.QueueExists("a"))
	assert.False(t, l.QueueExists("c"))
	assert.Equal(t, []string{"a", "b"}, slices.Collect(l.ListQueues()))

	// The listing is a snapshot.
	names := l.ListQueues()
	require.NoError(t, l.CreateQueue("c"))
	assert.Equal(t, []string{"a", "b"}, slices.Collect(names))
}

func TestExplicitPositionInPastWritesNothing(t *testing.T) {
	l := open(t, options(t.TempDir()))
	defer l.Close()

	require.NoError(t, l.CreateQueue("q"))
	pos, err := l.AppendRecordAt("q", 10, []byte("ten"))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), pos)

	size := l.OnDiskSize()
	_, err = l.AppendRecordAt("q", 10, []byte("again"))
	assert.ErrorIs(t, err, domain.ErrPositionInPast)
	_, err = l.AppendRecordAt("q", 3, []byte("three"))
	assert.ErrorIs(t, err, domain.ErrPositionInPast)

	assert.Equal(t, size, l.OnDiskSize())
	next, err := l.NextPosition("q")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), next)
	assert.Equal(t, []entry{{10, "ten"}}, entries(t, l, "q", domain.RangeAll()))

	pos, err = l.AppendRecord("q", []byte("eleven"))
	require.NoError(t, err)
	assert.Equal(t, uint64(11), pos)
}

func TestTruncateIsMonotonic(t *testing.T) {
	l := open(t, options(t.TempDir()))
	defer l.Close()

	require.NoError(t, l.CreateQueue("q"))
	_, err := l.AppendRecords("q", []byte("p0"), []byte("p1"), []byte("p2"), []byte("p3"))
	require.NoError(t, err)

	require.NoError(t, l.Truncate("q", 2))
	size := l.OnDiskSize()

	require.NoError(t, l.Truncate("q", 1))
	assert.Equal(t, size, l.OnDiskSize(), "no-op truncate writes nothing")
	assert.Equal(t, []entry{{3, "p3"}}, entries(t, l, "q", domain.RangeAll()))

	assert.ErrorIs(t, l.Truncate("q", 4), domain.ErrPositionInFuture)

	last, ok, err := l.LastPosition("q")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), last)
}

func TestRangeBounds(t *testing.T) {
	l := open(t, options(t.TempDir()))
	defer l.Close()

	require.NoError(t, l.CreateQueue("q"))
	_, err := l.AppendRecords("q", []byte("p0"), []byte("p1"), []byte("p2"), []byte("p3"))
	require.NoError(t, err)

	assert.Equal(t, []entry{{1, "p1"}, {2, "p2"}}, entries(t, l, "q", domain.RangeBetween(1, 3)))
	assert.Equal(t, []entry{{3, "p3"}}, entries(t, l, "q", domain.RangeFrom(3)))
	assert.Empty(t, entries(t, l, "q", domain.RangeBetween(3, 1)))
}

func TestBatchAppends(t *testing.T) {
	l := open(t, options(t.TempDir()))
	defer l.Close()

	require.NoError(t, l.CreateQueue("q"))

	last, err := l.AppendRecords("q", []byte("a"), []byte("b"), []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)

	last, err = l.AppendRecordsAt("q", 10, []byte("d"), []byte("e"))
	require.NoError(t, err)
	assert.Equal(t, uint64(11), last)

	_, err = l.AppendRecords("q")
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)

	assert.Equal(t,
		[]entry{{0, "a"}, {1, "b"}, {2, "c"}, {10, "d"}, {11, "e"}},
		entries(t, l, "q", domain.RangeAll()),
	)
	assert.Equal(t, 5, l.InMemorySize())
}

func TestPayloadLimits(t *testing.T) {
	opts := options(t.TempDir())
	opts.RecordConfig = config.NewRecordConfig(
		config.WithMaxPayloadSize(config.SmallPayloadSize),
		config.WithMaxBatchSize(config.SmallPayloadSize*2),
	)
	l := open(t, opts)
	defer l.Close()

	require.NoError(t, l.CreateQueue("q"))

	_, err := l.AppendRecord("q", make([]byte, config.SmallPayloadSize+1))
	assert.ErrorIs(t, err, domain.ErrRecordTooLarge)

	chunk := make([]byte, config.SmallPayloadSize)
	_, err = l.AppendRecords("q", chunk, chunk, chunk)
	assert.ErrorIs(t, err, domain.ErrRecordTooLarge)

	_, err = l.AppendRecords("q", chunk, chunk)
	assert.NoError(t, err)
}

func TestReopenRestoresState(t *testing.T) {
	dir := t.TempDir()
	l := open(t, smallSegments(dir))

	require.NoError(t, l.CreateQueue("a"))
	require.NoError(t, l.CreateQueue("b"))
	require.NoError(t, l.CreateQueue("c"))
	for i := range 20 {
		_, err := l.AppendRecord("a", bytes.Repeat([]byte{'a'}, 10+i))
		require.NoError(t, err)
		if i%3 == 0 {
			_, err = l.AppendRecords("b", []byte("b1"), []byte("b2"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, l.Truncate("a", 7))
	require.NoError(t, l.Truncate("b", 3))
	require.NoError(t, l.DeleteQueue("c"))
	require.NoError(t, l.CreateQueue("c"))
	_, err := l.AppendRecordAt("c", 42, []byte("c42"))
	require.NoError(t, err)
	require.NoError(t, l.CreateQueue("empty"))

	wantNames := slices.Collect(l.ListQueues())
	wantSummary := l.Summary()
	wantRanges := map[string][]entry{}
	for _, name := range wantNames {
		wantRanges[name] = entries(t, l, name, domain.RangeAll())
	}
	require.NoError(t, l.Close())

	reopened := open(t, smallSegments(dir))
	defer reopened.Close()

	assert.Equal(t, wantNames, slices.Collect(reopened.ListQueues()))
	assert.Equal(t, wantSummary, reopened.Summary())
	for _, name := range wantNames {
		assert.Equal(t, wantRanges[name], entries(t, reopened, name, domain.RangeAll()), name)
	}
}

func TestTornTailIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	l := open(t, options(dir))

	require.NoError(t, l.CreateQueue("q"))
	for _, payload := range []string{"first", "second", "third"} {
		_, err := l.AppendRecord("q", []byte(payload))
		require.NoError(t, err)
	}
	ids := l.SegmentIDs()
	require.NoError(t, l.Close())

	// Cut the last frame in the middle, as an interrupted write would.
	path := segmentPath(dir, ids[len(ids)-1])
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-3))

	reopened := open(t, options(dir))
	assert.Equal(t, []entry{{0, "first"}, {1, "second"}}, entries(t, reopened, "q", domain.RangeAll()))

	pos, err := reopened.AppendRecord("q", []byte("third again"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pos)
	require.NoError(t, reopened.Close())

	// The partial frame was cut off before new frames were written.
	again := open(t, options(dir))
	defer again.Close()
	assert.Equal(t,
		[]entry{{0, "first"}, {1, "second"}, {2, "third again"}},
		entries(t, again, "q", domain.RangeAll()),
	)
}

func TestTornTailOfSealedSegmentIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	l := open(t, options(dir))

	require.NoError(t, l.CreateQueue("q"))
	for _, payload := range []string{"first", "second"} {
		_, err := l.AppendRecord("q", []byte(payload))
		require.NoError(t, err)
	}
	require.NoError(t, l.Close())

	path := segmentPath(dir, 0)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-3))

	sha := func() *domain.LogOptions {
		o := options(dir)
		o.ChecksumOptions = &domain.ChecksumOptions{Algorithm: "sha256"}
		return o
	}

	// Another checksum algorithm seals segment 0 with its partial frame.
	reopened := open(t, sha())
	assert.Equal(t, []uint64{0, 1}, reopened.SegmentIDs())
	assert.Equal(t, []entry{{0, "first"}}, entries(t, reopened, "q", domain.RangeAll()))
	pos, err := reopened.AppendRecord("q", []byte("again"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pos)
	require.NoError(t, reopened.Close())

	again := open(t, sha())
	defer again.Close()
	assert.Equal(t, []uint64{0, 1}, again.SegmentIDs())
	assert.Equal(t, []entry{{0, "first"}, {1, "again"}}, entries(t, again, "q", domain.RangeAll()))
}

func TestCorruptedFrameFailsOpen(t *testing.T) {
	dir := t.TempDir()
	l := open(t, options(dir))

	require.NoError(t, l.CreateQueue("q"))
	for _, payload := range []string{"first-payload", "second-payload", "third-payload"} {
		_, err := l.AppendRecord("q", []byte(payload))
		require.NoError(t, err)
	}
	ids := l.SegmentIDs()
	require.NoError(t, l.Close())

	path := segmentPath(dir, ids[len(ids)-1])
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	idx := bytes.Index(data, []byte("second-payload"))
	require.Positive(t, idx)
	data[idx] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = recordlog.Open(context.Background(), options(dir))
	assert.ErrorIs(t, err, domain.ErrCorrupted)
	assert.NotNil(t, logerrors.AsLogError(err))
}

func TestSharedSegmentKeptUntilEveryQueueTruncated(t *testing.T) {
	dir := t.TempDir()
	l := open(t, smallSegments(dir))

	payload := bytes.Repeat([]byte{'p'}, 100)
	require.NoError(t, l.CreateQueue("x"))
	require.NoError(t, l.CreateQueue("y"))

	// x and y interleave in segment 0, y alone continues in later segments.
	for range 2 {
		_, err := l.AppendRecord("x", payload)
		require.NoError(t, err)
		_, err = l.AppendRecord("y", payload)
		require.NoError(t, err)
	}
	for range 6 {
		_, err := l.AppendRecord("y", payload)
		require.NoError(t, err)
	}
	require.Greater(t, len(l.SegmentIDs()), 2)
	require.Equal(t, uint64(0), l.SegmentIDs()[0])

	require.NoError(t, l.Truncate("x", 1))
	assert.Contains(t, l.SegmentIDs(), uint64(0), "y still has records in segment 0")
	assert.FileExists(t, segmentPath(dir, 0))

	require.NoError(t, l.Truncate("y", 1))
	assert.NotContains(t, l.SegmentIDs(), uint64(0))
	assert.NoFileExists(t, segmentPath(dir, 0))

	wantSummary := l.Summary()
	wantY := entries(t, l, "y", domain.RangeAll())
	require.NoError(t, l.Close())

	// The queues survive the deletion of the segment that created them.
	reopened := open(t, smallSegments(dir))
	defer reopened.Close()
	assert.Equal(t, wantSummary, reopened.Summary())
	assert.Equal(t, wantY, entries(t, reopened, "y", domain.RangeAll()))

	pos, err := reopened.AppendRecord("x", payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pos)
}

func TestDeleteQueueReclaimsSegmentsAndAllowsNameReuse(t *testing.T) {
	dir := t.TempDir()
	l := open(t, smallSegments(dir))

	require.NoError(t, l.CreateQueue("a"))
	for range 10 {
		_, err := l.AppendRecord("a", bytes.Repeat([]byte{'a'}, 100))
		require.NoError(t, err)
	}
	require.Greater(t, len(l.SegmentIDs()), 1)

	require.NoError(t, l.DeleteQueue("a"))
	assert.Len(t, l.SegmentIDs(), 1)
	require.NoError(t, l.Close())

	reopened := open(t, smallSegments(dir))
	defer reopened.Close()
	assert.False(t, reopened.QueueExists("a"))

	require.NoError(t, reopened.CreateQueue("a"))
	pos, err := reopened.AppendRecord("a", []byte("fresh"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pos)
}

func TestOpenReclaimsSegmentsLeftBehindByACrash(t *testing.T) {
	dir := t.TempDir()
	l := open(t, smallSegments(dir))

	require.NoError(t, l.CreateQueue("q"))
	for range 10 {
		_, err := l.AppendRecord("q", bytes.Repeat([]byte{'q'}, 100))
		require.NoError(t, err)
	}
	require.Greater(t, len(l.SegmentIDs()), 2)

	saved := map[uint64][]byte{}
	for _, id := range l.SegmentIDs() {
		data, err := os.ReadFile(segmentPath(dir, id))
		require.NoError(t, err)
		saved[id] = data
	}

	require.NoError(t, l.Truncate("q", 5))
	kept := l.SegmentIDs()
	require.NotContains(t, kept, uint64(0))
	wantSummary := l.Summary()
	wantEntries := entries(t, l, "q", domain.RangeAll())
	require.NoError(t, l.Close())

	// Put the deleted files back, as if the process died before removing them.
	var restored []uint64
	for id, data := range saved {
		if !slices.Contains(kept, id) {
			require.NoError(t, os.WriteFile(segmentPath(dir, id), data, 0644))
			restored = append(restored, id)
		}
	}
	require.NotEmpty(t, restored)

	reopened := open(t, smallSegments(dir))
	defer reopened.Close()
	for _, id := range restored {
		assert.NotContains(t, reopened.SegmentIDs(), id)
		assert.NoFileExists(t, segmentPath(dir, id))
	}
	assert.Equal(t, wantSummary, reopened.Summary())
	assert.Equal(t, wantEntries, entries(t, reopened, "q", domain.RangeAll()))
}

func TestCompressedPayloadsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	opts := func() *domain.LogOptions {
		o := options(dir)
		o.CompressionOptions = &domain.CompressionOptions{Enable: true}
		return o
	}

	payload := bytes.Repeat([]byte("compressible "), 1000)
	l := open(t, opts())
	require.NoError(t, l.CreateQueue("q"))
	_, err := l.AppendRecord("q", payload)
	require.NoError(t, err)
	assert.Less(t, l.OnDiskSize(), int64(len(payload)))
	require.NoError(t, l.Close())

	// Turning compression off keeps compressed frames readable.
	reopened := open(t, options(dir))
	defer reopened.Close()
	assert.Equal(t, []entry{{0, string(payload)}}, entries(t, reopened, "q", domain.RangeAll()))
}

func TestPersistNeverIsDurableAfterClose(t *testing.T) {
	dir := t.TempDir()
	opts := func() *domain.LogOptions {
		o := options(dir)
		o.PersistPolicy = &domain.PersistPolicy{Mode: domain.PersistNever}
		return o
	}

	l := open(t, opts())
	require.NoError(t, l.CreateQueue("q"))
	_, err := l.AppendRecord("q", []byte("buffered"))
	require.NoError(t, err)
	require.NoError(t, l.Sync())
	require.NoError(t, l.Close())

	reopened := open(t, opts())
	defer reopened.Close()
	assert.Equal(t, []entry{{0, "buffered"}}, entries(t, reopened, "q", domain.RangeAll()))
}

func TestPersistOnDelayFlushesInBackground(t *testing.T) {
	dir := t.TempDir()
	opts := options(dir)
	opts.PersistPolicy = &domain.PersistPolicy{
		Mode:     domain.PersistOnDelay,
		Action:   domain.ActionFlush,
		Interval: 20 * time.Millisecond,
	}

	l := open(t, opts)
	defer l.Close()

	require.NoError(t, l.CreateQueue("q"))
	_, err := l.AppendRecord("q", []byte("eventually on disk"))
	require.NoError(t, err)

	path := segmentPath(dir, l.SegmentIDs()[0])
	assert.Eventually(t, func() bool {
		info, err := os.Stat(path)
		return err == nil && info.Size() == l.OnDiskSize()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPartialPersistPolicyDefaultsToFsync(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := options(t.TempDir())
	opts.EnableMetrics = true
	opts.MetricsRegisterer = reg
	opts.PersistPolicy = &domain.PersistPolicy{Mode: domain.PersistAlways}

	l := open(t, opts)
	defer l.Close()
	assert.Equal(t, domain.ActionFlushAndFsync, opts.PersistPolicy.Action)

	require.NoError(t, l.CreateQueue("q"))
	before := gather(t, reg)["mrecordlog_fsyncs_total"]
	_, err := l.AppendRecord("q", []byte("durable"))
	require.NoError(t, err)
	assert.Equal(t, before+1, gather(t, reg)["mrecordlog_fsyncs_total"])
}

func TestClosedLogRejectsOperations(t *testing.T) {
	l := open(t, options(t.TempDir()))
	require.NoError(t, l.CreateQueue("q"))
	require.NoError(t, l.Close())

	assert.Equal(t, domain.StateClosed, l.State())
	assert.ErrorIs(t, l.Close(), domain.ErrClosed)
	assert.ErrorIs(t, l.CreateQueue("r"), domain.ErrClosed)
	_, err := l.AppendRecord("q", []byte("late"))
	assert.ErrorIs(t, err, domain.ErrClosed)
	_, err = l.Range("q", domain.RangeAll())
	assert.ErrorIs(t, err, domain.ErrClosed)
	assert.ErrorIs(t, l.Sync(), domain.ErrClosed)
}

func TestOpenRejectsInvalidOptions(t *testing.T) {
	opts := options(t.TempDir())
	opts.BufferSize = 5000
	_, err := recordlog.Open(context.Background(), opts)
	assert.True(t, logerrors.IsValidationError(err))

	opts = options(t.TempDir())
	opts.PersistPolicy = &domain.PersistPolicy{Mode: domain.PersistOnDelay, Interval: time.Millisecond}
	_, err = recordlog.Open(context.Background(), opts)
	assert.True(t, logerrors.IsValidationError(err))

	opts = options(t.TempDir())
	opts.ChecksumOptions = &domain.ChecksumOptions{Algorithm: "md5"}
	_, err = recordlog.Open(context.Background(), opts)
	assert.True(t, logerrors.IsValidationError(err))
}

func TestChecksumAlgorithmCanChangeBetweenOpens(t *testing.T) {
	dir := t.TempDir()
	first := options(dir)
	first.ChecksumOptions = &domain.ChecksumOptions{Algorithm: "sha256"}

	l := open(t, first)
	require.NoError(t, l.CreateQueue("q"))
	_, err := l.AppendRecord("q", []byte("sha"))
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// The old segment keeps its algorithm, new frames go to a new segment.
	reopened := open(t, options(dir))
	assert.Equal(t, []uint64{0, 1}, reopened.SegmentIDs())
	_, err = reopened.AppendRecord("q", []byte("crc"))
	require.NoError(t, err)
	require.NoError(t, reopened.Close())

	again := open(t, options(dir))
	defer again.Close()
	assert.Equal(t, []entry{{0, "sha"}, {1, "crc"}}, entries(t, again, "q", domain.RangeAll()))
}

func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	values := map[string]float64{}
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		m := family.GetMetric()[0]
		switch family.GetType() {
		case dto.MetricType_COUNTER:
			values[family.GetName()] = m.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			values[family.GetName()] = m.GetGauge().GetValue()
		}
	}
	return values
}

func TestMetricsAreExported(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := options(t.TempDir())
	opts.EnableMetrics = true
	opts.MetricsRegisterer = reg

	l := open(t, opts)
	defer l.Close()

	require.NoError(t, l.CreateQueue("q"))
	_, err := l.AppendRecords("q", []byte("ab"), []byte("cd"))
	require.NoError(t, err)
	require.NoError(t, l.Truncate("q", 0))

	values := gather(t, reg)
	assert.Equal(t, 2.0, values["mrecordlog_records_appended_total"])
	assert.Equal(t, 4.0, values["mrecordlog_bytes_appended_total"])
	assert.Equal(t, 1.0, values["mrecordlog_truncates_total"])
	assert.Equal(t, 1.0, values["mrecordlog_queues"])
	assert.Equal(t, 2.0, values["mrecordlog_in_memory_bytes"])
	assert.Equal(t, float64(l.OnDiskSize()), values["mrecordlog_on_disk_bytes"])
	assert.GreaterOrEqual(t, values["mrecordlog_fsyncs_total"], 3.0)
}

func TestReadersNeverSeePartialBatches(t *testing.T) {
	opts := options(t.TempDir())
	opts.PersistPolicy = &domain.PersistPolicy{Mode: domain.PersistNever}
	l := open(t, opts)
	defer l.Close()

	require.NoError(t, l.CreateQueue("q"))

	done := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				seq, err := l.Range("q", domain.RangeAll())
				if err != nil {
					t.Error(err)
					return
				}
				count := 0
				for range seq {
					count++
				}
				if count%2 != 0 {
					t.Errorf("observed %d records, batches hold 2", count)
					return
				}
			}
		}()
	}

	for range 200 {
		_, err := l.AppendRecords("q", []byte("left"), []byte("right"))
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()

	next, err := l.NextPosition("q")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), next)
}
