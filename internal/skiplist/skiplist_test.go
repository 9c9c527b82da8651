package skiplist

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/directory"
)

// buildSkipList writes a skip list over docCount postings, recording doc_id
// n (1-based) as the payload at every skip point, and returns the encoded
// trailer bytes alongside the doc_id recorded at each (level, skip-call)
// combination for later verification.
func buildSkipList(t *testing.T, skip0, skipN, maxLevels, docCount int) ([]byte, map[[2]int]uint32) {
	t.Helper()

	w := NewWriter(skip0, skipN)
	w.Prepare(maxLevels, docCount)

	recorded := make(map[[2]int]uint32)
	calls := 0
	for doc := 1; doc <= docCount; doc++ {
		if doc%skip0 != 0 {
			continue
		}
		calls++
		n := doc
		err := w.Skip(n, func(level int, cw *codec.Writer) error {
			recorded[[2]int{level, n}] = uint32(doc)
			return cw.WriteVarint(uint32(doc))
		})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	cw := codec.NewWriter(&buf)
	require.NoError(t, w.Flush(cw))
	return buf.Bytes(), recorded
}

func TestWriterFlushTrimsEmptyTailLevels(t *testing.T) {
	// 200 docs, skip0=8, skipN=8: level 0 triggers every 8 docs (25 times),
	// level 1 every 64 docs (3 times), level 2 every 512 docs (never: 200 < 512).
	data, _ := buildSkipList(t, 8, 8, 10, 200)
	require.NotEmpty(t, data)

	dir := directory.NewMemory()
	out, err := dir.Create("terms.post")
	require.NoError(t, err)
	_, err = out.Write(data)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	in, err := dir.Open("terms.post")
	require.NoError(t, err)
	defer in.Close()

	r := NewReader(8, 8)
	require.NoError(t, r.Prepare(in))
	require.Equal(t, 2, r.NumLevels())
}

func TestWriterNoLevelsBelowThreshold(t *testing.T) {
	// count <= skip0 means no acceleration structure at all.
	data, _ := buildSkipList(t, 128, 8, 10, 100)

	dir := directory.NewMemory()
	out, err := dir.Create("terms.post")
	require.NoError(t, err)
	_, err = out.Write(data)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	in, err := dir.Open("terms.post")
	require.NoError(t, err)
	defer in.Close()

	r := NewReader(128, 8)
	require.NoError(t, r.Prepare(in))
	require.Equal(t, 0, r.NumLevels())
}

func TestReaderTraversalDescendsThroughChildPointers(t *testing.T) {
	const skip0, skipN, maxLevels, docCount = 8, 8, 10, 200
	data, recorded := buildSkipList(t, skip0, skipN, maxLevels, docCount)

	dir := directory.NewMemory()
	out, err := dir.Create("terms.post")
	require.NoError(t, err)
	_, err = out.Write(data)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	in, err := dir.Open("terms.post")
	require.NoError(t, err)
	defer in.Close()

	r := NewReader(skip0, skipN)
	require.NoError(t, r.Prepare(in))
	require.Equal(t, 2, r.NumLevels())

	top := r.NumLevels() - 1
	lv := r.Level(top)

	// Every skip-point on the top level must be reachable by scanning its
	// stream forward: read the payload doc_id, then the trailing child
	// pointer, verifying monotonic doc_id order (invariant 6).
	var lastDoc uint32
	firstChild := int64(-1)
	for {
		cr := codec.NewReader(lv.stream)
		doc, err := cr.ReadVarint()
		if err != nil {
			break
		}
		require.Greater(t, doc, lastDoc)
		lastDoc = doc

		child, err := cr.ReadVarlong() // child offset into level 0
		require.NoError(t, err)
		if firstChild < 0 {
			firstChild = int64(child)
		}

		pos, serr := lv.stream.Seek(0, 1)
		require.NoError(t, serr)
		if pos >= lv.end {
			break
		}
	}
	require.EqualValues(t, (docCount/(skip0*skipN))*skip0*skipN, lastDoc)

	// Descending through the first top-level entry's child pointer, SeekSkip
	// on level 0 must land exactly on the doc_id recorded at that skip point.
	require.NoError(t, r.Reset())
	require.NoError(t, r.SeekSkip(0, uint64(firstChild), skip0*skipN))
	l0 := r.Level(0)
	cr := codec.NewReader(l0.stream)
	doc, err := cr.ReadVarint()
	require.NoError(t, err)
	require.Equal(t, recorded[[2]int{0, skip0 * skipN}], doc)
}

func TestSeekSkipIsIdempotentOnceConverged(t *testing.T) {
	const skip0, skipN, maxLevels, docCount = 8, 8, 10, 200
	data, _ := buildSkipList(t, skip0, skipN, maxLevels, docCount)

	dir := directory.NewMemory()
	out, err := dir.Create("terms.post")
	require.NoError(t, err)
	_, err = out.Write(data)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	in, err := dir.Open("terms.post")
	require.NoError(t, err)
	defer in.Close()

	r := NewReader(skip0, skipN)
	require.NoError(t, r.Prepare(in))

	// The first level-0 doc_id (8) encodes as a 1-byte varint, so ptr=1
	// lands on the second level-0 entry.
	require.NoError(t, r.SeekSkip(0, 1, 1))
	first, err := r.Level(0).stream.Seek(0, 1)
	require.NoError(t, err)

	// Re-seeking to the same or an earlier point is a no-op.
	require.NoError(t, r.SeekSkip(0, 1, 2))
	second, err := r.Level(0).stream.Seek(0, 1)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, r.Level(0).Skipped())
}

func TestFlushRejectsZeroLengthIntermediateLevel(t *testing.T) {
	w := NewWriter(8, 8)
	w.Prepare(3, 1000) // three levels reserved
	// Only ever notify level 0, so levels 1 and 2 stay empty while level 0
	// does not: Flush must trim the empty top levels, not error, because
	// the empty levels are a contiguous trailing run. Forcing a genuine gap
	// requires writing level 2 directly without level 1 via the low-level API.
	require.NoError(t, w.Skip(8, func(level int, cw *codec.Writer) error {
		return cw.WriteVarint(1)
	}))

	var buf bytes.Buffer
	cw := codec.NewWriter(&buf)
	require.NoError(t, w.Flush(cw))

	// Manufacture a genuine gap: level 2 written, level 1 left empty.
	gapped := NewWriter(8, 8)
	gapped.Prepare(3, 1000)
	gapped.levels[0].w.WriteVarint(1)
	gapped.levels[2].w.WriteVarint(1)

	var gapBuf bytes.Buffer
	gcw := codec.NewWriter(&gapBuf)
	err := gapped.Flush(gcw)
	require.Error(t, err)
}
