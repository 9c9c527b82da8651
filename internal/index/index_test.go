package index

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vex/internal/consolidate"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/internal/segment"
	"github.com/vexsearch/vex/internal/segmeta"
	"github.com/vexsearch/vex/internal/segreader"
	"github.com/vexsearch/vex/pkg/segfile"
)

type bodyAttr struct{ value string }

func (a bodyAttr) Name() string                { return "title" }
func (a bodyAttr) Serialize() ([]byte, error) { return []byte(a.value), nil }

func testConfig(dir directory.Directory) Config {
	return Config{
		Dir: dir,
		Fields: []segment.FieldSchema{
			{Name: "body", Features: postings.FeatureFrequency | postings.FeaturePosition, AnalyzerType: "standard"},
		},
		Skip:                  segment.SkipParams{Skip0: 2, SkipN: 2, MaxLevels: 4},
		SegmentPoolSize:       2,
		CommitPeriod:          time.Hour,
		ConsolidationInterval: time.Hour,
	}
}

func TestDocumentsLeasesAndReturnsPoolWriters(t *testing.T) {
	dir := directory.NewMemory()
	w, err := New(testConfig(dir))
	require.NoError(t, err)
	defer w.Close()

	sess, err := w.Documents()
	require.NoError(t, err)
	ok := sess.Insert([]segment.FieldValue{{Name: "body", Value: []byte("hello world")}}, []segment.Attribute{bodyAttr{"hello world"}})
	require.True(t, ok)
	sess.Close()

	// The pool has exactly SegmentPoolSize (2) slots; leasing both of them
	// without the first session's writer having been returned would block
	// forever, so this also proves Close() actually returned the writer.
	sess2, err := w.Documents()
	require.NoError(t, err)
	sess3, err := w.Documents()
	require.NoError(t, err)
	sess2.Close()
	sess3.Close()
}

func TestCommitProducesReadableSegment(t *testing.T) {
	dir := directory.NewMemory()
	w, err := New(testConfig(dir))
	require.NoError(t, err)
	defer w.Close()

	sess, err := w.Documents()
	require.NoError(t, err)
	require.True(t, sess.Insert([]segment.FieldValue{{Name: "body", Value: []byte("the quick fox")}}, []segment.Attribute{bodyAttr{"the quick fox"}}))
	sess.Close()

	require.NoError(t, w.Commit())

	w.mu.Lock()
	segs := append([]segmeta.Segment(nil), w.manifest.Segments...)
	w.mu.Unlock()
	require.Len(t, segs, 1)

	r, err := segreader.Open(dir, segs[0])
	require.NoError(t, err)
	defer r.Close()
	require.EqualValues(t, 1, r.DocCount())
}

func TestCommitIsNoopWithoutDocuments(t *testing.T) {
	dir := directory.NewMemory()
	w, err := New(testConfig(dir))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Commit())
	w.mu.Lock()
	n := len(w.manifest.Segments)
	w.mu.Unlock()
	require.Zero(t, n)
}

func TestPublishManifestLeavesNoTempFileAndIsReadableAfterRename(t *testing.T) {
	dir := directory.NewMemory()
	w, err := New(testConfig(dir))
	require.NoError(t, err)
	defer w.Close()

	sess, err := w.Documents()
	require.NoError(t, err)
	require.True(t, sess.Insert([]segment.FieldValue{{Name: "body", Value: []byte("the quick fox")}}, []segment.Attribute{bodyAttr{"the quick fox"}}))
	sess.Close()
	require.NoError(t, w.Commit())

	names, err := dir.List()
	require.NoError(t, err)
	for _, n := range names {
		require.False(t, strings.HasSuffix(n, ".tmp"), "temp manifest file %q was not renamed away", n)
	}

	gen, name, found, err := segfile.Latest(dir, "manifest", "manifest")
	require.NoError(t, err)
	require.True(t, found)

	in, err := dir.Open(name)
	require.NoError(t, err)
	defer in.Close()
	m, err := segmeta.Read(in)
	require.NoError(t, err)
	require.Equal(t, gen, m.Generation)
	require.Len(t, m.Segments, 1)
}

func TestConsolidationMergesCommittedSegments(t *testing.T) {
	dir := directory.NewMemory()
	cfg := testConfig(dir)
	cfg.ConsolidationPolicy = consolidate.ConsolidateAllPolicy
	w, err := New(cfg)
	require.NoError(t, err)
	defer w.Close()

	for _, doc := range []string{"the quick fox", "the lazy dog"} {
		sess, err := w.Documents()
		require.NoError(t, err)
		require.True(t, sess.Insert([]segment.FieldValue{{Name: "body", Value: []byte(doc)}}, []segment.Attribute{bodyAttr{doc}}))
		sess.Close()
		require.NoError(t, w.Commit())
	}

	w.runConsolidation()
	// consolidateGroup runs in its own goroutine; give it a moment to
	// publish the merged manifest before checking state.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w.mu.Lock()
		n := len(w.manifest.Segments)
		w.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	w.mu.Lock()
	segs := len(w.manifest.Segments)
	w.mu.Unlock()
	require.Equal(t, 1, segs)
}
