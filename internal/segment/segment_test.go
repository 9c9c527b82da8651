package segment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/docid"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/internal/segreader"
)

func testConfig(dir directory.Directory) Config {
	return Config{
		Dir: dir,
		Fields: []FieldSchema{
			{Name: "body", Features: postings.FeatureFrequency | postings.FeaturePosition, AnalyzerType: "standard"},
			{Name: "tag", Features: postings.FeatureFrequency, AnalyzerType: "keyword"},
		},
		ColumnCompress: true,
		Skip:           SkipParams{Skip0: 2, SkipN: 2, MaxLevels: 4},
	}
}

type stringAttr struct {
	name, value string
}

func (a stringAttr) Name() string { return a.name }
func (a stringAttr) Serialize() ([]byte, error) {
	return []byte(a.value), nil
}

type failingAttr struct{ name string }

func (a failingAttr) Name() string                 { return a.name }
func (a failingAttr) Serialize() ([]byte, error) { return nil, errors.New("boom") }

func TestInsertAssignsAscendingDocIDs(t *testing.T) {
	w := New("seg_0001", testConfig(directory.NewMemory()))

	ok1 := w.Insert([]FieldValue{{Name: "body", Value: []byte("the quick fox")}}, nil, UpdateContext{})
	ok2 := w.Insert([]FieldValue{{Name: "body", Value: []byte("the lazy dog")}}, nil, UpdateContext{})

	require.True(t, ok1)
	require.True(t, ok2)
	require.EqualValues(t, 2, w.DocsCached())
}

func TestInsertMasksDocumentOnAttributeFailure(t *testing.T) {
	w := New("seg_0001", testConfig(directory.NewMemory()))

	ok := w.Insert(
		[]FieldValue{{Name: "body", Value: []byte("hello world")}},
		[]Attribute{failingAttr{name: "title"}},
		UpdateContext{Generation: 1, UpdateID: 5},
	)
	require.False(t, ok)

	ctxs := w.UpdateContexts()
	require.Len(t, ctxs, 1)
	for _, ctx := range ctxs {
		require.Equal(t, UpdateContext{Generation: 1, UpdateID: 5}, ctx)
	}
}

func TestFlushNoDocumentsIsNoop(t *testing.T) {
	w := New("seg_empty", testConfig(directory.NewMemory()))
	ok, _, err := w.Flush()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFlushAndReopenRoundTripsPostings(t *testing.T) {
	dir := directory.NewMemory()
	w := New("seg_0001", testConfig(dir))

	docs := []string{
		"the quick brown fox",
		"the lazy dog sleeps",
		"quick dogs run fast",
	}
	for i, text := range docs {
		ok := w.Insert(
			[]FieldValue{{Name: "body", Value: []byte(text)}, {Name: "tag", Value: []byte("doc")}},
			[]Attribute{stringAttr{name: "title", value: text}},
			UpdateContext{Generation: 1, UpdateID: uint64(i)},
		)
		require.True(t, ok)
	}

	ok, meta, err := w.Flush()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "seg_0001", meta.Name)
	require.EqualValues(t, 3, meta.DocCount)
	require.Contains(t, meta.Files, "seg_0001.fld")
	require.Contains(t, meta.Files, "seg_0001.col")
	require.Contains(t, meta.Files, "seg_0001.mask")

	r, err := segreader.Open(dir, meta)
	require.NoError(t, err)
	defer r.Close()

	require.EqualValues(t, 3, r.DocCount())
	require.True(t, r.IsLive(docid.Min))
	require.True(t, r.IsLive(docid.Min+2))
	require.False(t, r.IsLive(docid.Min+3))

	features, ok := r.Features("body")
	require.True(t, ok)
	require.True(t, features.Has(postings.FeaturePosition))

	it := r.Terms("body")
	require.NotNil(t, it)

	found := false
	for it.Next() {
		if string(it.Term()) == "quick" {
			found = true
			require.EqualValues(t, 2, it.DocFreq())

			cur := it.Postings(features)
			entry, ok, err := cur.Next()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, docid.Min, entry.DocID)

			entry, ok, err = cur.Next()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, docid.Min+2, entry.DocID)

			_, ok, err = cur.Next()
			require.NoError(t, err)
			require.False(t, ok)
		}
	}
	require.True(t, found, "expected term %q in body field", "quick")
}

func TestResetClearsStateForReuse(t *testing.T) {
	w := New("seg_0001", testConfig(directory.NewMemory()))
	w.Insert([]FieldValue{{Name: "body", Value: []byte("hello")}}, nil, UpdateContext{})
	require.EqualValues(t, 1, w.DocsCached())

	w.Reset("seg_0002")
	require.Equal(t, "seg_0002", w.Name())
	require.EqualValues(t, 0, w.DocsCached())
	require.Empty(t, w.UpdateContexts())
}
