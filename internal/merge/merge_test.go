package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vex/internal/colreader"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/docid"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/internal/segment"
	"github.com/vexsearch/vex/internal/segreader"
)

type titleAttr struct{ value string }

func (a titleAttr) Name() string                 { return "title" }
func (a titleAttr) Serialize() ([]byte, error) { return []byte(a.value), nil }

type failingAttr struct{}

func (failingAttr) Name() string                 { return "title" }
func (failingAttr) Serialize() ([]byte, error) { return nil, errors.New("serialize failed") }

func buildSegment(t *testing.T, dir directory.Directory, name string, docs []string) *segment.Writer {
	t.Helper()
	w := segment.New(name, segment.Config{
		Dir: dir,
		Fields: []segment.FieldSchema{
			{Name: "body", Features: postings.FeatureFrequency | postings.FeaturePosition, AnalyzerType: "standard"},
		},
		Skip: segment.SkipParams{Skip0: 2, SkipN: 2, MaxLevels: 4},
	})
	for _, d := range docs {
		ok := w.Insert([]segment.FieldValue{{Name: "body", Value: []byte(d)}}, []segment.Attribute{titleAttr{value: d}}, segment.UpdateContext{})
		require.True(t, ok)
	}
	return w
}

func TestMergeDropsMaskedDocumentsAndRemapsIDs(t *testing.T) {
	dir := directory.NewMemory()

	w1 := buildSegment(t, dir, "seg_0001", []string{"the quick fox", "the lazy dog"})
	// Doc 3 of seg_0001 fails its attribute and is masked; its "quick"
	// posting must not survive the merge.
	require.False(t, w1.Insert([]segment.FieldValue{{Name: "body", Value: []byte("quick masked")}}, []segment.Attribute{failingAttr{}}, segment.UpdateContext{}))
	ok, meta1, err := w1.Flush()
	require.NoError(t, err)
	require.True(t, ok)

	w2 := buildSegment(t, dir, "seg_0002", []string{"quick rabbits run", "the dog barks"})
	ok, meta2, err := w2.Flush()
	require.NoError(t, err)
	require.True(t, ok)

	r1, err := segreader.Open(dir, meta1)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := segreader.Open(dir, meta2)
	require.NoError(t, err)
	defer r2.Close()

	c1, err := colreader.Open(dir, meta1)
	require.NoError(t, err)
	defer c1.Close()
	c2, err := colreader.Open(dir, meta2)
	require.NoError(t, err)
	defer c2.Close()

	ok, merged, err := Merge(
		[]*segreader.Reader{r1, r2},
		[]*colreader.Reader{c1, c2},
		"seg_merged",
		Config{Dir: dir, Skip: SkipParams{Skip0: 2, SkipN: 2, MaxLevels: 4}},
	)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 4, merged.DocCount)

	mr, err := segreader.Open(dir, merged)
	require.NoError(t, err)
	defer mr.Close()

	require.EqualValues(t, 4, mr.DocCount())
	for id := docid.Min; uint32(id) <= mr.DocCount(); id++ {
		require.True(t, mr.IsLive(id))
	}

	features, ok := mr.Features("body")
	require.True(t, ok)

	it := mr.Terms("body")
	require.NotNil(t, it)
	var quickDocs []docid.ID
	for it.Next() {
		if string(it.Term()) == "quick" {
			cur := it.Postings(features)
			for {
				entry, ok, err := cur.Next()
				require.NoError(t, err)
				if !ok {
					break
				}
				quickDocs = append(quickDocs, entry.DocID)
			}
		}
	}
	require.Equal(t, []docid.ID{docid.Min, docid.Min + 2}, quickDocs)

	mc, err := colreader.Open(dir, merged)
	require.NoError(t, err)
	defer mc.Close()
	cr, found, err := mc.Column("title", false)
	require.NoError(t, err)
	require.True(t, found)
	val, found, err := cr.Get(docid.Min)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "the quick fox", string(val))
}

func TestMergeReturnsFalseWhenNoDocuments(t *testing.T) {
	dir := directory.NewMemory()
	ok, _, err := Merge(nil, nil, "seg_empty", Config{Dir: dir})
	require.NoError(t, err)
	require.False(t, ok)
}
