package vex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/internal/segment"
	"github.com/vexsearch/vex/pkg/options"
)

type titleAttr struct{ value string }

func (a titleAttr) Name() string                { return "title" }
func (a titleAttr) Serialize() ([]byte, error) { return []byte(a.value), nil }

func TestOpenInsertCommitCloseRoundTrip(t *testing.T) {
	dir := directory.NewMemory()
	schema := Schema{Fields: []segment.FieldSchema{
		{Name: "body", Features: postings.FeatureFrequency | postings.FeaturePosition, AnalyzerType: "standard"},
	}}

	inst, err := Open(dir, "test", schema,
		options.WithSegmentPoolSize(2),
		options.WithCommitPeriod(time.Hour),
		options.WithConsolidationInterval(time.Hour),
	)
	require.NoError(t, err)
	defer inst.Close()

	sess, err := inst.Documents()
	require.NoError(t, err)
	ok := sess.Insert(
		[]segment.FieldValue{{Name: "body", Value: []byte("the quick fox")}},
		[]segment.Attribute{titleAttr{"the quick fox"}},
	)
	require.True(t, ok)
	sess.Done()

	require.NoError(t, inst.Commit())
	require.False(t, inst.IsFatal())
}
