package postings

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/docid"
)

func TestAddFoldsRepeatedOccurrencesIntoOneBlock(t *testing.T) {
	p := NewPosting(FeatureFrequency | FeaturePosition)
	p.Add(1, 1, 0, 0, nil)
	p.Add(1, 1, 0, 0, nil)
	p.Add(1, 1, 0, 0, nil)
	p.Add(2, 1, 0, 0, nil)
	p.Finalize()

	entries := p.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, docid.ID(1), entries[0].DocID)
	require.EqualValues(t, 3, entries[0].Freq)
	require.Equal(t, []uint32{0, 1, 2}, entries[0].Positions)
	require.Equal(t, docid.ID(2), entries[1].DocID)
	require.EqualValues(t, 1, entries[1].Freq)
	require.EqualValues(t, 2, p.DocFreq())
}

func TestFinalizeIsIdempotent(t *testing.T) {
	p := NewPosting(FeatureFrequency)
	p.Add(1, 1, 0, 0, nil)
	p.Finalize()
	p.Finalize()
	require.Len(t, p.Entries(), 1)
}

func TestWriteToRoundTripsDocIDsAndFrequencies(t *testing.T) {
	p := NewPosting(FeatureFrequency | FeaturePosition)
	docs := []docid.ID{1, 2, 5, 6, 7, 20, 21}
	for _, d := range docs {
		for i := 0; i < int(d%3)+1; i++ {
			p.Add(d, 1, 0, 0, nil)
		}
	}
	p.Finalize()

	var buf bytes.Buffer
	cw := codec.NewWriter(&buf)
	trailer, err := p.WriteTo(cw, 4, 4, 4)
	require.NoError(t, err)
	require.NotEmpty(t, trailer)

	cr := codec.NewReader(&buf)
	var prevDoc docid.ID
	for _, wantDoc := range docs {
		delta, err := cr.ReadVarlong()
		require.NoError(t, err)
		doc := prevDoc + docid.ID(delta)
		require.Equal(t, wantDoc, doc)
		prevDoc = doc

		freq, err := cr.ReadVarint()
		require.NoError(t, err)
		for i := uint32(0); i < freq; i++ {
			_, err := cr.ReadVarint()
			require.NoError(t, err)
		}
	}
}

func TestWriteToSkipsTrailerWhenBelowThreshold(t *testing.T) {
	p := NewPosting(FeatureFrequency)
	p.Add(1, 1, 0, 0, nil)
	p.Finalize()

	var buf bytes.Buffer
	cw := codec.NewWriter(&buf)
	trailer, err := p.WriteTo(cw, 128, 8, 10)
	require.NoError(t, err)
	// NumLevels is 0 below the skip0 threshold, so Flush writes a lone
	// varint(0) level count and nothing else.
	require.Equal(t, []byte{0}, trailer)
}
