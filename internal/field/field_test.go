package field

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vex/internal/docid"
	"github.com/vexsearch/vex/internal/postings"
)

func TestUpdateCreatesAndAccumulatesTerms(t *testing.T) {
	d := New(Spec{Name: "body", Indexed: true, Features: postings.FeatureFrequency})

	require.NoError(t, d.Update(1, []byte("fox"), 1, 0, 3, nil))
	require.NoError(t, d.Update(1, []byte("fox"), 1, 0, 3, nil))
	require.NoError(t, d.Update(2, []byte("fox"), 1, 0, 3, nil))
	require.NoError(t, d.Update(2, []byte("dog"), 1, 0, 3, nil))

	require.Equal(t, []string{"dog", "fox"}, d.Terms())

	fox := d.Posting("fox")
	fox.Finalize()
	require.EqualValues(t, 2, fox.DocFreq())
	require.Equal(t, docid.ID(1), fox.FirstDoc())
}

func TestUpdateRejectsNonMonotonicDocID(t *testing.T) {
	d := New(Spec{Name: "body", Indexed: true})
	require.NoError(t, d.Update(5, []byte("x"), 1, 0, 1, nil))
	err := d.Update(3, []byte("x"), 1, 0, 1, nil)
	require.Error(t, err)
}

func TestUpdateAfterCloseFails(t *testing.T) {
	d := New(Spec{Name: "body", Indexed: true})
	d.Close()
	err := d.Update(1, []byte("x"), 1, 0, 1, nil)
	require.ErrorIs(t, err, ErrClosed)
}

func TestTermsOrderingIsByteLexicographic(t *testing.T) {
	d := New(Spec{Name: "f"})
	for _, term := range []string{"zeta", "alpha", "Beta", "beta"} {
		require.NoError(t, d.Update(1, []byte(term), 1, 0, 0, nil))
	}
	got := d.Terms()
	want := []string{"Beta", "alpha", "beta", "zeta"}
	require.Equal(t, want, got)
}
