package column

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/docid"
)

func flush(t *testing.T, w *Writer) (values, index []byte) {
	t.Helper()
	var vb, ib bytes.Buffer
	require.NoError(t, w.Flush(codec.NewWriter(&vb), codec.NewWriter(&ib)))
	return vb.Bytes(), ib.Bytes()
}

type fakeInput struct {
	*bytes.Reader
	name string
}

func (f *fakeInput) Close() error                            { return nil }
func (f *fakeInput) Dup() (directory.InputStream, error)      { return newFakeInput(f.name, nil), nil }
func (f *fakeInput) Length() (int64, error)                   { return f.Size(), nil }
func (f *fakeInput) Name() string                             { return f.name }
func (f *fakeInput) ReadAt(p []byte, off int64) (int, error)  { return f.Reader.ReadAt(p, off) }

func newFakeInput(name string, data []byte) *fakeInput {
	return &fakeInput{Reader: bytes.NewReader(data), name: name}
}

func TestWriterRejectsNonMonotonicDocID(t *testing.T) {
	w := NewWriter(false)
	require.NoError(t, w.Add(5, []byte("a")))
	require.ErrorIs(t, w.Add(5, []byte("b")), ErrNonMonotonicDocID)
	require.ErrorIs(t, w.Add(3, []byte("b")), ErrNonMonotonicDocID)
}

func TestRoundTripUncompressed(t *testing.T) {
	w := NewWriter(false)
	for i := docid.ID(1); i <= 100; i++ {
		require.NoError(t, w.Add(i, []byte{byte(i), byte(i), byte(i)}))
	}
	values, index := flush(t, w)

	r, err := OpenReader(newFakeInput("values", values), newFakeInput("index", index), false)
	require.NoError(t, err)

	for i := docid.ID(1); i <= 100; i++ {
		got, found, err := r.Get(i)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, []byte{byte(i), byte(i), byte(i)}, got)
	}

	_, found, err := r.Get(200)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRoundTripCompressed(t *testing.T) {
	w := NewWriter(true)
	payload := bytes.Repeat([]byte("the quick brown fox "), 20)
	require.NoError(t, w.Add(1, payload))
	require.NoError(t, w.Add(2, []byte("short")))
	values, index := flush(t, w)

	r, err := OpenReader(newFakeInput("values", values), newFakeInput("index", index), true)
	require.NoError(t, err)
	defer r.Close()

	got, found, err := r.Get(1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, payload, got)

	got, found, err = r.Get(2)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("short"), got)
}

func TestGetReportsAbsenceForSparseGaps(t *testing.T) {
	w := NewWriter(false)
	require.NoError(t, w.Add(1, []byte("a")))
	require.NoError(t, w.Add(10, []byte("b")))
	values, index := flush(t, w)

	r, err := OpenReader(newFakeInput("values", values), newFakeInput("index", index), false)
	require.NoError(t, err)

	_, found, err := r.Get(5)
	require.NoError(t, err)
	require.False(t, found)
}
