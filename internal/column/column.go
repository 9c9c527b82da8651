// Package column implements the stored-field column store (spec.md §4.D):
// a per-field writer that records (doc_id, blob) pairs in ascending
// doc_id order and flushes them to a value file plus a sparse
// doc_id->offset index, and a reader that bisects the index to recover a
// blob for a given doc_id. It is grounded in the teacher's internal/storage
// append-only segment-file discipline (sequential writes, length-prefixed
// records) generalized from a single global log to one column per stored
// field, with klauspost/compress/zstd wired in for optional per-blob
// compression the teacher's stack already depends on but never used.
package column

import (
	"errors"
	"io"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/docid"
)

// ErrNonMonotonicDocID is returned by Add when docID does not strictly
// exceed the previously added doc_id.
var ErrNonMonotonicDocID = errors.New("column: doc_id out of order")

type entry struct {
	docID docid.ID
	blob  []byte
}

// Writer accumulates one stored field's (doc_id, blob) pairs in memory
// until Flush.
type Writer struct {
	compressed bool
	entries    []entry
}

// NewWriter creates an empty column writer. When compressed is true, each
// blob is zstd-compressed independently at flush time so random-access
// reads never need to decompress more than one value.
func NewWriter(compressed bool) *Writer {
	return &Writer{compressed: compressed}
}

// Add records value for docID. docID must strictly exceed every doc_id
// added so far. value is copied; the caller's slice may be reused.
func (w *Writer) Add(docID docid.ID, value []byte) error {
	if len(w.entries) > 0 && docID <= w.entries[len(w.entries)-1].docID {
		return ErrNonMonotonicDocID
	}
	cp := append([]byte(nil), value...)
	w.entries = append(w.entries, entry{docID: docID, blob: cp})
	return nil
}

// Len reports how many (doc_id, blob) pairs have been added.
func (w *Writer) Len() int { return len(w.entries) }

// sparseStride is how many records separate consecutive sparse index
// entries; smaller values trade index size for fewer values-file bytes
// scanned per Get.
const sparseStride = 32

// Flush writes the value file to valuesOut and the sparse index to
// indexOut. Each value-file record is (doc_id varlong, length-prefixed
// blob); every sparseStride-th record's (doc_id, offset) is additionally
// recorded in the index.
func (w *Writer) Flush(valuesOut, indexOut *codec.Writer) error {
	var enc *zstd.Encoder
	if w.compressed && len(w.entries) > 0 {
		e, err := zstd.NewWriter(nil)
		if err != nil {
			return err
		}
		defer e.Close()
		enc = e
	}

	sparse := make([]sparseEntry, 0, len(w.entries)/sparseStride+1)

	for i, e := range w.entries {
		offset := valuesOut.Pos()
		if err := valuesOut.WriteVarlong(uint64(e.docID)); err != nil {
			return err
		}
		payload := e.blob
		if enc != nil {
			payload = enc.EncodeAll(e.blob, nil)
		}
		if err := valuesOut.WriteBytes(payload); err != nil {
			return err
		}
		if i%sparseStride == 0 {
			sparse = append(sparse, sparseEntry{docID: e.docID, offset: offset})
		}
	}

	if err := indexOut.WriteVarint(uint32(len(sparse))); err != nil {
		return err
	}
	var prevDoc docid.ID
	for _, s := range sparse {
		if err := indexOut.WriteVarlong(uint64(s.docID - prevDoc)); err != nil {
			return err
		}
		if err := indexOut.WriteVarlong(uint64(s.offset)); err != nil {
			return err
		}
		prevDoc = s.docID
	}
	return nil
}

type sparseEntry struct {
	docID  docid.ID
	offset int64
}

// Reader recovers stored values from a flushed column by bisecting the
// sparse index, then scanning the value file forward from the nearest
// indexed offset.
type Reader struct {
	values     directory.InputStream
	sparse     []sparseEntry
	compressed bool
	dec        *zstd.Decoder
}

// OpenReader loads index (fully, into memory: it is sparse by
// construction) and keeps values open for seeking.
func OpenReader(values, index directory.InputStream, compressed bool) (*Reader, error) {
	ir := codec.NewReader(index)
	count, err := ir.ReadVarint()
	if err != nil {
		return nil, err
	}
	sparse := make([]sparseEntry, count)
	var prevDoc docid.ID
	for i := range sparse {
		delta, err := ir.ReadVarlong()
		if err != nil {
			return nil, err
		}
		off, err := ir.ReadVarlong()
		if err != nil {
			return nil, err
		}
		prevDoc += docid.ID(delta)
		sparse[i] = sparseEntry{docID: prevDoc, offset: int64(off)}
	}

	var dec *zstd.Decoder
	if compressed {
		dec, err = zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
	}
	return &Reader{values: values, sparse: sparse, compressed: compressed, dec: dec}, nil
}

// Get returns the stored blob for docID, or found=false if the field was
// never set for that document.
func (r *Reader) Get(docID docid.ID) (value []byte, found bool, err error) {
	if len(r.sparse) == 0 {
		return nil, false, nil
	}
	// Find the last sparse entry whose doc_id does not exceed docID.
	i := sort.Search(len(r.sparse), func(i int) bool { return r.sparse[i].docID > docID }) - 1
	if i < 0 {
		return nil, false, nil
	}

	if _, err := r.values.Seek(r.sparse[i].offset, io.SeekStart); err != nil {
		return nil, false, err
	}
	cr := codec.NewReader(r.values)
	for {
		got, err := cr.ReadVarlong()
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		blob, err := cr.ReadBytes()
		if err != nil {
			return nil, false, err
		}
		gotDoc := docid.ID(got)
		if gotDoc == docID {
			if r.dec != nil {
				raw, err := r.dec.DecodeAll(blob, nil)
				if err != nil {
					return nil, false, err
				}
				return raw, true, nil
			}
			return blob, true, nil
		}
		if gotDoc > docID {
			return nil, false, nil
		}
	}
}

// Close releases the reader's decoder, if any.
func (r *Reader) Close() {
	if r.dec != nil {
		r.dec.Close()
	}
}
