// Package segreader provides the minimal read path over a flushed segment
// that the merge writer needs: field/term metadata and lazily-decoded
// posting iterators, plus the document mask. It intentionally does not
// implement a query-side iterator API (seeking, skip-list driven
// acceleration); merge always walks a segment's postings sequentially in
// full, so it never needs more than codec.Reader over a bounded section of
// the field file.
package segreader

import (
	"io"
	"sort"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/docid"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/internal/segmeta"
)

type termMeta struct {
	term     []byte
	docFreq  uint32
	offset   int64
	length   int64
}

type fieldMeta struct {
	name     string
	features postings.Features
	terms    []termMeta
}

// Reader is an opened, read-only view of one flushed segment.
type Reader struct {
	meta      segmeta.Segment
	fld       directory.InputStream
	fields    map[string]*fieldMeta
	order     []string
	mask      map[docid.ID]struct{}
	dataStart int64
}

// Open reads meta's .fld header and .mask file from dir, keeping the .fld
// file open for later bounded posting-list reads via ReadAt.
func Open(dir directory.Directory, meta segmeta.Segment) (*Reader, error) {
	fld, err := dir.Open(meta.Name + ".fld")
	if err != nil {
		return nil, err
	}

	cr := codec.NewReader(fld)
	fieldCount, err := cr.ReadVarint()
	if err != nil {
		fld.Close()
		return nil, err
	}

	fields := make(map[string]*fieldMeta, fieldCount)
	order := make([]string, 0, fieldCount)
	for i := uint32(0); i < fieldCount; i++ {
		name, err := cr.ReadString()
		if err != nil {
			fld.Close()
			return nil, err
		}
		featByte, err := cr.ReadByte()
		if err != nil {
			fld.Close()
			return nil, err
		}
		termCount, err := cr.ReadVarint()
		if err != nil {
			fld.Close()
			return nil, err
		}
		fm := &fieldMeta{name: name, features: postings.Features(featByte), terms: make([]termMeta, termCount)}
		for j := uint32(0); j < termCount; j++ {
			term, err := cr.ReadBytes()
			if err != nil {
				fld.Close()
				return nil, err
			}
			docFreq, err := cr.ReadVarint()
			if err != nil {
				fld.Close()
				return nil, err
			}
			offset, err := cr.ReadVarlong()
			if err != nil {
				fld.Close()
				return nil, err
			}
			length, err := cr.ReadVarlong()
			if err != nil {
				fld.Close()
				return nil, err
			}
			fm.terms[j] = termMeta{term: term, docFreq: docFreq, offset: int64(offset), length: int64(length)}
		}
		fields[name] = fm
		order = append(order, name)
	}
	sort.Strings(order)
	dataStart := cr.Pos()

	mask := make(map[docid.ID]struct{})
	if hasMaskFile(dir, meta) {
		maskIn, err := dir.Open(meta.Name + ".mask")
		if err != nil {
			fld.Close()
			return nil, err
		}
		mr := codec.NewReader(maskIn)
		count, err := mr.ReadVarint()
		if err != nil {
			maskIn.Close()
			fld.Close()
			return nil, err
		}
		var prev docid.ID
		for i := uint32(0); i < count; i++ {
			delta, err := mr.ReadVarlong()
			if err != nil {
				maskIn.Close()
				fld.Close()
				return nil, err
			}
			prev += docid.ID(delta)
			mask[prev] = struct{}{}
		}
		maskIn.Close()
	}

	return &Reader{meta: meta, fld: fld, fields: fields, order: order, mask: mask, dataStart: dataStart}, nil
}

func hasMaskFile(dir directory.Directory, meta segmeta.Segment) bool {
	for _, f := range meta.Files {
		if f == meta.Name+".mask" {
			return true
		}
	}
	return false
}

// Close releases the underlying field file handle.
func (r *Reader) Close() error { return r.fld.Close() }

// DocCount returns the total number of doc_ids ever assigned in this
// segment (including masked ones).
func (r *Reader) DocCount() uint32 { return r.meta.DocCount }

// IsLive reports whether id is present and not masked.
func (r *Reader) IsLive(id docid.ID) bool {
	if id < docid.Min || uint32(id) > r.meta.DocCount {
		return false
	}
	_, masked := r.mask[id]
	return !masked
}

// Fields returns every indexed field name in byte-lexicographic order.
func (r *Reader) Fields() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Features returns the posting-list features declared for field, if present.
func (r *Reader) Features(field string) (postings.Features, bool) {
	fm, ok := r.fields[field]
	if !ok {
		return 0, false
	}
	return fm.features, true
}

// TermIterator walks field's terms in dictionary order.
type TermIterator struct {
	r     *Reader
	terms []termMeta
	i     int
}

// Terms opens a term iterator over field, or nil if the field is absent.
func (r *Reader) Terms(field string) *TermIterator {
	fm, ok := r.fields[field]
	if !ok {
		return nil
	}
	return &TermIterator{r: r, terms: fm.terms, i: -1}
}

// Next advances to the next term, returning false when exhausted.
func (it *TermIterator) Next() bool {
	it.i++
	return it.i < len(it.terms)
}

// Term returns the current term's bytes.
func (it *TermIterator) Term() []byte { return it.terms[it.i].term }

// DocFreq returns the current term's total document frequency.
func (it *TermIterator) DocFreq() uint32 { return it.terms[it.i].docFreq }

// Postings opens a decoding cursor over the current term's posting list,
// ignoring the trailing skip-list trailer (merge never needs to seek).
func (it *TermIterator) Postings(features postings.Features) *PostingCursor {
	tm := it.terms[it.i]
	sec := io.NewSectionReader(it.r.fld, it.r.dataStart+tm.offset, tm.length)
	return &PostingCursor{cr: codec.NewReader(sec), features: features, remaining: tm.docFreq}
}

// PostingCursor decodes one term's posting-list entries in doc_id order.
type PostingCursor struct {
	cr        *codec.Reader
	features  postings.Features
	remaining uint32
	prevDoc   docid.ID
}

// Next decodes the next entry, returning ok=false once every docFreq
// entries have been consumed.
func (c *PostingCursor) Next() (entry postings.DocEntry, ok bool, err error) {
	if c.remaining == 0 {
		return postings.DocEntry{}, false, nil
	}

	delta, err := c.cr.ReadVarlong()
	if err != nil {
		return postings.DocEntry{}, false, err
	}
	doc := c.prevDoc + docid.ID(delta)

	freq, err := c.cr.ReadVarint()
	if err != nil {
		return postings.DocEntry{}, false, err
	}

	var positions []uint32
	if c.features.Has(postings.FeaturePosition) {
		positions = make([]uint32, freq)
		var prevPos uint32
		for i := range positions {
			d, err := c.cr.ReadVarint()
			if err != nil {
				return postings.DocEntry{}, false, err
			}
			prevPos += d
			positions[i] = prevPos
		}
	}

	var offsets []postings.Offset
	if c.features.Has(postings.FeatureOffset) {
		offsets = make([]postings.Offset, freq)
		for i := range offsets {
			start, err := c.cr.ReadVarint()
			if err != nil {
				return postings.DocEntry{}, false, err
			}
			width, err := c.cr.ReadVarint()
			if err != nil {
				return postings.DocEntry{}, false, err
			}
			offsets[i] = postings.Offset{Start: start, End: start + width}
		}
	}

	var payloads [][]byte
	if c.features.Has(postings.FeaturePayload) {
		payloads = make([][]byte, freq)
		for i := range payloads {
			pl, err := c.cr.ReadBytes()
			if err != nil {
				return postings.DocEntry{}, false, err
			}
			payloads[i] = pl
		}
	}

	c.prevDoc = doc
	c.remaining--
	return postings.DocEntry{DocID: doc, Freq: freq, Positions: positions, Offsets: offsets, Payloads: payloads}, true, nil
}
