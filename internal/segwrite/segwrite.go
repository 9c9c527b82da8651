// Package segwrite holds the on-disk segment file format shared by the
// segment writer and the merge writer: both produce a .fld file (a term
// dictionary header followed by the concatenated posting-list bytes it
// points into), a .col file (per-attribute column headers followed by
// concatenated value/index bytes), and a .mask file (the sorted set of
// doc_ids that never surfaced in a live query). Factoring the format here
// keeps the two writers byte-compatible with the reader in
// internal/segreader without duplicating the header bookkeeping.
package segwrite

import (
	"bytes"
	"sort"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/column"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/docid"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/pkg/verrors"
)

// Term is one term's already-encoded posting-list bytes (posting data plus
// its trailing skip-list trailer) ready to be appended to the .fld data
// section verbatim.
type Term struct {
	Term    []byte
	DocFreq uint32
	Encoded []byte
}

// Field is one field's term dictionary, in the byte-lexicographic term
// order the .fld header must preserve.
type Field struct {
	Name     string
	Features postings.Features
	Terms    []Term
}

// WriteFields writes name+".fld": a header naming every field and its
// terms' (docFreq, offset, length) triples, followed by the concatenated
// encoded posting bytes those offsets point into. fields must already be
// sorted by Name, and each Field's Terms sorted by Term, matching the
// order segreader.Open expects to read back.
func WriteFields(dir directory.Directory, name string, fields []Field) (string, error) {
	var data bytes.Buffer
	dw := codec.NewWriter(&data)

	type termMeta struct {
		term    []byte
		docFreq uint32
		offset  int64
		length  int64
	}
	metas := make([]struct {
		name     string
		features postings.Features
		terms    []termMeta
	}, len(fields))

	for fi, f := range fields {
		metas[fi].name = f.Name
		metas[fi].features = f.Features
		metas[fi].terms = make([]termMeta, len(f.Terms))
		for ti, t := range f.Terms {
			offset := dw.Pos()
			if err := dw.WriteRaw(t.Encoded); err != nil {
				return "", err
			}
			metas[fi].terms[ti] = termMeta{term: t.Term, docFreq: t.DocFreq, offset: offset, length: dw.Pos() - offset}
		}
	}

	fileName := name + ".fld"
	out, err := dir.Create(fileName)
	if err != nil {
		return "", verrors.ClassifyIOError(err, "create", fileName)
	}
	defer out.Close()

	cw := codec.NewWriter(out)
	if err := cw.WriteVarint(uint32(len(metas))); err != nil {
		return "", err
	}
	for _, fm := range metas {
		if err := cw.WriteString(fm.name); err != nil {
			return "", err
		}
		if err := cw.WriteByte(byte(fm.features)); err != nil {
			return "", err
		}
		if err := cw.WriteVarint(uint32(len(fm.terms))); err != nil {
			return "", err
		}
		for _, tm := range fm.terms {
			if err := cw.WriteBytes(tm.term); err != nil {
				return "", err
			}
			if err := cw.WriteVarint(tm.docFreq); err != nil {
				return "", err
			}
			if err := cw.WriteVarlong(uint64(tm.offset)); err != nil {
				return "", err
			}
			if err := cw.WriteVarlong(uint64(tm.length)); err != nil {
				return "", err
			}
		}
	}
	return fileName, cw.WriteRaw(data.Bytes())
}

// Column names one attribute's already-populated column.Writer.
type Column struct {
	Name   string
	Writer *column.Writer
}

// WriteColumns writes name+".col": a header naming every column and the
// (offset, length) of its values and sparse-index bytes, followed by the
// concatenated values bytes then the concatenated index bytes. columns
// must already be sorted by Name.
func WriteColumns(dir directory.Directory, name string, columns []Column) (string, error) {
	var valuesBuf, indexBuf bytes.Buffer
	vw := codec.NewWriter(&valuesBuf)
	iw := codec.NewWriter(&indexBuf)

	type colMeta struct {
		name                     string
		valuesOffset, valuesLen int64
		indexOffset, indexLen   int64
	}
	metas := make([]colMeta, len(columns))

	for i, c := range columns {
		vStart, iStart := vw.Pos(), iw.Pos()
		if err := c.Writer.Flush(vw, iw); err != nil {
			return "", err
		}
		metas[i] = colMeta{
			name:         c.Name,
			valuesOffset: vStart,
			valuesLen:    vw.Pos() - vStart,
			indexOffset:  iStart,
			indexLen:     iw.Pos() - iStart,
		}
	}

	fileName := name + ".col"
	out, err := dir.Create(fileName)
	if err != nil {
		return "", verrors.ClassifyIOError(err, "create", fileName)
	}
	defer out.Close()

	cw := codec.NewWriter(out)
	if err := cw.WriteVarint(uint32(len(metas))); err != nil {
		return "", err
	}
	for _, cm := range metas {
		if err := cw.WriteString(cm.name); err != nil {
			return "", err
		}
		if err := cw.WriteVarlong(uint64(cm.valuesOffset)); err != nil {
			return "", err
		}
		if err := cw.WriteVarlong(uint64(cm.valuesLen)); err != nil {
			return "", err
		}
		if err := cw.WriteVarlong(uint64(cm.indexOffset)); err != nil {
			return "", err
		}
		if err := cw.WriteVarlong(uint64(cm.indexLen)); err != nil {
			return "", err
		}
	}
	if err := cw.WriteRaw(valuesBuf.Bytes()); err != nil {
		return "", err
	}
	return fileName, cw.WriteRaw(indexBuf.Bytes())
}

// WriteMask writes name+".mask": a varint count followed by delta-varlong
// encoded doc_ids, sorted ascending. An empty ids produces a valid,
// trivially-empty mask file rather than being skipped, so a segment's file
// list is uniform regardless of whether it ever masked a document.
func WriteMask(dir directory.Directory, name string, ids []docid.ID) (string, error) {
	sorted := append([]docid.ID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	fileName := name + ".mask"
	out, err := dir.Create(fileName)
	if err != nil {
		return "", verrors.ClassifyIOError(err, "create", fileName)
	}
	defer out.Close()

	cw := codec.NewWriter(out)
	if err := cw.WriteVarint(uint32(len(sorted))); err != nil {
		return "", err
	}
	var prev docid.ID
	for _, id := range sorted {
		if err := cw.WriteVarlong(uint64(id - prev)); err != nil {
			return "", err
		}
		prev = id
	}
	return fileName, nil
}
