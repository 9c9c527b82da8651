// Package colreader opens the .col file a segment or merge writer produces
// (internal/segwrite.WriteColumns) and hands back a column.Reader bounded
// to one attribute's values and sparse-index bytes. It exists separately
// from internal/segreader because columns and postings are independent
// concerns of a segment that happen to share a writer package, not because
// the file formats are related.
package colreader

import (
	"sort"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/column"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/segmeta"
)

type columnMeta struct {
	valuesOffset, valuesLen int64
	indexOffset, indexLen   int64
}

// Reader is an opened, read-only view of one flushed segment's column file.
type Reader struct {
	col        directory.InputStream
	columns    map[string]columnMeta
	valuesBase int64
	indexBase  int64
}

// Open reads meta's .col header from dir, keeping the file open for later
// bounded reads of individual columns' bytes.
func Open(dir directory.Directory, meta segmeta.Segment) (*Reader, error) {
	col, err := dir.Open(meta.Name + ".col")
	if err != nil {
		return nil, err
	}

	cr := codec.NewReader(col)
	count, err := cr.ReadVarint()
	if err != nil {
		col.Close()
		return nil, err
	}

	columns := make(map[string]columnMeta, count)
	for i := uint32(0); i < count; i++ {
		name, err := cr.ReadString()
		if err != nil {
			col.Close()
			return nil, err
		}
		vOff, err := cr.ReadVarlong()
		if err != nil {
			col.Close()
			return nil, err
		}
		vLen, err := cr.ReadVarlong()
		if err != nil {
			col.Close()
			return nil, err
		}
		iOff, err := cr.ReadVarlong()
		if err != nil {
			col.Close()
			return nil, err
		}
		iLen, err := cr.ReadVarlong()
		if err != nil {
			col.Close()
			return nil, err
		}
		columns[name] = columnMeta{valuesOffset: int64(vOff), valuesLen: int64(vLen), indexOffset: int64(iOff), indexLen: int64(iLen)}
	}

	headerEnd := cr.Pos()
	var valuesTotal int64
	for _, cm := range columns {
		if end := cm.valuesOffset + cm.valuesLen; end > valuesTotal {
			valuesTotal = end
		}
	}

	return &Reader{
		col:        col,
		columns:    columns,
		valuesBase: headerEnd,
		indexBase:  headerEnd + valuesTotal,
	}, nil
}

// Close releases the underlying column file handle.
func (r *Reader) Close() error { return r.col.Close() }

// Names returns every column name present, in byte-lexicographic order.
func (r *Reader) Names() []string {
	out := make([]string, 0, len(r.columns))
	for name := range r.columns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Column opens a random-access reader over name's stored values, or
// found=false if the column is absent from this segment.
func (r *Reader) Column(name string, compressed bool) (rdr *column.Reader, found bool, err error) {
	cm, ok := r.columns[name]
	if !ok {
		return nil, false, nil
	}
	values := directory.Section(r.col, r.valuesBase+cm.valuesOffset, cm.valuesLen, name+".values")
	index := directory.Section(r.col, r.indexBase+cm.indexOffset, cm.indexLen, name+".index")
	rdr, err = column.OpenReader(values, index, compressed)
	return rdr, true, err
}
