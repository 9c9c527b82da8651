// Package merge implements the segment consolidation writer (spec.md
// §4.F): it takes several already-flushed segments, drops whatever
// documents their masks report as dead, remaps the survivors onto a dense
// doc_id space, and writes one new segment that reads identically to a
// segment produced directly by internal/segment. It is grounded in the
// original engine's merge_writer (core/index/merge_writer.hpp): build a
// doc_id_map per input, walk every field's term dictionaries with a
// min-heap keyed by term bytes, and copy posting and column data verbatim
// under the new ids.
package merge

import (
	"bytes"
	"container/heap"
	"sort"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/colreader"
	"github.com/vexsearch/vex/internal/column"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/docid"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/internal/segmeta"
	"github.com/vexsearch/vex/internal/segreader"
	"github.com/vexsearch/vex/internal/segwrite"
	"github.com/vexsearch/vex/pkg/verrors"
)

// SkipParams configures the skip-list trailer every merged term's posting
// list gets. Mirrors segment.SkipParams; kept as its own type so this
// package does not need to import internal/segment for a single struct.
type SkipParams struct {
	Skip0     int
	SkipN     int
	MaxLevels int
}

// Config bundles a merge writer's fixed parameters.
type Config struct {
	Dir            directory.Directory
	ColumnCompress bool
	Skip           SkipParams
}

// Writer consolidates a set of already-flushed segments into one new
// segment. Unlike segment.Writer it carries no mutable state between
// calls; Merge is safe to call concurrently from several goroutines
// against independent, disjoint input sets (spec's "in-flight
// consolidations over disjoint segment sets" requirement), since the
// index writer is what serializes manifest updates, not this type.
type Writer struct {
	cfg Config
}

// NewWriter creates a merge writer using cfg for every Merge call.
func NewWriter(cfg Config) *Writer {
	return &Writer{cfg: cfg}
}

// Merge consolidates readers (with their parallel column readers) into one
// new segment named name.
func (w *Writer) Merge(readers []*segreader.Reader, colReaders []*colreader.Reader, name string) (ok bool, meta segmeta.Segment, err error) {
	return Merge(readers, colReaders, name, w.cfg)
}

// docIDMap remaps one input segment's original doc_ids onto the merged
// segment's dense id space; docid.Invalid means the document was dropped.
type docIDMap []docid.ID

func (m docIDMap) get(id docid.ID) docid.ID {
	if int(id) >= len(m) {
		return docid.Invalid
	}
	return m[id]
}

// Merge consolidates readers into one new segment named name. ok is false
// (with no error) if every input document turned out to be dead, in which
// case nothing is written and the caller should simply drop the inputs
// from the manifest.
func Merge(readers []*segreader.Reader, colReaders []*colreader.Reader, name string, cfg Config) (ok bool, meta segmeta.Segment, err error) {
	docMaps := make([]docIDMap, len(readers))
	var nextID docid.ID = docid.Min
	for ri, r := range readers {
		m := make(docIDMap, r.DocCount()+1)
		for id := docid.Min; uint32(id) <= r.DocCount(); id++ {
			if r.IsLive(id) {
				m[id] = nextID
				nextID++
			} else {
				m[id] = docid.Invalid
			}
		}
		docMaps[ri] = m
	}
	totalLive := uint32(nextID - docid.Min)
	if totalLive == 0 {
		return false, segmeta.Segment{}, nil
	}

	fields, err := unionFieldSchema(readers)
	if err != nil {
		return false, segmeta.Segment{}, err
	}

	dir := directory.NewTracking(cfg.Dir)

	outFields, err := mergeFields(readers, docMaps, fields, cfg.Skip)
	if err != nil {
		dir.Cleanup()
		return false, segmeta.Segment{}, err
	}
	fldFile, err := segwrite.WriteFields(dir, name, outFields)
	if err != nil {
		dir.Cleanup()
		return false, segmeta.Segment{}, err
	}

	outColumns, err := mergeColumns(readers, colReaders, docMaps, cfg.ColumnCompress)
	if err != nil {
		dir.Cleanup()
		return false, segmeta.Segment{}, err
	}
	colFile, err := segwrite.WriteColumns(dir, name, outColumns)
	if err != nil {
		dir.Cleanup()
		return false, segmeta.Segment{}, err
	}

	// Every surviving doc_id is live by construction: dead documents were
	// never assigned a new id, so the merged segment's mask is always empty.
	maskFile, err := segwrite.WriteMask(dir, name, nil)
	if err != nil {
		dir.Cleanup()
		return false, segmeta.Segment{}, err
	}

	meta = segmeta.Segment{
		Name:     name,
		DocCount: totalLive,
		Version:  1,
		Files:    []string{fldFile, colFile, maskFile},
	}
	return true, meta, nil
}

func unionFieldSchema(readers []*segreader.Reader) (map[string]postings.Features, error) {
	out := make(map[string]postings.Features)
	for _, r := range readers {
		for _, name := range r.Fields() {
			features, _ := r.Features(name)
			if existing, ok := out[name]; ok {
				if existing != features {
					return nil, verrors.NewIndexError(nil, verrors.ErrorCodeIncompatibleField, "field feature mismatch across merge inputs").
						WithField(name)
				}
				continue
			}
			out[name] = features
		}
	}
	return out, nil
}

type iterState struct {
	readerIdx int
	it        *segreader.TermIterator
}

type termHeap []*iterState

func (h termHeap) Len() int { return len(h) }
func (h termHeap) Less(i, j int) bool {
	c := bytes.Compare(h[i].it.Term(), h[j].it.Term())
	if c != 0 {
		return c < 0
	}
	return h[i].readerIdx < h[j].readerIdx
}
func (h termHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *termHeap) Push(x any)        { *h = append(*h, x.(*iterState)) }
func (h *termHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func mergeFields(readers []*segreader.Reader, docMaps []docIDMap, fields map[string]postings.Features, skip SkipParams) ([]segwrite.Field, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]segwrite.Field, 0, len(names))
	for _, name := range names {
		features := fields[name]

		var h termHeap
		for ri, r := range readers {
			it := r.Terms(name)
			if it == nil {
				continue
			}
			if it.Next() {
				h = append(h, &iterState{readerIdx: ri, it: it})
			}
		}
		heap.Init(&h)

		var terms []segwrite.Term
		for h.Len() > 0 {
			min := append([]byte(nil), h[0].it.Term()...)
			p := postings.NewPosting(features)

			for h.Len() > 0 && bytes.Equal(h[0].it.Term(), min) {
				item := heap.Pop(&h).(*iterState)
				cur := item.it.Postings(features)
				for {
					entry, ok, err := cur.Next()
					if err != nil {
						return nil, err
					}
					if !ok {
						break
					}
					newID := docMaps[item.readerIdx].get(entry.DocID)
					if newID == docid.Invalid {
						continue
					}
					entry.DocID = newID
					p.AddEntry(entry)
				}
				if item.it.Next() {
					heap.Push(&h, item)
				}
			}

			if p.DocFreq() == 0 {
				continue
			}

			var buf bytes.Buffer
			tw := codec.NewWriter(&buf)
			trailer, err := p.WriteTo(tw, skip.Skip0, skip.SkipN, skip.MaxLevels)
			if err != nil {
				return nil, err
			}
			buf.Write(trailer)

			terms = append(terms, segwrite.Term{Term: min, DocFreq: p.DocFreq(), Encoded: buf.Bytes()})
		}

		if len(terms) > 0 {
			out = append(out, segwrite.Field{Name: name, Features: features, Terms: terms})
		}
	}
	return out, nil
}

func mergeColumns(readers []*segreader.Reader, colReaders []*colreader.Reader, docMaps []docIDMap, compressed bool) ([]segwrite.Column, error) {
	names := make(map[string]struct{})
	for _, cr := range colReaders {
		for _, n := range cr.Names() {
			names[n] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	out := make([]segwrite.Column, 0, len(sorted))
	for _, name := range sorted {
		cw := column.NewWriter(compressed)
		for ri, cr := range colReaders {
			rdr, found, err := cr.Column(name, compressed)
			if err != nil {
				return nil, err
			}
			if !found {
				continue
			}
			r := readers[ri]
			for id := docid.Min; uint32(id) <= r.DocCount(); id++ {
				newID := docMaps[ri].get(id)
				if newID == docid.Invalid {
					continue
				}
				blob, ok, err := rdr.Get(id)
				if err != nil {
					rdr.Close()
					return nil, err
				}
				if !ok {
					continue
				}
				if err := cw.Add(newID, blob); err != nil {
					rdr.Close()
					return nil, err
				}
			}
			rdr.Close()
		}
		out = append(out, segwrite.Column{Name: name, Writer: cw})
	}
	return out, nil
}
