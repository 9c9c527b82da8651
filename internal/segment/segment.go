// Package segment implements the segment writer (spec.md §4.E): the
// mutable, per-writer state a leased pool slot owns while documents are
// being inserted, and the flush that turns it into an immutable on-disk
// segment. It is grounded in the original engine's segment_writer
// (core/index/segment_writer.hpp): assign doc_id via an atomic counter,
// insert fields then attributes short-circuiting on failure, mask
// partially-indexed documents, and record every doc_id's update_context
// for the index writer to reconcile later.
package segment

import (
	"bytes"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vexsearch/vex/internal/analysis"
	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/column"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/docid"
	"github.com/vexsearch/vex/internal/field"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/internal/segmeta"
	"github.com/vexsearch/vex/internal/segwrite"
	"github.com/vexsearch/vex/pkg/verrors"
)

// FieldSchema configures one indexed field: which analyzer tokenizes it
// and which proximity data its posting lists carry.
type FieldSchema struct {
	Name           string
	Features       postings.Features
	AnalyzerType   string
	AnalyzerConfig []byte // raw JSON analyzer options
}

// FieldValue is one document's raw value for an indexed field.
type FieldValue struct {
	Name  string
	Value []byte
}

// Attribute is a stored value a document carries verbatim. Serialize is
// called once per insert; a failing Serialize marks the document as a
// partial (masked) insert without aborting the rest of the document.
type Attribute interface {
	Name() string
	Serialize() ([]byte, error)
}

// UpdateContext is the (generation, update_id) pair the index writer
// attaches to every insert so it can later reconcile update/replace
// semantics across segments.
type UpdateContext struct {
	Generation uint64
	UpdateID   uint64
}

// SkipParams configures the skip-list trailer every term's posting list gets.
type SkipParams struct {
	Skip0     int
	SkipN     int
	MaxLevels int
}

// Config bundles a segment writer's fixed parameters: its directory
// (wrapped in a Tracking decorator so a failed flush can clean up), the
// field schemas it knows how to index, whether stored columns are
// zstd-compressed, and the skip-list parameters for every posting list.
type Config struct {
	Dir             directory.Directory
	Fields          []FieldSchema
	ColumnCompress  bool
	Skip            SkipParams
}

// Writer is one segment's mutable in-memory state before flush. A single
// Writer is leased to one goroutine at a time by the index writer's pool;
// Writer itself is not safe for concurrent Insert calls, only for Insert
// racing with read-only accessors like DocsCached.
type Writer struct {
	cfg  Config
	dir  *directory.Tracking
	name string

	schemas map[string]FieldSchema

	mu          sync.Mutex
	fields      map[string]*field.Data
	analyzers   map[string]analysis.Analyzer
	columns     map[string]*column.Writer
	mask        map[docid.ID]struct{}
	updateCtxs  map[docid.ID]UpdateContext

	nextDoc uint32 // atomic: number of docs cached so far
}

// New creates a segment writer named name over cfg.Dir.
func New(name string, cfg Config) *Writer {
	schemas := make(map[string]FieldSchema, len(cfg.Fields))
	for _, fs := range cfg.Fields {
		schemas[fs.Name] = fs
	}
	w := &Writer{
		cfg:     cfg,
		dir:     directory.NewTracking(cfg.Dir),
		name:    name,
		schemas: schemas,
	}
	w.resetState()
	return w
}

func (w *Writer) resetState() {
	w.fields = make(map[string]*field.Data)
	w.analyzers = make(map[string]analysis.Analyzer)
	w.columns = make(map[string]*column.Writer)
	w.mask = make(map[docid.ID]struct{})
	w.updateCtxs = make(map[docid.ID]UpdateContext)
	atomic.StoreUint32(&w.nextDoc, 0)
}

// Name returns the segment's name.
func (w *Writer) Name() string { return w.name }

// DocsCached returns how many documents have been assigned a doc_id so far.
func (w *Writer) DocsCached() uint32 { return atomic.LoadUint32(&w.nextDoc) }

func (w *Writer) fieldData(name string) (*field.Data, analysis.Analyzer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fd, ok := w.fields[name]
	if !ok {
		schema, known := w.schemas[name]
		if !known {
			return nil, nil, verrors.NewAnalyzerError(nil, verrors.ErrorCodeAnalyzerUnknown, "no schema for field").WithField(name)
		}
		fd = field.New(field.Spec{Name: name, Indexed: true, Features: schema.Features})
		w.fields[name] = fd

		az, err := analysis.Get(schema.AnalyzerType, schema.AnalyzerConfig)
		if err != nil {
			return nil, nil, verrors.NewAnalyzerError(err, verrors.ErrorCodeAnalyzerUnknown, "constructing analyzer").WithField(name)
		}
		w.analyzers[name] = az
	}
	return fd, w.analyzers[name], nil
}

func (w *Writer) columnWriter(name string) *column.Writer {
	w.mu.Lock()
	defer w.mu.Unlock()
	cw, ok := w.columns[name]
	if !ok {
		cw = column.NewWriter(w.cfg.ColumnCompress)
		w.columns[name] = cw
	}
	return cw
}

// Insert assigns docID the next available identifier, indexes fields and
// stores attributes per spec.md §4.E, and returns whether the document was
// fully indexed. A false return means the document was masked: its content
// never surfaces in queries, but its doc_id and ctx are still recorded so
// the index writer can still reconcile any update this insert represents.
func (w *Writer) Insert(fields []FieldValue, attributes []Attribute, ctx UpdateContext) bool {
	id := atomic.AddUint32(&w.nextDoc, 1) - 1
	docID := docid.Min + id

	success := true
	for _, fv := range fields {
		if !success {
			break
		}
		fd, az, err := w.fieldData(fv.Name)
		if err != nil {
			success = false
			break
		}
		if err := az.Reset(fv.Value); err != nil {
			success = false
			break
		}
		ts := az.Tokens()
		for ts.Next() {
			start, end := ts.Offset()
			if err := fd.Update(docID, ts.Term(), ts.PositionIncrement(), uint32(start), uint32(end), ts.Payload()); err != nil {
				success = false
				break
			}
		}
	}

	for _, attr := range attributes {
		blob, err := attr.Serialize()
		if err != nil {
			success = false
			continue
		}
		cw := w.columnWriter(attr.Name())
		if err := cw.Add(docID, blob); err != nil {
			success = false
		}
	}

	if !success {
		w.mu.Lock()
		w.mask[docID] = struct{}{}
		w.mu.Unlock()
	}

	w.mu.Lock()
	w.updateCtxs[docID] = ctx
	w.mu.Unlock()

	return success
}

// UpdateContexts returns a copy of the doc_id -> ctx table accumulated so far.
func (w *Writer) UpdateContexts() map[docid.ID]UpdateContext {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[docid.ID]UpdateContext, len(w.updateCtxs))
	for k, v := range w.updateCtxs {
		out[k] = v
	}
	return out
}

// Flush finalizes every field's term dictionary and posting lists, every
// stored column, and the document mask, writing them to dir and returning
// the resulting segment_meta. If no documents were ever inserted, Flush is
// a no-op and returns ok=false.
func (w *Writer) Flush() (ok bool, meta segmeta.Segment, err error) {
	docCount := w.DocsCached()
	if docCount == 0 {
		return false, segmeta.Segment{}, nil
	}

	fldFile, err := w.flushFields()
	if err != nil {
		w.dir.Cleanup()
		return false, segmeta.Segment{}, err
	}
	colFile, err := w.flushColumns()
	if err != nil {
		w.dir.Cleanup()
		return false, segmeta.Segment{}, err
	}
	maskFile, err := w.flushMask()
	if err != nil {
		w.dir.Cleanup()
		return false, segmeta.Segment{}, err
	}

	meta = segmeta.Segment{
		Name:     w.name,
		DocCount: docCount,
		Version:  1,
		Files:    []string{fldFile, colFile, maskFile},
	}
	return true, meta, nil
}

func (w *Writer) flushFields() (string, error) {
	names := make([]string, 0, len(w.fields))
	for name := range w.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]segwrite.Field, 0, len(names))
	for _, name := range names {
		fd := w.fields[name]
		fd.Close()

		sf := segwrite.Field{Name: name, Features: fd.Spec().Features}
		for _, term := range fd.Terms() {
			p := fd.Posting(term)
			p.Finalize()

			var buf bytes.Buffer
			tw := codec.NewWriter(&buf)
			trailer, err := p.WriteTo(tw, w.cfg.Skip.Skip0, w.cfg.Skip.SkipN, w.cfg.Skip.MaxLevels)
			if err != nil {
				return "", err
			}
			buf.Write(trailer)

			sf.Terms = append(sf.Terms, segwrite.Term{Term: []byte(term), DocFreq: p.DocFreq(), Encoded: buf.Bytes()})
		}
		fields = append(fields, sf)
	}

	return segwrite.WriteFields(w.dir, w.name, fields)
}

func (w *Writer) flushColumns() (string, error) {
	names := make([]string, 0, len(w.columns))
	for name := range w.columns {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]segwrite.Column, 0, len(names))
	for _, name := range names {
		cols = append(cols, segwrite.Column{Name: name, Writer: w.columns[name]})
	}
	return segwrite.WriteColumns(w.dir, w.name, cols)
}

func (w *Writer) flushMask() (string, error) {
	ids := make([]docid.ID, 0, len(w.mask))
	for id := range w.mask {
		ids = append(ids, id)
	}
	return segwrite.WriteMask(w.dir, w.name, ids)
}

// Reset discards all in-memory state, making the writer reusable with a
// new name (or the same one if newName is empty). Required before reuse
// inside the index writer's pool.
func (w *Writer) Reset(newName string) {
	if newName != "" {
		w.name = newName
	}
	w.resetState()
}
