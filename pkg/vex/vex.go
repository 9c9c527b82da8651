// Package vex is the embeddable full-text search engine's public entry
// point. It adapts the teacher's pkg/ignite.Instance facade (a thin
// wrapper gluing options, a logger, and an engine together behind a
// handful of methods) to this domain: instead of a key/value Set/Get/
// Delete surface, Instance exposes the document-insertion and commit
// lifecycle the index writer's concurrent pool implements.
package vex

import (
	"github.com/vexsearch/vex/internal/consolidate"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/index"
	"github.com/vexsearch/vex/internal/segment"
	"github.com/vexsearch/vex/pkg/options"
	"github.com/vexsearch/vex/pkg/vexlog"
)

// Instance is the primary entry point for indexing documents with vex. It
// encapsulates the underlying index.Writer and the options this instance
// was opened with.
type Instance struct {
	writer  *index.Writer
	options options.Options
}

// Schema names the fields a vex instance indexes, analogous to a table
// definition. Stored attributes are not declared here; each Insert call
// supplies its own. Callers supply this once at Open time; it is carried
// through to every leased segment writer's Config, with fields that name
// no analyzer given the configured default analyzer.
type Schema struct {
	Fields []segment.FieldSchema
}

// Open creates (or reopens) a vex instance rooted at dir, named service
// for logging purposes, configured by opts applied over
// options.NewDefaultOptions.
func Open(dir directory.Directory, service string, schema Schema, opts ...options.OptionFunc) (*Instance, error) {
	o := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	log := vexlog.New(service)

	skip := segment.SkipParams{Skip0: 128, SkipN: 8, MaxLevels: 10}
	if o.SkipOptions != nil {
		skip = segment.SkipParams{Skip0: o.SkipOptions.Skip0, SkipN: o.SkipOptions.SkipN, MaxLevels: o.SkipOptions.MaxLevels}
	}

	fields := make([]segment.FieldSchema, len(schema.Fields))
	copy(fields, schema.Fields)
	for i := range fields {
		if fields[i].AnalyzerType == "" {
			fields[i].AnalyzerType = o.AnalyzerType
			fields[i].AnalyzerConfig = []byte(o.AnalyzerOptions)
		}
	}

	w, err := index.New(index.Config{
		Dir:                   dir,
		Fields:                fields,
		ColumnCompress:        true,
		Skip:                  skip,
		SegmentPoolSize:       o.SegmentPoolSize,
		CommitDocThreshold:    estimatedDocThreshold(o.SegmentMemoryMax),
		CommitPeriod:          o.CommitPeriod,
		ConsolidationInterval: o.ConsolidationInterval,
		ConsolidationThreads:  o.ConsolidationThreads,
		Logger:                log,
	})
	if err != nil {
		return nil, err
	}

	return &Instance{writer: w, options: o}, nil
}

// assumedAvgDocBytes estimates how many bytes a typical document's fields
// and attributes occupy in memory, used to translate options.Options'
// byte-oriented SegmentMemoryMax into the doc-count threshold the segment
// writer pool actually checks (internal/segment.Writer does not track its
// own heap usage, so this is a coarse proxy rather than a measurement).
const assumedAvgDocBytes = 512

func estimatedDocThreshold(segmentMemoryMax uint64) uint32 {
	n := segmentMemoryMax / assumedAvgDocBytes
	if n == 0 {
		return 1
	}
	if n > 1<<31 {
		return 1 << 31
	}
	return uint32(n)
}

// Session leases a segment writer for a batch of document inserts. It must
// be closed (Done) once the caller has finished the batch.
type Session struct {
	s *index.Session
}

// Documents leases a session to insert one or more documents through.
// Callers should batch several Insert calls per session rather than
// leasing one session per document, since leasing itself synchronizes
// against the background commit loop.
func (i *Instance) Documents() (*Session, error) {
	s, err := i.writer.Documents()
	if err != nil {
		return nil, err
	}
	return &Session{s: s}, nil
}

// Insert indexes one document's fields and stores its attributes,
// reporting whether every field and attribute was successfully indexed.
func (s *Session) Insert(fields []segment.FieldValue, attributes []segment.Attribute) bool {
	return s.s.Insert(fields, attributes)
}

// Done releases the session's leased segment writer back to the pool.
func (s *Session) Done() { s.s.Close() }

// Commit flushes every leased segment writer with accumulated documents
// into new, immutable segments and publishes a new manifest generation.
func (i *Instance) Commit() error {
	return i.writer.Commit()
}

// ConsolidateAll merges every live segment into one, blocking until the
// merge completes. It backs the vex-ingest CLI's --consolidate-all flag.
func (i *Instance) ConsolidateAll() error {
	return i.writer.ConsolidateNow(consolidate.ConsolidateAllPolicy)
}

// IsFatal reports whether a background commit has failed unrecoverably;
// once true, Documents returns index.ErrFatal until the process restarts.
func (i *Instance) IsFatal() bool {
	return i.writer.Fatal()
}

// Close flushes any remaining documents and stops the instance's
// background commit and consolidation loops.
func (i *Instance) Close() error {
	if i.writer == nil {
		return nil
	}
	return i.writer.Close()
}
