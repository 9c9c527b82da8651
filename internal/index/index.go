// Package index implements the concurrent index writer (spec.md §4.G):
// the top-level entry point that leases segment writers out of a fixed
// pool to callers inserting documents, periodically commits their
// accumulated state into a new manifest generation, and runs a background
// consolidation loop that merges segments per a pluggable policy. It
// generalizes the teacher's internal/engine.Engine (atomic closed flag,
// Config-based constructor, zap logger field) from a single storage
// subsystem coordinator into this pool+manifest+consolidation design; the
// teacher's internal/index hash table it replaces was already generalized
// into internal/field.Data's per-field term dictionaries.
package index

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vexsearch/vex/internal/colreader"
	"github.com/vexsearch/vex/internal/consolidate"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/merge"
	"github.com/vexsearch/vex/internal/segment"
	"github.com/vexsearch/vex/internal/segmeta"
	"github.com/vexsearch/vex/internal/segreader"
	"github.com/vexsearch/vex/pkg/segfile"
	"github.com/vexsearch/vex/pkg/verrors"
)

// ErrClosed is returned by any operation attempted after Close.
var ErrClosed = fmt.Errorf("index: writer closed")

// ErrFatal is returned once a background commit has failed fatally; the
// writer stops leasing new sessions until the process is restarted, since
// spec.md §7 requires ingestion to halt rather than silently diverge from
// the manifest on disk.
var ErrFatal = fmt.Errorf("index: fatal commit error, ingestion halted")

// Config bundles everything a Writer needs for its lifetime.
type Config struct {
	Dir                   directory.Directory
	Fields                []segment.FieldSchema
	ColumnCompress        bool
	Skip                  segment.SkipParams
	SegmentPoolSize       int
	CommitDocThreshold    uint32 // a leased writer flushes early once it reaches this many docs
	CommitPeriod          time.Duration
	ConsolidationPolicy   consolidate.Policy
	ConsolidationInterval time.Duration
	ConsolidationThreads  int // caps concurrent consolidateGroup goroutines
	Logger                *zap.SugaredLogger
}

func (c *Config) setDefaults() {
	if c.SegmentPoolSize < 1 {
		c.SegmentPoolSize = 4
	}
	if c.CommitDocThreshold == 0 {
		c.CommitDocThreshold = 100_000
	}
	if c.CommitPeriod <= 0 {
		c.CommitPeriod = 5 * time.Second
	}
	if c.ConsolidationInterval <= 0 {
		c.ConsolidationInterval = 30 * time.Second
	}
	if c.ConsolidationThreads < 1 {
		c.ConsolidationThreads = 2
	}
	if c.ConsolidationPolicy == nil {
		c.ConsolidationPolicy = consolidate.TieredPolicy(4, 4)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
}

// Writer is the concurrent entry point documents are inserted through.
type Writer struct {
	cfg Config

	pool    chan *segment.Writer
	poolCap int
	nextSeq atomic.Uint64

	mu       sync.Mutex
	manifest segmeta.Manifest
	inFlight map[string]struct{} // segment names currently being consolidated

	generation atomic.Uint64
	nextUpdate atomic.Uint64
	closed     atomic.Bool
	fatal      atomic.Bool

	consolidateSem chan struct{} // bounds concurrent consolidateGroup calls to cfg.ConsolidationThreads

	stop chan struct{}
	wg   sync.WaitGroup
}

// New opens (or creates) the index writer backed by cfg.Dir, loading the
// latest manifest if one exists, and starts the background commit and
// consolidation loops.
func New(cfg Config) (*Writer, error) {
	cfg.setDefaults()

	w := &Writer{
		cfg:            cfg,
		poolCap:        cfg.SegmentPoolSize,
		inFlight:       make(map[string]struct{}),
		consolidateSem: make(chan struct{}, cfg.ConsolidationThreads),
		stop:           make(chan struct{}),
	}

	if _, name, found, err := segfile.Latest(cfg.Dir, "manifest", "manifest"); err != nil {
		return nil, err
	} else if found {
		in, err := cfg.Dir.Open(name)
		if err != nil {
			return nil, err
		}
		m, err := segmeta.Read(in)
		in.Close()
		if err != nil {
			return nil, err
		}
		w.manifest = m
		w.generation.Store(m.Generation)
	}

	if seq, _, found, err := segfile.Latest(cfg.Dir, "seg", "fld"); err != nil {
		return nil, err
	} else if found {
		w.nextSeq.Store(seq + 1)
	}

	w.pool = make(chan *segment.Writer, w.poolCap)
	for i := 0; i < w.poolCap; i++ {
		w.pool <- w.newSegmentWriter()
	}

	w.wg.Add(2)
	go w.commitLoop()
	go w.consolidationLoop()

	return w, nil
}

func (w *Writer) newSegmentWriter() *segment.Writer {
	name := strings.TrimSuffix(segfile.GenerateName(w.nextSeq.Add(1)-1, "seg", "fld"), ".fld")
	return segment.New(name, segment.Config{
		Dir:            w.cfg.Dir,
		Fields:         w.cfg.Fields,
		ColumnCompress: w.cfg.ColumnCompress,
		Skip:           w.cfg.Skip,
	})
}

// Session is a single leased segment writer, checked out of the pool for
// the duration of one document-insertion scope (spec.md §5's
// "documents()" transaction).
type Session struct {
	w   *Writer
	seg *segment.Writer
	gen uint64
}

// Documents leases a segment writer, blocking until one is free. It
// returns ErrClosed or ErrFatal if the writer cannot accept more work.
func (w *Writer) Documents() (*Session, error) {
	if w.closed.Load() {
		return nil, ErrClosed
	}
	if w.fatal.Load() {
		return nil, ErrFatal
	}
	select {
	case seg := <-w.pool:
		return &Session{w: w, seg: seg, gen: w.generation.Load()}, nil
	case <-w.stop:
		return nil, ErrClosed
	}
}

// Insert indexes one document's fields and attributes under this session's
// leased segment writer, returning whether it was fully indexed (false
// means masked: a field or attribute failed and the document survives as
// a tombstoned doc_id, per spec.md §4.E's per-document failure policy).
func (s *Session) Insert(fields []segment.FieldValue, attributes []segment.Attribute) bool {
	ctx := segment.UpdateContext{Generation: s.gen, UpdateID: s.w.nextUpdate.Add(1)}
	return s.seg.Insert(fields, attributes, ctx)
}

// Close releases the leased writer back to the pool. If it has accumulated
// enough documents to warrant an early flush, Close flushes it in the
// background and replaces it in the pool with a fresh writer rather than
// blocking the caller on I/O.
func (s *Session) Close() {
	if s.seg.DocsCached() >= s.w.cfg.CommitDocThreshold {
		go s.w.flushAndReplace(s.seg)
		return
	}
	s.w.pool <- s.seg
}

func (w *Writer) flushAndReplace(seg *segment.Writer) {
	w.pool <- w.newSegmentWriter()
	ok, meta, err := seg.Flush()
	if err != nil {
		w.cfg.Logger.Errorw("early segment flush failed", "segment", seg.Name(), "error", err)
		w.fatal.Store(true)
		return
	}
	if !ok {
		return
	}
	w.mu.Lock()
	w.manifest.Segments = append(w.manifest.Segments, meta)
	w.mu.Unlock()
}

// Commit drains every pool writer (a soft barrier: the channel receive
// blocks until sessions in flight release theirs), flushes whichever ones
// accumulated documents, replaces them with fresh writers, and publishes a
// new manifest generation if anything changed.
func (w *Writer) Commit() error {
	segs := make([]*segment.Writer, 0, w.poolCap)
	for i := 0; i < w.poolCap; i++ {
		segs = append(segs, <-w.pool)
	}
	defer func() {
		for _, s := range segs {
			w.pool <- s
		}
	}()

	var flushed []segmeta.Segment
	for i, s := range segs {
		ok, meta, err := s.Flush()
		if err != nil {
			return err
		}
		if ok {
			flushed = append(flushed, meta)
			segs[i] = w.newSegmentWriter()
		}
	}

	w.mu.Lock()
	newSegments := append(append([]segmeta.Segment(nil), w.manifest.Segments...), flushed...)
	w.mu.Unlock()

	if len(flushed) == 0 && len(newSegments) == len(w.manifest.Segments) {
		return nil
	}
	return w.publishManifest(newSegments)
}

// publishManifest writes the new manifest under a temp name and renames it
// into place, so a reader opening the directory mid-write (or a crash
// before the rename completes) only ever sees the previous manifest, never
// a half-written one at the final generation name.
func (w *Writer) publishManifest(segments []segmeta.Segment) error {
	gen := w.generation.Add(1)
	m := segmeta.Manifest{Generation: gen, Segments: segments}

	name := segfile.GenerateName(gen, "manifest", "manifest")
	tmp := name + ".tmp"
	out, err := w.cfg.Dir.Create(tmp)
	if err != nil {
		return verrors.ClassifyIOError(err, "create", tmp)
	}
	if err := segmeta.Write(out, m); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := w.cfg.Dir.Rename(tmp, name); err != nil {
		return err
	}

	w.mu.Lock()
	w.manifest = m
	w.mu.Unlock()

	w.cfg.Logger.Infow("committed manifest", "generation", gen, "segments", len(segments))
	return nil
}

func (w *Writer) commitLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.CommitPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.Commit(); err != nil {
				w.cfg.Logger.Errorw("commit failed, halting ingestion", "error", err)
				w.fatal.Store(true)
				return
			}
		case <-w.stop:
			return
		}
	}
}

func (w *Writer) consolidationLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.ConsolidationInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.runConsolidation()
		case <-w.stop:
			return
		}
	}
}

func (w *Writer) runConsolidation() {
	for _, group := range w.selectConsolidationGroups(w.cfg.ConsolidationPolicy) {
		go func(group []segmeta.Segment) {
			if err := w.consolidateGroup(group); err != nil {
				w.cfg.Logger.Warnw("background consolidation failed", "segments", group, "error", err)
			}
		}(group)
	}
}

// ConsolidateNow runs policy against the current live segment set and
// merges every resulting group synchronously, returning once all of them
// have either published a new manifest generation or failed. It backs the
// CLI's --consolidate-all flag, which needs consolidation to have actually
// happened before the process exits rather than merely being scheduled.
func (w *Writer) ConsolidateNow(policy consolidate.Policy) error {
	var firstErr error
	for _, group := range w.selectConsolidationGroups(policy) {
		if err := w.consolidateGroup(group); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// selectConsolidationGroups marks every segment in each disjoint group
// returned by policy as in-flight so concurrent callers don't pick the same
// segment twice, and returns the groups worth merging (size >= 2).
func (w *Writer) selectConsolidationGroups(policy consolidate.Policy) [][]segmeta.Segment {
	w.mu.Lock()
	live := append([]segmeta.Segment(nil), w.manifest.Segments...)
	var candidates []segmeta.Segment
	for _, s := range live {
		if _, busy := w.inFlight[s.Name]; !busy {
			candidates = append(candidates, s)
		}
	}
	w.mu.Unlock()

	var selected [][]segmeta.Segment
	for _, group := range policy(candidates) {
		if len(group) < 2 {
			continue
		}
		w.mu.Lock()
		for _, s := range group {
			w.inFlight[s.Name] = struct{}{}
		}
		w.mu.Unlock()
		selected = append(selected, group)
	}
	return selected
}

func (w *Writer) consolidateGroup(group []segmeta.Segment) error {
	w.consolidateSem <- struct{}{}
	defer func() { <-w.consolidateSem }()

	defer func() {
		w.mu.Lock()
		for _, s := range group {
			delete(w.inFlight, s.Name)
		}
		w.mu.Unlock()
	}()

	readers := make([]*segreader.Reader, 0, len(group))
	colReaders := make([]*colreader.Reader, 0, len(group))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
		for _, c := range colReaders {
			c.Close()
		}
	}()

	for _, s := range group {
		r, err := segreader.Open(w.cfg.Dir, s)
		if err != nil {
			return fmt.Errorf("opening segment %s: %w", s.Name, err)
		}
		readers = append(readers, r)
		cr, err := colreader.Open(w.cfg.Dir, s)
		if err != nil {
			return fmt.Errorf("opening columns for %s: %w", s.Name, err)
		}
		colReaders = append(colReaders, cr)
	}

	name := strings.TrimSuffix(segfile.GenerateName(w.nextSeq.Add(1)-1, "seg", "fld"), ".fld")
	mw := merge.NewWriter(merge.Config{Dir: w.cfg.Dir, ColumnCompress: w.cfg.ColumnCompress, Skip: merge.SkipParams(w.cfg.Skip)})
	ok, meta, err := mw.Merge(readers, colReaders, name)
	if err != nil {
		return fmt.Errorf("merging %v: %w", group, err)
	}

	w.mu.Lock()
	kept := make([]segmeta.Segment, 0, len(w.manifest.Segments))
	merged := make(map[string]struct{}, len(group))
	for _, s := range group {
		merged[s.Name] = struct{}{}
	}
	for _, s := range w.manifest.Segments {
		if _, gone := merged[s.Name]; !gone {
			kept = append(kept, s)
		}
	}
	if ok {
		kept = append(kept, meta)
	}
	segments := kept
	w.mu.Unlock()

	if err := w.publishManifest(segments); err != nil {
		return fmt.Errorf("publishing post-consolidation manifest: %w", err)
	}

	for _, s := range group {
		for _, f := range s.Files {
			_ = w.cfg.Dir.Remove(f)
		}
	}
	return nil
}

// Fatal reports whether a background commit has failed unrecoverably,
// after which Documents always returns ErrFatal.
func (w *Writer) Fatal() bool { return w.fatal.Load() }

// Close stops the background loops, performs a final commit, and marks the
// writer closed. It is idempotent.
func (w *Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(w.stop)
	w.wg.Wait()
	return w.Commit()
}
