// Package field implements per-field term dictionaries (spec.md §4.C):
// the hashed mapping from term bytes to a posting accumulator that a
// segment writer drives as the analyzer emits tokens for each document. It
// is grounded in the teacher's internal/index/model.go record store
// (map[string]*RecordPointer guarded by a RWMutex, atomic closed flag)
// generalized from a single flat key space to one term dictionary per
// field, with term lookup replaced by postings.Posting accumulation.
package field

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vexsearch/vex/internal/docid"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/pkg/verrors"
)

// ErrClosed is returned by Update once the field data has been closed,
// mirroring the standard library's convention for post-close operations
// (e.g. os.ErrClosed). It signals a caller bug (the segment writer closes
// field data only as part of its own flush/reset), not a runtime failure.
var ErrClosed = errors.New("field: data closed")

// Spec describes one field's indexing configuration: whether tokens become
// postings, whether the raw value is kept for retrieval, and which
// proximity data its posting lists carry.
type Spec struct {
	Name     string
	Indexed  bool
	Stored   bool
	Features postings.Features
}

// Data is one field's term dictionary within a single segment writer. It is
// safe for concurrent reads (e.g. a background flush reading Terms while
// another goroutine inspects state), but Update is expected to be called
// only by the single goroutine that owns the enclosing segment writer.
type Data struct {
	spec   Spec
	mu     sync.RWMutex
	terms  map[string]*postings.Posting
	closed atomic.Bool
}

// New creates an empty term dictionary for spec.
func New(spec Spec) *Data {
	return &Data{spec: spec, terms: make(map[string]*postings.Posting)}
}

// Spec returns the field's configuration.
func (d *Data) Spec() Spec { return d.spec }

// Update folds one analyzer token into this field's term dictionary for
// docID: it looks up or creates the term's posting accumulator, enforces
// the strictly-ascending doc_id invariant, and accumulates the occurrence.
func (d *Data) Update(docID docid.ID, term []byte, posIncrement int, offStart, offEnd uint32, payload []byte) error {
	if d.closed.Load() {
		return ErrClosed
	}

	key := string(term)
	d.mu.RLock()
	p, ok := d.terms[key]
	d.mu.RUnlock()
	if !ok {
		d.mu.Lock()
		if p, ok = d.terms[key]; !ok {
			p = postings.NewPosting(d.spec.Features)
			d.terms[key] = p
		}
		d.mu.Unlock()
	}

	if last := p.LastDoc(); last != docid.Invalid && docID < last {
		return verrors.NewNonMonotonicDocIDError(d.spec.Name, key, last, docID)
	}
	p.Add(docID, posIncrement, offStart, offEnd, payload)
	return nil
}

// Terms returns every term currently in the dictionary in strictly
// ascending byte-lexicographic order, the order segment flush must walk
// them in. Go's string comparison is already byte-wise, so sort.Strings
// matches the "arbitrary byte string" ordering spec.md §3 requires.
func (d *Data) Terms() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.terms))
	for t := range d.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Posting returns the accumulator for term, or nil if the term was never seen.
func (d *Data) Posting(term string) *postings.Posting {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.terms[term]
}

// Len reports how many distinct terms the dictionary holds.
func (d *Data) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.terms)
}

// Close marks the field data closed; further Update calls return
// ErrClosed. Called by the segment writer once the dictionary has been
// flushed to the segment codec, or as part of Reset.
func (d *Data) Close() { d.closed.Store(true) }
