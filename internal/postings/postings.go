// Package postings implements the per-term posting accumulator (spec.md
// §4.B): during document insertion it folds repeated token occurrences of
// the same term within one document into a single accumulated block, and
// at segment flush time it encodes the finished blocks plus a skip-list
// trailer into the segment's posting file. It is new code (the retrieval
// pack's teacher has no equivalent structure), grounded directly in
// spec.md §4.B/§4.C and built on internal/skiplist and internal/codec.
package postings

import (
	"bytes"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/docid"
	"github.com/vexsearch/vex/internal/skiplist"
)

// Features is the bitmask of proximity data a field's posting lists carry,
// declared per field and shared by every term within it.
type Features uint8

const (
	FeatureFrequency Features = 1 << iota
	FeaturePosition
	FeatureOffset
	FeaturePayload
	FeatureNorm
	FeatureGranularityPrefix
)

// Has reports whether flag is set.
func (f Features) Has(flag Features) bool { return f&flag != 0 }

// Offset is a token's [Start, End) byte range within its field's raw value.
type Offset struct {
	Start, End uint32
}

// DocEntry is one term's finished accumulation for a single document: every
// occurrence of the term in that document folded into one frequency count
// and, depending on Features, parallel position/offset/payload slices.
type DocEntry struct {
	DocID     docid.ID
	Freq      uint32
	Positions []uint32
	Offsets   []Offset
	Payloads  [][]byte
}

// Posting is one (field, term) pair's accumulator: the in-progress block
// for whichever document is currently being indexed, and the finished
// blocks for every earlier document. Entries accumulate in insertion
// order, which for a single segment writer is doc_id order, satisfying the
// posting-list invariant that doc_ids are strictly ascending.
type Posting struct {
	Features Features

	firstDoc, lastDoc docid.ID
	lastPosition      uint32

	currentFreq      uint32
	currentPositions []uint32
	currentOffsets   []Offset
	currentPayloads  [][]byte

	totalDocFreq uint32
	entries      []DocEntry
}

// NewPosting creates an empty accumulator for a term with the given field features.
func NewPosting(features Features) *Posting {
	return &Posting{Features: features, firstDoc: docid.Invalid, lastDoc: docid.Invalid}
}

// LastDoc returns the doc_id of the most recent occurrence added, or
// docid.Invalid if none yet. Callers use this to enforce the
// strictly-ascending doc_id invariant before calling Add.
func (p *Posting) LastDoc() docid.ID { return p.lastDoc }

// FirstDoc returns the doc_id of the first occurrence added.
func (p *Posting) FirstDoc() docid.ID { return p.firstDoc }

// DocFreq returns the number of distinct documents this term has appeared
// in so far (finished blocks only; the in-progress document is counted
// once Finalize or the next Add for a new doc_id closes it).
func (p *Posting) DocFreq() uint32 { return p.totalDocFreq }

// Entries returns the finished per-document blocks in doc_id order.
// Finalize must be called first to close out the in-progress document.
func (p *Posting) Entries() []DocEntry { return p.entries }

// Add records one token occurrence of this term in docID. Repeated calls
// with the same docID accumulate into the same block; a new docID closes
// the previous block and starts a fresh one. Callers must ensure docID is
// never less than the previously seen doc_id.
func (p *Posting) Add(docID docid.ID, posIncrement int, offStart, offEnd uint32, payload []byte) {
	if docID != p.lastDoc {
		p.closeCurrent()
		if p.firstDoc == docid.Invalid {
			p.firstDoc = docID
		}
		p.lastDoc = docID
		// lastPosition starts at "one before zero" so the first token of a
		// new document lands at position 0 (posIncrement is 1 for adjacent
		// tokens), matching the original engine's 0-based pos numbering.
		p.lastPosition = ^uint32(0)
	}

	p.currentFreq++
	if p.Features.Has(FeaturePosition) {
		p.lastPosition += uint32(posIncrement)
		p.currentPositions = append(p.currentPositions, p.lastPosition)
	}
	if p.Features.Has(FeatureOffset) {
		p.currentOffsets = append(p.currentOffsets, Offset{Start: offStart, End: offEnd})
	}
	if p.Features.Has(FeaturePayload) {
		p.currentPayloads = append(p.currentPayloads, payload)
	}
}

func (p *Posting) closeCurrent() {
	if p.currentFreq == 0 {
		return
	}
	p.entries = append(p.entries, DocEntry{
		DocID:     p.lastDoc,
		Freq:      p.currentFreq,
		Positions: p.currentPositions,
		Offsets:   p.currentOffsets,
		Payloads:  p.currentPayloads,
	})
	p.totalDocFreq++
	p.currentFreq = 0
	p.currentPositions = nil
	p.currentOffsets = nil
	p.currentPayloads = nil
}

// AddEntry appends an already-finalized block verbatim, used by the merge
// writer to copy postings from a contributing segment without replaying
// individual token occurrences. e.DocID must exceed every doc_id added so
// far (the merge writer guarantees this by remapping and merging in
// ascending order); out-of-order calls are silently dropped rather than
// erroring, since by the time merge assembles entries the invariant has
// already been checked against the source segments.
func (p *Posting) AddEntry(e DocEntry) {
	if p.lastDoc != docid.Invalid && e.DocID <= p.lastDoc {
		return
	}
	if p.firstDoc == docid.Invalid {
		p.firstDoc = e.DocID
	}
	p.lastDoc = e.DocID
	p.entries = append(p.entries, e)
	p.totalDocFreq++
}

// Finalize closes the in-progress document's block, if any. It must be
// called once per term before WriteTo, since a term's last document never
// triggers its own "doc_id changed" flush.
func (p *Posting) Finalize() {
	p.closeCurrent()
}

// WriteTo encodes this term's finished entries onto cw as delta-encoded
// blocks (doc_id delta, frequency, then position/offset/payload data per
// the declared Features), driving a skip-list writer every skip0 blocks,
// and returns the encoded skip-list trailer bytes. The caller is
// responsible for recording cw's position before and after the call (plus
// len of the returned trailer) as the term's total posting-list length.
func (p *Posting) WriteTo(cw *codec.Writer, skip0, skipN, maxLevels int) ([]byte, error) {
	sw := skiplist.NewWriter(skip0, skipN)
	sw.Prepare(maxLevels, len(p.entries))

	var prevDoc docid.ID
	for i, e := range p.entries {
		if err := cw.WriteVarlong(uint64(e.DocID - prevDoc)); err != nil {
			return nil, err
		}
		if err := cw.WriteVarint(e.Freq); err != nil {
			return nil, err
		}
		if p.Features.Has(FeaturePosition) {
			var prevPos uint32
			for _, pos := range e.Positions {
				if err := cw.WriteVarint(pos - prevPos); err != nil {
					return nil, err
				}
				prevPos = pos
			}
		}
		if p.Features.Has(FeatureOffset) {
			for _, off := range e.Offsets {
				if err := cw.WriteVarint(off.Start); err != nil {
					return nil, err
				}
				if err := cw.WriteVarint(off.End - off.Start); err != nil {
					return nil, err
				}
			}
		}
		if p.Features.Has(FeaturePayload) {
			for _, pl := range e.Payloads {
				if err := cw.WriteBytes(pl); err != nil {
					return nil, err
				}
			}
		}
		prevDoc = e.DocID

		n := i + 1
		if n%skip0 == 0 {
			ptr := uint64(cw.Pos())
			lastDoc := e.DocID
			if err := sw.Skip(n, func(level int, lw *codec.Writer) error {
				if err := lw.WriteVarlong(ptr); err != nil {
					return err
				}
				return lw.WriteVarint(lastDoc)
			}); err != nil {
				return nil, err
			}
		}
	}

	var trailer bytes.Buffer
	tw := codec.NewWriter(&trailer)
	if err := sw.Flush(tw); err != nil {
		return nil, err
	}
	return trailer.Bytes(), nil
}
