// Package docid defines the document identifier sentinels shared by every
// component that deals with doc_ids: the segment writer that assigns them,
// the skip-list and posting codecs that encode them, and the merge writer
// that remaps them.
package docid

// ID is a segment-local document identifier. Global identity is (segment, ID).
type ID = uint32

const (
	// Invalid marks "no document" / a deleted mapping target.
	Invalid ID = 0
	// Min is the first identifier assigned within a segment.
	Min ID = 1
	// EOF is the distinguished maximum used to signal iterator exhaustion.
	EOF ID = ^uint32(0)
)
