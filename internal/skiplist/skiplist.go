// Package skiplist implements the multi-level skip structure segment
// posting lists use to accelerate seeks: a base stride skip_0 at level 0,
// and a geometric stride skip_0*skip_n^L at every level L>0, each level-L
// entry (L>0) carrying a back-pointer to the start of the corresponding
// level-(L-1) sub-region. It is a direct port of the original engine's
// skip_writer_base/skip_reader_base (core/formats/skip_list.cpp): the
// payload each block carries is codec-defined and supplied by the caller
// (the postings accumulator), this package only owns the level framing,
// the child back-pointers, and the on-disk trailer layout.
package skiplist

import (
	"bytes"
	"io"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/pkg/verrors"
)

// Undefined marks the bottom level's child pointer: level 0 has nothing
// beneath it to descend into.
const Undefined int64 = -1

// WriteBlock is supplied by the caller to encode one level's payload at a
// skip point. It must not write the trailing child pointer; Writer appends
// that itself for levels above 0.
type WriteBlock func(level int, w *codec.Writer) error

// Writer accumulates skip entries into one in-memory buffer per level as
// the caller streams postings, then flushes the whole trailer in one call.
type Writer struct {
	skip0, skipN int
	levels       []*levelBuf
}

type levelBuf struct {
	buf *bytes.Buffer
	w   *codec.Writer
}

// NewWriter creates a Writer using skip0 as the level-0 stride and skipN as
// the per-level geometric multiplier. Both must be >= 1.
func NewWriter(skip0, skipN int) *Writer {
	return &Writer{skip0: skip0, skipN: skipN}
}

// NumLevels computes how many levels a skip list over count postings
// should have, capped at maxLevels: max(1, floor(log_skipN(count/skip0))+1)
// once count exceeds skip0, else 0 (too few postings to need acceleration).
func NumLevels(skip0, skipN, maxLevels, count int) int {
	if count <= skip0 {
		return 0
	}
	if maxLevels < 1 {
		maxLevels = 1
	}
	levels := 1
	ratio := count / skip0
	for ratio >= skipN {
		ratio /= skipN
		levels++
	}
	if levels > maxLevels {
		levels = maxLevels
	}
	if levels < 1 {
		levels = 1
	}
	return levels
}

// Prepare reserves level buffers for a posting list of count documents,
// capped at maxLevels. Calling Prepare discards any previously accumulated
// state, so a Writer can be reused across terms.
func (w *Writer) Prepare(maxLevels, count int) {
	n := NumLevels(w.skip0, w.skipN, maxLevels, count)
	w.levels = make([]*levelBuf, n)
	for i := range w.levels {
		buf := new(bytes.Buffer)
		w.levels[i] = &levelBuf{buf: buf, w: codec.NewWriter(buf)}
	}
}

// Skip notifies the writer that n postings have been written and n is a
// multiple of skip0. writeBlock is invoked once per level that triggers at
// this point, starting at level 0 and working up until a level's stride
// does not divide n; since strides only grow, once one level fails to
// trigger no higher level can either.
func (w *Writer) Skip(n int, writeBlock WriteBlock) error {
	if len(w.levels) == 0 {
		return nil
	}
	k := int64(n / w.skip0)
	childOffset := Undefined
	stride := int64(1)
	for level := 0; level < len(w.levels); level++ {
		if level > 0 {
			stride *= int64(w.skipN)
		}
		if k%stride != 0 {
			break
		}
		lv := w.levels[level]
		before := lv.w.Pos()
		if err := writeBlock(level, lv.w); err != nil {
			return err
		}
		if level > 0 {
			if err := lv.w.WriteVarlong(uint64(childOffset)); err != nil {
				return err
			}
		}
		childOffset = before
	}
	return nil
}

// Flush writes the trailer: a varint level count, then each non-empty
// level from highest to lowest as a varlong byte length followed by the
// level's buffered bytes. Empty tail levels (allocated by Prepare but
// never triggered) are trimmed; an empty level below the highest
// non-empty one means a level was skipped during writing, which can only
// happen from a Writer bug, and is reported as a format error rather than
// silently producing an unreadable trailer.
func (w *Writer) Flush(out *codec.Writer) error {
	top := -1
	for i := len(w.levels) - 1; i >= 0; i-- {
		if w.levels[i].w.Pos() > 0 {
			top = i
			break
		}
	}
	if top == -1 {
		return out.WriteVarint(0)
	}
	if err := out.WriteVarint(uint32(top + 1)); err != nil {
		return err
	}
	for level := top; level >= 0; level-- {
		lv := w.levels[level]
		length := lv.w.Pos()
		if length == 0 {
			return verrors.NewZeroLengthLevelError("", level)
		}
		if err := out.WriteVarlong(uint64(length)); err != nil {
			return err
		}
		if err := out.WriteRaw(lv.buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// Level is one level's read cursor over the on-disk trailer: its own
// sub-stream, the [begin, end) byte range it occupies in the underlying
// file, the doc-count stride it represents, and the most recently read
// child offset into the level below.
type Level struct {
	stream       directory.InputStream
	begin, end   int64
	id           int
	step         int
	skipped      int
	child        int64
}

// Step returns the document-count stride this level represents.
func (l *Level) Step() int { return l.step }

// Skipped returns the number of postings skipped over by the most recent
// SeekSkip on this level.
func (l *Level) Skipped() int { return l.skipped }

// Child returns the most recently read child offset into the level below,
// or Undefined for the bottom level.
func (l *Level) Child() int64 { return l.child }

// Reader replays a skip-list trailer written by Writer, giving the caller
// one independent cursor per level (Dup'd from the posting-list file) so
// descending from a high level to a low one never disturbs the high
// level's own position.
type Reader struct {
	skip0, skipN int
	levels       []*Level
}

// NewReader creates a Reader expecting the same skip0/skipN the
// corresponding Writer used.
func NewReader(skip0, skipN int) *Reader {
	return &Reader{skip0: skip0, skipN: skipN}
}

// Prepare reads the trailer starting at in's current position: the level
// count, then each level's length top-down, duplicating in for every level
// above the bottom so each gets an independent seekable cursor. in itself
// becomes the bottom level's stream.
func (r *Reader) Prepare(in directory.InputStream) error {
	head := codec.NewReader(in)
	levelCount, err := head.ReadVarint()
	if err != nil {
		return err
	}
	cur := head.Pos()
	if levelCount == 0 {
		r.levels = nil
		return nil
	}

	levels := make([]*Level, levelCount)
	step := r.skip0
	for i := 0; i < int(levelCount)-1; i++ {
		step *= r.skipN
	}

	for idx := int(levelCount) - 1; idx >= 1; idx-- {
		dup, err := in.Dup()
		if err != nil {
			return err
		}
		if _, err := dup.Seek(cur, io.SeekStart); err != nil {
			return err
		}
		dr := codec.NewReader(dup)
		length, err := dr.ReadVarlong()
		if err != nil {
			return err
		}
		if length == 0 {
			return verrors.NewZeroLengthLevelError(in.Name(), idx)
		}
		begin := cur + dr.Pos()
		end := begin + int64(length)
		levels[idx] = &Level{stream: dup, begin: begin, end: end, id: idx, step: step, child: Undefined}
		cur = end
		step /= r.skipN
	}

	if _, err := in.Seek(cur, io.SeekStart); err != nil {
		return err
	}
	ir := codec.NewReader(in)
	length0, err := ir.ReadVarlong()
	if err != nil {
		return err
	}
	if length0 == 0 {
		return verrors.NewZeroLengthLevelError(in.Name(), 0)
	}
	begin0 := cur + ir.Pos()
	end0 := begin0 + int64(length0)
	levels[0] = &Level{stream: in, begin: begin0, end: end0, id: 0, step: r.skip0, child: Undefined}

	r.levels = levels
	return nil
}

// NumLevels returns how many levels the prepared trailer has.
func (r *Reader) NumLevels() int { return len(r.levels) }

// Level returns the read cursor for level i (0 is the bottom).
func (r *Reader) Level(i int) *Level { return r.levels[i] }

// SeekSkip advances level's cursor to begin+ptr and records skipped, unless
// the cursor is already past that position, in which case it is a no-op:
// skip entries are visited in increasing order, so a caller re-seeking to
// an earlier or equal point means the lower levels have already converged.
// If the level has a child (every level but the bottom), the child offset
// immediately following the block at the new position is read and stored.
func (r *Reader) SeekSkip(level int, ptr uint64, skipped int) error {
	lv := r.levels[level]
	target := lv.begin + int64(ptr)

	current, err := lv.stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if target <= current {
		return nil
	}
	if _, err := lv.stream.Seek(target, io.SeekStart); err != nil {
		return err
	}
	lv.skipped = skipped

	if level > 0 {
		cr := codec.NewReader(lv.stream)
		child, err := cr.ReadVarlong()
		if err != nil {
			return err
		}
		lv.child = int64(child)
	}
	return nil
}

// Reset rewinds every level's cursor back to the start of its data region,
// ready to replay the trailer for a new outer iteration.
func (r *Reader) Reset() error {
	for _, lv := range r.levels {
		if _, err := lv.stream.Seek(lv.begin, io.SeekStart); err != nil {
			return err
		}
		lv.skipped = 0
		if lv.id > 0 {
			lv.child = Undefined
		}
	}
	return nil
}

// Close releases every level's duplicated stream except the bottom one,
// which the caller owns (it is the same stream passed to Prepare).
func (r *Reader) Close() error {
	var first error
	for _, lv := range r.levels {
		if lv.id == 0 {
			continue
		}
		if err := lv.stream.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
