package directory

import "io"

// section bounds a sub-range of a parent file as an independent InputStream
// with its own cursor, the way segment and column file formats let several
// logical blobs share one physical file.
type section struct {
	*io.SectionReader
	parent io.ReaderAt
	off, n int64
	name   string
}

// Section returns name as an independent InputStream over [off, off+n) of
// parent. The result does not own parent: closing it is a no-op, and
// parent must outlive every section derived from it.
func Section(parent io.ReaderAt, off, n int64, name string) InputStream {
	return &section{SectionReader: io.NewSectionReader(parent, off, n), parent: parent, off: off, n: n, name: name}
}

func (s *section) Close() error           { return nil }
func (s *section) Length() (int64, error) { return s.n, nil }
func (s *section) Name() string           { return s.name }
func (s *section) Dup() (InputStream, error) {
	return Section(s.parent, s.off, s.n, s.name), nil
}
