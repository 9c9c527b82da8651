// Package directory defines the abstract random-access-files interface the
// write path consumes (spec.md §6) and provides two concrete
// implementations: an os.File-backed Directory grounded in the teacher's
// append-only segment-file discipline, and an in-memory Directory for
// tests and the --dir-type memory CLI flag. A TrackingDirectory decorator
// wraps either implementation to support rollback of partially-written
// segments on flush failure.
package directory

import "io"

// OutputStream is a byte-oriented, append-style handle to a file being written.
type OutputStream interface {
	io.Writer
	io.Closer
	// Sync flushes the stream to stable storage.
	Sync() error
	// Name returns the file name this stream was created for.
	Name() string
	// Pos returns the current write offset (the "file pointer").
	Pos() int64
}

// InputStream is a byte-oriented, seekable handle to a file being read. It
// supports Dup so independent cursors can be taken over the same
// underlying file, which the skip-list reader relies on to give every
// level its own cursor.
type InputStream interface {
	io.Reader
	io.ReaderAt
	io.Closer
	io.Seeker
	// Dup returns an independent InputStream over the same file, positioned
	// at the start. Closing one duplicate must not affect the others.
	Dup() (InputStream, error)
	// Length returns the total byte length of the underlying file.
	Length() (int64, error)
	// Name returns the file name this stream was opened for.
	Name() string
}

// Directory is the abstract collection of named files a segment, merge, or
// index writer operates against.
type Directory interface {
	// Create opens name for writing, truncating any existing content.
	Create(name string) (OutputStream, error)
	// Open opens name for reading.
	Open(name string) (InputStream, error)
	// Exists reports whether name is present in the directory.
	Exists(name string) (bool, error)
	// Remove deletes name. It is not an error if name does not exist.
	Remove(name string) error
	// Rename atomically replaces to with from's contents.
	Rename(from, to string) error
	// Length returns the byte length of name.
	Length(name string) (int64, error)
	// List returns every file name currently in the directory.
	List() ([]string, error)
}
