package directory

import (
	"io"
	"os"
	"path/filepath"

	"github.com/vexsearch/vex/pkg/filesys"
	"github.com/vexsearch/vex/pkg/verrors"
)

// FS is a filesystem-backed Directory. It is grounded in the teacher's
// internal/storage segment-file discipline: files are opened with
// O_CREATE|O_RDWR, writers explicitly track their own offset rather than
// trusting O_APPEND for the file pointer reported to callers, and
// directory creation goes through the shared filesys helpers.
type FS struct {
	root string
}

// NewFS creates an FS rooted at root, creating the directory if it does not exist.
func NewFS(root string) (*FS, error) {
	if err := filesys.CreateDir(root, 0755, true); err != nil {
		return nil, verrors.ClassifyIOError(err, "create_dir", root)
	}
	return &FS{root: root}, nil
}

func (d *FS) path(name string) string {
	return filepath.Join(d.root, name)
}

// Create implements Directory.
func (d *FS) Create(name string) (OutputStream, error) {
	path := d.path(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, verrors.ClassifyIOError(err, "create", path)
	}
	return &fsOutput{f: f, name: name}, nil
}

// Open implements Directory.
func (d *FS) Open(name string) (InputStream, error) {
	path := d.path(name)
	f, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		return nil, verrors.ClassifyIOError(err, "open", path)
	}
	return &fsInput{f: f, name: name}, nil
}

// Exists implements Directory.
func (d *FS) Exists(name string) (bool, error) {
	return filesys.Exists(d.path(name))
}

// Remove implements Directory.
func (d *FS) Remove(name string) error {
	err := os.Remove(d.path(name))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return verrors.ClassifyIOError(err, "remove", d.path(name))
	}
	return nil
}

// Rename implements Directory.
func (d *FS) Rename(from, to string) error {
	if err := os.Rename(d.path(from), d.path(to)); err != nil {
		return verrors.ClassifyIOError(err, "rename", d.path(to))
	}
	return nil
}

// Length implements Directory.
func (d *FS) Length(name string) (int64, error) {
	info, err := os.Stat(d.path(name))
	if err != nil {
		return 0, verrors.ClassifyIOError(err, "stat", d.path(name))
	}
	return info.Size(), nil
}

// List implements Directory.
func (d *FS) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, verrors.ClassifyIOError(err, "list", d.root)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

type fsOutput struct {
	f    *os.File
	name string
	pos  int64
}

func (o *fsOutput) Write(p []byte) (int, error) {
	n, err := o.f.Write(p)
	o.pos += int64(n)
	return n, err
}

func (o *fsOutput) Close() error { return o.f.Close() }
func (o *fsOutput) Sync() error  { return o.f.Sync() }
func (o *fsOutput) Name() string { return o.name }
func (o *fsOutput) Pos() int64   { return o.pos }

type fsInput struct {
	f    *os.File
	name string
}

func (i *fsInput) Read(p []byte) (int, error)              { return i.f.Read(p) }
func (i *fsInput) ReadAt(p []byte, off int64) (int, error) { return i.f.ReadAt(p, off) }
func (i *fsInput) Close() error                            { return i.f.Close() }
func (i *fsInput) Seek(offset int64, whence int) (int64, error) {
	return i.f.Seek(offset, whence)
}
func (i *fsInput) Name() string { return i.name }

func (i *fsInput) Length() (int64, error) {
	info, err := i.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Dup opens an independent *os.File handle over the same path, so seeking
// one cursor never disturbs another — required by the skip-list reader,
// which keeps one cursor per level over the same posting-list file.
func (i *fsInput) Dup() (InputStream, error) {
	f, err := os.OpenFile(i.f.Name(), os.O_RDONLY, 0644)
	if err != nil {
		return nil, verrors.ClassifyIOError(err, "dup", i.f.Name())
	}
	return &fsInput{f: f, name: i.name}, nil
}

var _ io.ReaderAt = (*fsInput)(nil)
