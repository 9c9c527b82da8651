package directory

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/vexsearch/vex/pkg/verrors"
)

// Memory is an in-memory Directory backed by a mutex-guarded map of byte
// slices. It exists for tests and for the --dir-type memory CLI flag,
// where segment files never need to survive a process restart.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory creates an empty in-memory Directory.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Create implements Directory.
func (d *Memory) Create(name string) (OutputStream, error) {
	return &memOutput{dir: d, name: name}, nil
}

// Open implements Directory.
func (d *Memory) Open(name string) (InputStream, error) {
	d.mu.RLock()
	data, ok := d.files[name]
	d.mu.RUnlock()
	if !ok {
		return nil, verrors.NewIOError(fmt.Errorf("no such file"), verrors.ErrorCodeIO, "file not found").
			WithOp("open").WithPath(name)
	}
	return &memInput{name: name, data: data}, nil
}

// Exists implements Directory.
func (d *Memory) Exists(name string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.files[name]
	return ok, nil
}

// Remove implements Directory.
func (d *Memory) Remove(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, name)
	return nil
}

// Rename implements Directory.
func (d *Memory) Rename(from, to string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.files[from]
	if !ok {
		return verrors.NewIOError(fmt.Errorf("no such file"), verrors.ErrorCodeIO, "rename source missing").
			WithOp("rename").WithPath(from)
	}
	d.files[to] = data
	delete(d.files, from)
	return nil
}

// Length implements Directory.
func (d *Memory) Length(name string) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.files[name]
	if !ok {
		return 0, verrors.NewIOError(fmt.Errorf("no such file"), verrors.ErrorCodeIO, "file not found").
			WithOp("length").WithPath(name)
	}
	return int64(len(data)), nil
}

// List implements Directory.
func (d *Memory) List() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	return names, nil
}

type memOutput struct {
	dir  *Memory
	name string
	buf  bytes.Buffer
}

func (o *memOutput) Write(p []byte) (int, error) { return o.buf.Write(p) }
func (o *memOutput) Sync() error                 { return nil }
func (o *memOutput) Name() string                { return o.name }
func (o *memOutput) Pos() int64                  { return int64(o.buf.Len()) }

func (o *memOutput) Close() error {
	o.dir.mu.Lock()
	defer o.dir.mu.Unlock()
	o.dir.files[o.name] = append([]byte(nil), o.buf.Bytes()...)
	return nil
}

// memInput reads from an immutable byte slice shared across duplicates;
// once a segment file is closed for writing it is never mutated again, so
// sharing the backing array across Dup() calls is safe.
type memInput struct {
	name string
	data []byte
	pos  int64
}

func (i *memInput) Read(p []byte) (int, error) {
	if i.pos >= int64(len(i.data)) {
		return 0, io.EOF
	}
	n := copy(p, i.data[i.pos:])
	i.pos += int64(n)
	return n, nil
}

func (i *memInput) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(i.data)) {
		return 0, io.EOF
	}
	n := copy(p, i.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (i *memInput) Close() error { return nil }

func (i *memInput) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case 0:
		base = 0
	case 1:
		base = i.pos
	case 2:
		base = int64(len(i.data))
	}
	i.pos = base + offset
	return i.pos, nil
}

func (i *memInput) Name() string { return i.name }

func (i *memInput) Length() (int64, error) { return int64(len(i.data)), nil }

func (i *memInput) Dup() (InputStream, error) {
	return &memInput{name: i.name, data: i.data}, nil
}
