package directory

import "sync"

// Tracking wraps a Directory and records every file name created through
// it, so a failed segment or merge flush can delete exactly the files it
// made without guessing at what else might live in the directory. This is
// the Go analogue of the original C++ write path's tracking_directory used
// by segment_writer and merge_writer.
type Tracking struct {
	Directory
	mu      sync.Mutex
	created []string
}

// NewTracking wraps dir with file-creation tracking.
func NewTracking(dir Directory) *Tracking {
	return &Tracking{Directory: dir}
}

// Create delegates to the wrapped Directory and records name as created.
func (t *Tracking) Create(name string) (OutputStream, error) {
	out, err := t.Directory.Create(name)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.created = append(t.created, name)
	t.mu.Unlock()
	return out, nil
}

// Created returns every file name created through this Tracking directory
// so far, in creation order.
func (t *Tracking) Created() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.created))
	copy(out, t.created)
	return out
}

// Cleanup removes every file this Tracking directory has created. Errors
// removing individual files are ignored (best-effort) since cleanup
// itself runs on an already-failed path; the caller has already decided
// the operation failed.
func (t *Tracking) Cleanup() {
	for _, name := range t.Created() {
		_ = t.Directory.Remove(name)
	}
}
