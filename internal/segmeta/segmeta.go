// Package segmeta defines the segment_meta and manifest descriptors
// (spec.md §3) shared by the segment, merge, and index writer packages:
// a segment's name, document count, and file list, and the manifest that
// ties a generation number to the set of currently live segments.
package segmeta

import (
	"encoding/json"

	"github.com/vexsearch/vex/internal/codec"
	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/pkg/verrors"
)

// Segment describes one immutable on-disk segment: its name, how many
// documents it holds (live at write time; deletions tracked separately by
// whatever manifest generation references it), the schema version of its
// codec, and every file it owns.
type Segment struct {
	Name       string   `json:"name"`
	DocCount   uint32   `json:"docCount"`
	Version    uint32   `json:"version"`
	Files      []string `json:"files"`
}

// Manifest is one commit point: a generation number and the live segments
// as of that generation. Only one manifest at a time is "current"; readers
// hold whichever manifest they opened with until they release it.
type Manifest struct {
	Generation uint64    `json:"generation"`
	Segments   []Segment `json:"segments"`
}

const manifestFormatVersion = 1

// Write encodes m as length-prefixed JSON behind a fixed-width format
// version and a trailing checksum, so a manifest file is self-describing
// and corruption is detected before any segment is opened on its behalf.
// JSON (rather than the positional binary layout segment postings use) is
// deliberate: manifests are small, read rarely compared to postings, and
// benefit from being diffable/inspectable on disk.
func Write(out directory.OutputStream, m Manifest) error {
	cw := codec.NewWriter(out)
	if err := cw.WriteU32(manifestFormatVersion); err != nil {
		return err
	}
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := cw.WriteBytes(body); err != nil {
		return err
	}
	return cw.WriteU64(codec.Checksum(body))
}

// Read decodes a manifest written by Write, verifying its checksum.
func Read(in directory.InputStream) (Manifest, error) {
	cr := codec.NewReader(in)
	var m Manifest

	version, err := cr.ReadU32()
	if err != nil {
		return m, err
	}
	if version != manifestFormatVersion {
		return m, verrors.NewFormatError(nil, verrors.ErrorCodeVersionMismatch, "unsupported manifest version").
			WithFile(in.Name()).
			WithDetail("got", version).
			WithDetail("want", manifestFormatVersion)
	}

	body, err := cr.ReadBytes()
	if err != nil {
		return m, err
	}
	want, err := cr.ReadU64()
	if err != nil {
		return m, err
	}
	if !codec.VerifyChecksum(body, want) {
		return m, verrors.NewFormatError(nil, verrors.ErrorCodeBadChecksum, "manifest checksum mismatch").
			WithFile(in.Name())
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return m, err
	}
	return m, nil
}

// AllFiles returns the union of every segment's files in m, for readers
// that need to know what to keep alive.
func (m Manifest) AllFiles() []string {
	var files []string
	for _, seg := range m.Segments {
		files = append(files, seg.Files...)
	}
	return files
}

// Has reports whether m's live segment set includes a segment named name.
func (m Manifest) Has(name string) bool {
	for _, seg := range m.Segments {
		if seg.Name == name {
			return true
		}
	}
	return false
}
