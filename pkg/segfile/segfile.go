// Package segfile implements the naming discipline for segment and
// manifest files: prefix_NNNNN_timestamp.ext, zero-padded so that
// lexicographic sort order matches numeric sequence order. It is adapted
// from the teacher's pkg/seginfo, generalized to operate over the
// directory.Directory abstraction instead of the local filesystem, and to
// cover both segment files (seg_ prefix, .fld/.col/.mask extensions) and
// manifest files (manifest_ prefix, .manifest extension).
package segfile

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vexsearch/vex/internal/directory"
)

// GenerateName creates a filename of the form prefix_NNNNN_timestamp.ext
// with a zero-padded 5-digit sequence number and a nanosecond-precision
// Unix timestamp for uniqueness and traceability.
func GenerateName(id uint64, prefix, ext string) string {
	return fmt.Sprintf("%s_%05d_%d.%s", prefix, id, time.Now().UnixNano(), ext)
}

// ParseID extracts the sequence number from a name produced by GenerateName.
func ParseID(name, prefix string) (uint64, error) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, prefix) {
		return 0, fmt.Errorf("segfile: %q does not start with prefix %q", base, prefix)
	}

	withoutPrefix := strings.TrimPrefix(base, prefix)
	withoutExt := strings.SplitN(withoutPrefix, ".", 2)[0]

	parts := strings.Split(withoutExt, "_")
	if len(parts) < 3 {
		return 0, fmt.Errorf("segfile: %q does not match prefix_ID_timestamp format", base)
	}

	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("segfile: parsing sequence id in %q: %w", base, err)
	}
	return id, nil
}

// Latest lists dir and returns the highest-sequence-numbered file matching
// prefix and ext. found is false if no such file exists. Lexicographic
// sort suffices because sequence numbers are zero-padded and timestamps
// are monotonically increasing within a sequence number.
func Latest(dir directory.Directory, prefix, ext string) (id uint64, name string, found bool, err error) {
	names, err := dir.List()
	if err != nil {
		return 0, "", false, err
	}

	suffix := "." + ext
	matching := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasPrefix(n, prefix) && strings.HasSuffix(n, suffix) {
			matching = append(matching, n)
		}
	}
	if len(matching) == 0 {
		return 0, "", false, nil
	}

	slices.Sort(matching)
	last := matching[len(matching)-1]
	id, err = ParseID(last, prefix)
	if err != nil {
		return 0, "", false, err
	}
	return id, last, true, nil
}
