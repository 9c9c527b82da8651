// Package options provides data structures and functions for configuring a
// vex index writer. It defines the parameters that control segment
// staging, consolidation, and the on-disk codec, following the functional
// options pattern: start from NewDefaultOptions and apply OptionFunc
// values to override individual fields.
package options

import (
	"strings"
	"time"
)

// Options defines the configuration parameters for an index writer.
type Options struct {
	// DataDir is a base path for segment and manifest files. vex.Open does
	// not read it: an instance stores its files in the directory.Directory
	// passed to Open.
	//
	// Default: "/var/lib/vex"
	DataDir string `json:"dataDir"`

	// SegmentPoolSize bounds how many segment writers the index writer
	// leases concurrently. Additional Insert callers block until one frees up.
	//
	// Default: 4
	SegmentPoolSize int `json:"segmentPoolSize"`

	// SegmentMemoryMax is the approximate in-memory byte budget per leased
	// segment writer before it is flushed and replaced with a fresh one.
	//
	//  - Default: 64MB
	//  - Minimum: 1MB
	//  - Maximum: 1GB
	SegmentMemoryMax uint64 `json:"segmentMemoryMax"`

	// CommitPeriod is how often the committer thread wakes up to flush
	// pending changes into a new manifest, even without an explicit commit.
	//
	// Default: 1s
	CommitPeriod time.Duration `json:"commitPeriod"`

	// ConsolidationInterval is how often the consolidation loop wakes up
	// to evaluate the consolidation policy against the current manifest.
	//
	// Default: 30s
	ConsolidationInterval time.Duration `json:"consolidationInterval"`

	// ConsolidationThreads bounds how many consolidations may run concurrently.
	//
	// Default: 2
	ConsolidationThreads int `json:"consolidationThreads"`

	// Codec names an on-disk format implementation. vex.Open does not read
	// it: every segment is written in the single format internal/segwrite
	// implements, whatever this field holds.
	//
	// Default: "vex1"
	Codec string `json:"codec"`

	// AnalyzerType names the default analyzer new fields use when none is specified.
	//
	// Default: "standard"
	AnalyzerType string `json:"analyzerType"`

	// AnalyzerOptions is the raw JSON options blob passed to the analyzer constructor.
	AnalyzerOptions string `json:"analyzerOptions"`

	// SkipOptions configures the skip-list acceleration structure used by
	// every posting list the segment writer flushes.
	SkipOptions *SkipOptions `json:"skipOptions"`
}

// SkipOptions configures the skip-list writer/reader (component 4.A).
type SkipOptions struct {
	// Skip0 is the stride of level 0: a skip entry is recorded every Skip0 documents.
	//
	// Default: 128
	Skip0 int `json:"skip0"`

	// SkipN is the multiplicative stride factor for levels above 0: level L
	// has stride Skip0*SkipN^L.
	//
	// Default: 8
	SkipN int `json:"skipN"`

	// MaxLevels caps the number of skip levels regardless of how the
	// count/Skip0/SkipN formula would otherwise size the structure.
	//
	// Default: 10
	MaxLevels int `json:"maxLevels"`
}

// OptionFunc mutates an Options value; used to override defaults.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field to NewDefaultOptions' values.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the base data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithSegmentPoolSize sets how many segment writers may be leased concurrently.
func WithSegmentPoolSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.SegmentPoolSize = size
		}
	}
}

// WithSegmentMemoryMax sets the per-segment-writer memory budget, clamped
// between MinSegmentMemory and MaxSegmentMemory.
func WithSegmentMemoryMax(size uint64) OptionFunc {
	return func(o *Options) {
		if size < MinSegmentMemory {
			size = MinSegmentMemory
		}
		if size > MaxSegmentMemory {
			size = MaxSegmentMemory
		}
		o.SegmentMemoryMax = size
	}
}

// WithCommitPeriod sets how often the committer thread runs.
func WithCommitPeriod(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CommitPeriod = interval
		}
	}
}

// WithConsolidationInterval sets how often the consolidation loop runs.
func WithConsolidationInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.ConsolidationInterval = interval
		}
	}
}

// WithConsolidationThreads bounds concurrent consolidations.
func WithConsolidationThreads(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.ConsolidationThreads = n
		}
	}
}

// WithCodec selects the on-disk codec implementation by name.
func WithCodec(name string) OptionFunc {
	return func(o *Options) {
		name = strings.TrimSpace(name)
		if name != "" {
			o.Codec = name
		}
	}
}

// WithAnalyzer sets the default analyzer type and its raw JSON options.
func WithAnalyzer(typeName, optionsJSON string) OptionFunc {
	return func(o *Options) {
		typeName = strings.TrimSpace(typeName)
		if typeName != "" {
			o.AnalyzerType = typeName
			o.AnalyzerOptions = optionsJSON
		}
	}
}

// WithSkipParams overrides the skip-list stride parameters.
func WithSkipParams(skip0, skipN, maxLevels int) OptionFunc {
	return func(o *Options) {
		if skip0 > 0 && skipN > 1 {
			o.SkipOptions = &SkipOptions{Skip0: skip0, SkipN: skipN, MaxLevels: maxLevels}
		}
	}
}
