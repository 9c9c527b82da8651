package options

import "time"

const (
	// DefaultDataDir is the default value of Options.DataDir (which vex.Open
	// does not read; see Options.DataDir).
	DefaultDataDir = "/var/lib/vex"

	// DefaultSegmentPoolSize is how many segment writers may be leased concurrently.
	DefaultSegmentPoolSize = 4

	// MinSegmentMemory is the smallest allowed per-segment-writer memory budget (1MB).
	MinSegmentMemory uint64 = 1 * 1024 * 1024

	// MaxSegmentMemory is the largest allowed per-segment-writer memory budget (1GB).
	MaxSegmentMemory uint64 = 1 * 1024 * 1024 * 1024

	// DefaultSegmentMemory is the default per-segment-writer memory budget (64MB).
	DefaultSegmentMemory uint64 = 64 * 1024 * 1024

	// DefaultCommitPeriod is how often the committer thread runs absent explicit commits.
	DefaultCommitPeriod = time.Second

	// DefaultConsolidationInterval is how often the consolidation loop evaluates the policy.
	DefaultConsolidationInterval = 30 * time.Second

	// DefaultConsolidationThreads bounds concurrent consolidations.
	DefaultConsolidationThreads = 2

	// DefaultCodec names the default on-disk format implementation.
	DefaultCodec = "vex1"

	// DefaultAnalyzerType names the analyzer new fields use when none is specified.
	DefaultAnalyzerType = "standard"

	// DefaultSkip0 is the default level-0 skip stride.
	DefaultSkip0 = 128

	// DefaultSkipN is the default upper-level skip stride factor.
	DefaultSkipN = 8

	// DefaultMaxSkipLevels caps how many skip levels a posting list may have.
	DefaultMaxSkipLevels = 10
)

// NewDefaultOptions returns the baseline configuration every vex instance
// starts from before functional options are applied.
func NewDefaultOptions() Options {
	return Options{
		DataDir:               DefaultDataDir,
		SegmentPoolSize:       DefaultSegmentPoolSize,
		SegmentMemoryMax:      DefaultSegmentMemory,
		CommitPeriod:          DefaultCommitPeriod,
		ConsolidationInterval: DefaultConsolidationInterval,
		ConsolidationThreads:  DefaultConsolidationThreads,
		Codec:                 DefaultCodec,
		AnalyzerType:          DefaultAnalyzerType,
		SkipOptions: &SkipOptions{
			Skip0:     DefaultSkip0,
			SkipN:     DefaultSkipN,
			MaxLevels: DefaultMaxSkipLevels,
		},
	}
}
