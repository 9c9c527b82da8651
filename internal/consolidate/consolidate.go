// Package consolidate supplies the segment selection policies the index
// writer's background compaction loop drives: pure functions from the
// current set of live segment metadata to the disjoint subsets worth
// merging this round. Grounded in the corpus's LSM-style compaction
// examples (tiered-by-size selection with a floor below which segments
// are too small to bother tiering) and in the original engine's naming of
// a pluggable consolidation_policy.
package consolidate

import (
	"sort"

	"github.com/vexsearch/vex/internal/segmeta"
)

// Policy maps the current live segment set to zero or more disjoint
// subsets, each a candidate for one merge. Subsets must not share a
// segment: the index writer runs them as independent, concurrent merges.
type Policy func(segments []segmeta.Segment) [][]segmeta.Segment

// TieredPolicy groups segments into same-sized tiers and returns any tier
// that has accumulated at least maxPerTier segments, merging that tier's
// oldest maxPerTier segments together. Segments smaller than floorCount
// documents are bucketed into tier 0 regardless of their exact size, so
// many tiny segments from a bursty ingest still consolidate promptly.
func TieredPolicy(floorCount, maxPerTier int) Policy {
	if floorCount < 1 {
		floorCount = 1
	}
	if maxPerTier < 2 {
		maxPerTier = 2
	}
	return func(segments []segmeta.Segment) [][]segmeta.Segment {
		tiers := make(map[int][]segmeta.Segment)
		for _, s := range segments {
			tiers[tierOf(s.DocCount, floorCount)] = append(tiers[tierOf(s.DocCount, floorCount)], s)
		}

		keys := make([]int, 0, len(tiers))
		for k := range tiers {
			keys = append(keys, k)
		}
		sort.Ints(keys)

		var out [][]segmeta.Segment
		for _, k := range keys {
			group := tiers[k]
			if len(group) < maxPerTier {
				continue
			}
			sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })
			out = append(out, group[:maxPerTier])
		}
		return out
	}
}

// tierOf buckets a segment's document count into a power-of-two tier,
// floor(log2(docCount/floorCount)), clamped to 0.
func tierOf(docCount uint32, floorCount int) int {
	n := int(docCount) / floorCount
	tier := 0
	for n > 1 {
		n /= 2
		tier++
	}
	return tier
}

// ConsolidateAllPolicy returns every live segment as a single subset to
// merge, or no subsets at all if fewer than two segments exist. It backs
// the --consolidate-all CLI flag and one-shot full compactions.
func ConsolidateAllPolicy(segments []segmeta.Segment) [][]segmeta.Segment {
	if len(segments) < 2 {
		return nil
	}
	all := append([]segmeta.Segment(nil), segments...)
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return [][]segmeta.Segment{all}
}
