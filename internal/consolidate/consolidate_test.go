package consolidate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vex/internal/segmeta"
)

func seg(name string, docCount uint32) segmeta.Segment {
	return segmeta.Segment{Name: name, DocCount: docCount}
}

func TestTieredPolicyGroupsSimilarlySizedSegments(t *testing.T) {
	policy := TieredPolicy(10, 3)
	segments := []segmeta.Segment{
		seg("seg_a", 5), seg("seg_b", 8), seg("seg_c", 9), // tier 0, 3 segments
		seg("seg_d", 500), // tier alone, below threshold
	}

	groups := policy(segments)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 3)
	for _, s := range groups[0] {
		require.Contains(t, []string{"seg_a", "seg_b", "seg_c"}, s.Name)
	}
}

func TestTieredPolicyReturnsNothingBelowThreshold(t *testing.T) {
	policy := TieredPolicy(10, 4)
	groups := policy([]segmeta.Segment{seg("a", 1), seg("b", 2)})
	require.Empty(t, groups)
}

func TestConsolidateAllPolicyMergesEverything(t *testing.T) {
	segments := []segmeta.Segment{seg("b", 1), seg("a", 2), seg("c", 3)}
	groups := ConsolidateAllPolicy(segments)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 3)
	require.Equal(t, "a", groups[0][0].Name)
}

func TestConsolidateAllPolicySkipsSingleSegment(t *testing.T) {
	require.Nil(t, ConsolidateAllPolicy([]segmeta.Segment{seg("a", 1)}))
}
