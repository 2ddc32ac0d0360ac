package cidr_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leighmacdonald/rirblock/pkg/cidr"
	"github.com/leighmacdonald/rirblock/pkg/util"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start string, end string) cidr.Range {
	t.Helper()

	startVal, errStart := util.ParseIP4(start)
	require.NoError(t, errStart)

	endVal, errEnd := util.ParseIP4(end)
	require.NoError(t, errEnd)

	return cidr.Range{Start: startVal, End: endVal}
}

func blockStrings(blocks []cidr.Block) []string {
	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, block.String())
	}

	return out
}

func TestMergeOverlapAndAdjacency(t *testing.T) {
	merged := cidr.Merge([]cidr.Range{
		mustRange(t, "10.0.0.5", "10.0.0.10"),
		mustRange(t, "10.0.0.0", "10.0.0.4"),
		mustRange(t, "10.0.0.8", "10.0.0.20"),
		mustRange(t, "10.0.1.0", "10.0.1.255"),
	})

	require.Equal(t, []cidr.Range{
		mustRange(t, "10.0.0.0", "10.0.0.20"),
		mustRange(t, "10.0.1.0", "10.0.1.255"),
	}, merged)
}

func TestMergeNestedAndDuplicate(t *testing.T) {
	merged := cidr.Merge([]cidr.Range{
		mustRange(t, "10.0.0.0", "10.0.0.255"),
		mustRange(t, "10.0.0.16", "10.0.0.31"),
		mustRange(t, "10.0.0.0", "10.0.0.255"),
	})

	require.Equal(t, []cidr.Range{mustRange(t, "10.0.0.0", "10.0.0.255")}, merged)
}

func TestMergeEmpty(t *testing.T) {
	require.Nil(t, cidr.Merge(nil))
}

func TestMergeInvertedPanics(t *testing.T) {
	require.Panics(t, func() {
		cidr.Merge([]cidr.Range{{Start: 10, End: 5}})
	})
}

func TestAggregateAlignedRange(t *testing.T) {
	blocks := cidr.Aggregate([]cidr.Range{mustRange(t, "10.0.0.0", "10.0.0.7")})
	require.Equal(t, []string{"10.0.0.0/29"}, blockStrings(blocks))
}

func TestAggregateAdjacentSingletons(t *testing.T) {
	blocks := cidr.Aggregate([]cidr.Range{
		mustRange(t, "10.0.0.0", "10.0.0.0"),
		mustRange(t, "10.0.0.1", "10.0.0.1"),
	})
	require.Equal(t, []string{"10.0.0.0/31"}, blockStrings(blocks))
}

func TestAggregateMisaligned(t *testing.T) {
	blocks := cidr.Aggregate([]cidr.Range{mustRange(t, "10.0.0.1", "10.0.0.4")})
	require.Equal(t, []string{"10.0.0.1/32", "10.0.0.2/31", "10.0.0.4/32"}, blockStrings(blocks))
}

func TestAggregateSingleAddress(t *testing.T) {
	blocks := cidr.Aggregate([]cidr.Range{mustRange(t, "192.168.1.1", "192.168.1.1")})
	require.Equal(t, []string{"192.168.1.1/32"}, blockStrings(blocks))
}

func TestAggregateFullSpace(t *testing.T) {
	blocks := cidr.Aggregate([]cidr.Range{mustRange(t, "0.0.0.0", "255.255.255.255")})
	require.Equal(t, []string{"0.0.0.0/0"}, blockStrings(blocks))
}

func TestAggregateTopOfSpace(t *testing.T) {
	blocks := cidr.Aggregate([]cidr.Range{mustRange(t, "255.255.255.254", "255.255.255.255")})
	require.Equal(t, []string{"255.255.255.254/31"}, blockStrings(blocks))
}

// Coverage, alignment and disjointness over a pile of awkward inputs.
func TestAggregateProperties(t *testing.T) {
	inputs := []cidr.Range{
		mustRange(t, "10.0.0.1", "10.0.0.4"),
		mustRange(t, "10.0.0.3", "10.0.0.200"),
		mustRange(t, "10.0.0.201", "10.0.1.17"),
		mustRange(t, "172.16.0.0", "172.16.127.255"),
		mustRange(t, "172.16.128.0", "172.16.128.0"),
		mustRange(t, "255.255.255.200", "255.255.255.255"),
	}

	blocks := cidr.Aggregate(inputs)
	merged := cidr.Merge(inputs)

	var (
		total   uint64
		covered uint64
	)

	for _, span := range merged {
		total += span.Hosts()
	}

	for i, block := range blocks {
		// Alignment: base is a multiple of the block size.
		require.Zero(t, uint64(block.Base)%block.Size(), block.String())

		covered += block.Size()

		if i > 0 {
			// Disjoint and ascending.
			require.Greater(t, block.Base, blocks[i-1].Range().End)
		}

		// Every block lies entirely inside some merged range.
		inside := false

		for _, span := range merged {
			if block.Base >= span.Start && block.Range().End <= span.End {
				inside = true

				break
			}
		}

		require.True(t, inside, block.String())
	}

	require.Equal(t, total, covered)
}

// Feeding the aggregator its own output must be a fixed point.
func TestAggregateIdempotent(t *testing.T) {
	blocks := cidr.Aggregate([]cidr.Range{
		mustRange(t, "10.0.0.1", "10.0.1.17"),
		mustRange(t, "1.2.3.4", "1.2.3.4"),
	})

	var asRanges []cidr.Range
	for _, block := range blocks {
		asRanges = append(asRanges, block.Range())
	}

	require.Equal(t, blocks, cidr.Aggregate(asRanges))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.txt")

	blocks := cidr.Aggregate([]cidr.Range{mustRange(t, "10.0.0.1", "10.0.0.4")})
	require.NoError(t, cidr.WriteFile(path, blocks))

	body, errRead := os.ReadFile(path)
	require.NoError(t, errRead)
	require.Equal(t, "10.0.0.1/32\n10.0.0.2/31\n10.0.0.4/32\n", string(body))

	// Overwrites, never appends.
	require.NoError(t, cidr.WriteFile(path, blocks[:1]))

	body, errRead = os.ReadFile(path)
	require.NoError(t, errRead)
	require.Equal(t, 1, strings.Count(string(body), "\n"))
}

func TestBlockRangeTopOfSpace(t *testing.T) {
	block := cidr.Block{Base: math.MaxUint32 - 3, PrefixLen: 30}
	require.Equal(t, uint32(math.MaxUint32), block.Range().End)
}
