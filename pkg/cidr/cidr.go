// Package cidr converts collections of inclusive IPv4 ranges into minimal
// sets of address-aligned CIDR blocks.
package cidr

import (
	"fmt"
	"math"
	"math/bits"
	"slices"

	"github.com/leighmacdonald/rirblock/pkg/util"
)

// Range is an inclusive span of IPv4 addresses in numeric form.
type Range struct {
	Start uint32
	End   uint32
}

func (r Range) String() string {
	return fmt.Sprintf("%s - %s", util.Int2IP(r.Start), util.Int2IP(r.End))
}

// Hosts returns the number of addresses covered by the range.
func (r Range) Hosts() uint64 {
	return uint64(r.End) - uint64(r.Start) + 1
}

// Block is an address-aligned power-of-two sized network. Base is always an
// exact multiple of the block size.
type Block struct {
	Base      uint32
	PrefixLen int
}

// Size returns the number of addresses in the block.
func (b Block) Size() uint64 {
	return uint64(1) << (32 - b.PrefixLen)
}

// Range returns the inclusive address span the block denotes.
func (b Block) Range() Range {
	return Range{Start: b.Base, End: b.Base + uint32(b.Size()-1)}
}

func (b Block) String() string {
	return fmt.Sprintf("%s/%d", util.Int2IP(b.Base), b.PrefixLen)
}

// Merge coalesces overlapping and adjacent ranges into sorted, disjoint,
// non-adjacent spans. Adjacency counts as overlap since the subsequent block
// covering must be contiguity-aware. The input slice is not modified.
//
// Inputs are expected to be pre-validated; an inverted range is an upstream
// contract violation, not malformed user input.
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)

	for _, span := range sorted {
		if span.Start > span.End {
			panic(fmt.Sprintf("cidr: inverted range %s", span))
		}
	}

	slices.SortFunc(sorted, func(a Range, b Range) int {
		if a.Start != b.Start {
			if a.Start < b.Start {
				return -1
			}

			return 1
		}

		if a.End != b.End {
			if a.End < b.End {
				return -1
			}

			return 1
		}

		return 0
	})

	merged := make([]Range, 0, len(sorted))
	current := sorted[0]

	for _, next := range sorted[1:] {
		// The +1 adjacency probe must not wrap at the top of the space.
		if current.End == math.MaxUint32 || next.Start <= current.End+1 {
			if next.End > current.End {
				current.End = next.End
			}

			continue
		}

		merged = append(merged, current)
		current = next
	}

	return append(merged, current)
}

// cover decomposes one merged range into aligned blocks, greedily emitting
// the largest block the start-address alignment and the remaining span both
// permit. Runs at most one iteration per set bit pattern boundary, never
// more than 32 per call, and never wraps at 255.255.255.255.
func cover(span Range) []Block {
	var (
		blocks []Block
		low    = span.Start
	)

	for {
		remaining := uint64(span.End) - uint64(low) + 1

		blockSize := uint64(1) << 32
		if low != 0 {
			blockSize = uint64(low & -low)
		}

		for blockSize > remaining {
			blockSize >>= 1
		}

		blocks = append(blocks, Block{Base: low, PrefixLen: 32 - bits.TrailingZeros64(blockSize)})

		if blockSize == remaining {
			return blocks
		}

		low += uint32(blockSize)
	}
}

// Aggregate produces the minimal ordered set of aligned blocks whose union
// exactly equals the union of the input ranges. Output is address-ascending.
func Aggregate(ranges []Range) []Block {
	var blocks []Block

	for _, span := range Merge(ranges) {
		blocks = append(blocks, cover(span)...)
	}

	return blocks
}
