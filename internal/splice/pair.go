package splice

import (
	"sort"

	"github.com/inodb/vibe-psi/internal/annotation"
)

// ReadPair holds two mates of one template in canonical order.
// Its fields are set by NewReadPair and not modified afterwards.
type ReadPair struct {
	ID      string
	Chrom   string
	Forward *Read // Mate flagged first in template
	Reverse *Read
	Start   int // Lowest alignment start of both mates
	End     int // Highest alignment end of both mates

	// Strand selects the gene index partition searched for this pair.
	Strand annotation.Strand

	// Melted blocks: each mate's aligned blocks merged into maximal
	// covered spans, in reference order.
	ForwardBlocks []Span
	ReverseBlocks []Span
}

// NewReadPair builds a pair from ordered mates.
func NewReadPair(fw, rw *Read, strand annotation.Strand) *ReadPair {
	return &ReadPair{
		ID:            fw.Name,
		Chrom:         fw.Ref,
		Forward:       fw,
		Reverse:       rw,
		Start:         min(fw.Start, rw.Start),
		End:           max(fw.End, rw.End),
		Strand:        strand,
		ForwardBlocks: melt(fw.Blocks),
		ReverseBlocks: melt(rw.Blocks),
	}
}

// melt merges overlapping or abutting blocks into covered spans.
func melt(blocks []Block) []Span {
	if len(blocks) == 0 {
		return nil
	}
	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var melted []Span
	cur := Span{Start: sorted[0].Start, End: sorted[0].End()}
	for _, b := range sorted[1:] {
		if b.Start <= cur.End+1 {
			cur.End = max(cur.End, b.End())
			continue
		}
		melted = append(melted, cur)
		cur = Span{Start: b.Start, End: b.End()}
	}
	return append(melted, cur)
}
