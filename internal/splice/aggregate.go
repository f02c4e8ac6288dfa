package splice

import "fmt"

// GeneAlignments holds the evidence collected for one gene.
type GeneAlignments struct {
	GeneID  string
	Covered RegionIndex // Sequenced blocks
	Gaps    RegionIndex // Splice gaps and unsequenced inserts
	Pairs   int         // Read pairs credited to the gene
}

// Aggregator accumulates GeneAlignments keyed by gene ID.
type Aggregator struct {
	genes  map[string]*GeneAlignments
	frozen bool
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{genes: make(map[string]*GeneAlignments)}
}

// Add credits pair p, matched to transcript transcriptID, to gene geneID.
func (a *Aggregator) Add(geneID string, p *ReadPair, transcriptID string) error {
	if a.frozen {
		return ErrFrozen
	}
	ga, ok := a.genes[geneID]
	if !ok {
		ga = &GeneAlignments{GeneID: geneID}
		a.genes[geneID] = ga
	}

	region := func(s Span, c Category) Region {
		return Region{Span: s, PairID: p.ID, TranscriptID: transcriptID, Category: c}
	}

	for _, s := range p.ForwardBlocks {
		if err := ga.Covered.Insert(region(s, CoveredForward)); err != nil {
			return err
		}
	}
	for _, s := range p.ReverseBlocks {
		if err := ga.Covered.Insert(region(s, CoveredReverse)); err != nil {
			return err
		}
	}

	// Gaps alternate with the covered blocks of each mate.
	for _, blocks := range [][]Span{p.ForwardBlocks, p.ReverseBlocks} {
		for i := 1; i < len(blocks); i++ {
			gap := Span{Start: blocks[i-1].End + 1, End: blocks[i].Start - 1}
			if err := ga.Gaps.Insert(region(gap, SpliceGap)); err != nil {
				return err
			}
		}
	}

	if gap, ok := mateGap(p); ok {
		if err := ga.Gaps.Insert(region(gap, MateGap)); err != nil {
			return err
		}
	}

	ga.Pairs++
	return nil
}

// mateGap returns the unsequenced stretch between the last block of the
// leftmost mate and the first block of the other mate.
func mateGap(p *ReadPair) (Span, bool) {
	left, right := p.ForwardBlocks, p.ReverseBlocks
	if len(left) == 0 || len(right) == 0 {
		return Span{}, false
	}
	if right[0].Start < left[0].Start {
		left, right = right, left
	}
	last, first := left[len(left)-1], right[0]
	if first.Start <= last.End+1 {
		return Span{}, false
	}
	return Span{Start: last.End + 1, End: first.Start - 1}, true
}

// Freeze ends aggregation. Alignments become read-only.
func (a *Aggregator) Freeze() {
	for _, ga := range a.genes {
		ga.Covered.Freeze()
		ga.Gaps.Freeze()
	}
	a.frozen = true
}

// Alignments returns the evidence for geneID, or nil if no pair was credited.
func (a *Aggregator) Alignments(geneID string) *GeneAlignments {
	return a.genes[geneID]
}

// Len returns the number of genes with credited pairs.
func (a *Aggregator) Len() int {
	return len(a.genes)
}

func (ga *GeneAlignments) String() string {
	return fmt.Sprintf("%s: %d pairs, %d covered, %d gaps", ga.GeneID, ga.Pairs, ga.Covered.Len(), ga.Gaps.Len())
}
