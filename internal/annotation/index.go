package annotation

import (
	"sort"

	"github.com/biogo/store/interval"
	"go.uber.org/zap"
)

// geneInterval adapts a Gene to the biogo interval tree.
// Coordinates are 1-based and closed on both ends.
type geneInterval struct {
	gene *Gene
	uid  uintptr
}

func (gi geneInterval) Overlap(b interval.IntRange) bool {
	return gi.gene.Start <= b.End && b.Start <= gi.gene.End
}

func (gi geneInterval) ID() uintptr { return gi.uid }

func (gi geneInterval) Range() interval.IntRange {
	return interval.IntRange{Start: gi.gene.Start, End: gi.gene.End}
}

// query is a closed [start, end] range used to search a tree.
type query struct{ start, end int }

func (q query) Overlap(b interval.IntRange) bool {
	return q.start <= b.End && b.Start <= q.end
}

// partition holds one chromosome's gene trees keyed by strand.
type partition map[Strand]*interval.IntTree

// GeneIndex answers containment queries over gene extents, split by
// chromosome and strand. Trees are built for a chromosome on first use and
// dropped again with Release, so only the chromosomes being streamed are
// resident at any time.
type GeneIndex struct {
	byChrom  map[string][]geneInterval
	resident map[string]partition
	logger   *zap.Logger
}

// NewGeneIndex creates an index over genes. Gene order defines query result order.
func NewGeneIndex(genes []*Gene) *GeneIndex {
	x := &GeneIndex{
		byChrom:  make(map[string][]geneInterval),
		resident: make(map[string]partition),
		logger:   zap.NewNop(),
	}
	for i, g := range genes {
		x.byChrom[g.Chrom] = append(x.byChrom[g.Chrom], geneInterval{gene: g, uid: uintptr(i)})
	}
	return x
}

// SetLogger sets the logger for debug messages.
func (x *GeneIndex) SetLogger(l *zap.Logger) {
	x.logger = l
}

// Containing returns genes on a compatible strand whose extent contains [start, end].
func (x *GeneIndex) Containing(chrom string, strand Strand, start, end int) []*Gene {
	return x.find(chrom, strand, start, end, func(g *Gene) bool { return g.Contains(start, end) })
}

// Within returns genes on a compatible strand lying entirely inside [start, end].
func (x *GeneIndex) Within(chrom string, strand Strand, start, end int) []*Gene {
	return x.find(chrom, strand, start, end, func(g *Gene) bool { return g.Within(start, end) })
}

// Resident reports whether the chromosome's trees are currently built.
func (x *GeneIndex) Resident(chrom string) bool {
	_, ok := x.resident[chrom]
	return ok
}

// Release drops the trees built for chrom.
func (x *GeneIndex) Release(chrom string) {
	if _, ok := x.resident[chrom]; ok {
		delete(x.resident, chrom)
		x.logger.Debug("released gene index partition", zap.String("chrom", chrom))
	}
}

func (x *GeneIndex) find(chrom string, strand Strand, start, end int, keep func(*Gene) bool) []*Gene {
	p := x.partition(chrom)
	if p == nil {
		return nil
	}

	var hits []geneInterval
	q := query{start: start, end: end}
	for _, s := range searchStrands(strand) {
		tree, ok := p[s]
		if !ok {
			continue
		}
		for _, iv := range tree.Get(q) {
			if gi := iv.(geneInterval); keep(gi.gene) {
				hits = append(hits, gi)
			}
		}
	}
	if len(hits) == 0 {
		return nil
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].uid < hits[j].uid })
	result := make([]*Gene, len(hits))
	for i, gi := range hits {
		result[i] = gi.gene
	}
	return result
}

// partition returns the trees for chrom, building them if needed.
func (x *GeneIndex) partition(chrom string) partition {
	if p, ok := x.resident[chrom]; ok {
		return p
	}
	genes, ok := x.byChrom[chrom]
	if !ok {
		return nil
	}

	p := make(partition)
	for _, gi := range genes {
		tree, ok := p[gi.gene.Strand]
		if !ok {
			tree = &interval.IntTree{}
			p[gi.gene.Strand] = tree
		}
		if err := tree.Insert(gi, true); err != nil {
			x.logger.Warn("skipping gene in index", zap.String("gene_id", gi.gene.ID), zap.Error(err))
		}
	}
	for _, tree := range p {
		tree.AdjustRanges()
	}

	x.resident[chrom] = p
	x.logger.Debug("built gene index partition",
		zap.String("chrom", chrom),
		zap.Int("genes", len(genes)))
	return p
}

// searchStrands lists the gene partitions a query on strand may hit.
// Genes without strand information are compatible with every library strand.
func searchStrands(s Strand) []Strand {
	switch s {
	case Plus:
		return []Strand{Plus, Unstranded}
	case Minus:
		return []Strand{Minus, Unstranded}
	default:
		return []Strand{Plus, Minus, Unstranded}
	}
}
