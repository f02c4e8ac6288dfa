// Package annotation provides the gene model, the GTF loader and the
// strand-partitioned gene index used to attribute read pairs to genes.
package annotation

// Gene represents an annotated gene and its transcript isoforms.
// A Gene is not modified after loading.
type Gene struct {
	ID          string        // Gene identifier (e.g., ENSG00000133703.14)
	Name        string        // Gene symbol (e.g., KRAS)
	Chrom       string        // Chromosome, without "chr" prefix
	Start       int           // Gene start position (1-based)
	End         int           // Gene end position (1-based, inclusive)
	Strand      Strand        // Plus, Minus or Unstranded
	Biotype     string        // Gene biotype (e.g., protein_coding)
	Transcripts []*Transcript // Transcripts in annotation order
}

// Contains returns true if [start, end] lies within the gene boundaries.
func (g *Gene) Contains(start, end int) bool {
	return g.Start <= start && g.End >= end
}

// Within returns true if the gene lies entirely inside [start, end].
func (g *Gene) Within(start, end int) bool {
	return g.Start >= start && g.End <= end
}
