// Package splice quantifies exon skipping from paired-end alignments.
//
// A run has two phases. During aggregation, reads stream through a
// Reconciler into read pairs; each pair that is splice-consistent and
// explains exactly one transcript of a gene adds its covered blocks and
// gaps to that gene's region indices. After the stream, Analyze derives the
// skipped exons of each gene from its transcript structure and CalculatePSI
// counts inclusion and exclusion evidence from the now read-only indices.
package splice

import (
	"github.com/biogo/hts/sam"

	"github.com/inodb/vibe-psi/internal/annotation"
)

// Block is one gapless aligned stretch of a read on the reference.
type Block struct {
	Start int // Reference start (1-based)
	Len   int // Number of reference bases
}

// End returns the last reference base covered by the block.
func (b Block) End() int {
	return b.Start + b.Len - 1
}

// Read is an aligned record as the engine sees it.
type Read struct {
	Name    string
	Ref     string // Reference name, normalized like annotation chromosomes
	MateRef string
	Start   int // Alignment start (1-based)
	End     int // Alignment end (1-based, inclusive)
	Flags   sam.Flags
	Blocks  []Block // Aligned blocks in reference order
}

// Reverse returns true if the read is mapped to the reverse strand.
func (r *Read) Reverse() bool {
	return r.Flags&sam.Reverse != 0
}

// FirstOfPair returns true if the read is the first segment of its template.
func (r *Read) FirstOfPair() bool {
	return r.Flags&sam.Read1 != 0
}

// Strand returns the reference strand the read aligned to.
func (r *Read) Strand() annotation.Strand {
	if r.Reverse() {
		return annotation.Minus
	}
	return annotation.Plus
}

// Pairable reports whether the record may take part in a read pair: a
// primary alignment of a paired read, both mates mapped to the same
// reference on opposite strands.
func Pairable(r *Read) bool {
	f := r.Flags
	primary := f&(sam.Secondary|sam.Supplementary) == 0
	mapped := f&sam.Unmapped == 0
	mateMapped := f&sam.MateUnmapped == 0
	sameChr := r.Ref == r.MateRef
	oppStrand := (f&sam.Reverse != 0) != (f&sam.MateReverse != 0)
	paired := f&sam.Paired != 0
	return primary && mapped && mateMapped && sameChr && oppStrand && paired
}
