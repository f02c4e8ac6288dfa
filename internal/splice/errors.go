package splice

import "errors"

// Filtering outcomes. None of these abort a run: the engine counts them in
// Stats and drops the read, pair or row concerned.
var (
	// ErrUnmappedOrImproperPair marks a record failing the pairing flag predicate.
	ErrUnmappedOrImproperPair = errors.New("unmapped or improper pair")
	// ErrUnmatchedMate marks reads whose mate never appeared on their chromosome.
	ErrUnmatchedMate = errors.New("unmatched mate")
	// ErrAmbiguousNoGene marks a pair contained by no gene that itself contains genes.
	ErrAmbiguousNoGene = errors.New("pair spans genes but lies in none")
	// ErrNoGene marks a pair that neither lies in nor spans any gene.
	ErrNoGene = errors.New("intergenic pair")
	// ErrSpliceInconsistent marks mates implying different introns where they overlap.
	ErrSpliceInconsistent = errors.New("mates imply inconsistent splicing")
	// ErrAmbiguousIsoform marks a pair matching zero or several transcripts of a gene.
	ErrAmbiguousIsoform = errors.New("pair does not match exactly one transcript")
	// ErrZeroDenominator marks a skipped exon without inclusion or exclusion evidence.
	ErrZeroDenominator = errors.New("no inclusion or exclusion reads")
)

// ErrFrozen is returned when regions are added after the PSI phase started.
var ErrFrozen = errors.New("region index is frozen")
