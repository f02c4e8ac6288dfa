package splice

import "github.com/inodb/vibe-psi/internal/annotation"

// Result is the PSI of one skipped exon.
type Result struct {
	GeneID       string
	Chrom        string
	Strand       annotation.Strand
	Exon         Span
	TranscriptID string // Transcript containing the exon
	Inclusion    int    // Distinct pairs with a covered block inside the exon
	Exclusion    int    // Distinct pairs with a gap spanning the exon
}

// Total returns the number of informative pairs.
func (r Result) Total() int {
	return r.Inclusion + r.Exclusion
}

// PSI returns the percent spliced in as a fraction in [0, 1].
func (r Result) PSI() float64 {
	if r.Total() == 0 {
		return 0
	}
	return float64(r.Inclusion) / float64(r.Total())
}

// CalculatePSI counts evidence for every skipped exon of a. Exons without
// any evidence are left out. ga may be nil for genes no pair was credited to.
func CalculatePSI(a *Analysis, ga *GeneAlignments) []Result {
	var results []Result
	for _, e := range a.Skipped {
		r, err := exonPSI(a.Gene, e, ga)
		if err != nil {
			continue
		}
		results = append(results, r)
	}
	return results
}

func exonPSI(g *annotation.Gene, e SkippedExon, ga *GeneAlignments) (Result, error) {
	r := Result{
		GeneID:       g.ID,
		Chrom:        g.Chrom,
		Strand:       g.Strand,
		Exon:         e.Span,
		TranscriptID: e.TranscriptID,
	}
	if ga == nil {
		return r, ErrZeroDenominator
	}

	included := make(map[string]struct{})
	for _, reg := range ga.Covered.Within(e.Span) {
		included[reg.PairID] = struct{}{}
	}

	excluded := make(map[string]struct{})
	for _, reg := range ga.Gaps.Spanning(e.Span) {
		// The insert of a pair from the exon's own isoform is not evidence
		// of skipping.
		if reg.Category == MateGap && reg.TranscriptID == e.TranscriptID {
			continue
		}
		excluded[reg.PairID] = struct{}{}
	}

	r.Inclusion = len(included)
	r.Exclusion = len(excluded)
	if r.Total() == 0 {
		return r, ErrZeroDenominator
	}
	return r, nil
}
