package splice

import (
	"github.com/biogo/hts/sam"

	"github.com/inodb/vibe-psi/internal/annotation"
)

// mate builds a properly paired record on chromosome 1. The first mate
// aligns forward, the second reverse.
func mate(name string, first bool, blocks ...Block) *Read {
	flags := sam.Paired | sam.ProperPair
	if first {
		flags |= sam.Read1 | sam.MateReverse
	} else {
		flags |= sam.Read2 | sam.Reverse
	}
	start, end := blocks[0].Start, blocks[len(blocks)-1].End()
	return &Read{
		Name:    name,
		Ref:     "1",
		MateRef: "1",
		Start:   start,
		End:     end,
		Flags:   flags,
		Blocks:  blocks,
	}
}

func exons(spans ...Span) []annotation.Exon {
	out := make([]annotation.Exon, len(spans))
	for i, s := range spans {
		out[i] = annotation.Exon{Start: s.Start, End: s.End, Order: i}
	}
	return out
}

func transcript(id string, strand annotation.Strand, spans ...Span) *annotation.Transcript {
	lo, hi := spans[0].Start, spans[0].End
	for _, s := range spans {
		lo, hi = min(lo, s.Start), max(hi, s.End)
	}
	return annotation.NewTranscript(id, strand, lo, hi, exons(spans...))
}

// cassetteGene is a plus-strand gene whose second isoform skips the
// middle exon [300-400] of the first.
func cassetteGene() *annotation.Gene {
	return &annotation.Gene{
		ID:     "G",
		Name:   "GENE",
		Chrom:  "1",
		Start:  1,
		End:    1000,
		Strand: annotation.Plus,
		Transcripts: []*annotation.Transcript{
			transcript("T1", annotation.Plus, Span{100, 200}, Span{300, 400}, Span{500, 600}),
			transcript("T2", annotation.Plus, Span{100, 200}, Span{500, 600}),
		},
	}
}

// sliceSource replays records.
type sliceSource struct {
	reads []*Read
}

func (s *sliceSource) Next() (*Read, error) {
	if len(s.reads) == 0 {
		return nil, nil
	}
	r := s.reads[0]
	s.reads = s.reads[1:]
	return r, nil
}
