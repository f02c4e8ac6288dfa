package splice

import "github.com/inodb/vibe-psi/internal/annotation"

// Intron is the gap between two consecutive exons of a transcript.
type Intron struct {
	Span
	TranscriptID string
}

// SkippedExon is an exon that some other isoform splices over.
// TranscriptID names the transcript containing the exon.
type SkippedExon struct {
	Span
	Pos          int // Position within the transcript once oriented
	TranscriptID string
}

// Analysis is the transcript-structure summary of a gene.
type Analysis struct {
	Gene    *annotation.Gene
	Introns []Intron
	Skipped []SkippedExon
}

// oriented is a transcript with exons in final position order.
type oriented struct {
	t     *annotation.Transcript
	exons []annotation.Exon
}

// pos returns the final position of an exon of o.
func (o oriented) pos(g *annotation.Gene, e annotation.Exon) int {
	if g.Strand == annotation.Minus {
		return len(o.exons) - 1 - e.Order
	}
	return e.Order
}

// orient orders each transcript's exons for position arithmetic:
// minus-strand genes have their annotation order reversed.
func orient(g *annotation.Gene) []oriented {
	out := make([]oriented, len(g.Transcripts))
	for i, t := range g.Transcripts {
		exons := make([]annotation.Exon, len(t.Exons))
		for j, e := range t.Exons {
			if g.Strand == annotation.Minus {
				exons[len(t.Exons)-1-j] = e
			} else {
				exons[j] = e
			}
		}
		out[i] = oriented{t: t, exons: exons}
	}
	return out
}

// Analyze derives the introns and skipped exons of g. An exon is skipped
// when an intron of any transcript joins two exons of another transcript
// that are not neighbours there; the exons between them are reported,
// each span once.
func Analyze(g *annotation.Gene) *Analysis {
	transcripts := orient(g)
	a := &Analysis{Gene: g}

	for _, o := range transcripts {
		for i := 0; i+1 < len(o.exons); i++ {
			a.Introns = append(a.Introns, Intron{
				Span:         Span{Start: o.exons[i].End + 1, End: o.exons[i+1].Start - 1},
				TranscriptID: o.t.ID,
			})
		}
	}

	seen := make(map[Span]bool)
	for _, in := range a.Introns {
		for _, o := range transcripts {
			front, ok := o.t.ExonEndingAt(in.Start - 1)
			if !ok {
				continue
			}
			behind, ok := o.t.ExonStartingAt(in.End + 1)
			if !ok {
				continue
			}

			fp, bp := o.pos(g, front), o.pos(g, behind)
			if bp-fp == 1 {
				continue
			}
			for p := fp + 1; p < bp; p++ {
				e := o.exons[p]
				s := Span{Start: e.Start, End: e.End}
				if seen[s] {
					continue
				}
				seen[s] = true
				a.Skipped = append(a.Skipped, SkippedExon{Span: s, Pos: p, TranscriptID: o.t.ID})
			}
		}
	}

	return a
}
