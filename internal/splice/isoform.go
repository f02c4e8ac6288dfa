package splice

import (
	"github.com/inodb/vibe-psi/internal/annotation"
)

// Cut clips the exon chain of t to [x1, x2] and returns the exonic parts
// in reference order. The result is empty if the transcript has no exon in
// that range.
func Cut(t *annotation.Transcript, x1, x2 int) []Span {
	var cut []Span
	for _, e := range t.GenomicOrder() {
		x1Inside := x1 >= e.Start && x1 <= e.End
		x2Inside := x2 >= e.Start && x2 <= e.End
		switch {
		case x1Inside && x2Inside:
			//  #----------------#
			//     x1--------x2
			return append(cut, Span{Start: x1, End: x2})
		case x1Inside:
			//  #----------------#
			//     x1------------#---
			cut = append(cut, Span{Start: x1, End: e.End})
		case x1 <= e.Start && x2 >= e.End:
			//    #----------#
			//  x1--------------x2
			cut = append(cut, Span{Start: e.Start, End: e.End})
		case x2Inside:
			//      #----------------#
			//  ----#--------x2
			return append(cut, Span{Start: e.Start, End: x2})
		}
	}
	return cut
}

// MatchTranscript returns the ID of the only transcript of g whose exon
// structure reproduces both mates' melted blocks exactly. It returns
// ErrAmbiguousIsoform if no transcript or more than one does.
func MatchTranscript(p *ReadPair, g *annotation.Gene) (string, error) {
	var matched string
	count := 0
	for _, t := range g.Transcripts {
		if explains(t, p.Forward, p.ForwardBlocks) && explains(t, p.Reverse, p.ReverseBlocks) {
			matched = t.ID
			count++
		}
	}
	if count != 1 {
		return "", ErrAmbiguousIsoform
	}
	return matched, nil
}

// explains reports whether cutting t to the read's span gives back exactly
// the read's covered blocks.
func explains(t *annotation.Transcript, r *Read, blocks []Span) bool {
	cut := Cut(t, r.Start, r.End)
	if len(cut) == 0 || len(cut) != len(blocks) {
		return false
	}
	for i := range cut {
		if cut[i] != blocks[i] {
			return false
		}
	}
	return true
}
