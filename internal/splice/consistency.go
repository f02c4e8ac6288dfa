package splice

// intron is a reference gap between two consecutive aligned blocks of a read.
type intron Span

// SplitCount checks that both mates agree on the introns they imply where
// their alignments overlap and returns the number of distinct introns
// implied by the pair. Pairs that disagree yield ErrSpliceInconsistent.
func SplitCount(p *ReadPair) (int, error) {
	fw, rw := p.Forward, p.Reverse
	if len(fw.Blocks) == 1 && len(rw.Blocks) == 1 {
		return 0, nil
	}

	overlap := Span{Start: max(fw.Start, rw.Start) + 1, End: min(fw.End, rw.End)}
	if overlap.Start > overlap.End {
		// Mates do not overlap; test the stretch between them instead.
		overlap = Span{Start: overlap.End + 1, End: overlap.Start - 1}
	}

	all := make(map[intron]struct{})
	fwIn := introns(fw, overlap, all)
	rwIn := introns(rw, overlap, all)

	// Mates sharing a single base.
	if overlap.End-overlap.Start == -1 {
		return len(all), nil
	}

	if len(fwIn) != len(rwIn) {
		return 0, ErrSpliceInconsistent
	}
	for in := range fwIn {
		if _, ok := rwIn[in]; !ok {
			return 0, ErrSpliceInconsistent
		}
	}
	return len(all), nil
}

// introns adds every intron implied by r to all and returns those that
// touch the overlap region.
func introns(r *Read, overlap Span, all map[intron]struct{}) map[intron]struct{} {
	near := make(map[intron]struct{})
	for i := 0; i+1 < len(r.Blocks); i++ {
		in := intron{Start: r.Blocks[i].End() + 1, End: r.Blocks[i+1].Start - 1}
		if in.End < in.Start {
			continue
		}
		all[in] = struct{}{}

		// Proximity is judged up to the first base of the next block.
		next := r.Blocks[i+1].Start
		startInside := in.Start >= overlap.Start && in.Start <= overlap.End
		endInside := next >= overlap.Start && next <= overlap.End
		straddles := in.Start <= overlap.Start && next >= overlap.End
		if startInside || endInside || straddles {
			near[in] = struct{}{}
		}
	}
	return near
}
