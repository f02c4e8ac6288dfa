package annotation

// Transcript represents a specific gene isoform.
type Transcript struct {
	ID     string // Transcript ID (e.g., ENST00000311936.8)
	Strand Strand // Transcript strand
	Start  int    // Transcript start (1-based)
	End    int    // Transcript end (1-based, inclusive)
	Exons  []Exon // Exons in annotation input order

	byStart map[int]int // exon start -> index into Exons
	byEnd   map[int]int // exon end -> index into Exons
}

// Exon represents a single exon within a transcript.
type Exon struct {
	Start int // Genomic start (1-based)
	End   int // Genomic end (1-based, inclusive)
	Order int // Zero-based position in annotation input order
}

// NewTranscript creates a transcript and indexes its exon boundaries.
// Exons keep the order they are given in.
func NewTranscript(id string, strand Strand, start, end int, exons []Exon) *Transcript {
	t := &Transcript{
		ID:      id,
		Strand:  strand,
		Start:   start,
		End:     end,
		Exons:   exons,
		byStart: make(map[int]int, len(exons)),
		byEnd:   make(map[int]int, len(exons)),
	}
	for i, e := range exons {
		t.byStart[e.Start] = i
		t.byEnd[e.End] = i
	}
	return t
}

// ExonStartingAt returns the exon whose first base is pos.
func (t *Transcript) ExonStartingAt(pos int) (Exon, bool) {
	i, ok := t.byStart[pos]
	if !ok {
		return Exon{}, false
	}
	return t.Exons[i], true
}

// ExonEndingAt returns the exon whose last base is pos.
func (t *Transcript) ExonEndingAt(pos int) (Exon, bool) {
	i, ok := t.byEnd[pos]
	if !ok {
		return Exon{}, false
	}
	return t.Exons[i], true
}

// GenomicOrder returns the exons walked from the lowest coordinate upwards.
// GTF lists minus-strand exons 5' to 3', so their input order is reversed.
func (t *Transcript) GenomicOrder() []Exon {
	out := make([]Exon, len(t.Exons))
	if t.Strand != Minus {
		copy(out, t.Exons)
		return out
	}
	for i, e := range t.Exons {
		out[len(t.Exons)-1-i] = e
	}
	return out
}
