package annotation

// Strand is the genomic orientation of a feature or a sequencing library.
type Strand int8

const (
	Unstranded Strand = 0
	Plus       Strand = 1
	Minus      Strand = -1
)

// ParseStrand converts a GTF strand column to a Strand.
// Anything other than "+" or "-" is Unstranded.
func ParseStrand(s string) Strand {
	switch s {
	case "+":
		return Plus
	case "-":
		return Minus
	}
	return Unstranded
}

// Opposite returns the reverse orientation. Unstranded stays Unstranded.
func (s Strand) Opposite() Strand {
	return -s
}

// String returns the GTF representation of the strand.
func (s Strand) String() string {
	switch s {
	case Plus:
		return "+"
	case Minus:
		return "-"
	}
	return "."
}
