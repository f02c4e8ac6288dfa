package splice

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-psi/internal/annotation"
)

// Library describes how read orientation relates to transcript strand.
type Library int

const (
	// FirstStrand libraries (dUTP) sequence the first read antisense.
	FirstStrand Library = iota
	// SecondStrand libraries sequence the first read sense.
	SecondStrand
	// Unstranded libraries carry no strand information.
	Unstranded
)

// ParseLibrary parses a library strandedness setting.
func ParseLibrary(s string) (Library, error) {
	switch strings.ToLower(s) {
	case "", "firststrand", "fr-firststrand":
		return FirstStrand, nil
	case "secondstrand", "fr-secondstrand":
		return SecondStrand, nil
	case "unstranded", "fr-unstranded":
		return Unstranded, nil
	}
	return 0, fmt.Errorf("unknown strandedness %q (valid: firststrand, secondstrand, unstranded)", s)
}

func (l Library) String() string {
	switch l {
	case FirstStrand:
		return "firststrand"
	case SecondStrand:
		return "secondstrand"
	case Unstranded:
		return "unstranded"
	}
	return fmt.Sprintf("Library(%d)", int(l))
}

// Strand returns the transcript strand implied by the forward mate.
func (l Library) Strand(fw *Read) annotation.Strand {
	switch l {
	case FirstStrand:
		return fw.Strand().Opposite()
	case SecondStrand:
		return fw.Strand()
	}
	return annotation.Unstranded
}

// Reconciler joins mates into read pairs. Records of one reference must be
// contiguous: the mate map only lives until the reference changes.
type Reconciler struct {
	lib       Library
	chrom     string
	started   bool
	mates     map[string]*Read
	orphans   int
	onRelease func(chrom string, orphans int)
	logger    *zap.Logger
}

// NewReconciler creates a reconciler. onRelease, if not nil, is called each
// time the records of a reference are exhausted.
func NewReconciler(lib Library, onRelease func(chrom string, orphans int)) *Reconciler {
	return &Reconciler{
		lib:       lib,
		mates:     make(map[string]*Read),
		onRelease: onRelease,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for chromosome boundary messages.
func (rc *Reconciler) SetLogger(l *zap.Logger) {
	rc.logger = l
}

// Add consumes one record. It returns a pair when r completes one, nil
// while r waits for its mate, and ErrUnmappedOrImproperPair when r cannot
// be paired at all.
func (rc *Reconciler) Add(r *Read) (*ReadPair, error) {
	if !rc.started || r.Ref != rc.chrom {
		rc.release()
		rc.chrom = r.Ref
		rc.started = true
	}

	if !Pairable(r) {
		return nil, ErrUnmappedOrImproperPair
	}

	mate, ok := rc.mates[r.Name]
	if !ok {
		rc.mates[r.Name] = r
		return nil, nil
	}
	delete(rc.mates, r.Name)

	fw, rw := mate, r
	if r.FirstOfPair() && !mate.FirstOfPair() {
		fw, rw = r, mate
	}
	return NewReadPair(fw, rw, rc.lib.Strand(fw)), nil
}

// Flush releases the current reference. It returns ErrUnmatchedMate if any
// read of the run never met its mate.
func (rc *Reconciler) Flush() error {
	rc.release()
	rc.started = false
	if rc.orphans > 0 {
		return fmt.Errorf("%d reads: %w", rc.orphans, ErrUnmatchedMate)
	}
	return nil
}

// Orphans returns the number of reads dropped without a mate so far.
func (rc *Reconciler) Orphans() int {
	return rc.orphans
}

func (rc *Reconciler) release() {
	if !rc.started {
		return
	}
	n := len(rc.mates)
	rc.orphans += n
	rc.logger.Debug("reference done", zap.String("chrom", rc.chrom), zap.Int("orphans", n))
	if rc.onRelease != nil {
		rc.onRelease(rc.chrom, n)
	}
	rc.mates = make(map[string]*Read)
}
