package splice

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-psi/internal/annotation"
)

// ReadSource yields aligned records. Next returns nil, nil at end of input.
type ReadSource interface {
	Next() (*Read, error)
}

// Stats counts the filtering decisions of a run.
type Stats struct {
	Records          int // Records consumed
	Rejected         int // Records failing the pairing predicate
	Pairs            int // Read pairs built
	Orphans          int // Reads whose mate never appeared
	Spliced          int // Consistent pairs implying at least one intron
	Inconsistent     int // Pairs whose mates disagree on splicing
	AmbiguousNoGene  int // Pairs spanning genes without lying in one
	Intergenic       int // Pairs touching no gene
	AmbiguousIsoform int // Gene candidates matched by zero or several transcripts
	Credited         int // Gene and pair combinations aggregated
	SkippedExons     int // Skipped exons detected
	ZeroDenominator  int // Skipped exons without any evidence
	Results          int // Result rows
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("records", s.Records)
	enc.AddInt("rejected", s.Rejected)
	enc.AddInt("pairs", s.Pairs)
	enc.AddInt("orphans", s.Orphans)
	enc.AddInt("spliced", s.Spliced)
	enc.AddInt("inconsistent", s.Inconsistent)
	enc.AddInt("ambiguous_no_gene", s.AmbiguousNoGene)
	enc.AddInt("intergenic", s.Intergenic)
	enc.AddInt("ambiguous_isoform", s.AmbiguousIsoform)
	enc.AddInt("credited", s.Credited)
	enc.AddInt("skipped_exons", s.SkippedExons)
	enc.AddInt("zero_denominator", s.ZeroDenominator)
	enc.AddInt("results", s.Results)
	return nil
}

// Engine runs the single pass from aligned records to PSI results.
type Engine struct {
	genes    []*annotation.Gene
	index    *annotation.GeneIndex
	rec      *Reconciler
	agg      *Aggregator
	stats    Stats
	logger   *zap.Logger
	results  []Result
	finished bool
}

// NewEngine creates an engine over the given annotation.
func NewEngine(genes []*annotation.Gene, lib Library) *Engine {
	e := &Engine{
		genes:  genes,
		index:  annotation.NewGeneIndex(genes),
		agg:    NewAggregator(),
		logger: zap.NewNop(),
	}
	e.rec = NewReconciler(lib, func(chrom string, orphans int) {
		e.index.Release(chrom)
	})
	return e
}

// SetLogger sets the logger for the engine and its components.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
	e.index.SetLogger(l)
	e.rec.SetLogger(l)
}

// Run consumes src to the end, then computes the results.
func (e *Engine) Run(src ReadSource) ([]Result, error) {
	for {
		r, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf("reading alignments: %w", err)
		}
		if r == nil {
			break
		}
		if err := e.Add(r); err != nil {
			return nil, err
		}
	}
	return e.Finish()
}

// Add consumes one record. Filtered records are counted, not returned as
// errors.
func (e *Engine) Add(r *Read) error {
	if e.finished {
		return ErrFrozen
	}
	e.stats.Records++
	p, err := e.rec.Add(r)
	if errors.Is(err, ErrUnmappedOrImproperPair) {
		e.stats.Rejected++
		return nil
	}
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	e.stats.Pairs++
	return e.ProcessPair(p)
}

// ProcessPair credits p to every gene it is transcriptomic for.
func (e *Engine) ProcessPair(p *ReadPair) error {
	if e.finished {
		return ErrFrozen
	}

	introns, err := SplitCount(p)
	if err != nil {
		e.stats.Inconsistent++
		return nil
	}
	if introns > 0 {
		e.stats.Spliced++
	}

	candidates := e.index.Containing(p.Chrom, p.Strand, p.Start, p.End)
	if len(candidates) == 0 {
		if len(e.index.Within(p.Chrom, p.Strand, p.Start, p.End)) > 0 {
			e.stats.AmbiguousNoGene++
		} else {
			e.stats.Intergenic++
		}
		return nil
	}

	for _, g := range candidates {
		tid, err := MatchTranscript(p, g)
		if err != nil {
			e.stats.AmbiguousIsoform++
			continue
		}
		if err := e.agg.Add(g.ID, p, tid); err != nil {
			return fmt.Errorf("aggregate pair %s in %s: %w", p.ID, g.ID, err)
		}
		e.stats.Credited++
	}
	return nil
}

// Finish ends aggregation and computes PSI for every skipped exon in
// annotation order. Later calls return the same results.
func (e *Engine) Finish() ([]Result, error) {
	if e.finished {
		return e.results, nil
	}

	if err := e.rec.Flush(); err != nil && !errors.Is(err, ErrUnmatchedMate) {
		return nil, err
	}
	e.stats.Orphans = e.rec.Orphans()
	e.agg.Freeze()
	e.finished = true

	for _, g := range e.genes {
		a := Analyze(g)
		if len(a.Skipped) == 0 {
			continue
		}
		rows := CalculatePSI(a, e.agg.Alignments(g.ID))
		e.stats.SkippedExons += len(a.Skipped)
		e.stats.ZeroDenominator += len(a.Skipped) - len(rows)
		e.results = append(e.results, rows...)
	}
	e.stats.Results = len(e.results)

	e.logger.Info("quantification complete", zap.Object("stats", e.stats))
	return e.results, nil
}

// Stats returns the counters collected so far.
func (e *Engine) Stats() Stats {
	return e.stats
}
