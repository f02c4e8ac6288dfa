package splice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-psi/internal/annotation"
)

func frozen(t *testing.T, regions ...Region) RegionIndex {
	t.Helper()
	var x RegionIndex
	for _, r := range regions {
		require.NoError(t, x.Insert(r))
	}
	x.Freeze()
	return x
}

func TestCalculatePSI(t *testing.T) {
	a := Analyze(cassetteGene())
	ga := &GeneAlignments{
		GeneID: "G",
		Covered: frozen(t,
			Region{Span: Span{300, 350}, PairID: "a", Category: CoveredForward},
			Region{Span: Span{320, 400}, PairID: "a", Category: CoveredReverse},
			Region{Span: Span{310, 390}, PairID: "b", Category: CoveredForward},
			Region{Span: Span{250, 350}, PairID: "x", Category: CoveredForward},
		),
		Gaps: frozen(t,
			Region{Span: Span{201, 499}, PairID: "c", TranscriptID: "T2", Category: SpliceGap},
			Region{Span: Span{201, 499}, PairID: "d", TranscriptID: "T1", Category: MateGap},
			Region{Span: Span{201, 499}, PairID: "e", TranscriptID: "T2", Category: MateGap},
			Region{Span: Span{301, 499}, PairID: "f", TranscriptID: "T2", Category: SpliceGap},
		),
	}

	results := CalculatePSI(a, ga)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "G", r.GeneID)
	assert.Equal(t, Span{300, 400}, r.Exon)
	assert.Equal(t, "T1", r.TranscriptID)
	assert.Equal(t, 2, r.Inclusion, "pair a counted once, x not inside")
	assert.Equal(t, 2, r.Exclusion, "own isoform mate gap and partial gap excluded")
	assert.Equal(t, 4, r.Total())
	assert.Equal(t, 0.5, r.PSI())

	assert.Equal(t, results, CalculatePSI(a, ga), "repeatable")
}

func TestCalculatePSI_NoEvidence(t *testing.T) {
	a := Analyze(cassetteGene())
	assert.Empty(t, CalculatePSI(a, nil))
	assert.Empty(t, CalculatePSI(a, &GeneAlignments{GeneID: "G"}))
}

func TestResult_PSIBounds(t *testing.T) {
	for _, r := range []Result{{Inclusion: 0, Exclusion: 3}, {Inclusion: 3, Exclusion: 0}, {Inclusion: 1, Exclusion: 2}, {}} {
		assert.GreaterOrEqual(t, r.PSI(), 0.0)
		assert.LessOrEqual(t, r.PSI(), 1.0)
	}
	assert.Equal(t, 0.0, Result{Exclusion: 3}.PSI())
	assert.Equal(t, 1.0, Result{Inclusion: 3}.PSI())
}

func TestCalculatePSI_SharedExonKeepsFirstTag(t *testing.T) {
	g := cassetteGene()
	g.Transcripts = append(g.Transcripts,
		transcript("T3", annotation.Plus, Span{100, 200}, Span{300, 400}, Span{500, 600}, Span{700, 800}))

	a := Analyze(g)
	require.Len(t, a.Skipped, 1, "exon held by T1 and T3 is reported once")
	assert.Equal(t, "T1", a.Skipped[0].TranscriptID)

	ga := &GeneAlignments{
		GeneID: "G",
		Gaps: frozen(t,
			Region{Span: Span{201, 499}, PairID: "own", TranscriptID: "T1", Category: MateGap},
			Region{Span: Span{201, 499}, PairID: "other", TranscriptID: "T3", Category: MateGap},
		),
	}

	results := CalculatePSI(a, ga)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Inclusion)
	assert.Equal(t, 1, results[0].Exclusion, "only the tagged isoform's insert is ignored")
}
