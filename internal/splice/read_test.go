package splice

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"

	"github.com/inodb/vibe-psi/internal/annotation"
)

func TestPairable(t *testing.T) {
	proper := mate("r", true, Block{100, 50})
	assert.True(t, Pairable(proper))

	tests := []struct {
		name  string
		flags sam.Flags
		ref   string
	}{
		{"unmapped", proper.Flags | sam.Unmapped, "1"},
		{"mate unmapped", proper.Flags | sam.MateUnmapped, "1"},
		{"secondary", proper.Flags | sam.Secondary, "1"},
		{"supplementary", proper.Flags | sam.Supplementary, "1"},
		{"not paired", proper.Flags &^ sam.Paired, "1"},
		{"same strand", proper.Flags &^ sam.MateReverse, "1"},
		{"mate elsewhere", proper.Flags, "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := *proper
			r.Flags = tt.flags
			r.MateRef = tt.ref
			assert.False(t, Pairable(&r))
		})
	}
}

func TestRead_Strand(t *testing.T) {
	assert.Equal(t, annotation.Plus, mate("r", true, Block{1, 10}).Strand())
	assert.Equal(t, annotation.Minus, mate("r", false, Block{1, 10}).Strand())
	assert.Equal(t, 10, Block{1, 10}.End())
}

func TestMelt(t *testing.T) {
	got := melt([]Block{{30, 5}, {10, 5}, {15, 5}, {12, 4}})
	assert.Equal(t, []Span{{10, 19}, {30, 34}}, got)
	assert.Nil(t, melt(nil))

	in := []Block{{20, 5}, {1, 5}}
	melt(in)
	assert.Equal(t, []Block{{20, 5}, {1, 5}}, in, "input is not reordered")
}

func TestNewReadPair(t *testing.T) {
	fw := mate("p", true, Block{150, 51}, Block{300, 51})
	rw := mate("p", false, Block{320, 81})
	p := NewReadPair(fw, rw, annotation.Plus)

	assert.Equal(t, "p", p.ID)
	assert.Equal(t, "1", p.Chrom)
	assert.Equal(t, 150, p.Start)
	assert.Equal(t, 400, p.End)
	assert.Equal(t, []Span{{150, 200}, {300, 350}}, p.ForwardBlocks)
	assert.Equal(t, []Span{{320, 400}}, p.ReverseBlocks)
}
