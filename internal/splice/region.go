package splice

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
)

// Span is a closed, 1-based genomic interval.
type Span struct {
	Start int
	End   int
}

// Contains returns true if o lies within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && s.End >= o.End
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Category tells what a Region is evidence of.
type Category uint8

const (
	CoveredForward Category = iota // Sequenced by the forward mate
	CoveredReverse                 // Sequenced by the reverse mate
	SpliceGap                      // Skipped inside one mate's alignment
	MateGap                        // Unsequenced insert between the mates
)

func (c Category) String() string {
	switch c {
	case CoveredForward:
		return "FW"
	case CoveredReverse:
		return "RW"
	case SpliceGap:
		return "SPLICE"
	case MateGap:
		return "MATE"
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// Region is a covered or gap interval contributed by one read pair.
type Region struct {
	Span
	PairID       string
	TranscriptID string
	Category     Category
}

// regionInterval adapts a Region to the biogo interval tree.
type regionInterval struct {
	region Region
	uid    uintptr
}

func (ri regionInterval) Overlap(b interval.IntRange) bool {
	return ri.region.Start <= b.End && b.Start <= ri.region.End
}

func (ri regionInterval) ID() uintptr { return ri.uid }

func (ri regionInterval) Range() interval.IntRange {
	return interval.IntRange{Start: ri.region.Start, End: ri.region.End}
}

// spanQuery searches a tree for regions overlapping a closed span.
type spanQuery Span

func (q spanQuery) Overlap(b interval.IntRange) bool {
	return q.Start <= b.End && b.Start <= q.End
}

// RegionIndex is an append-then-query interval index of regions.
// Inserts are accepted until Freeze; queries freeze the index.
type RegionIndex struct {
	tree   interval.IntTree
	next   uintptr
	frozen bool
}

// Insert adds a region.
func (x *RegionIndex) Insert(r Region) error {
	if x.frozen {
		return ErrFrozen
	}
	if err := x.tree.Insert(regionInterval{region: r, uid: x.next}, true); err != nil {
		return fmt.Errorf("insert region %s: %w", r.Span, err)
	}
	x.next++
	return nil
}

// Freeze ends the insert phase and prepares the tree for queries.
func (x *RegionIndex) Freeze() {
	if x.frozen {
		return
	}
	x.tree.AdjustRanges()
	x.frozen = true
}

// Len returns the number of regions in the index.
func (x *RegionIndex) Len() int {
	return x.tree.Len()
}

// Within returns regions lying entirely inside s, in insertion order.
func (x *RegionIndex) Within(s Span) []Region {
	return x.find(s, func(r Region) bool { return s.Contains(r.Span) })
}

// Spanning returns regions that contain s, in insertion order.
func (x *RegionIndex) Spanning(s Span) []Region {
	return x.find(s, func(r Region) bool { return r.Contains(s) })
}

func (x *RegionIndex) find(s Span, keep func(Region) bool) []Region {
	x.Freeze()

	var hits []regionInterval
	x.tree.DoMatching(func(iv interval.IntInterface) bool {
		if ri := iv.(regionInterval); keep(ri.region) {
			hits = append(hits, ri)
		}
		return false
	}, spanQuery(s))

	sort.Slice(hits, func(i, j int) bool { return hits[i].uid < hits[j].uid })
	out := make([]Region, len(hits))
	for i, ri := range hits {
		out[i] = ri.region
	}
	return out
}
