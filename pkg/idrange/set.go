package idrange

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/biogo/store/interval"

	"github.com/gilchrisn/vsroc/pkg/ranking"
)

// Range is an inclusive compound ID interval.
type Range struct {
	Lo, Hi ranking.CompoundID
}

func (r Range) String() string {
	if r.Lo == r.Hi {
		return fmt.Sprintf("%d", r.Lo)
	}
	return fmt.Sprintf("%d-%d", r.Lo, r.Hi)
}

// idInterval stores a Range in the tree using half-open coordinates.
type idInterval struct {
	Start, End int
	UID        uintptr
}

func (i idInterval) Overlap(b interval.IntRange) bool {
	return i.End > b.Start && i.Start < b.End
}

func (i idInterval) ID() uintptr {
	return i.UID
}

func (i idInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.Start, End: i.End}
}

// point queries a single position.
type point int

func (p point) Overlap(b interval.IntRange) bool {
	return int(p) >= b.Start && int(p) < b.End
}

// Set is an immutable set of compound IDs made of merged intervals.
type Set struct {
	ranges []Range
	tree   interval.IntTree
}

// MaxID is the largest compound ID a Set can hold. The tree stores
// half-open intervals, so End = Hi+1 must stay representable.
const MaxID = ranking.CompoundID(math.MaxInt - 1)

// New builds a set from arbitrary, possibly overlapping ranges. Every range
// must satisfy 1 <= Lo <= Hi <= MaxID.
func New(ranges ...Range) (*Set, error) {
	for _, r := range ranges {
		if r.Lo <= 0 || r.Hi < r.Lo || r.Hi > MaxID {
			return nil, fmt.Errorf("invalid id range %d-%d", r.Lo, r.Hi)
		}
	}
	merged := merge(ranges)

	s := &Set{ranges: merged}
	for i, r := range merged {
		iv := idInterval{Start: int(r.Lo), End: int(r.Hi) + 1, UID: uintptr(i + 1)}
		if err := s.tree.Insert(iv, true); err != nil {
			return nil, fmt.Errorf("failed to index id range %s: %w", r, err)
		}
	}
	s.tree.AdjustRanges()
	return s, nil
}

func mustNew(ranges ...Range) *Set {
	s, err := New(ranges...)
	if err != nil {
		panic(err)
	}
	return s
}

// Of builds a set from individual IDs. It panics on an ID outside
// [1, MaxID]; use Parse for untrusted input.
func Of(ids ...ranking.CompoundID) *Set {
	ranges := make([]Range, len(ids))
	for i, id := range ids {
		ranges[i] = Range{Lo: id, Hi: id}
	}
	return mustNew(ranges...)
}

// Empty returns the empty set.
func Empty() *Set {
	return mustNew()
}

func merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })

	out := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		// adjacent ranges merge too
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id ranking.CompoundID) bool {
	if s == nil || len(s.ranges) == 0 {
		return false
	}
	return len(s.tree.Get(point(id))) > 0
}

// Len returns the number of IDs in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, r := range s.ranges {
		n += int(r.Hi-r.Lo) + 1
	}
	return n
}

// IsEmpty reports whether the set holds no IDs.
func (s *Set) IsEmpty() bool {
	return s == nil || len(s.ranges) == 0
}

// Ranges returns the merged intervals in ascending order.
func (s *Set) Ranges() []Range {
	if s == nil {
		return nil
	}
	out := make([]Range, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// IDs enumerates the set in ascending order.
func (s *Set) IDs() []ranking.CompoundID {
	ids := make([]ranking.CompoundID, 0, s.Len())
	for _, r := range s.Ranges() {
		for id := r.Lo; id <= r.Hi; id++ {
			ids = append(ids, id)
		}
	}
	return ids
}

// Union returns the IDs present in either set.
func (s *Set) Union(o *Set) *Set {
	return mustNew(append(s.Ranges(), o.Ranges()...)...)
}

// Overlaps reports whether the two sets share at least one ID.
func (s *Set) Overlaps(o *Set) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return false
	}
	for _, r := range o.ranges {
		q := idInterval{Start: int(r.Lo), End: int(r.Hi) + 1}
		if len(s.tree.Get(q)) > 0 {
			return true
		}
	}
	return false
}

// String renders the set in the ID range grammar, e.g. "1-3,7".
func (s *Set) String() string {
	parts := make([]string, 0, len(s.Ranges()))
	for _, r := range s.Ranges() {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ",")
}
