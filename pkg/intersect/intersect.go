package intersect

import (
	"github.com/gilchrisn/vsroc/pkg/idrange"
	"github.com/gilchrisn/vsroc/pkg/ranking"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Shared is the compound population common to every experiment of a run.
type Shared map[ranking.CompoundID]struct{}

// Contains reports whether id survived the intersection.
func (s Shared) Contains(id ranking.CompoundID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the size of the shared population.
func (s Shared) Len() int {
	return len(s)
}

type options struct {
	universe *idrange.Set
}

// Option tunes Intersect.
type Option func(*options)

// WithUniverse restricts the shared population to the known library,
// typically TruePositive ∪ TrueNegative.
func WithUniverse(universe *idrange.Set) Option {
	return func(o *options) {
		o.universe = universe
	}
}

// Intersect keeps, in every result, only the compounds ranked by all
// results. Each output keeps the rank order of its source.
func Intersect(results []*ranking.Result, opts ...Option) ([]*ranking.Result, Shared, error) {
	if len(results) == 0 {
		return nil, nil, vserr.New(vserr.KindEmptyIntersection, "", "no experiments to intersect")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	shared := Shared(results[0].IDSet())
	for _, r := range results[1:] {
		ids := r.IDSet()
		for id := range shared {
			if _, ok := ids[id]; !ok {
				delete(shared, id)
			}
		}
	}

	if o.universe != nil {
		for id := range shared {
			if !o.universe.Contains(id) {
				delete(shared, id)
			}
		}
	}

	if len(results) == 1 && o.universe == nil {
		return results, shared, nil
	}

	if len(shared) == 0 {
		source := results[0].Source
		if len(results) > 1 {
			return nil, nil, vserr.New(vserr.KindEmptyIntersection, source,
				"no compound is ranked by all %d experiments", len(results))
		}
		return nil, nil, vserr.New(vserr.KindEmptyIntersection, source,
			"no ranked compound belongs to the library %s", o.universe)
	}

	out := make([]*ranking.Result, len(results))
	for i, r := range results {
		out[i] = r.Filter(shared.Contains)
	}
	return out, shared, nil
}
