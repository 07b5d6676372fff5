package curve

import (
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/gilchrisn/vsroc/pkg/idrange"
	"github.com/gilchrisn/vsroc/pkg/intersect"
	"github.com/gilchrisn/vsroc/pkg/ranking"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Tolerance bounds the floating error allowed on the final (100, 100) point.
const Tolerance = 1e-9

// walker applies the per-record skip rule shared by Build and LocateMarkers.
type walker struct {
	omit     *idrange.Set
	universe *idrange.Set
}

func newWalker(cats intersect.Categories) walker {
	return walker{omit: cats.Omit, universe: cats.Universe()}
}

func (w walker) skip(id ranking.CompoundID) bool {
	if w.omit.Contains(id) {
		return true
	}
	return w.universe != nil && !w.universe.Contains(id)
}

// Build walks an intersected result once in rank order. Omitted compounds
// are skipped and advance neither axis; every other compound adds a point.
// On AxisLibrary x advances with every screened compound, on
// AxisTrueNegatives only with true negatives. The totals must be the ones
// counted for the same intersected population: the build fails unless the
// curve ends at (100, 100).
func Build(result *ranking.Result, cats intersect.Categories, totals intersect.Totals, axis Axis) (Curve, error) {
	if totals.Library <= 0 {
		return Curve{}, vserr.New(vserr.KindZeroCategory, result.Source, "library total is zero")
	}
	if totals.TruePositives <= 0 {
		return Curve{}, vserr.New(vserr.KindZeroCategory, result.Source, "true positive total is zero")
	}
	xTotal := axis.Denominator(totals)
	if xTotal <= 0 {
		return Curve{}, vserr.New(vserr.KindZeroCategory, result.Source, "%s total is zero", axis)
	}

	w := newWalker(cats)
	c := Curve{Points: make([]Point, 0, totals.Library)}

	screened, found, negatives := 0, 0, 0
	for _, rec := range result.Records {
		if w.skip(rec.ID) {
			continue
		}
		screened++
		switch {
		case cats.TruePositives.Contains(rec.ID):
			found++
		case cats.TrueNegatives.Contains(rec.ID):
			negatives++
		}

		xCount := screened
		if axis == AxisTrueNegatives {
			xCount = negatives
		}
		c.Points = append(c.Points, Point{
			Screened: screened,
			Found:    found,
			X:        100 * float64(xCount) / float64(xTotal),
			Y:        100 * float64(found) / float64(totals.TruePositives),
		})
	}

	last, ok := c.Last()
	if !ok {
		return Curve{}, vserr.New(vserr.KindMismatchedTotals, result.Source, "no compound left to screen")
	}
	if !scalar.EqualWithinAbs(last.X, 100, Tolerance) || !scalar.EqualWithinAbs(last.Y, 100, Tolerance) {
		return Curve{}, vserr.New(vserr.KindMismatchedTotals, result.Source,
			"curve ends at (%g, %g) after %d screened and %d found; expected totals %s",
			last.X, last.Y, last.Screened, last.Found, totals)
	}
	return c, nil
}

// NewBaselines derives the Perfect and Random curves on the x-grid of grid.
// On AxisLibrary Perfect gains 100/truePositives at each of the first
// truePositives grid positions and then holds at 100. On AxisTrueNegatives
// a perfect ranking finds every true positive before the first true
// negative, so Perfect sits at 100 over the whole grid. Random is the
// diagonal on both axes.
func NewBaselines(grid Curve, truePositives int, axis Axis) (Baselines, error) {
	if truePositives <= 0 {
		return Baselines{}, vserr.New(vserr.KindZeroCategory, grid.Legend, "true positive total is zero")
	}

	b := Baselines{
		Perfect: Curve{Legend: "Perfect", Points: make([]Point, len(grid.Points))},
		Random:  Curve{Legend: "Random", Points: make([]Point, len(grid.Points))},
	}

	val := 0
	for i, p := range grid.Points {
		if val < truePositives {
			val++
		}
		if axis == AxisTrueNegatives {
			val = truePositives
		}
		b.Perfect.Points[i] = Point{
			Screened: p.Screened,
			Found:    val,
			X:        p.X,
			Y:        100 * float64(val) / float64(truePositives),
		}
		b.Random.Points[i] = Point{
			Screened: p.Screened,
			X:        p.X,
			Y:        p.X,
		}
	}
	return b, nil
}
