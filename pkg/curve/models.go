package curve

import (
	"strings"

	"github.com/gilchrisn/vsroc/pkg/intersect"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Point is one rank position of a curve together with the cumulative counts
// it was derived from.
type Point struct {
	Screened int     `json:"screened"`
	Found    int     `json:"found"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Curve is a cumulative enrichment curve, one point per retained rank.
type Curve struct {
	Legend string  `json:"legend"`
	Points []Point `json:"points"`
}

// Baselines are the reference curves shared by every curve of a run.
type Baselines struct {
	Perfect Curve `json:"perfect"`
	Random  Curve `json:"random"`
}

// Len returns the number of points.
func (c Curve) Len() int {
	return len(c.Points)
}

// Xs returns the x percentages in point order.
func (c Curve) Xs() []float64 {
	xs := make([]float64, len(c.Points))
	for i, p := range c.Points {
		xs[i] = p.X
	}
	return xs
}

// Ys returns the y percentages in point order.
func (c Curve) Ys() []float64 {
	ys := make([]float64, len(c.Points))
	for i, p := range c.Points {
		ys[i] = p.Y
	}
	return ys
}

// Last returns the final point and false for an empty curve.
func (c Curve) Last() (Point, bool) {
	if len(c.Points) == 0 {
		return Point{}, false
	}
	return c.Points[len(c.Points)-1], true
}

// Monotonic reports whether both axes never decrease along the curve.
func (c Curve) Monotonic() bool {
	for i := 1; i < len(c.Points); i++ {
		if c.Points[i].X < c.Points[i-1].X || c.Points[i].Y < c.Points[i-1].Y {
			return false
		}
	}
	return true
}

// Axis selects what the x coordinate of a curve counts.
type Axis string

const (
	// AxisLibrary plots the percentage of the ranked library screened,
	// giving an enrichment curve.
	AxisLibrary Axis = "library"
	// AxisTrueNegatives plots the percentage of true negatives found,
	// giving a ROC curve. It needs a true negative range.
	AxisTrueNegatives Axis = "true_negatives"
)

// ParseAxis accepts "library" or "true_negatives". Empty selects AxisLibrary.
func ParseAxis(s string) (Axis, error) {
	switch Axis(strings.ToLower(strings.TrimSpace(s))) {
	case "", AxisLibrary:
		return AxisLibrary, nil
	case AxisTrueNegatives:
		return AxisTrueNegatives, nil
	}
	return "", vserr.New(vserr.KindParse, s, "unknown x axis, expected %q or %q", AxisLibrary, AxisTrueNegatives)
}

// Denominator returns the total the x coordinate is normalized by.
func (a Axis) Denominator(t intersect.Totals) int {
	if a == AxisTrueNegatives {
		return t.TrueNegatives
	}
	return t.Library
}
