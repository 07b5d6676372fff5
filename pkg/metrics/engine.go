package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/gilchrisn/vsroc/pkg/curve"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Mode selects the NSQ_AUC normalization.
type Mode string

const (
	// Normalized is (aucSqrtX - rand) / (perfect - rand): 1 for Perfect,
	// 0 for Random.
	Normalized Mode = "normalized"
	// Literal is (aucSqrtX - rand) / (perfect / rand), as reported by the
	// older plotting scripts.
	Literal Mode = "literal"
)

// ParseMode accepts "normalized" or "literal". Empty selects Normalized.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Normalized:
		return Normalized, nil
	case Literal:
		return Literal, nil
	}
	return "", vserr.New(vserr.KindParse, s, "unknown nsq mode, expected %q or %q", Normalized, Literal)
}

// Triple holds the plain and square-root-x areas of one curve and its
// NSQ_AUC in the engine's mode.
type Triple struct {
	AUC      float64 `json:"auc"`
	AUCSqrtX float64 `json:"auc_sqrt_x"`
	NsqAuc   float64 `json:"nsq_auc"`
}

// Bundle is the metric set reported for one curve.
type Bundle struct {
	Legend  string `json:"legend"`
	Curve   Triple `json:"curve"`
	Perfect Triple `json:"perfect"`
	Random  Triple `json:"random"`

	NsqAuc        float64 `json:"nsq_auc"`
	NsqMode       Mode    `json:"nsq_mode"`
	NsqAucLiteral float64 `json:"nsq_auc_literal"`
	// NsqAucNormalized is nil when the Perfect and Random sqrt-x areas
	// coincide.
	NsqAucNormalized *float64 `json:"nsq_auc_normalized,omitempty"`
}

// Engine integrates curves against the run baselines.
type Engine struct {
	Mode Mode
}

// NewEngine creates an engine using mode.
func NewEngine(mode Mode) *Engine {
	if mode == "" {
		mode = Normalized
	}
	return &Engine{Mode: mode}
}

// Evaluate computes the metric bundle of c. c and both baselines must share
// one x-grid of at least two points.
func (e *Engine) Evaluate(c curve.Curve, b curve.Baselines) (Bundle, error) {
	xs := c.Xs()
	if len(xs) < 2 {
		return Bundle{}, vserr.New(vserr.KindZeroCategory, c.Legend,
			"curve has %d point(s), the areas are undefined", len(xs))
	}
	if !sort.Float64sAreSorted(xs) {
		return Bundle{}, vserr.New(vserr.KindParse, c.Legend, "x percentages are not sorted")
	}
	if err := sameGrid(xs, b.Perfect, c.Legend); err != nil {
		return Bundle{}, err
	}
	if err := sameGrid(xs, b.Random, c.Legend); err != nil {
		return Bundle{}, err
	}

	sqrtXs := make([]float64, len(xs))
	for i, x := range xs {
		sqrtXs[i] = math.Sqrt(x)
	}

	bundle := Bundle{
		Legend:  c.Legend,
		Curve:   triple(xs, sqrtXs, c.Ys()),
		Perfect: triple(xs, sqrtXs, b.Perfect.Ys()),
		Random:  triple(xs, sqrtXs, b.Random.Ys()),
		NsqMode: e.Mode,
	}

	perf, rand := bundle.Perfect.AUCSqrtX, bundle.Random.AUCSqrtX
	if rand == 0 {
		return Bundle{}, vserr.New(vserr.KindZeroCategory, c.Legend, "random baseline sqrt-x area is zero")
	}
	if perf == 0 {
		return Bundle{}, vserr.New(vserr.KindZeroCategory, c.Legend, "perfect baseline sqrt-x area is zero")
	}

	literal := func(area float64) float64 { return (area - rand) / (perf / rand) }
	bundle.NsqAucLiteral = literal(bundle.Curve.AUCSqrtX)

	var normalized func(float64) float64
	if perf != rand {
		normalized = func(area float64) float64 { return (area - rand) / (perf - rand) }
		v := normalized(bundle.Curve.AUCSqrtX)
		bundle.NsqAucNormalized = &v
	}

	nsq := literal
	switch e.Mode {
	case Literal:
	case Normalized:
		if normalized == nil {
			return Bundle{}, vserr.New(vserr.KindZeroCategory, c.Legend,
				"perfect baseline sqrt-x area %g equals random, normalized nsq_auc is undefined", perf)
		}
		nsq = normalized
	default:
		return Bundle{}, fmt.Errorf("unsupported nsq mode %q", e.Mode)
	}

	bundle.Curve.NsqAuc = nsq(bundle.Curve.AUCSqrtX)
	bundle.Perfect.NsqAuc = nsq(perf)
	bundle.Random.NsqAuc = nsq(rand)
	bundle.NsqAuc = bundle.Curve.NsqAuc
	return bundle, nil
}

func triple(xs, sqrtXs, ys []float64) Triple {
	return Triple{
		AUC:      integrate.Trapezoidal(xs, ys),
		AUCSqrtX: integrate.Trapezoidal(sqrtXs, ys),
	}
}

func sameGrid(xs []float64, base curve.Curve, legend string) error {
	if base.Len() != len(xs) {
		return vserr.New(vserr.KindMismatchedTotals, legend,
			"curve has %d points but the %s baseline has %d", len(xs), base.Legend, base.Len())
	}
	if !floats.EqualApprox(xs, base.Xs(), 1e-9) {
		return vserr.New(vserr.KindMismatchedTotals, legend,
			"x-grid differs from the %s baseline", base.Legend)
	}
	return nil
}
