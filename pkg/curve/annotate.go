package curve

import (
	"github.com/gilchrisn/vsroc/pkg/idrange"
	"github.com/gilchrisn/vsroc/pkg/intersect"
	"github.com/gilchrisn/vsroc/pkg/ranking"
)

// Window is the inset of the first Zoom percent of the x-axis. X and Y are
// the point with the highest y reached at or below Zoom.
type Window struct {
	Enabled bool    `json:"enabled"`
	Zoom    float64 `json:"zoom"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// ZoomWindow computes the inset limits across all curves. A zoom <= 0
// disables the inset.
func ZoomWindow(curves []Curve, zoom float64) Window {
	w := Window{Zoom: zoom}
	if zoom <= 0 {
		return w
	}
	w.Enabled = true

	for _, c := range curves {
		for _, p := range c.Points {
			if p.X <= zoom && w.Y < p.Y {
				w.X = p.X
				w.Y = p.Y
			}
		}
	}
	return w
}

// MarkerHit is where a reference ligand lands on one curve.
type MarkerHit struct {
	Marker idrange.Marker `json:"marker"`
	Legend string         `json:"legend"`
	Found  bool           `json:"found"`
	Rank   int            `json:"rank"`
	Point  Point          `json:"point"`
}

// LocateMarkers finds the point of c reached by each marker compound. c must
// have been built from result with the same categories. Markers that were
// omitted or are not ranked come back with Found false.
func LocateMarkers(result *ranking.Result, c Curve, cats intersect.Categories, markers []idrange.Marker) []MarkerHit {
	if len(markers) == 0 {
		return nil
	}

	index := make(map[ranking.CompoundID]int, len(c.Points))
	w := newWalker(cats)
	pos := 0
	for _, rec := range result.Records {
		if w.skip(rec.ID) {
			continue
		}
		if pos >= len(c.Points) {
			break
		}
		index[rec.ID] = pos
		pos++
	}

	hits := make([]MarkerHit, len(markers))
	for i, m := range markers {
		hits[i] = MarkerHit{Marker: m, Legend: c.Legend}
		if p, ok := index[m.ID]; ok {
			hits[i].Found = true
			hits[i].Rank = p + 1
			hits[i].Point = c.Points[p]
		}
	}
	return hits
}
