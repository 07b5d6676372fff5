package intersect

import (
	"fmt"

	"github.com/gilchrisn/vsroc/pkg/idrange"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Categories holds the ground-truth ranges of a run.
type Categories struct {
	TruePositives *idrange.Set
	TrueNegatives *idrange.Set
	Omit          *idrange.Set
}

// Validate rejects category ranges that claim the same compound as both
// active and inactive.
func (c Categories) Validate() error {
	if c.TruePositives.Overlaps(c.TrueNegatives) {
		return vserr.New(vserr.KindParse, "", "true positive range %s overlaps true negative range %s",
			c.TruePositives, c.TrueNegatives)
	}
	return nil
}

// Universe returns the known library, TruePositive ∪ TrueNegative, or nil
// when no true negatives were given.
func (c Categories) Universe() *idrange.Set {
	if c.TrueNegatives.IsEmpty() {
		return nil
	}
	return c.TruePositives.Union(c.TrueNegatives)
}

// Totals are the normalization denominators of one experiment after
// intersection and omission.
type Totals struct {
	Library       int `json:"library"`
	TruePositives int `json:"true_positives"`
	TrueNegatives int `json:"true_negatives"`
}

// Count returns |category ∩ shared|.
func Count(shared Shared, category *idrange.Set) int {
	n := 0
	for id := range shared {
		if category.Contains(id) {
			n++
		}
	}
	return n
}

// CountTotals recounts the categories against the shared population.
// Omitted compounds count in no category.
func CountTotals(shared Shared, cats Categories) (Totals, error) {
	universe := cats.Universe()

	var t Totals
	for id := range shared {
		if cats.Omit.Contains(id) {
			continue
		}
		if universe != nil && !universe.Contains(id) {
			continue
		}
		t.Library++
		switch {
		case cats.TruePositives.Contains(id):
			t.TruePositives++
		case cats.TrueNegatives.Contains(id):
			t.TrueNegatives++
		}
	}

	if t.Library == 0 {
		return t, vserr.New(vserr.KindZeroCategory, "", "library total is zero after intersection and omission")
	}
	if t.TruePositives == 0 {
		return t, vserr.New(vserr.KindZeroCategory, "", "no true positive from %s survives intersection and omission",
			cats.TruePositives)
	}
	return t, nil
}

// NamedTotals ties totals to the experiment they were counted for.
type NamedTotals struct {
	Name   string
	Totals Totals
}

// CheckTotals fails when any experiment disagrees with the first one on the
// library or true-positive total.
func CheckTotals(all []NamedTotals) error {
	if len(all) < 2 {
		return nil
	}

	ref := all[0]
	for _, nt := range all[1:] {
		if nt.Totals.Library != ref.Totals.Library {
			return vserr.New(vserr.KindMismatchedTotals, nt.Name,
				"library total %d does not match %d of %s", nt.Totals.Library, ref.Totals.Library, ref.Name)
		}
		if nt.Totals.TruePositives != ref.Totals.TruePositives {
			return vserr.New(vserr.KindMismatchedTotals, nt.Name,
				"true positive total %d does not match %d of %s", nt.Totals.TruePositives, ref.Totals.TruePositives, ref.Name)
		}
	}
	return nil
}

func (t Totals) String() string {
	return fmt.Sprintf("library=%d true_positives=%d true_negatives=%d", t.Library, t.TruePositives, t.TrueNegatives)
}
