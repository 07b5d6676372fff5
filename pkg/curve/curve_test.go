package curve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/vsroc/pkg/idrange"
	"github.com/gilchrisn/vsroc/pkg/intersect"
	"github.com/gilchrisn/vsroc/pkg/ranking"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

func ranked(ids ...ranking.CompoundID) *ranking.Result {
	r := &ranking.Result{Source: "test.csv"}
	for _, id := range ids {
		r.Records = append(r.Records, ranking.Record{ID: id})
	}
	return r
}

func cats(tp, omit *idrange.Set) intersect.Categories {
	return intersect.Categories{TruePositives: tp, TrueNegatives: idrange.Empty(), Omit: omit}
}

func xy(c Curve) [][2]float64 {
	out := make([][2]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

func TestBuildSkipsOmitted(t *testing.T) {
	result := ranked(1, 2, 3, 4, 5)

	c, err := Build(result, cats(idrange.Of(2, 4), idrange.Of(3)), intersect.Totals{Library: 4, TruePositives: 2}, AxisLibrary)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{25, 0}, {50, 50}, {75, 100}, {100, 100}}, xy(c))
	assert.Equal(t, []int{1, 2, 3, 4}, []int{c.Points[0].Screened, c.Points[1].Screened, c.Points[2].Screened, c.Points[3].Screened})

	// last active ranked last
	c, err = Build(result, cats(idrange.Of(2, 5), idrange.Of(3)), intersect.Totals{Library: 4, TruePositives: 2}, AxisLibrary)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{25, 0}, {50, 50}, {75, 50}, {100, 100}}, xy(c))
}

func TestBuildIsMonotonicAndTerminates(t *testing.T) {
	ids := make([]ranking.CompoundID, 0, 300)
	for i := 300; i >= 1; i-- {
		ids = append(ids, ranking.CompoundID(i))
	}
	tp, _ := idrange.Parse("1-20,150,299")
	omit, _ := idrange.Parse("100-109")
	c := cats(tp, omit)

	shared := intersect.Shared{}
	for _, id := range ids {
		shared[id] = struct{}{}
	}
	totals, err := intersect.CountTotals(shared, c)
	require.NoError(t, err)
	assert.Equal(t, 290, totals.Library)
	assert.Equal(t, 22, totals.TruePositives)

	curve, err := Build(ranked(ids...), c, totals, AxisLibrary)
	require.NoError(t, err)
	assert.Len(t, curve.Points, 290)
	assert.True(t, curve.Monotonic())

	last, ok := curve.Last()
	require.True(t, ok)
	assert.InDelta(t, 100, last.X, Tolerance)
	assert.InDelta(t, 100, last.Y, Tolerance)
}

func TestBuildRejectsWrongTotals(t *testing.T) {
	result := ranked(1, 2, 3)

	_, err := Build(result, cats(idrange.Of(1), idrange.Empty()), intersect.Totals{Library: 4, TruePositives: 1}, AxisLibrary)
	assert.True(t, errors.Is(err, vserr.ErrMismatchedTotals))

	_, err = Build(result, cats(idrange.Of(1), idrange.Empty()), intersect.Totals{Library: 3}, AxisLibrary)
	assert.True(t, errors.Is(err, vserr.ErrZeroCategory))

	_, err = Build(ranked(1), cats(idrange.Of(1), idrange.Of(1)), intersect.Totals{Library: 1, TruePositives: 1}, AxisLibrary)
	assert.True(t, errors.Is(err, vserr.ErrMismatchedTotals))
}

func TestBuildWithUniverseSkipsUnknowns(t *testing.T) {
	result := ranked(7, 1, 8, 2, 3)
	c := intersect.Categories{TruePositives: idrange.Of(1), TrueNegatives: idrange.Of(2, 3), Omit: idrange.Empty()}

	curve, err := Build(result, c, intersect.Totals{Library: 3, TruePositives: 1, TrueNegatives: 2}, AxisLibrary)
	require.NoError(t, err)
	require.Len(t, curve.Points, 3)
	assert.InDelta(t, 100.0/3, curve.Points[0].X, 1e-12)
	assert.Equal(t, 100.0, curve.Points[0].Y)
}

func TestNewBaselines(t *testing.T) {
	grid := Curve{Points: []Point{{Screened: 1, X: 25}, {Screened: 2, X: 50}, {Screened: 3, X: 75}, {Screened: 4, X: 100}}}

	b, err := NewBaselines(grid, 2, AxisLibrary)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 100, 100, 100}, b.Perfect.Ys())
	assert.Equal(t, grid.Xs(), b.Perfect.Xs())
	assert.Equal(t, []float64{25, 50, 75, 100}, b.Random.Ys())
	assert.True(t, b.Perfect.Monotonic())

	_, err = NewBaselines(grid, 0, AxisLibrary)
	assert.True(t, errors.Is(err, vserr.ErrZeroCategory))
}

func TestBuildOnTrueNegativeAxis(t *testing.T) {
	// TP {1,4}, TN {2,3,5}, 9 is outside the known library
	result := ranked(1, 2, 9, 4, 3, 5)
	c := intersect.Categories{TruePositives: idrange.Of(1, 4), TrueNegatives: idrange.Of(2, 3, 5), Omit: idrange.Empty()}
	totals := intersect.Totals{Library: 5, TruePositives: 2, TrueNegatives: 3}

	curve, err := Build(result, c, totals, AxisTrueNegatives)
	require.NoError(t, err)
	third := 100.0 / 3
	want := [][2]float64{{0, 50}, {third, 50}, {third, 100}, {2 * third, 100}, {100, 100}}
	got := xy(curve)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i][0], got[i][0], 1e-9, "x at %d", i)
		assert.InDelta(t, want[i][1], got[i][1], 1e-9, "y at %d", i)
	}
	assert.Equal(t, 5, curve.Points[4].Screened)
	assert.True(t, curve.Monotonic())

	b, err := NewBaselines(curve, totals.TruePositives, AxisTrueNegatives)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 100, 100, 100, 100}, b.Perfect.Ys())
	assert.Equal(t, curve.Xs(), b.Random.Ys())

	_, err = Build(result, c, intersect.Totals{Library: 5, TruePositives: 2}, AxisTrueNegatives)
	assert.True(t, errors.Is(err, vserr.ErrZeroCategory))

	stored, err := Totals(curve, AxisTrueNegatives)
	require.NoError(t, err)
	assert.Equal(t, totals, stored)
}

func TestParseAxis(t *testing.T) {
	for in, want := range map[string]Axis{"": AxisLibrary, "library": AxisLibrary, " True_Negatives ": AxisTrueNegatives} {
		got, err := ParseAxis(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAxis("decoys")
	assert.True(t, errors.Is(err, vserr.ErrParse))
}

func TestFileNameSeparatesInputs(t *testing.T) {
	base := Key{Legend: "glide", TruePositives: "1-5", Omit: "0-0"}
	names := map[string]bool{FileName(base): true}

	for _, k := range []Key{
		{Legend: "icm", TruePositives: "1-5", Omit: "0-0"},
		{Legend: "glide", TruePositives: "1-5", TrueNegatives: "6-9", Omit: "0-0"},
		{Legend: "glide", TruePositives: "1-5", Omit: "3"},
		{Legend: "glide", TruePositives: "1-5", TrueNegatives: "6-9", Omit: "0-0", Axis: AxisTrueNegatives},
	} {
		name := FileName(k)
		assert.False(t, names[name], "duplicate name %s", name)
		names[name] = true
	}
	assert.Equal(t, FileName(base), FileName(Key{Legend: "glide", TruePositives: "1-5"}))
}

func TestZoomWindow(t *testing.T) {
	a := Curve{Points: []Point{{X: 1, Y: 10}, {X: 2, Y: 30}, {X: 6, Y: 90}}}
	b := Curve{Points: []Point{{X: 1, Y: 20}, {X: 4, Y: 40}, {X: 8, Y: 95}}}

	w := ZoomWindow([]Curve{a, b}, 5)
	assert.Equal(t, Window{Enabled: true, Zoom: 5, X: 4, Y: 40}, w)

	assert.False(t, ZoomWindow([]Curve{a}, 0).Enabled)
}

func TestLocateMarkers(t *testing.T) {
	result := ranked(1, 2, 3, 4, 5)
	c := cats(idrange.Of(2, 4), idrange.Of(3))
	curve, err := Build(result, c, intersect.Totals{Library: 4, TruePositives: 2}, AxisLibrary)
	require.NoError(t, err)
	curve.Legend = "dock"

	hits := LocateMarkers(result, curve, c, []idrange.Marker{{Name: "ref", ID: 4}, {Name: "gone", ID: 3}, {Name: "absent", ID: 42}})
	require.Len(t, hits, 3)

	assert.True(t, hits[0].Found)
	assert.Equal(t, 3, hits[0].Rank)
	assert.Equal(t, 75.0, hits[0].Point.X)
	assert.Equal(t, "dock", hits[0].Legend)
	assert.False(t, hits[1].Found)
	assert.False(t, hits[2].Found)
}

func TestStoreRoundTrip(t *testing.T) {
	result := ranked(9, 4, 2, 7, 1, 3)
	c := cats(idrange.Of(4, 1, 3), idrange.Empty())
	curve, err := Build(result, c, intersect.Totals{Library: 6, TruePositives: 3}, AxisLibrary)
	require.NoError(t, err)

	store := NewStore(filepath.Join(t.TempDir(), "exp1"))
	name := FileName(Key{Legend: "exp 1", TruePositives: "1,3-4", Omit: "0-0"})
	assert.Equal(t, "exp1_roc_knowns_1+3-4_negs_none_omits_0-0.csv", name)

	path, err := store.Save(curve, name)
	require.NoError(t, err)
	assert.True(t, store.Exists(name))

	loaded, err := Load(path, "exp1")
	require.NoError(t, err)
	assert.Equal(t, "exp1", loaded.Legend)
	require.Len(t, loaded.Points, len(curve.Points))
	for i := range curve.Points {
		assert.InDelta(t, curve.Points[i].X, loaded.Points[i].X, 1e-12)
		assert.InDelta(t, curve.Points[i].Y, loaded.Points[i].Y, 1e-12)
		assert.Equal(t, curve.Points[i].Screened, loaded.Points[i].Screened)
		assert.Equal(t, curve.Points[i].Found, loaded.Points[i].Found)
	}

	totals, err := Totals(loaded, AxisLibrary)
	require.NoError(t, err)
	assert.Equal(t, intersect.Totals{Library: 6, TruePositives: 3}, totals)

	entries, err := os.ReadDir(store.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file left behind")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.csv"), "x")
	assert.True(t, errors.Is(err, vserr.ErrIO))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("1,0,25,0\n2,x,50,0\n"), 0644))
	_, err = Load(bad, "x")
	assert.True(t, errors.Is(err, vserr.ErrParse))
	assert.Contains(t, err.Error(), "line 2")

	_, err = Totals(Curve{}, AxisLibrary)
	assert.True(t, errors.Is(err, vserr.ErrZeroCategory))
}
