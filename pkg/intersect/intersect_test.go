package intersect

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/vsroc/pkg/idrange"
	"github.com/gilchrisn/vsroc/pkg/ranking"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

func ranked(source string, ids ...ranking.CompoundID) *ranking.Result {
	r := &ranking.Result{Source: source}
	for _, id := range ids {
		r.Records = append(r.Records, ranking.Record{ID: id})
	}
	return r
}

func sortedIDs(s Shared) []ranking.CompoundID {
	ids := make([]ranking.CompoundID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestIntersectKeepsCommonIDsInSourceOrder(t *testing.T) {
	a := ranked("a", 5, 1, 9, 3, 7)
	b := ranked("b", 3, 2, 5, 7, 8)
	c := ranked("c", 7, 5, 3, 4)

	out, shared, err := Intersect([]*ranking.Result{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, []ranking.CompoundID{3, 5, 7}, sortedIDs(shared))
	assert.Equal(t, []ranking.CompoundID{5, 3, 7}, out[0].IDs())
	assert.Equal(t, []ranking.CompoundID{3, 5, 7}, out[1].IDs())
	assert.Equal(t, []ranking.CompoundID{7, 5, 3}, out[2].IDs())

	for i, r := range out {
		assert.Equal(t, shared.Len(), r.Len(), "experiment %d", i)
		assert.Equal(t, []*ranking.Result{a, b, c}[i].Source, r.Source)
	}
	assert.Equal(t, 5, a.Len(), "inputs are not modified")
}

func TestIntersectIsOrderIndependent(t *testing.T) {
	a := ranked("a", 1, 2, 3, 4)
	b := ranked("b", 4, 3, 10)

	_, s1, err := Intersect([]*ranking.Result{a, b})
	require.NoError(t, err)
	_, s2, err := Intersect([]*ranking.Result{b, a})
	require.NoError(t, err)

	assert.Equal(t, sortedIDs(s1), sortedIDs(s2))
}

func TestIntersectWithItselfIsIdentity(t *testing.T) {
	a := ranked("a", 8, 2, 6)

	out, shared, err := Intersect([]*ranking.Result{a, a})
	require.NoError(t, err)
	assert.Equal(t, a.IDs(), out[0].IDs())
	assert.Equal(t, a.IDs(), out[1].IDs())
	assert.Equal(t, 3, shared.Len())
}

func TestIntersectSingleExperiment(t *testing.T) {
	a := ranked("a", 3, 1, 2)

	out, shared, err := Intersect([]*ranking.Result{a})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Same(t, a, out[0])
	assert.Equal(t, []ranking.CompoundID{1, 2, 3}, sortedIDs(shared))
}

func TestIntersectEmpty(t *testing.T) {
	_, _, err := Intersect([]*ranking.Result{ranked("a", 1, 2), ranked("b", 3, 4)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, vserr.ErrEmptyIntersection))

	_, _, err = Intersect(nil)
	assert.True(t, errors.Is(err, vserr.ErrEmptyIntersection))
}

func TestIntersectWithUniverse(t *testing.T) {
	a := ranked("a", 1, 2, 3, 50)
	b := ranked("b", 50, 3, 2, 1)
	universe, err := idrange.New(idrange.Range{Lo: 1, Hi: 3})
	require.NoError(t, err)

	out, shared, err := Intersect([]*ranking.Result{a, b}, WithUniverse(universe))
	require.NoError(t, err)
	assert.Equal(t, []ranking.CompoundID{1, 2, 3}, sortedIDs(shared))
	assert.Equal(t, []ranking.CompoundID{3, 2, 1}, out[1].IDs())

	_, _, err = Intersect([]*ranking.Result{ranked("a", 50)}, WithUniverse(universe))
	assert.True(t, errors.Is(err, vserr.ErrEmptyIntersection))
}

func TestCountTotals(t *testing.T) {
	shared := Shared{1: {}, 2: {}, 3: {}, 4: {}, 5: {}, 6: {}}
	tp, _ := idrange.Parse("1-2,9")
	tn, _ := idrange.Parse("3-4")
	omit, _ := idrange.Parse("2")

	assert.Equal(t, 2, Count(shared, tp))

	totals, err := CountTotals(shared, Categories{TruePositives: tp, TrueNegatives: idrange.Empty(), Omit: omit})
	require.NoError(t, err)
	assert.Equal(t, Totals{Library: 5, TruePositives: 1}, totals)

	// with true negatives the library shrinks to TP ∪ TN
	totals, err = CountTotals(shared, Categories{TruePositives: tp, TrueNegatives: tn, Omit: omit})
	require.NoError(t, err)
	assert.Equal(t, Totals{Library: 3, TruePositives: 1, TrueNegatives: 2}, totals)
}

func TestCountTotalsZero(t *testing.T) {
	shared := Shared{1: {}, 2: {}}

	_, err := CountTotals(shared, Categories{TruePositives: idrange.Of(7), TrueNegatives: idrange.Empty(), Omit: idrange.Empty()})
	assert.True(t, errors.Is(err, vserr.ErrZeroCategory))

	_, err = CountTotals(shared, Categories{TruePositives: idrange.Of(1), TrueNegatives: idrange.Empty(), Omit: idrange.Of(1, 2)})
	assert.True(t, errors.Is(err, vserr.ErrZeroCategory))
}

func TestCategoriesValidate(t *testing.T) {
	ok := Categories{TruePositives: idrange.Of(1, 2), TrueNegatives: idrange.Of(3)}
	assert.NoError(t, ok.Validate())

	bad := Categories{TruePositives: idrange.Of(1, 2), TrueNegatives: idrange.Of(2, 3)}
	assert.True(t, errors.Is(bad.Validate(), vserr.ErrParse))
}

func TestCheckTotalsMismatch(t *testing.T) {
	err := CheckTotals([]NamedTotals{
		{Name: "A", Totals: Totals{Library: 1000, TruePositives: 50}},
		{Name: "B", Totals: Totals{Library: 950, TruePositives: 50}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, vserr.ErrMismatchedTotals))
	assert.Contains(t, err.Error(), "B")

	err = CheckTotals([]NamedTotals{
		{Name: "A", Totals: Totals{Library: 1000, TruePositives: 50}},
		{Name: "B", Totals: Totals{Library: 1000, TruePositives: 49}},
	})
	assert.True(t, errors.Is(err, vserr.ErrMismatchedTotals))

	assert.NoError(t, CheckTotals([]NamedTotals{
		{Name: "A", Totals: Totals{Library: 10, TruePositives: 2}},
		{Name: "B", Totals: Totals{Library: 10, TruePositives: 2}},
	}))
}
