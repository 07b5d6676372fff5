package idrange

import (
	"strconv"
	"strings"

	"github.com/gilchrisn/vsroc/pkg/ranking"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// NoOmission is the omit spec that disables omission.
const NoOmission = "0-0"

// Parse turns a spec such as "1-514,6001,6700-6702" into a Set.
//
//	spec := term (',' term)*
//	term := INT | INT '-' INT
//
// Dashed terms are inclusive. An empty spec yields the empty set.
func Parse(spec string) (*Set, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Empty(), nil
	}

	terms := strings.Split(spec, ",")
	ranges := make([]Range, 0, len(terms))
	for i, term := range terms {
		r, err := parseTerm(strings.TrimSpace(term))
		if err != nil {
			return nil, vserr.New(vserr.KindParse, spec, "term %d: %v", i+1, err)
		}
		ranges = append(ranges, r)
	}

	set, err := New(ranges...)
	if err != nil {
		return nil, vserr.New(vserr.KindParse, spec, "%v", err)
	}
	return set, nil
}

// ParseOmit parses an omit spec. "0-0" (or "0") is the sentinel for no
// omission; everything else follows Parse.
func ParseOmit(spec string) (*Set, error) {
	switch strings.TrimSpace(spec) {
	case NoOmission, "0":
		return Empty(), nil
	}
	return Parse(spec)
}

type termError string

func (e termError) Error() string { return string(e) }

func parseTerm(term string) (Range, error) {
	if term == "" {
		return Range{}, termError("empty term")
	}

	lo, hi, dashed := strings.Cut(term, "-")
	if !dashed {
		id, err := parseID(lo)
		if err != nil {
			return Range{}, err
		}
		return Range{Lo: id, Hi: id}, nil
	}

	first, err := parseID(lo)
	if err != nil {
		return Range{}, err
	}
	last, err := parseID(hi)
	if err != nil {
		return Range{}, err
	}
	if first > last {
		return Range{}, termError("reversed range " + term)
	}
	return Range{Lo: first, Hi: last}, nil
}

func parseID(s string) (ranking.CompoundID, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, termError("not an integer: " + strconv.Quote(s))
	}
	if v <= 0 {
		return 0, termError("compound ids are positive, got " + s)
	}
	if ranking.CompoundID(v) > MaxID {
		return 0, termError("compound id out of range: " + s)
	}
	return ranking.CompoundID(v), nil
}
