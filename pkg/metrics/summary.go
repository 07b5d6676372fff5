package metrics

import (
	"github.com/montanaflynn/stats"
)

// Entry is one evaluated curve tagged with its replicate group.
type Entry struct {
	Group  string
	Bundle Bundle
}

// Stats describes one metric across the curves of a group.
type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary aggregates the curves of one replicate group.
type Summary struct {
	Group  string `json:"group"`
	Count  int    `json:"count"`
	AUC    Stats  `json:"auc"`
	NsqAuc Stats  `json:"nsq_auc"`
}

// Summarize groups entries in order of first appearance and describes auc
// and nsq_auc per group.
func Summarize(entries []Entry) ([]Summary, error) {
	var order []string
	auc := make(map[string]stats.Float64Data)
	nsq := make(map[string]stats.Float64Data)

	for _, e := range entries {
		if _, seen := auc[e.Group]; !seen {
			order = append(order, e.Group)
		}
		auc[e.Group] = append(auc[e.Group], e.Bundle.Curve.AUC)
		nsq[e.Group] = append(nsq[e.Group], e.Bundle.NsqAuc)
	}

	summaries := make([]Summary, 0, len(order))
	for _, g := range order {
		a, err := describe(auc[g])
		if err != nil {
			return nil, err
		}
		n, err := describe(nsq[g])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{Group: g, Count: len(auc[g]), AUC: a, NsqAuc: n})
	}
	return summaries, nil
}

func describe(data stats.Float64Data) (Stats, error) {
	var s Stats
	var err error

	if s.Mean, err = stats.Mean(data); err != nil {
		return Stats{}, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return Stats{}, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return Stats{}, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return Stats{}, err
	}
	return s, nil
}
