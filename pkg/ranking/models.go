package ranking

// CompoundID identifies a library compound. Valid IDs are positive.
type CompoundID int64

// Record is one row of a ranked result. Raw keeps every field of the row,
// column 0 included, without interpreting the payload.
type Record struct {
	ID  CompoundID
	Raw []string
}

// Result is the ranked output of one experiment, best score first.
type Result struct {
	Source  string
	Records []Record
}

// Len returns the number of ranked records.
func (r *Result) Len() int {
	return len(r.Records)
}

// IDs returns the compound IDs in rank order.
func (r *Result) IDs() []CompoundID {
	ids := make([]CompoundID, len(r.Records))
	for i, rec := range r.Records {
		ids[i] = rec.ID
	}
	return ids
}

// IDSet returns the compound IDs as a set.
func (r *Result) IDSet() map[CompoundID]struct{} {
	set := make(map[CompoundID]struct{}, len(r.Records))
	for _, rec := range r.Records {
		set[rec.ID] = struct{}{}
	}
	return set
}

// Filter returns a new Result holding the records accepted by keep, in the
// original rank order. Records are shared with the receiver.
func (r *Result) Filter(keep func(CompoundID) bool) *Result {
	out := &Result{
		Source:  r.Source,
		Records: make([]Record, 0, len(r.Records)),
	}
	for _, rec := range r.Records {
		if keep(rec.ID) {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}
