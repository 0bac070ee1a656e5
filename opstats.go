package attrblend

// OpStats is the tracker of one multi-source blend at one target index.
// It is created by BeginMultiBlend, owned by the caller, and must not be
// shared between goroutines.
type OpStats struct {
	// Count is the number of contributions folded in so far.
	Count int
	// WeightSum is the sum of contribution weights.
	WeightSum float64

	acc   Value
	reset bool
}

// Empty reports whether no contribution has been recorded.
func (s *OpStats) Empty() bool { return s.Count == 0 }
