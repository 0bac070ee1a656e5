// Package parallel schedules batch blending over point indices.
//
// A batch of n target points is split into contiguous scopes that are
// processed independently. Each scope owns a disjoint index range, so
// output buffers need no locking as long as writes stay inside the scope.
//
//   - Scopes are produced by Partition with a fixed chunk size
//   - WorkerPool runs scopes on work-stealing goroutines
//   - TaskGroup bounds concurrency and fires completion callbacks
//
// Setup (proxy resolution, pipeline wiring) is not thread-safe and must
// finish before any scope runs.
package parallel

// DefaultChunkSize is the scope length used when a caller passes a
// non-positive chunk size.
const DefaultChunkSize = 256

// Scope is a contiguous range of point indices [Start, Start+Count).
type Scope struct {
	// Index is the position of the scope in its partition.
	Index int
	// Start is the first point index.
	Start int
	// Count is the number of points.
	Count int
}

// End returns one past the last index.
func (s Scope) End() int {
	return s.Start + s.Count
}

// Contains reports whether i falls inside the scope.
func (s Scope) Contains(i int) bool {
	return i >= s.Start && i < s.End()
}

// Each calls fn for every index in ascending order.
func (s Scope) Each(fn func(i int)) {
	for i := s.Start; i < s.End(); i++ {
		fn(i)
	}
}

// Partition splits n indices into scopes of at most chunk indices. The last
// scope may be shorter. It returns nil when n is not positive.
func Partition(n, chunk int) []Scope {
	if n <= 0 {
		return nil
	}
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	scopes := make([]Scope, 0, (n+chunk-1)/chunk)
	for start := 0; start < n; start += chunk {
		count := chunk
		if start+count > n {
			count = n - start
		}
		scopes = append(scopes, Scope{Index: len(scopes), Start: start, Count: count})
	}
	return scopes
}
