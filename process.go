package attrblend

import (
	"context"
	"time"

	"github.com/gogpu/attrblend/internal/metrics"
	"github.com/gogpu/attrblend/internal/parallel"
)

// Pool is the worker pool that batch helpers schedule scopes on.
type Pool = parallel.WorkerPool

// Scope is a contiguous range of target indices processed by one task.
type Scope = parallel.Scope

// DefaultChunkSize is the scope length used for non-positive chunk sizes.
const DefaultChunkSize = parallel.DefaultChunkSize

// NewPool starts a pool of workers goroutines. Zero or a negative count
// uses GOMAXPROCS. Close the pool when done.
func NewPool(workers int) *Pool { return parallel.NewWorkerPool(workers) }

// ContributorFunc returns the weighted contributors of target index i.
// It is called concurrently for distinct indices.
type ContributorFunc func(i int) []WeightedPoint

// PairFunc maps target index i to the source index and weight it blends
// from. ok false leaves the target untouched.
type PairFunc func(i int) (src int, w float64, ok bool)

// runScopes runs fn over every index of an n-point batch. A nil pool runs
// on a temporary one.
func runScopes(ctx context.Context, pool *Pool, facade string, n, chunk int, fn func(s Scope)) error {
	if pool == nil {
		pool = NewPool(0)
		defer pool.Close()
	}
	return pool.RunParallel(ctx, n, chunk, func(s Scope) error {
		start := time.Now()
		fn(s)
		recorder().Scope(facade, s.Count, start)
		return nil
	})
}

// ProcessUnion merges every target index of an initialized union. Each
// scope reuses one set of trackers for all of its indices.
func ProcessUnion(ctx context.Context, pool *Pool, u *UnionBlender, contributors ContributorFunc, chunk int) error {
	if u == nil || u.Target() == nil {
		return ErrNotInitialized
	}
	return runScopes(ctx, pool, metrics.FacadeUnion, u.Target().Len(), chunk, func(s Scope) {
		trackers := u.InitTrackers()
		s.Each(func(i int) {
			u.MergeSingle(i, contributors(i), trackers)
		})
	})
}

// ProcessMetadata blends every target index of an initialized metadata
// blender from the source index given by pair. A nil pair blends source i
// into target i with weight 1 and needs a source at least as long as the
// target.
func ProcessMetadata(ctx context.Context, pool *Pool, m *MetadataBlender, pair PairFunc, chunk int) error {
	if m == nil || m.Target() == nil {
		return ErrNotInitialized
	}
	if pair == nil {
		pair = func(i int) (int, float64, bool) { return i, 1, true }
	}
	return runScopes(ctx, pool, metrics.FacadeMetadata, m.Target().Len(), chunk, func(s Scope) {
		s.Each(func(i int) {
			if src, w, ok := pair(i); ok {
				m.BlendFrom(src, i, w)
			}
		})
	})
}

// ProcessPipeline runs every operation of an initialized pipeline for each
// target index, reading operands at the same index with the weight of each
// operation's weight source. Operations of one index run in order, so a
// back-reference always sees the finished value.
func ProcessPipeline(ctx context.Context, pool *Pool, m *BlendOpsManager, chunk int) error {
	if m == nil || m.Operations() == nil {
		return ErrNotInitialized
	}
	return runScopes(ctx, pool, metrics.FacadePipeline, m.Target().Len(), chunk, func(s Scope) {
		s.Each(func(i int) {
			m.BlendAutoWeight(i, i)
		})
	})
}

// Batch runs several processing jobs concurrently on one pool and calls
// completion callbacks once all of them have returned.
//
// Jobs must write to distinct targets, or to distinct attributes of one
// target.
type Batch struct {
	pool  *Pool
	chunk int
	group *parallel.TaskGroup
}

// NewBatch returns a batch scheduling jobs on pool. limit caps the number
// of jobs running at once; zero means no cap.
func NewBatch(ctx context.Context, pool *Pool, chunk, limit int) *Batch {
	return &Batch{pool: pool, chunk: chunk, group: parallel.NewTaskGroup(ctx, limit)}
}

// Union schedules ProcessUnion.
func (b *Batch) Union(u *UnionBlender, contributors ContributorFunc) {
	b.group.Go(func(ctx context.Context) error {
		return ProcessUnion(ctx, b.pool, u, contributors, b.chunk)
	})
}

// Metadata schedules ProcessMetadata.
func (b *Batch) Metadata(m *MetadataBlender, pair PairFunc) {
	b.group.Go(func(ctx context.Context) error {
		return ProcessMetadata(ctx, b.pool, m, pair, b.chunk)
	})
}

// Pipeline schedules ProcessPipeline. Transient outputs are removed once
// the whole batch has succeeded.
func (b *Batch) Pipeline(m *BlendOpsManager) {
	b.group.Go(func(ctx context.Context) error {
		return ProcessPipeline(ctx, b.pool, m, b.chunk)
	})
	b.group.RunOnCompletion(func(err error) {
		if err == nil {
			m.Cleanup()
		}
	})
}

// OnComplete registers cb to run with the batch result after Wait.
func (b *Batch) OnComplete(cb func(err error)) {
	b.group.RunOnCompletion(cb)
}

// Wait blocks until every job has returned, runs the completion callbacks
// and returns the first error.
func (b *Batch) Wait() error {
	return b.group.Wait()
}
