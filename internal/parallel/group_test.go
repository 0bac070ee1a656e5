package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskGroup_RunOnCompletion(t *testing.T) {
	g := NewTaskGroup(context.Background(), 2)

	var done atomic.Int64
	for range 8 {
		g.Go(func(context.Context) error {
			done.Add(1)
			return nil
		})
	}

	var order []int
	var seen int64
	g.RunOnCompletion(func(err error) {
		assert.NoError(t, err)
		seen = done.Load()
		order = append(order, 1)
	})
	g.RunOnCompletion(func(error) { order = append(order, 2) })

	require.NoError(t, g.Wait())
	assert.EqualValues(t, 8, seen, "callbacks run after every task")
	assert.Equal(t, []int{1, 2}, order)
}

func TestTaskGroup_ErrorCancelsContext(t *testing.T) {
	g := NewTaskGroup(context.Background(), 1)
	boom := errors.New("boom")

	g.Go(func(context.Context) error { return boom })

	var got error
	g.RunOnCompletion(func(err error) { got = err })

	require.ErrorIs(t, g.Wait(), boom)
	assert.ErrorIs(t, got, boom)
	assert.Error(t, g.Context().Err())

	var ran bool
	g.Go(func(context.Context) error {
		ran = true
		return nil
	})
	_ = g.Wait()
	assert.False(t, ran, "tasks started after cancellation are skipped")
}

func TestTaskGroup_LateCallback(t *testing.T) {
	g := NewTaskGroup(context.Background(), 0)
	require.NoError(t, g.Wait())

	called := false
	g.RunOnCompletion(func(err error) {
		called = true
		assert.NoError(t, err)
	})
	assert.True(t, called)
}
