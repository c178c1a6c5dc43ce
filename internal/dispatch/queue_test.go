package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	for i := int64(1); i <= 5; i++ {
		require.True(t, q.Push(Event{PostID: i, LikerID: 10 + i}))
	}
	assert.Equal(t, 5, q.Len())

	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		ev, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, ev.PostID)
	}
	assert.Zero(t, q.Len())
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	got := make(chan Event, 1)
	go func() {
		ev, err := q.Pop(context.Background())
		if err == nil {
			got <- ev
		}
	}()

	select {
	case <-got:
		t.Fatal("pop returned before push")
	case <-time.After(50 * time.Millisecond):
	}

	q.Push(Event{PostID: 7})
	select {
	case ev := <-got:
		assert.Equal(t, int64(7), ev.PostID)
	case <-time.After(time.Second):
		t.Fatal("pop not woken by push")
	}
}

func TestQueue_PopHonoursContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_CloseDrainsRemaining(t *testing.T) {
	q := NewQueue()
	q.Push(Event{PostID: 1})
	q.Push(Event{PostID: 2})
	q.Close()

	assert.False(t, q.Push(Event{PostID: 3}))

	ctx := context.Background()
	ev, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.PostID)
	ev, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ev.PostID)

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueue_CloseWakesWaiter(t *testing.T) {
	q := NewQueue()
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Pop(context.Background())
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("waiter not released by close")
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 8, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Event{PostID: int64(p), LikerID: int64(i)})
			}
		}(p)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 每个生产者自身的顺序必须保留
	last := make(map[int64]int64, producers)
	for p := 0; p < producers; p++ {
		last[int64(p)] = -1
	}
	for n := 0; n < producers*perProducer; n++ {
		ev, err := q.Pop(ctx)
		require.NoError(t, err)
		require.Greater(t, ev.LikerID, last[ev.PostID])
		last[ev.PostID] = ev.LikerID
	}
	wg.Wait()
	assert.Zero(t, q.Len())
}

func BenchmarkQueue_PushPop(b *testing.B) {
	q := NewQueue()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Push(Event{PostID: int64(i)})
		_, _ = q.Pop(ctx)
	}
}
