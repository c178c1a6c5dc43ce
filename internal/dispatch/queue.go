package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed 队列已关闭且已取空
var ErrQueueClosed = errors.New("dispatch queue closed")

// Queue 无界 FIFO，多生产者安全；Pop 在队列为空时阻塞等待唤醒而不是轮询。
// 只有一个消费者时严格按 Push 顺序出队。
type Queue struct {
	mu     sync.Mutex
	items  []Event
	closed bool
	notify chan struct{} // 缓冲 1：合并唤醒
}

func NewQueue() *Queue {
	return &Queue{
		items:  make([]Event, 0, 64),
		notify: make(chan struct{}, 1),
	}
}

// Push 永不阻塞；关闭后的 Push 会被丢弃并返回 false。
func (q *Queue) Push(ev Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, ev)
	depth := len(q.items)
	q.mu.Unlock()

	queueDepth.Set(float64(depth))
	q.wake()
	return true
}

// Pop 取出队首；空队列时阻塞，直到有新事件、ctx 结束或队列关闭。
// 关闭后仍会先把剩余事件取完，再返回 ErrQueueClosed。
func (q *Queue) Pop(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items[0] = Event{}
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = q.items[:0:0]
			}
			depth := len(q.items)
			q.mu.Unlock()
			queueDepth.Set(float64(depth))
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return Event{}, ErrQueueClosed
		}

		select {
		case <-q.notify:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Len 当前积压数量（采样值）
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close 停止接收新事件并唤醒等待中的消费者
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
