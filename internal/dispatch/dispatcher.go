package dispatch

import (
	"context"
	"time"
)

// Dispatcher 派发上下文：持有队列、连接注册表和唯一的消费者。
// 每个实例互相独立，测试中可以并存多个。
type Dispatcher struct {
	queue    *Queue
	registry *Registry
	worker   *Worker
	now      func() time.Time
}

type options struct {
	restartDelay time.Duration
	observer     func(Event, Outcome)
	registry     *Registry
}

type Option func(*options)

// WithRestartDelay 消费循环意外退出后的重启间隔
func WithRestartDelay(d time.Duration) Option {
	return func(o *options) { o.restartDelay = d }
}

// WithObserver 每个事件到达终态后回调（在消费者 goroutine 中同步执行）
func WithObserver(fn func(Event, Outcome)) Option {
	return func(o *options) { o.observer = fn }
}

// WithRegistry 使用外部构造的注册表
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

func New(deps Deps, opts ...Option) *Dispatcher {
	o := &options{}
	for _, fn := range opts {
		fn(o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	q := NewQueue()
	return &Dispatcher{
		queue:    q,
		registry: o.registry,
		worker:   newWorker(q, o.registry, deps, o.restartDelay, o.observer),
		now:      time.Now,
	}
}

// Enqueue 接收一次新点赞；不阻塞。停止后返回 false。
func (d *Dispatcher) Enqueue(postID, likerID int64) bool {
	ok := d.queue.Push(Event{PostID: postID, LikerID: likerID, AcceptedAt: d.now()})
	if ok {
		enqueuedTotal.Inc()
	}
	return ok
}

// Start 启动消费者，见 Worker.Start
func (d *Dispatcher) Start(ctx context.Context) func(context.Context) error {
	return d.worker.Start(ctx)
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

func (d *Dispatcher) Queue() *Queue { return d.queue }

func (d *Dispatcher) Worker() *Worker { return d.worker }
