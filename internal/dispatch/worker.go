package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/likefeed/internal/model"
	"github.com/d60-Lab/likefeed/internal/repository"
	"github.com/d60-Lab/likefeed/pkg/logger"
)

// 与浏览器 Date.toISOString 一致的毫秒精度 UTC 时间
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type PostOwners interface {
	OwnerID(ctx context.Context, postID int64) (int64, error)
}

type Usernames interface {
	Username(ctx context.Context, userID int64) (string, error)
}

type NotificationWriter interface {
	Insert(ctx context.Context, userID int64, message string) (*model.Notification, error)
}

// Deps 派发所需的存储依赖；repository 包中的实现可直接传入
type Deps struct {
	Posts         PostOwners
	Users         Usernames
	Notifications NotificationWriter
}

// Worker 单消费者：从队列取事件，解析成通知，落库，若接收者在线则推送。
// 任何下游失败都只记录日志并丢弃该事件，不重试（至多一次）。
type Worker struct {
	queue        *Queue
	registry     *Registry
	deps         Deps
	restartDelay time.Duration
	observer     func(Event, Outcome)
	tracer       trace.Tracer
}

func newWorker(q *Queue, r *Registry, deps Deps, restartDelay time.Duration, observer func(Event, Outcome)) *Worker {
	if restartDelay <= 0 {
		restartDelay = time.Second
	}
	return &Worker{
		queue:        q,
		registry:     r,
		deps:         deps,
		restartDelay: restartDelay,
		observer:     observer,
		tracer:       otel.Tracer("github.com/d60-Lab/likefeed/internal/dispatch"),
	}
}

// Start 启动消费循环；返回的停止函数会关闭队列并等待剩余事件处理完，
// 超过 ctx 期限则直接取消。
func (w *Worker) Start(ctx context.Context) func(context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.supervise(ctx)
	}()
	return func(stopCtx context.Context) error {
		w.queue.Close()
		defer cancel()
		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			cancel()
			<-done
			return stopCtx.Err()
		}
	}
}

// supervise 循环意外退出时延迟重启，只在 ctx 结束或队列关闭时返回
func (w *Worker) supervise(ctx context.Context) {
	for {
		err := w.run(ctx)
		if err == nil || errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
			return
		}
		loopRestarts.Inc()
		logger.Error("dispatch loop crashed, restarting",
			zap.Error(err), zap.Duration("delay", w.restartDelay))
		select {
		case <-time.After(w.restartDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			err = fmt.Errorf("dispatch loop panic: %v", r)
		}
	}()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := w.queue.Pop(ctx)
		if err != nil {
			return err
		}
		w.Process(ctx, ev)
	}
}

// Process 处理单个事件并返回终态；事件内的 panic 被吸收，不影响后续事件
func (w *Worker) Process(ctx context.Context, ev Event) (outcome Outcome) {
	ctx, span := w.tracer.Start(ctx, "dispatch.process", trace.WithAttributes(
		attribute.Int64("post.id", ev.PostID),
		attribute.Int64("liker.id", ev.LikerID),
	))
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomePanicked
			sentry.CurrentHub().Recover(r)
			logger.Error("dispatch event panicked",
				zap.Int64("post_id", ev.PostID),
				zap.Int64("liker_id", ev.LikerID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			span.SetStatus(codes.Error, "panic")
		}
		span.SetAttributes(attribute.String("dispatch.outcome", string(outcome)))
		span.End()

		eventsTotal.WithLabelValues(string(outcome)).Inc()
		if !ev.AcceptedAt.IsZero() {
			dispatchLatency.Observe(time.Since(ev.AcceptedAt).Seconds())
		}
		if w.observer != nil {
			w.observer(ev, outcome)
		}
	}()

	ownerID, err := w.deps.Posts.OwnerID(ctx, ev.PostID)
	if err != nil {
		return w.drop(ev, lookupOutcome(err, OutcomePostNotFound), err)
	}
	if ownerID == ev.LikerID {
		return w.drop(ev, OutcomeSelfLike, nil)
	}

	name, err := w.deps.Users.Username(ctx, ev.LikerID)
	if err != nil {
		return w.drop(ev, lookupOutcome(err, OutcomeLikerNotFound), err)
	}

	n, err := w.deps.Notifications.Insert(ctx, ownerID, Message(name))
	if err != nil {
		span.RecordError(err)
		return w.drop(ev, OutcomeStoreFailure, err)
	}

	return w.deliver(ownerID, n)
}

func lookupOutcome(err error, notFound Outcome) Outcome {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return OutcomeLookupFailed
}

func (w *Worker) drop(ev Event, outcome Outcome, err error) Outcome {
	fields := []zap.Field{
		zap.Int64("post_id", ev.PostID),
		zap.Int64("liker_id", ev.LikerID),
		zap.String("reason", string(outcome)),
	}
	switch outcome {
	case OutcomeSelfLike:
		logger.Debug("dispatch event dropped", fields...)
	case OutcomeStoreFailure, OutcomeLookupFailed:
		logger.Warn("dispatch event dropped", append(fields, zap.Error(err))...)
	default:
		logger.Info("dispatch event dropped", append(fields, zap.Error(err))...)
	}
	return outcome
}

// deliver 在锁外发送；接收者不在线时通知仍已落库，客户端上线后自行拉取。
func (w *Worker) deliver(userID int64, n *model.Notification) Outcome {
	ch, ok := w.registry.Lookup(userID)
	if !ok || !ch.IsOpen() {
		logger.Debug("notification stored, receiver offline",
			zap.Int64("user_id", userID), zap.Int64("notification_id", n.ID))
		return OutcomeSkipped
	}

	b, err := json.Marshal(Payload{
		Type:      PayloadTypeNotification,
		ID:        n.ID,
		Message:   n.Message,
		Timestamp: n.CreatedAt.UTC().Format(timestampLayout),
	})
	if err != nil {
		logger.Error("encode notification payload", zap.Error(err))
		return OutcomeSendFailed
	}
	if err := ch.Send(b); err != nil {
		logger.Warn("notification push failed",
			zap.Int64("user_id", userID), zap.Int64("notification_id", n.ID), zap.Error(err))
		return OutcomeSendFailed
	}
	logger.Debug("notification delivered",
		zap.Int64("user_id", userID), zap.Int64("notification_id", n.ID))
	return OutcomeDelivered
}
