package realtime

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrClosed       = errors.New("connection closed")
	ErrSlowConsumer = errors.New("send buffer full")
)

// Conn 一条 websocket 连接。Send 只做非阻塞入队，真正的写由 writePump 完成，
// 因此派发线程永远不会卡在慢客户端上。
type Conn struct {
	id string
	ws *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, sendBuf int) *Conn {
	if sendBuf <= 0 {
		sendBuf = 64
	}
	return &Conn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendBuf),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Send 缓冲满时踢掉连接，客户端重连后自行拉取通知
func (c *Conn) Send(b []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	select {
	case <-c.done:
		return ErrClosed
	case c.send <- b:
		return nil
	default:
		droppedTotal.WithLabelValues("slow_consumer").Inc()
		c.close()
		return ErrSlowConsumer
	}
}

func (c *Conn) IsOpen() bool { return !c.closed.Load() }

// close 只标记并通知 writePump，底层连接由 pump 关闭
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
	})
}
