package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/likefeed/config"
	"github.com/d60-Lab/likefeed/internal/dispatch"
	"github.com/d60-Lab/likefeed/pkg/logger"
)

const msgTypeAuth = "auth"

// clientMsg 客户端上行消息，目前只有鉴权握手 {"type":"auth","userId":N}
type clientMsg struct {
	Type   string `json:"type" validate:"required"`
	UserID int64  `json:"userId" validate:"required,gt=0"`
}

type Option func(*Server)

// WithCheckOrigin 替换默认的 Origin 校验（默认全部放行）
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// Server 负责升级连接、处理握手，并把已鉴权连接登记到 Registry
type Server struct {
	registry *dispatch.Registry
	upgrader websocket.Upgrader
	validate *validator.Validate

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
	readLimit  int64
	sendBuf    int

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

func NewServer(registry *dispatch.Registry, c config.RealtimeConfig, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		validate:   validator.New(),
		writeWait:  orDefault(c.WriteWait, 5*time.Second),
		pongWait:   orDefault(c.PongWait, 60*time.Second),
		pingPeriod: orDefault(c.PingPeriod, 30*time.Second),
		readLimit:  c.ReadLimit,
		sendBuf:    c.SendBuffer,
		conns:      make(map[*Conn]struct{}),
	}
	if s.readLimit <= 0 {
		s.readLimit = 64 << 10
	}
	// ping 必须早于读超时
	if s.pingPeriod >= s.pongWait {
		s.pingPeriod = s.pongWait * 9 / 10
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已经写了错误响应
		logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newConn(ws, s.sendBuf)
	s.track(c)
	logger.Debug("websocket connected", zap.String("conn_id", c.id), zap.String("remote", r.RemoteAddr))

	go s.writePump(c)
	go s.readPump(c)
}

// Len 当前打开的连接数（含未鉴权）
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// CloseAll 进程退出时关闭所有连接；http.Server.Shutdown 不会处理被劫持的连接
func (s *Server) CloseAll() {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

func (s *Server) track(c *Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	connections.Inc()
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	_, ok := s.conns[c]
	delete(s.conns, c)
	s.mu.Unlock()
	if ok {
		connections.Dec()
	}
}

func (s *Server) readPump(c *Conn) {
	defer func() {
		if userID, ok := s.registry.UserOf(c); ok && s.registry.Unbind(c) {
			logger.Info("user disconnected", zap.Int64("user_id", userID), zap.String("conn_id", c.id))
		}
		c.close()
		_ = c.ws.Close()
		s.untrack(c)
	}()

	c.ws.SetReadLimit(s.readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(s.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(s.pongWait))
	})

	for {
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}
		s.handleMessage(c, b)
	}
}

// handleMessage 格式错误的消息记日志后忽略，连接保持
func (s *Server) handleMessage(c *Conn, b []byte) {
	var msg clientMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		handshakesTotal.WithLabelValues("malformed").Inc()
		logger.Warn("invalid websocket message", zap.String("conn_id", c.id), zap.Error(err))
		return
	}
	if msg.Type != msgTypeAuth {
		logger.Debug("ignored websocket message", zap.String("conn_id", c.id), zap.String("type", msg.Type))
		return
	}
	if err := s.validate.Struct(msg); err != nil {
		handshakesTotal.WithLabelValues("invalid").Inc()
		logger.Warn("invalid auth message", zap.String("conn_id", c.id), zap.Error(err))
		return
	}

	s.registry.Bind(msg.UserID, c)
	handshakesTotal.WithLabelValues("ok").Inc()
	logger.Info("user connected", zap.Int64("user_id", msg.UserID), zap.String("conn_id", c.id))
}

func (s *Server) writePump(c *Conn) {
	ticker := time.NewTicker(s.pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.ws.Close()
	}()

	for {
		select {
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(s.writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				droppedTotal.WithLabelValues("write_error").Inc()
				logger.Warn("websocket write failed", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
			pushedTotal.Inc()
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeWait)); err != nil {
				logger.Debug("websocket ping failed", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.writeWait))
			return
		}
	}
}
