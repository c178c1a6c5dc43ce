package dispatch

import "sync"

// Channel 一个在线连接的发送端。实现方必须是可比较的（通常是指针），
// Send 不能阻塞在网络 I/O 上。
type Channel interface {
	Send(payload []byte) error
	IsOpen() bool
}

// Registry userID -> 当前唯一在线连接。
// byChan 反向索引用于 Unbind 时 O(1) 校验身份，避免旧连接断开时误删新绑定。
type Registry struct {
	mu     sync.RWMutex
	byUser map[int64]Channel
	byChan map[Channel]int64
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[int64]Channel, 1024),
		byChan: make(map[Channel]int64, 1024),
	}
}

// Bind 后认证者覆盖之前的绑定；不会关闭旧连接，那是传输层自己的事。
func (r *Registry) Bind(userID int64, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.byUser[userID]
	if had && prev != ch {
		delete(r.byChan, prev)
	}
	// 同一连接换了身份：只在旧用户仍指向它时移除
	if oldUser, ok := r.byChan[ch]; ok && oldUser != userID {
		if r.byUser[oldUser] == ch {
			delete(r.byUser, oldUser)
			bindings.Dec()
		}
	}
	r.byUser[userID] = ch
	r.byChan[ch] = userID
	// 指标是进程级的，多个 Registry 共用，只能按增量更新
	if !had {
		bindings.Inc()
	}
}

// Unbind 仅当 ch 仍是其用户的当前连接时才移除绑定，返回是否移除。
func (r *Registry) Unbind(ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byChan[ch]
	if !ok {
		return false
	}
	delete(r.byChan, ch)
	if r.byUser[userID] != ch {
		return false
	}
	delete(r.byUser, userID)
	bindings.Dec()
	return true
}

// Lookup 纯读取，不校验连接是否存活
func (r *Registry) Lookup(userID int64) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.byUser[userID]
	return ch, ok
}

// UserOf 反查连接当前绑定的用户
func (r *Registry) UserOf(ch Channel) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byChan[ch]
	return id, ok
}

// Len 当前绑定数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
