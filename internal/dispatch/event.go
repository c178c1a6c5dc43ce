package dispatch

import "time"

// Event 一次新点赞产生的派发任务，只存在于内存
type Event struct {
	PostID     int64
	LikerID    int64
	AcceptedAt time.Time
}

// Payload 推送给在线连接的消息
type Payload struct {
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

const PayloadTypeNotification = "notification"

// Outcome 单个事件的最终状态：Received → Validated → Persisted → (Delivered | Skipped)，
// 任一分支都是终态，不重试也不重新入队。
type Outcome string

const (
	OutcomeDelivered     Outcome = "delivered"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeSendFailed    Outcome = "send_failed"
	OutcomePostNotFound  Outcome = "post_not_found"
	OutcomeSelfLike      Outcome = "self_like"
	OutcomeLikerNotFound Outcome = "liker_not_found"
	OutcomeLookupFailed  Outcome = "lookup_failed"
	OutcomeStoreFailure  Outcome = "store_failure"
	OutcomePanicked      Outcome = "panicked"
)

// Persisted 是否已经写入通知表
func (o Outcome) Persisted() bool {
	return o == OutcomeDelivered || o == OutcomeSkipped || o == OutcomeSendFailed
}

// Message 点赞通知文案
func Message(likerName string) string {
	return likerName + " liked your post"
}
