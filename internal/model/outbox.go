package model

import "time"

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

const (
	EventImageResize       = "image.resize"
	EventModerationCreated = "moderation.created"
)

// Outbox 事件表，与触发它的业务写入放在同一事务里
type Outbox struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"size:36;not null;uniqueIndex" json:"eventId"`
	EventType   string    `gorm:"size:32;not null" json:"eventType"`
	AggregateID uint64    `gorm:"not null" json:"aggregateId"`
	Payload     string    `gorm:"type:text;not null" json:"payload"`
	Status      int8      `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'" json:"status"`
	Retry       int       `gorm:"not null;default:0" json:"retry"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Outbox) TableName() string { return "outbox" }

// ModerationEvent 新的审核请求（在校认证、举报、版块申请）
type ModerationEvent struct {
	Kind     string `json:"kind"`
	TargetID uint64 `json:"targetId"`
	UserID   uint64 `json:"userId"`
	Summary  string `json:"summary"`
}

const (
	ModerationVerify       = "verify"
	ModerationReport       = "report"
	ModerationBoardRequest = "board-request"
)

// ImageResizeEvent 生成缩略图
type ImageResizeEvent struct {
	Key    string `json:"key"`
	UserID uint64 `json:"userId"`
}
