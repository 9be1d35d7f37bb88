package mysql

import (
	"context"
	"encoding/json"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// Event outbox 中 payload 的外层结构，消费者按 ID 做幂等
type Event struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID uint64          `json:"aggregateId"`
	Data        json.RawMessage `json:"data"`
}

// InsertOutbox 必须在业务事务内调用
func InsertOutbox(tx *gorm.DB, eventType string, aggregateID uint64, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	ev := Event{ID: uuid.NewString(), Type: eventType, AggregateID: aggregateID, Data: raw}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return tx.Create(&model.Outbox{
		EventID:     ev.ID,
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     string(payload),
		Status:      model.OutboxPending,
	}).Error
}

// List 待投递和可重试的记录
func (r *OutboxRepository) List(ctx context.Context, batchSize, maxRetry int) ([]model.Outbox, error) {
	var list []model.Outbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败，记录重试次数
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.Outbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.Outbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
