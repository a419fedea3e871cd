package repository

import (
	"context"
	"time"

	"fundsledger/internal/model"

	"gorm.io/gorm"
)

const maxLastErrorLen = 512

// OutboxRepository is the relay's view of the balance outbox. Rows are
// inserted by AccountStore.Update, never here.
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Pending returns up to limit undelivered events in commit order.
func (r *OutboxRepository) Pending(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	var messages []*model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ? AND status = ?", id, model.OutboxStatusPending).
		Updates(map[string]interface{}{
			"status":  model.OutboxStatusSent,
			"sent_at": &now,
		}).Error
}

// RecordFailure counts one failed delivery. Once maxAttempts is reached the
// event is parked as FAILED and reported as such.
func (r *OutboxRepository) RecordFailure(ctx context.Context, msg *model.OutboxMessage, cause error, maxAttempts int) (parked bool, err error) {
	attempts := msg.Attempts + 1
	status := model.OutboxStatusPending
	if attempts >= maxAttempts {
		status = model.OutboxStatusFailed
	}

	lastError := cause.Error()
	if len(lastError) > maxLastErrorLen {
		lastError = lastError[:maxLastErrorLen]
	}

	err = r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ?", msg.ID).
		Updates(map[string]interface{}{
			"status":     status,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastError,
		}).Error
	if err != nil {
		return false, err
	}
	msg.Attempts = attempts
	msg.Status = status
	return status == model.OutboxStatusFailed, nil
}
