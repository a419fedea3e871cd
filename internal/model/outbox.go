package model

import (
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// OutboxMessage is one balance event awaiting delivery to the broker. It is
// inserted in the transaction that changed the balance, so a committed change
// always has its event. SubjectID is the partition key, which keeps events of
// one account in order.
type OutboxMessage struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	EventNo   string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"event_no"` // idgen.GenerateEventNo
	SubjectID string     `gorm:"type:varchar(128);not null" json:"subject_id"`          // message key
	Kind      string     `gorm:"type:varchar(16);not null" json:"kind"`                 // DEBIT or CREDIT
	Topic     string     `gorm:"type:varchar(64);not null" json:"topic"`
	Payload   string     `gorm:"type:text;not null" json:"payload"`                             // JSON BalanceEvent
	Status    string     `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"` // PENDING, SENT or FAILED
	Attempts  int        `gorm:"not null;default:0" json:"attempts"`                            // failed deliveries so far
	LastError string     `gorm:"type:varchar(512)" json:"last_error,omitempty"`                 // truncated broker error
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

func (OutboxMessage) TableName() string {
	return "balance_outbox"
}
