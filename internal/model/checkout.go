package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessedCheckout records a payment checkout session whose completion has
// already been credited. SessionID is unique, so a redelivered completion
// notification cannot credit the account twice.
type ProcessedCheckout struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID   string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"session_id"`
	SubjectID   string          `gorm:"type:varchar(128);index;not null" json:"subject_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	ProcessedAt time.Time       `gorm:"autoCreateTime" json:"processed_at"`
}

func (ProcessedCheckout) TableName() string {
	return "processed_checkout"
}
