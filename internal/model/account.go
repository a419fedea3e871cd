package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the credits balance of one identity-provider subject.
// Balance is never negative; deductions are checked before they are written.
type Account struct {
	SubjectID   string          `gorm:"primaryKey;type:varchar(128)" json:"subject_id"`       // issued by the identity provider
	FullName    string          `gorm:"type:varchar(64)" json:"full_name"`                    // HTML-escaped on registration
	Email       string          `gorm:"type:varchar(255);index" json:"email"`                 // lower-cased
	Country     string          `gorm:"type:varchar(64)" json:"country"`                      // HTML-escaped on registration
	IsVerified  bool            `gorm:"not null;default:false" json:"is_verified"`            // profile flag, not the token claim
	Balance     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // credits, never negative
	Version     int             `gorm:"not null;default:0" json:"-"`                          // optimistic lock
	LastUpdated time.Time       `json:"last_updated"`                                         // time of the last balance change
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Account) TableName() string {
	return "account"
}
