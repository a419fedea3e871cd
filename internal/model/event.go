package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BalanceEventDebit  = "DEBIT"
	BalanceEventCredit = "CREDIT"
)

// BalanceEvent is the outbox payload published after every balance change.
type BalanceEvent struct {
	EventNo   string          `json:"event_no"`
	SubjectID string          `json:"subject_id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	SessionID string          `json:"session_id,omitempty"`
	At        time.Time       `json:"at"`
}
