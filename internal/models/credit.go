package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit ledger entry kinds. Entries are append-only; an account's balance
// is the sum of its entry amounts (debits are negative).
const (
	CreditEntryDailyBonus      = "daily_bonus"
	CreditEntryGenerationDebit = "generation_debit"
	CreditEntryRefund          = "refund"
)

// DailyBonusAmount is granted once per account per calendar day.
const DailyBonusAmount = 5

type CreditEntry struct {
	ID           uuid.UUID  `json:"id"`
	AccountID    uuid.UUID  `json:"account_id"`
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`
	Kind         string     `json:"kind"`
	Amount       int        `json:"amount"`
	BalanceAfter *int       `json:"balance_after,omitempty"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
}
